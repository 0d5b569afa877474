package league

import (
	"time"

	"github.com/google/uuid"
)

type CompetitionStatus string

const (
	CompetitionSetup    CompetitionStatus = "setup"
	CompetitionActive   CompetitionStatus = "active"
	CompetitionComplete CompetitionStatus = "complete"
)

// CompetitionResult is only set once the competition completes.
type CompetitionResult string

const (
	ResultWinner CompetitionResult = "winner"
	ResultDraw   CompetitionResult = "draw"
)

type Competition struct {
	ID             uuid.UUID          `db:"id"`
	OwnerID        uuid.UUID          `db:"owner_id"`
	Name           string             `db:"name"`
	Slug           string             `db:"slug"`
	InviteCode     string             `db:"invite_code"`
	Status         CompetitionStatus  `db:"status"`
	Result         *CompetitionResult `db:"result"`
	WinnerUserID   *uuid.UUID         `db:"winner_user_id"`
	LivesPerPlayer int                `db:"lives_per_player"`
	NoRepeatTeams  bool               `db:"no_repeat_teams"`
	CreatedAt      time.Time          `db:"created_at"`
}

func (c *Competition) IsOrganiser(userID uuid.UUID) bool {
	return c.OwnerID == userID
}

type Team struct {
	ID            uuid.UUID `db:"id"`
	CompetitionID uuid.UUID `db:"competition_id"`
	Name          string    `db:"name"`
}
