package league

import (
	"time"

	"github.com/google/uuid"
)

type MemberStatus string

const (
	MemberActive     MemberStatus = "active"
	MemberEliminated MemberStatus = "eliminated"
)

type Member struct {
	CompetitionID  uuid.UUID    `db:"competition_id"`
	UserID         uuid.UUID    `db:"user_id"`
	LivesRemaining int          `db:"lives_remaining"`
	Status         MemberStatus `db:"status"`
	JoinedAt       time.Time    `db:"joined_at"`
}

// ApplyLoss burns one life, clamping at zero, and eliminates the member
// when no lives remain. Lives never increase within a competition.
func (m *Member) ApplyLoss() {
	if m.LivesRemaining > 0 {
		m.LivesRemaining--
	}
	if m.LivesRemaining == 0 {
		m.Status = MemberEliminated
	}
}

// RoundOutcome is the per-(round, player) record written when the life
// ledger applies a round to a member. Its presence is the fence that
// keeps a round from being applied to the same player twice, and it
// doubles as the player's outcome history for standings.
type RoundOutcome struct {
	RoundID        uuid.UUID `db:"round_id"`
	UserID         uuid.UUID `db:"user_id"`
	Outcome        Outcome   `db:"outcome"`
	LivesRemaining int       `db:"lives_remaining"`
	CreatedAt      time.Time `db:"created_at"`
}
