package league

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

type Pick struct {
	ID            uuid.UUID `db:"id"`
	CompetitionID uuid.UUID `db:"competition_id"`
	RoundID       uuid.UUID `db:"round_id"`
	UserID        uuid.UUID `db:"user_id"`
	FixtureID     uuid.UUID `db:"fixture_id"`
	TeamID        uuid.UUID `db:"team_id"`
	Outcome       *Outcome  `db:"outcome"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (p *Pick) IsResolved() bool {
	return p.Outcome != nil
}

// Classify computes the pick's outcome from its fixture's result.
// Returns false while the fixture has no result.
func (p *Pick) Classify(fixture *Fixture) (Outcome, bool) {
	if !fixture.HasResult() {
		return "", false
	}
	if fixture.IsDraw() {
		return OutcomeDraw, true
	}
	if winner, ok := fixture.WinnerTeamID(); ok && winner == p.TeamID {
		return OutcomeWin, true
	}
	return OutcomeLose, true
}

// EffectiveOutcome is the life ledger's named rule: a player with no pick
// for a round takes a loss.
func EffectiveOutcome(pick *Pick) Outcome {
	if pick == nil || pick.Outcome == nil {
		return OutcomeLose
	}
	return *pick.Outcome
}
