package league

import (
	"time"

	"github.com/google/uuid"
)

// DrawResult is the sentinel stored in fixtures.result when the match
// was drawn. Any other non-null value is the winning team's id.
const DrawResult = "draw"

// FixtureResult is how an organiser reports a result; it gets translated
// to the stored form (winning team id or the draw sentinel).
type FixtureResult string

const (
	HomeWin FixtureResult = "home"
	AwayWin FixtureResult = "away"
	Drawn   FixtureResult = "draw"
)

type Fixture struct {
	ID         uuid.UUID `db:"id"`
	RoundID    uuid.UUID `db:"round_id"`
	HomeTeamID uuid.UUID `db:"home_team_id"`
	AwayTeamID uuid.UUID `db:"away_team_id"`
	KickoffAt  time.Time `db:"kickoff_at"`
	Result     *string   `db:"result"`
}

func (f *Fixture) HasResult() bool {
	return f.Result != nil
}

func (f *Fixture) IsDraw() bool {
	return f.Result != nil && *f.Result == DrawResult
}

// WinnerTeamID returns the winning team, or false for a draw or an
// unresolved fixture.
func (f *Fixture) WinnerTeamID() (uuid.UUID, bool) {
	if f.Result == nil || *f.Result == DrawResult {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(*f.Result)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (f *Fixture) HasTeam(teamID uuid.UUID) bool {
	return f.HomeTeamID == teamID || f.AwayTeamID == teamID
}

// StoredResult translates an organiser-entered result into the value
// persisted on the fixture.
func (f *Fixture) StoredResult(result FixtureResult) (string, bool) {
	switch result {
	case HomeWin:
		return f.HomeTeamID.String(), true
	case AwayWin:
		return f.AwayTeamID.String(), true
	case Drawn:
		return DrawResult, true
	}
	return "", false
}
