package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/survivorpool/lms-app/internal/league"
)

type RoundStore struct {
	db *sqlx.DB
}

func NewRoundStore(db *sqlx.DB) *RoundStore {
	return &RoundStore{db: db}
}

func (s *RoundStore) CreateRound(ctx context.Context, tx *sqlx.Tx, round *league.Round) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO rounds (id, competition_id, round_number, lock_at)
        VALUES (:id, :competition_id, :round_number, :lock_at)`, round)
	return err
}

func (s *RoundStore) GetRound(ctx context.Context, id string) (*league.Round, error) {
	var round league.Round
	err := s.db.GetContext(ctx, &round, "SELECT * FROM rounds WHERE id = ?", id)
	return &round, err
}

func (s *RoundStore) GetRoundTx(ctx context.Context, tx *sqlx.Tx, id string) (*league.Round, error) {
	var round league.Round
	err := tx.GetContext(ctx, &round, "SELECT * FROM rounds WHERE id = ?", id)
	return &round, err
}

// GetCurrentRound returns the round with the highest number, or nil when
// the competition has no rounds yet.
func (s *RoundStore) GetCurrentRound(ctx context.Context, competitionID string) (*league.Round, error) {
	var round league.Round
	err := s.db.GetContext(ctx, &round,
		"SELECT * FROM rounds WHERE competition_id = ? ORDER BY round_number DESC LIMIT 1", competitionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *RoundStore) GetCurrentRoundTx(ctx context.Context, tx *sqlx.Tx, competitionID string) (*league.Round, error) {
	var round league.Round
	err := tx.GetContext(ctx, &round,
		"SELECT * FROM rounds WHERE competition_id = ? ORDER BY round_number DESC LIMIT 1", competitionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *RoundStore) GetRounds(ctx context.Context, competitionID string) ([]league.Round, error) {
	var rounds []league.Round
	err := s.db.SelectContext(ctx, &rounds,
		"SELECT * FROM rounds WHERE competition_id = ? ORDER BY round_number ASC", competitionID)
	return rounds, err
}

// GetDueRounds returns each active competition's current round whose
// lock time has passed, for the resolve sweep.
func (s *RoundStore) GetDueRounds(ctx context.Context, now time.Time) ([]league.Round, error) {
	var rounds []league.Round
	err := s.db.SelectContext(ctx, &rounds, `SELECT r.* FROM rounds r
        JOIN competitions c ON c.id = r.competition_id
        WHERE c.status = ? AND r.lock_at <= ?
        AND r.round_number = (SELECT MAX(r2.round_number) FROM rounds r2 WHERE r2.competition_id = r.competition_id)`,
		league.CompetitionActive, now)
	return rounds, err
}

func (s *RoundStore) UpdateLockTimeTx(ctx context.Context, tx *sqlx.Tx, roundID string, lockAt time.Time) error {
	_, err := tx.ExecContext(ctx, "UPDATE rounds SET lock_at = ? WHERE id = ?", lockAt, roundID)
	return err
}

func (s *RoundStore) CreateFixture(ctx context.Context, tx *sqlx.Tx, fixture *league.Fixture) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO fixtures (id, round_id, home_team_id, away_team_id, kickoff_at)
        VALUES (:id, :round_id, :home_team_id, :away_team_id, :kickoff_at)`, fixture)
	return err
}

func (s *RoundStore) GetFixture(ctx context.Context, id string) (*league.Fixture, error) {
	var fixture league.Fixture
	err := s.db.GetContext(ctx, &fixture, "SELECT * FROM fixtures WHERE id = ?", id)
	return &fixture, err
}

func (s *RoundStore) GetFixtureTx(ctx context.Context, tx *sqlx.Tx, id string) (*league.Fixture, error) {
	var fixture league.Fixture
	err := tx.GetContext(ctx, &fixture, "SELECT * FROM fixtures WHERE id = ?", id)
	return &fixture, err
}

func (s *RoundStore) GetFixtures(ctx context.Context, roundID string) ([]league.Fixture, error) {
	var fixtures []league.Fixture
	err := s.db.SelectContext(ctx, &fixtures, "SELECT * FROM fixtures WHERE round_id = ? ORDER BY kickoff_at ASC", roundID)
	return fixtures, err
}

func (s *RoundStore) SetFixtureResultTx(ctx context.Context, tx *sqlx.Tx, fixtureID string, result string) error {
	_, err := tx.ExecContext(ctx, "UPDATE fixtures SET result = ? WHERE id = ?", result, fixtureID)
	return err
}

// CountResolvedPicksForFixtureTx reports how many picks on this fixture
// already carry an outcome. A non-zero count freezes the result.
func (s *RoundStore) CountResolvedPicksForFixtureTx(ctx context.Context, tx *sqlx.Tx, fixtureID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM picks WHERE fixture_id = ? AND outcome IS NOT NULL", fixtureID)
	return count, err
}

// UpsertPickTx replaces the player's pick for the round if one exists.
// The UNIQUE(round_id, user_id) index makes double-submits collapse into
// a single row regardless of interleaving.
func (s *RoundStore) UpsertPickTx(ctx context.Context, tx *sqlx.Tx, pick *league.Pick) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO picks (id, competition_id, round_id, user_id, fixture_id, team_id, updated_at)
        VALUES (:id, :competition_id, :round_id, :user_id, :fixture_id, :team_id, CURRENT_TIMESTAMP)
        ON CONFLICT (round_id, user_id) DO UPDATE SET
            fixture_id = excluded.fixture_id,
            team_id = excluded.team_id,
            updated_at = CURRENT_TIMESTAMP`, pick)
	return err
}

func (s *RoundStore) GetPick(ctx context.Context, roundID, userID string) (*league.Pick, error) {
	var pick league.Pick
	err := s.db.GetContext(ctx, &pick, "SELECT * FROM picks WHERE round_id = ? AND user_id = ?", roundID, userID)
	return &pick, err
}

func (s *RoundStore) GetPicksForRoundTx(ctx context.Context, tx *sqlx.Tx, roundID string) ([]league.Pick, error) {
	var picks []league.Pick
	err := tx.SelectContext(ctx, &picks, "SELECT * FROM picks WHERE round_id = ?", roundID)
	return picks, err
}

// UnresolvedPick joins a pending pick to its fixture's result for the
// outcome resolver.
type UnresolvedPick struct {
	league.Pick
	FixtureResult *string `db:"fixture_result"`
}

// GetUnresolvedPicksTx selects only picks with a null outcome whose
// fixture already has a result. Selecting the unresolved subset is what
// makes re-running resolution safe.
func (s *RoundStore) GetUnresolvedPicksTx(ctx context.Context, tx *sqlx.Tx, roundID string) ([]UnresolvedPick, error) {
	var picks []UnresolvedPick
	err := tx.SelectContext(ctx, &picks, `SELECT p.*, f.result AS fixture_result
        FROM picks p
        JOIN fixtures f ON f.id = p.fixture_id
        WHERE p.round_id = ? AND p.outcome IS NULL AND f.result IS NOT NULL`, roundID)
	return picks, err
}

// SetPickOutcomeTx writes an outcome only onto a still-unresolved pick.
func (s *RoundStore) SetPickOutcomeTx(ctx context.Context, tx *sqlx.Tx, pickID string, outcome league.Outcome) error {
	_, err := tx.ExecContext(ctx, "UPDATE picks SET outcome = ? WHERE id = ? AND outcome IS NULL", outcome, pickID)
	return err
}

// CountResolvedOutcomesTx counts scored picks in a round. Any non-zero
// count freezes the round's lock time.
func (s *RoundStore) CountResolvedOutcomesTx(ctx context.Context, tx *sqlx.Tx, roundID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM picks WHERE round_id = ? AND outcome IS NOT NULL", roundID)
	return count, err
}

// HasTeamBeenPickedTx checks the no-repeat rule across every other round
// of the competition. The current round is excluded so a player can
// re-submit their existing choice.
func (s *RoundStore) HasTeamBeenPickedTx(ctx context.Context, tx *sqlx.Tx, competitionID, userID, teamID, excludeRoundID string) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM picks
        WHERE competition_id = ? AND user_id = ? AND team_id = ? AND round_id != ?`,
		competitionID, userID, teamID, excludeRoundID)
	return count > 0, err
}

func (s *RoundStore) CreateRoundOutcomeTx(ctx context.Context, tx *sqlx.Tx, outcome *league.RoundOutcome) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO round_outcomes (round_id, user_id, outcome, lives_remaining)
        VALUES (:round_id, :user_id, :outcome, :lives_remaining)`, outcome)
	return err
}

func (s *RoundStore) GetRoundOutcomesTx(ctx context.Context, tx *sqlx.Tx, roundID string) ([]league.RoundOutcome, error) {
	var outcomes []league.RoundOutcome
	err := tx.SelectContext(ctx, &outcomes, "SELECT * FROM round_outcomes WHERE round_id = ?", roundID)
	return outcomes, err
}

// OutcomeHistoryRow carries a player's outcome for one round, for standings.
type OutcomeHistoryRow struct {
	RoundNumber    int            `db:"round_number"`
	Outcome        league.Outcome `db:"outcome"`
	LivesRemaining int            `db:"lives_remaining"`
}

func (s *RoundStore) GetOutcomeHistory(ctx context.Context, competitionID, userID string) ([]OutcomeHistoryRow, error) {
	var rows []OutcomeHistoryRow
	err := s.db.SelectContext(ctx, &rows, `SELECT r.round_number, ro.outcome, ro.lives_remaining
        FROM round_outcomes ro
        JOIN rounds r ON r.id = ro.round_id
        WHERE r.competition_id = ? AND ro.user_id = ?
        ORDER BY r.round_number ASC`, competitionID, userID)
	return rows, err
}

// CountActiveMembersWithoutOutcomeTx tells the progression judge whether
// the round has been applied to every still-active player. A player whose
// pick is still pending has no round_outcomes row and keeps the round open.
func (s *RoundStore) CountActiveMembersWithoutOutcomeTx(ctx context.Context, tx *sqlx.Tx, competitionID, roundID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM members m
        WHERE m.competition_id = ? AND m.status = ?
        AND NOT EXISTS (SELECT 1 FROM round_outcomes ro WHERE ro.round_id = ? AND ro.user_id = m.user_id)`,
		competitionID, league.MemberActive, roundID)
	return count, err
}
