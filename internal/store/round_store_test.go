package store

import (
	"context"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/survivorpool/lms-app/internal/league"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type fixtureSet struct {
	userID    uuid.UUID
	compID    uuid.UUID
	roundID   uuid.UUID
	homeID    uuid.UUID
	awayID    uuid.UUID
	fixtureID uuid.UUID
}

// seedRound inserts a user, competition, membership, round, two teams and
// one fixture, ready for pick-level tests.
func seedRound(t *testing.T, db *sqlx.DB) fixtureSet {
	t.Helper()
	ctx := context.Background()

	fs := fixtureSet{
		userID:    uuid.New(),
		compID:    uuid.New(),
		roundID:   uuid.New(),
		homeID:    uuid.New(),
		awayID:    uuid.New(),
		fixtureID: uuid.New(),
	}

	_, err := db.ExecContext(ctx, "INSERT INTO users (id, email, username) VALUES (?, ?, ?)",
		fs.userID, "p1@example.com", "Player One")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO competitions (id, owner_id, name, slug, invite_code, status, lives_per_player, no_repeat_teams)
        VALUES (?, ?, 'Test League', 'test-league', ?, 'active', 1, 1)`, fs.compID, fs.userID, uuid.NewString()[:8])
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO members (competition_id, user_id, lives_remaining, status) VALUES (?, ?, 1, 'active')",
		fs.compID, fs.userID)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO rounds (id, competition_id, round_number, lock_at) VALUES (?, ?, 1, ?)",
		fs.roundID, fs.compID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	for id, name := range map[uuid.UUID]string{fs.homeID: "Home FC", fs.awayID: "Away FC"} {
		_, err = db.ExecContext(ctx, "INSERT INTO teams (id, competition_id, name) VALUES (?, ?, ?)", id, fs.compID, name)
		require.NoError(t, err)
	}

	_, err = db.ExecContext(ctx, "INSERT INTO fixtures (id, round_id, home_team_id, away_team_id, kickoff_at) VALUES (?, ?, ?, ?, ?)",
		fs.fixtureID, fs.roundID, fs.homeID, fs.awayID, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)

	return fs
}

func TestUpsertPickReplacesExistingChoice(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	fs := seedRound(t, db)
	store := NewRoundStore(db)
	ctx := context.Background()

	submit := func(teamID uuid.UUID) {
		tx, err := db.BeginTxx(ctx, nil)
		require.NoError(t, err)
		err = store.UpsertPickTx(ctx, tx, &league.Pick{
			ID:            uuid.New(),
			CompetitionID: fs.compID,
			RoundID:       fs.roundID,
			UserID:        fs.userID,
			FixtureID:     fs.fixtureID,
			TeamID:        teamID,
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	}

	submit(fs.homeID)
	submit(fs.awayID)

	var picks []league.Pick
	err := db.Select(&picks, "SELECT * FROM picks WHERE round_id = ? AND user_id = ?", fs.roundID, fs.userID)
	require.NoError(t, err)

	require.Len(t, picks, 1, "a double submit must collapse into a single pick row")
	assert.Equal(t, fs.awayID, picks[0].TeamID, "the later submit wins")
	assert.Nil(t, picks[0].Outcome)
}

func TestGetUnresolvedPicksSkipsResultlessFixtures(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	fs := seedRound(t, db)
	store := NewRoundStore(db)
	ctx := context.Background()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpsertPickTx(ctx, tx, &league.Pick{
		ID: uuid.New(), CompetitionID: fs.compID, RoundID: fs.roundID,
		UserID: fs.userID, FixtureID: fs.fixtureID, TeamID: fs.homeID,
	}))
	require.NoError(t, tx.Commit())

	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	unresolved, err := store.GetUnresolvedPicksTx(ctx, tx, fs.roundID.String())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Empty(t, unresolved, "fixture has no result yet")

	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.SetFixtureResultTx(ctx, tx, fs.fixtureID.String(), fs.awayID.String()))
	unresolved, err = store.GetUnresolvedPicksTx(ctx, tx, fs.roundID.String())
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, fs.awayID.String(), *unresolved[0].FixtureResult)
	require.NoError(t, tx.Commit())
}

func TestSetPickOutcomeOnlyTouchesUnresolvedRows(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	fs := seedRound(t, db)
	store := NewRoundStore(db)
	ctx := context.Background()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	pick := &league.Pick{
		ID: uuid.New(), CompetitionID: fs.compID, RoundID: fs.roundID,
		UserID: fs.userID, FixtureID: fs.fixtureID, TeamID: fs.homeID,
	}
	require.NoError(t, store.UpsertPickTx(ctx, tx, pick))
	require.NoError(t, store.SetPickOutcomeTx(ctx, tx, pick.ID.String(), league.OutcomeLose))
	// A second write must not re-score the pick.
	require.NoError(t, store.SetPickOutcomeTx(ctx, tx, pick.ID.String(), league.OutcomeWin))
	require.NoError(t, tx.Commit())

	stored, err := store.GetPick(ctx, fs.roundID.String(), fs.userID.String())
	require.NoError(t, err)
	require.NotNil(t, stored.Outcome)
	assert.Equal(t, league.OutcomeLose, *stored.Outcome)
}

func TestHasTeamBeenPickedExcludesCurrentRound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	fs := seedRound(t, db)
	store := NewRoundStore(db)
	ctx := context.Background()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpsertPickTx(ctx, tx, &league.Pick{
		ID: uuid.New(), CompetitionID: fs.compID, RoundID: fs.roundID,
		UserID: fs.userID, FixtureID: fs.fixtureID, TeamID: fs.homeID,
	}))

	// Re-submitting the same team within the same round is allowed.
	used, err := store.HasTeamBeenPickedTx(ctx, tx, fs.compID.String(), fs.userID.String(), fs.homeID.String(), fs.roundID.String())
	require.NoError(t, err)
	assert.False(t, used)

	// A later round sees the team as consumed.
	otherRound := uuid.New()
	used, err = store.HasTeamBeenPickedTx(ctx, tx, fs.compID.String(), fs.userID.String(), fs.homeID.String(), otherRound.String())
	require.NoError(t, err)
	assert.True(t, used)
	require.NoError(t, tx.Commit())
}
