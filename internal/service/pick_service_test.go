package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/survivorpool/lms-app/internal/league"
)

func TestSubmitPickReplacesEarlierChoice(t *testing.T) {
	env := newTestEnv(t)
	player := env.createUser("player")
	tc := env.createCompetition(2, fourTeams, player)
	round, fixtures := env.openRound(tc,
		[2]string{"Ashton Rovers", "Bexley Town"},
		[2]string{"Croft United", "Denby Athletic"})

	_, err := env.picks.SubmitPick(context.Background(), player, round.ID, fixtures[0].ID, tc.teams["Ashton Rovers"])
	require.NoError(t, err)

	// Change of heart before lock, even to a different fixture.
	_, err = env.picks.SubmitPick(context.Background(), player, round.ID, fixtures[1].ID, tc.teams["Denby Athletic"])
	require.NoError(t, err)

	pick, err := env.picks.GetPickForRound(context.Background(), player, round.ID)
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, tc.teams["Denby Athletic"], pick.TeamID)
	assert.Equal(t, fixtures[1].ID, pick.FixtureID)

	var count int
	require.NoError(t, env.db.Get(&count, "SELECT COUNT(*) FROM picks WHERE round_id = ? AND user_id = ?", round.ID, player))
	assert.Equal(t, 1, count)
}

func TestSubmitPickRejectsLockedRound(t *testing.T) {
	env := newTestEnv(t)
	player := env.createUser("player")
	tc := env.createCompetition(2, fourTeams, player)
	round, fixtures := env.openRound(tc, [2]string{"Ashton Rovers", "Bexley Town"})

	env.clock.Advance(2 * time.Hour)

	_, err := env.picks.SubmitPick(context.Background(), player, round.ID, fixtures[0].ID, tc.teams["Ashton Rovers"])
	assert.ErrorIs(t, err, league.ErrRoundLocked)
}

func TestSubmitPickEnforcesNoRepeat(t *testing.T) {
	env := newTestEnv(t)
	player := env.createUser("player")
	tc := env.createCompetition(3, fourTeams, player)

	round1, fixtures1 := env.openRound(tc, [2]string{"Ashton Rovers", "Bexley Town"})
	_, err := env.picks.SubmitPick(context.Background(), player, round1.ID, fixtures1[0].ID, tc.teams["Ashton Rovers"])
	require.NoError(t, err)

	env.clock.Advance(2 * time.Hour)
	require.NoError(t, env.rounds.SetFixtureResult(context.Background(), tc.organiser, fixtures1[0].ID, league.HomeWin))
	_, err = env.rounds.ResolveRound(context.Background(), tc.organiser, round1.ID)
	require.NoError(t, err)

	round2, fixtures2 := env.openRound(tc, [2]string{"Ashton Rovers", "Croft United"})

	_, err = env.picks.SubmitPick(context.Background(), player, round2.ID, fixtures2[0].ID, tc.teams["Ashton Rovers"])
	assert.ErrorIs(t, err, league.ErrTeamAlreadyUsed, "a team is spent once picked in an earlier round")

	// The other side of the fixture is still available.
	_, err = env.picks.SubmitPick(context.Background(), player, round2.ID, fixtures2[0].ID, tc.teams["Croft United"])
	require.NoError(t, err)
}

func TestSubmitPickValidatesFixtureAndTeam(t *testing.T) {
	env := newTestEnv(t)
	player := env.createUser("player")
	tc := env.createCompetition(2, fourTeams, player)
	round, fixtures := env.openRound(tc, [2]string{"Ashton Rovers", "Bexley Town"})

	// A team that is not playing in the chosen fixture.
	_, err := env.picks.SubmitPick(context.Background(), player, round.ID, fixtures[0].ID, tc.teams["Croft United"])
	assert.ErrorIs(t, err, league.ErrInvalidFixture)
}

func TestSubmitPickRequiresActiveMembership(t *testing.T) {
	env := newTestEnv(t)
	player := env.createUser("player")
	p2 := env.createUser("p2")
	stranger := env.createUser("stranger")
	tc := env.createCompetition(1, fourTeams, player, p2)
	round1, fixtures1 := env.openRound(tc, [2]string{"Ashton Rovers", "Bexley Town"})

	_, err := env.picks.SubmitPick(context.Background(), stranger, round1.ID, fixtures1[0].ID, tc.teams["Ashton Rovers"])
	assert.ErrorIs(t, err, league.ErrNotParticipant)

	// Eliminate the player by sitting the round out while the other two
	// back the winner.
	for _, id := range []uuid.UUID{tc.organiser, p2} {
		_, err = env.picks.SubmitPick(context.Background(), id, round1.ID, fixtures1[0].ID, tc.teams["Ashton Rovers"])
		require.NoError(t, err)
	}
	env.clock.Advance(2 * time.Hour)
	require.NoError(t, env.rounds.SetFixtureResult(context.Background(), tc.organiser, fixtures1[0].ID, league.HomeWin))
	_, err = env.rounds.ResolveRound(context.Background(), tc.organiser, round1.ID)
	require.NoError(t, err)
	require.Equal(t, league.MemberEliminated, env.member(tc, player).Status)

	round2, fixtures2 := env.openRound(tc, [2]string{"Croft United", "Denby Athletic"})

	_, err = env.picks.SubmitPick(context.Background(), player, round2.ID, fixtures2[0].ID, tc.teams["Croft United"])
	assert.ErrorIs(t, err, league.ErrNotParticipant, "eliminated members are out of the game")
}

func TestSubmitPickRejectsStaleRound(t *testing.T) {
	env := newTestEnv(t)
	player := env.createUser("player")
	tc := env.createCompetition(3, fourTeams, player)

	round1, fixtures1 := env.openRound(tc, [2]string{"Ashton Rovers", "Bexley Town"})

	env.clock.Advance(2 * time.Hour)
	require.NoError(t, env.rounds.SetFixtureResult(context.Background(), tc.organiser, fixtures1[0].ID, league.Drawn))
	_, err := env.rounds.ResolveRound(context.Background(), tc.organiser, round1.ID)
	require.NoError(t, err)

	env.openRound(tc, [2]string{"Croft United", "Denby Athletic"})

	// Round 1 is history; picks only land on the current round.
	_, err = env.picks.SubmitPick(context.Background(), player, round1.ID, fixtures1[0].ID, tc.teams["Ashton Rovers"])
	assert.ErrorIs(t, err, league.ErrNotCurrentRound)
}
