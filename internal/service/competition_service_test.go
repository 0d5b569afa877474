package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/survivorpool/lms-app/internal/league"
)

func TestCreateCompetition(t *testing.T) {
	env := newTestEnv(t)
	organiser := env.createUser("organiser")

	id, err := env.competitions.CreateCompetition(env.ctxFor(organiser), CompetitionInput{
		Name:           "Pub League LMS",
		LivesPerPlayer: 2,
		NoRepeatTeams:  true,
		TeamNames:      "Arsenal\n\nChelsea\n  arsenal  \nSpurs\n",
	})
	require.NoError(t, err)

	comp, err := env.compStore.GetCompetition(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, "pub-league-lms", comp.Slug)
	assert.Len(t, comp.InviteCode, 8)
	assert.Equal(t, league.CompetitionSetup, comp.Status)
	assert.Equal(t, organiser, comp.OwnerID)

	// Blank lines and case-insensitive duplicates are dropped.
	teams, err := env.compStore.GetTeams(context.Background(), id.String())
	require.NoError(t, err)
	assert.Len(t, teams, 3)

	// The organiser is a playing member from the start.
	member, err := env.compStore.GetMember(context.Background(), id.String(), organiser.String())
	require.NoError(t, err)
	assert.Equal(t, 2, member.LivesRemaining)
	assert.Equal(t, league.MemberActive, member.Status)
}

func TestJoinByInviteCode(t *testing.T) {
	env := newTestEnv(t)
	player := env.createUser("player")
	tc := env.createCompetition(3, fourTeams)

	joined, err := env.competitions.Join(env.ctxFor(player), tc.comp.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, tc.comp.ID, joined.ID)

	member := env.member(tc, player)
	assert.Equal(t, 3, member.LivesRemaining, "joiners start on the competition's configured lives")

	_, err = env.competitions.Join(env.ctxFor(player), tc.comp.InviteCode)
	assert.ErrorIs(t, err, league.ErrAlreadyJoined)

	_, err = env.competitions.Join(env.ctxFor(player), "NOPE1234")
	assert.ErrorIs(t, err, league.ErrInvalidInviteCode)
}

func TestJoinClosesWhenFirstRoundLocks(t *testing.T) {
	env := newTestEnv(t)
	early := env.createUser("early")
	late := env.createUser("late")
	tc := env.createCompetition(1, fourTeams)
	env.openRound(tc, [2]string{"Ashton Rovers", "Bexley Town"})

	// Round 1 is open: the door is still ajar.
	_, err := env.competitions.Join(env.ctxFor(early), tc.comp.InviteCode)
	require.NoError(t, err)

	env.clock.Advance(2 * time.Hour)
	_, err = env.competitions.Join(env.ctxFor(late), tc.comp.InviteCode)
	assert.ErrorIs(t, err, league.ErrJoinClosed)
}

func TestGetCompetitionData(t *testing.T) {
	env := newTestEnv(t)
	p1 := env.createUser("p1")
	p2 := env.createUser("p2")
	tc := env.createCompetition(1, fourTeams, p1, p2)
	round, fixtures := env.openRound(tc, [2]string{"Ashton Rovers", "Bexley Town"})

	_, err := env.picks.SubmitPick(context.Background(), p1, round.ID, fixtures[0].ID, tc.teams["Ashton Rovers"])
	require.NoError(t, err)

	env.clock.Advance(2 * time.Hour)
	require.NoError(t, env.rounds.SetFixtureResult(context.Background(), tc.organiser, fixtures[0].ID, league.HomeWin))
	_, err = env.rounds.ResolveRound(context.Background(), tc.organiser, round.ID)
	require.NoError(t, err)

	data, err := env.competitions.GetCompetitionData(context.Background(), tc.comp.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 3, data.TotalCount)
	assert.Equal(t, 1, data.ActiveCount, "only the winning picker survived round one")
	require.NotNil(t, data.CurrentRound)
	assert.Equal(t, round.ID, data.CurrentRound.ID)
	assert.Len(t, data.Fixtures, 1)
	assert.Len(t, data.Teams, 4)
	assert.Len(t, data.Standings, 3)

	for _, row := range data.Standings {
		require.Len(t, row.History, 1)
		if row.Member.UserID == p1 {
			assert.Equal(t, league.OutcomeWin, row.History[0].Outcome)
			assert.Equal(t, league.MemberActive, row.Member.Status)
		} else {
			assert.Equal(t, league.OutcomeLose, row.History[0].Outcome)
			assert.Equal(t, league.MemberEliminated, row.Member.Status)
		}
	}

	// p1 is the last one standing, so the judge already closed the books.
	assert.Equal(t, league.CompetitionComplete, data.Competition.Status)
	require.NotNil(t, data.Competition.WinnerUserID)
	assert.Equal(t, p1, *data.Competition.WinnerUserID)
}

func TestGetCompetitionsForUser(t *testing.T) {
	env := newTestEnv(t)
	player := env.createUser("player")
	tc := env.createCompetition(1, fourTeams, player)

	// A second competition the player never joined.
	other := env.createUser("other")
	_, err := env.competitions.CreateCompetition(env.ctxFor(other), CompetitionInput{Name: "Someone Else's", LivesPerPlayer: 1})
	require.NoError(t, err)

	mine, err := env.competitions.GetCompetitionsForUser(env.ctxFor(player))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, tc.comp.ID, mine[0].ID)

	bySlug, err := env.competitions.GetCompetitionBySlug(context.Background(), tc.comp.Slug)
	require.NoError(t, err)
	assert.Equal(t, tc.comp.ID, bySlug.ID)
}
