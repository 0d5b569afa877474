package league

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/survivorpool/lms-app/internal/utils"
)

func TestPickClassify(t *testing.T) {
	home := uuid.New()
	away := uuid.New()
	fixture := &Fixture{ID: uuid.New(), HomeTeamID: home, AwayTeamID: away}

	pick := &Pick{FixtureID: fixture.ID, TeamID: home}

	_, ok := pick.Classify(fixture)
	assert.False(t, ok, "no result means no outcome yet")

	fixture.Result = utils.Ptr(home.String())
	outcome, ok := pick.Classify(fixture)
	assert.True(t, ok)
	assert.Equal(t, OutcomeWin, outcome)

	fixture.Result = utils.Ptr(away.String())
	outcome, _ = pick.Classify(fixture)
	assert.Equal(t, OutcomeLose, outcome)

	fixture.Result = utils.Ptr(DrawResult)
	outcome, _ = pick.Classify(fixture)
	assert.Equal(t, OutcomeDraw, outcome)
}

func TestEffectiveOutcome(t *testing.T) {
	assert.Equal(t, OutcomeLose, EffectiveOutcome(nil), "no pick counts as a loss")

	pending := &Pick{}
	assert.Equal(t, OutcomeLose, EffectiveOutcome(pending))

	win := OutcomeWin
	assert.Equal(t, OutcomeWin, EffectiveOutcome(&Pick{Outcome: &win}))

	draw := OutcomeDraw
	assert.Equal(t, OutcomeDraw, EffectiveOutcome(&Pick{Outcome: &draw}))
}

func TestMemberApplyLoss(t *testing.T) {
	member := &Member{LivesRemaining: 2, Status: MemberActive}

	member.ApplyLoss()
	assert.Equal(t, 1, member.LivesRemaining)
	assert.Equal(t, MemberActive, member.Status)

	member.ApplyLoss()
	assert.Equal(t, 0, member.LivesRemaining)
	assert.Equal(t, MemberEliminated, member.Status)

	// A member can never go negative, whatever happens.
	member.ApplyLoss()
	assert.Equal(t, 0, member.LivesRemaining)
	assert.Equal(t, MemberEliminated, member.Status)
}

func TestFixtureStoredResult(t *testing.T) {
	home := uuid.New()
	away := uuid.New()
	fixture := &Fixture{HomeTeamID: home, AwayTeamID: away}

	stored, ok := fixture.StoredResult(HomeWin)
	assert.True(t, ok)
	assert.Equal(t, home.String(), stored)

	stored, ok = fixture.StoredResult(AwayWin)
	assert.True(t, ok)
	assert.Equal(t, away.String(), stored)

	stored, ok = fixture.StoredResult(Drawn)
	assert.True(t, ok)
	assert.Equal(t, DrawResult, stored)

	_, ok = fixture.StoredResult("2-1")
	assert.False(t, ok)
}
