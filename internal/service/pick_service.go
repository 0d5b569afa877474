package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/survivorpool/lms-app/internal/league"
	"github.com/survivorpool/lms-app/internal/store"
)

// PickService is the pick ledger: one pick per player per round,
// validated against the lock gate, the fixture list and the no-repeat
// rule. It never touches lives or member status.
type PickService struct {
	db           *sqlx.DB
	rounds       *store.RoundStore
	competitions *store.CompetitionStore
	clock        clockwork.Clock
}

func NewPickService(db *sqlx.DB, roundStore *store.RoundStore, compStore *store.CompetitionStore, clock clockwork.Clock) *PickService {
	return &PickService{db: db, rounds: roundStore, competitions: compStore, clock: clock}
}

// SubmitPick upserts the player's single pick for the round. Submitting
// again before lock replaces the previous choice outright.
func (s *PickService) SubmitPick(ctx context.Context, userID uuid.UUID, roundID, fixtureID, teamID uuid.UUID) (*league.Pick, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round, err := s.rounds.GetRoundTx(ctx, tx, roundID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}

	competition, err := s.competitions.GetCompetitionTx(ctx, tx, round.CompetitionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if competition.Status == league.CompetitionComplete {
		return nil, league.ErrCompetitionComplete
	}

	member, err := s.competitions.GetMemberTx(ctx, tx, competition.ID.String(), userID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, league.ErrNotParticipant
		}
		return nil, err
	}
	if member.Status != league.MemberActive {
		return nil, league.ErrNotParticipant
	}

	current, err := s.rounds.GetCurrentRoundTx(ctx, tx, competition.ID.String())
	if err != nil {
		return nil, err
	}
	if current == nil || current.ID != round.ID {
		return nil, league.ErrNotCurrentRound
	}

	if round.IsLocked(s.clock.Now()) {
		return nil, league.ErrRoundLocked
	}

	fixture, err := s.rounds.GetFixtureTx(ctx, tx, fixtureID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, league.ErrInvalidFixture
		}
		return nil, err
	}
	if fixture.RoundID != round.ID || !fixture.HasTeam(teamID) {
		return nil, league.ErrInvalidFixture
	}

	if competition.NoRepeatTeams {
		used, err := s.rounds.HasTeamBeenPickedTx(ctx, tx, competition.ID.String(), userID.String(), teamID.String(), round.ID.String())
		if err != nil {
			return nil, err
		}
		if used {
			return nil, league.ErrTeamAlreadyUsed
		}
	}

	pick := &league.Pick{
		ID:            uuid.New(),
		CompetitionID: competition.ID,
		RoundID:       round.ID,
		UserID:        userID,
		FixtureID:     fixture.ID,
		TeamID:        teamID,
	}
	if err := s.rounds.UpsertPickTx(ctx, tx, pick); err != nil {
		return nil, fmt.Errorf("failed to save pick: %w", err)
	}

	return pick, tx.Commit()
}

// GetPickForRound returns the player's current pick, or nil if they have
// not picked yet.
func (s *PickService) GetPickForRound(ctx context.Context, userID uuid.UUID, roundID uuid.UUID) (*league.Pick, error) {
	pick, err := s.rounds.GetPick(ctx, roundID.String(), userID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pick, nil
}
