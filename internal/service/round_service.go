package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/survivorpool/lms-app/internal/league"
	"github.com/survivorpool/lms-app/internal/store"
)

// RoundService owns the round lifecycle: creation, lock-time edits,
// fixtures, result entry and the resolve step that turns results into
// outcomes, lives and (eventually) a completed competition.
type RoundService struct {
	db           *sqlx.DB
	rounds       *store.RoundStore
	competitions *store.CompetitionStore
	clock        clockwork.Clock
}

func NewRoundService(db *sqlx.DB, roundStore *store.RoundStore, compStore *store.CompetitionStore, clock clockwork.Clock) *RoundService {
	return &RoundService{db: db, rounds: roundStore, competitions: compStore, clock: clock}
}

// CreateRound opens the next round. The previous round must have been
// applied to every active player first; rounds are strictly sequential.
// Creating the first round moves the competition out of setup.
func (s *RoundService) CreateRound(ctx context.Context, userID uuid.UUID, competitionID uuid.UUID, lockAt time.Time) (*league.Round, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	competition, err := s.competitions.GetCompetitionTx(ctx, tx, competitionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if !competition.IsOrganiser(userID) {
		return nil, league.ErrNotOrganiser
	}
	if competition.Status == league.CompetitionComplete {
		return nil, league.ErrCompetitionComplete
	}
	if !lockAt.After(s.clock.Now()) {
		return nil, league.ErrLockTimeInPast
	}

	roundNumber := 1
	current, err := s.rounds.GetCurrentRoundTx(ctx, tx, competitionID.String())
	if err != nil {
		return nil, err
	}
	if current != nil {
		unapplied, err := s.rounds.CountActiveMembersWithoutOutcomeTx(ctx, tx, competitionID.String(), current.ID.String())
		if err != nil {
			return nil, err
		}
		if unapplied > 0 {
			return nil, league.ErrRoundUnapplied
		}
		roundNumber = current.RoundNumber + 1
	}

	round := &league.Round{
		ID:            uuid.New(),
		CompetitionID: competitionID,
		RoundNumber:   roundNumber,
		LockAt:        lockAt.UTC(),
	}
	if err := s.rounds.CreateRound(ctx, tx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	if competition.Status == league.CompetitionSetup {
		if err := s.competitions.UpdateCompetitionStatusTx(ctx, tx, competitionID.String(), league.CompetitionActive); err != nil {
			return nil, err
		}
	}

	return round, tx.Commit()
}

// UpdateLockTime moves a round's lock forwards or backwards. Once any
// outcome has been resolved for the round the lock time is frozen, so a
// scored round can never be reopened.
func (s *RoundService) UpdateLockTime(ctx context.Context, userID uuid.UUID, roundID uuid.UUID, lockAt time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	round, err := s.rounds.GetRoundTx(ctx, tx, roundID.String())
	if err != nil {
		return fmt.Errorf("failed to get round: %w", err)
	}
	competition, err := s.competitions.GetCompetitionTx(ctx, tx, round.CompetitionID.String())
	if err != nil {
		return err
	}
	if !competition.IsOrganiser(userID) {
		return league.ErrNotOrganiser
	}

	resolved, err := s.rounds.CountResolvedOutcomesTx(ctx, tx, roundID.String())
	if err != nil {
		return err
	}
	applied, err := s.rounds.GetRoundOutcomesTx(ctx, tx, roundID.String())
	if err != nil {
		return err
	}
	if resolved > 0 || len(applied) > 0 {
		return league.ErrLockTimeFrozen
	}

	if err := s.rounds.UpdateLockTimeTx(ctx, tx, roundID.String(), lockAt.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateFixture adds a match to an open round. Both teams must come from
// the competition's team list.
func (s *RoundService) CreateFixture(ctx context.Context, userID uuid.UUID, roundID uuid.UUID, homeTeamID, awayTeamID uuid.UUID, kickoffAt time.Time) (*league.Fixture, error) {
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
		return nil, err
	}
	if !competition.IsOrganiser(userID) {
		return nil, league.ErrNotOrganiser
	}
	if round.IsLocked(s.clock.Now()) {
		return nil, league.ErrRoundLocked
	}
	if homeTeamID == awayTeamID {
		return nil, league.ErrInvalidFixture
	}

	for _, teamID := range []uuid.UUID{homeTeamID, awayTeamID} {
		team, err := s.competitions.GetTeam(ctx, teamID.String())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, league.ErrTeamNotInCompetition
			}
			return nil, err
		}
		if team.CompetitionID != competition.ID {
			return nil, league.ErrTeamNotInCompetition
		}
	}

	fixture := &league.Fixture{
		ID:         uuid.New(),
		RoundID:    round.ID,
		HomeTeamID: homeTeamID,
		AwayTeamID: awayTeamID,
		KickoffAt:  kickoffAt.UTC(),
	}
	if err := s.rounds.CreateFixture(ctx, tx, fixture); err != nil {
		return nil, fmt.Errorf("failed to create fixture: %w", err)
	}

	return fixture, tx.Commit()
}

// SetFixtureResult records home/away/draw against a fixture once its
// round has locked. The result stays correctable until a pick has been
// resolved against it; after that it is frozen for good.
func (s *RoundService) SetFixtureResult(ctx context.Context, userID uuid.UUID, fixtureID uuid.UUID, result league.FixtureResult) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fixture, err := s.rounds.GetFixtureTx(ctx, tx, fixtureID.String())
	if err != nil {
		return fmt.Errorf("failed to get fixture: %w", err)
	}
	round, err := s.rounds.GetRoundTx(ctx, tx, fixture.RoundID.String())
	if err != nil {
		return err
	}
	competition, err := s.competitions.GetCompetitionTx(ctx, tx, round.CompetitionID.String())
	if err != nil {
		return err
	}
	if !competition.IsOrganiser(userID) {
		return league.ErrNotOrganiser
	}
	if !round.IsLocked(s.clock.Now()) {
		return league.ErrRoundNotLocked
	}

	resolved, err := s.rounds.CountResolvedPicksForFixtureTx(ctx, tx, fixtureID.String())
	if err != nil {
		return err
	}
	if resolved > 0 {
		return league.ErrResultFrozen
	}

	stored, ok := fixture.StoredResult(result)
	if !ok {
		return league.ErrInvalidResult
	}
	if err := s.rounds.SetFixtureResultTx(ctx, tx, fixtureID.String(), stored); err != nil {
		return err
	}
	return tx.Commit()
}

// ResolveSummary reports what one resolve pass did.
type ResolveSummary struct {
	Wins           int
	Losses         int
	Draws          int
	SkippedPending int
	Applied        int
	Eliminated     int
	// Result is set when the progression judge completed the competition.
	Result *league.CompetitionResult
}

// ResolveRound is the organiser-triggered resolve.
func (s *RoundService) ResolveRound(ctx context.Context, userID uuid.UUID, roundID uuid.UUID) (*ResolveSummary, error) {
	round, err := s.rounds.GetRound(ctx, roundID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	competition, err := s.competitions.GetCompetition(ctx, round.CompetitionID.String())
	if err != nil {
		return nil, err
	}
	if !competition.IsOrganiser(userID) {
		return nil, league.ErrNotOrganiser
	}
	return s.resolve(ctx, roundID.String())
}

// resolve runs the outcome resolver, the life ledger and the progression
// judge in one transaction. Every step only touches rows that have not
// been processed yet, so the whole thing can be re-run at any time:
// a full re-run of a settled round changes nothing.
func (s *RoundService) resolve(ctx context.Context, roundID string) (*ResolveSummary, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round, err := s.rounds.GetRoundTx(ctx, tx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	competition, err := s.competitions.GetCompetitionTx(ctx, tx, round.CompetitionID.String())
	if err != nil {
		return nil, err
	}

	summary := &ResolveSummary{}
	if competition.Status == league.CompetitionComplete {
		// Nothing left to do; resolving a finished competition is a no-op.
		return summary, nil
	}
	if !round.IsLocked(s.clock.Now()) {
		return nil, league.ErrRoundNotLocked
	}

	// Outcome resolver: score the unresolved picks whose fixture has a
	// result. Picks on resultless fixtures stay pending for a later pass.
	unresolved, err := s.rounds.GetUnresolvedPicksTx(ctx, tx, roundID)
	if err != nil {
		return nil, err
	}
	for _, up := range unresolved {
		var outcome league.Outcome
		switch {
		case *up.FixtureResult == league.DrawResult:
			outcome = league.OutcomeDraw
		case *up.FixtureResult == up.TeamID.String():
			outcome = league.OutcomeWin
		default:
			outcome = league.OutcomeLose
		}
		if err := s.rounds.SetPickOutcomeTx(ctx, tx, up.ID.String(), outcome); err != nil {
			return nil, fmt.Errorf("failed to set pick outcome: %w", err)
		}
		switch outcome {
		case league.OutcomeWin:
			summary.Wins++
		case league.OutcomeLose:
			summary.Losses++
		case league.OutcomeDraw:
			summary.Draws++
		}
	}

	// Life ledger: apply each active member's effective outcome exactly
	// once. No pick counts as a loss. A member whose pick is still
	// pending is skipped, and a member who already has a round_outcomes
	// row was applied by an earlier pass.
	members, err := s.competitions.GetActiveMembersTx(ctx, tx, competition.ID.String())
	if err != nil {
		return nil, err
	}
	appliedRows, err := s.rounds.GetRoundOutcomesTx(ctx, tx, roundID)
	if err != nil {
		return nil, err
	}
	applied := make(map[uuid.UUID]bool, len(appliedRows))
	for _, row := range appliedRows {
		applied[row.UserID] = true
	}
	picks, err := s.rounds.GetPicksForRoundTx(ctx, tx, roundID)
	if err != nil {
		return nil, err
	}
	pickByUser := make(map[uuid.UUID]*league.Pick, len(picks))
	for i := range picks {
		pickByUser[picks[i].UserID] = &picks[i]
	}

	for i := range members {
		member := &members[i]
		if applied[member.UserID] {
			continue
		}
		pick := pickByUser[member.UserID]
		if pick != nil && !pick.IsResolved() {
			summary.SkippedPending++
			continue
		}

		outcome := league.EffectiveOutcome(pick)
		if outcome == league.OutcomeLose {
			member.ApplyLoss()
			if err := s.competitions.UpdateMemberTx(ctx, tx, member); err != nil {
				return nil, fmt.Errorf("failed to update member: %w", err)
			}
			if member.Status == league.MemberEliminated {
				summary.Eliminated++
			}
		}

		if err := s.rounds.CreateRoundOutcomeTx(ctx, tx, &league.RoundOutcome{
			RoundID:        round.ID,
			UserID:         member.UserID,
			Outcome:        outcome,
			LivesRemaining: member.LivesRemaining,
		}); err != nil {
			return nil, fmt.Errorf("failed to record round outcome: %w", err)
		}
		summary.Applied++
	}

	// Progression judge: only once the round has been applied to every
	// still-active member. One survivor wins; none is a shared draw.
	unapplied, err := s.rounds.CountActiveMembersWithoutOutcomeTx(ctx, tx, competition.ID.String(), roundID)
	if err != nil {
		return nil, err
	}
	if unapplied == 0 {
		active, err := s.competitions.GetActiveMembersTx(ctx, tx, competition.ID.String())
		if err != nil {
			return nil, err
		}
		switch len(active) {
		case 1:
			winnerID := active[0].UserID
			if err := s.competitions.CompleteCompetitionTx(ctx, tx, competition.ID.String(), league.ResultWinner, &winnerID); err != nil {
				return nil, err
			}
			result := league.ResultWinner
			summary.Result = &result
		case 0:
			if err := s.competitions.CompleteCompetitionTx(ctx, tx, competition.ID.String(), league.ResultDraw, nil); err != nil {
				return nil, err
			}
			result := league.ResultDraw
			summary.Result = &result
		}
	}

	return summary, tx.Commit()
}

// ResolveDueRounds resolves the current round of every active
// competition whose lock time has passed. The sweep leans on resolve
// being idempotent, so overlapping with an organiser's manual resolve is
// harmless.
func (s *RoundService) ResolveDueRounds(ctx context.Context) error {
	due, err := s.rounds.GetDueRounds(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	var firstErr error
	for _, round := range due {
		if _, err := s.resolve(ctx, round.ID.String()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
