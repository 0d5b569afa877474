package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/survivorpool/lms-app/internal/league"
	"github.com/survivorpool/lms-app/internal/middleware"
	"github.com/survivorpool/lms-app/internal/store"
)

type CompetitionService struct {
	db     *sqlx.DB
	store  *store.CompetitionStore
	rounds *store.RoundStore
	users  *store.UserStore
	clock  clockwork.Clock
}

func NewCompetitionService(db *sqlx.DB, compStore *store.CompetitionStore, roundStore *store.RoundStore, userStore *store.UserStore, clock clockwork.Clock) *CompetitionService {
	return &CompetitionService{db: db, store: compStore, rounds: roundStore, users: userStore, clock: clock}
}

type CompetitionInput struct {
	Name           string
	LivesPerPlayer int
	NoRepeatTeams  bool
	TeamNames      string
}

func (s *CompetitionService) CreateCompetition(ctx context.Context, input CompetitionInput) (uuid.UUID, error) {
	ownerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, fmt.Errorf("user ID not found in the context")
	}

	if input.LivesPerPlayer < 1 {
		input.LivesPerPlayer = 1
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	competitionID := uuid.New()
	competition := league.Competition{
		ID:             competitionID,
		OwnerID:        ownerID,
		Name:           input.Name,
		Slug:           slug.Make(input.Name),
		InviteCode:     newInviteCode(),
		Status:         league.CompetitionSetup,
		LivesPerPlayer: input.LivesPerPlayer,
		NoRepeatTeams:  input.NoRepeatTeams,
	}

	if err := s.store.CreateCompetition(ctx, tx, &competition); err != nil {
		return uuid.Nil, err
	}

	// The organiser plays too.
	owner := league.Member{
		CompetitionID:  competitionID,
		UserID:         ownerID,
		LivesRemaining: input.LivesPerPlayer,
		Status:         league.MemberActive,
	}
	if err := s.store.CreateMember(ctx, tx, &owner); err != nil {
		return uuid.Nil, err
	}

	teams := ParseTeamNames(competitionID, input.TeamNames)
	if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
		return uuid.Nil, err
	}

	return competitionID, tx.Commit()
}

// ParseTeamNames turns a one-name-per-line textarea into a team list,
// skipping blank lines and duplicates.
func ParseTeamNames(competitionID uuid.UUID, raw string) []league.Team {
	var teams []league.Team
	seen := make(map[string]bool)
	for _, line := range strings.Split(raw, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		teams = append(teams, league.Team{
			ID:            uuid.New(),
			CompetitionID: competitionID,
			Name:          name,
		})
	}
	return teams
}

func (s *CompetitionService) AddTeams(ctx context.Context, competitionID string, raw string) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return fmt.Errorf("user ID not found in the context")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	competition, err := s.store.GetCompetitionTx(ctx, tx, competitionID)
	if err != nil {
		return err
	}
	if !competition.IsOrganiser(userID) {
		return league.ErrNotOrganiser
	}
	if competition.Status == league.CompetitionComplete {
		return league.ErrCompetitionComplete
	}

	teams := ParseTeamNames(competition.ID, raw)
	if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
		return err
	}

	return tx.Commit()
}

// Join creates a membership from an invite code. Joining closes once the
// first round locks: from then on every round played counts against
// every member.
func (s *CompetitionService) Join(ctx context.Context, code string) (*league.Competition, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}

	competition, err := s.store.GetCompetitionByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, league.ErrInvalidInviteCode
		}
		return nil, err
	}
	if competition.Status == league.CompetitionComplete {
		return nil, league.ErrJoinClosed
	}

	current, err := s.rounds.GetCurrentRound(ctx, competition.ID.String())
	if err != nil {
		return nil, err
	}
	if current != nil && (current.RoundNumber > 1 || current.IsLocked(s.clock.Now())) {
		return nil, league.ErrJoinClosed
	}

	if _, err := s.store.GetMember(ctx, competition.ID.String(), userID.String()); err == nil {
		return nil, league.ErrAlreadyJoined
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	member := league.Member{
		CompetitionID:  competition.ID,
		UserID:         userID,
		LivesRemaining: competition.LivesPerPlayer,
		Status:         league.MemberActive,
	}
	if err := s.store.CreateMember(ctx, tx, &member); err != nil {
		return nil, err
	}

	return competition, tx.Commit()
}

func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

type StandingsRow struct {
	Member   league.Member
	Username string
	History  []store.OutcomeHistoryRow
}

type CompetitionData struct {
	Competition  *league.Competition
	Teams        []league.Team
	Rounds       []league.Round
	CurrentRound *league.Round
	Fixtures     []league.Fixture
	Standings    []StandingsRow
	ActiveCount  int
	TotalCount   int
}

// GetCompetitionData assembles everything the competition page shows.
// Pure reads, no side effects.
func (s *CompetitionService) GetCompetitionData(ctx context.Context, id string) (*CompetitionData, error) {
	competition, err := s.store.GetCompetition(ctx, id)
	if err != nil {
		return nil, err
	}

	teams, err := s.store.GetTeams(ctx, id)
	if err != nil {
		return nil, err
	}

	rounds, err := s.rounds.GetRounds(ctx, id)
	if err != nil {
		return nil, err
	}

	current, err := s.rounds.GetCurrentRound(ctx, id)
	if err != nil {
		return nil, err
	}

	var fixtures []league.Fixture
	if current != nil {
		fixtures, err = s.rounds.GetFixtures(ctx, current.ID.String())
		if err != nil {
			return nil, err
		}
	}

	members, err := s.store.GetMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	data := &CompetitionData{
		Competition:  competition,
		Teams:        teams,
		Rounds:       rounds,
		CurrentRound: current,
		Fixtures:     fixtures,
		TotalCount:   len(members),
	}

	for _, m := range members {
		username := m.UserID.String()
		if user, err := s.users.GetUser(ctx, m.UserID); err == nil {
			username = user.Username
		}
		history, err := s.rounds.GetOutcomeHistory(ctx, id, m.UserID.String())
		if err != nil {
			return nil, err
		}
		if m.Status == league.MemberActive {
			data.ActiveCount++
		}
		data.Standings = append(data.Standings, StandingsRow{
			Member:   m,
			Username: username,
			History:  history,
		})
	}

	return data, nil
}

func (s *CompetitionService) GetCompetitionsForUser(ctx context.Context) ([]league.Competition, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}
	return s.store.GetCompetitionsForUser(ctx, userID)
}

func (s *CompetitionService) GetCompetitionBySlug(ctx context.Context, competitionSlug string) (*league.Competition, error) {
	return s.store.GetCompetitionBySlug(ctx, competitionSlug)
}
