package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/survivorpool/lms-app/internal/league"
)

type CompetitionStore struct {
	db *sqlx.DB
}

func NewCompetitionStore(db *sqlx.DB) *CompetitionStore {
	return &CompetitionStore{db: db}
}

func (s *CompetitionStore) CreateCompetition(ctx context.Context, tx *sqlx.Tx, competition *league.Competition) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO competitions (id, owner_id, name, slug, invite_code, status, lives_per_player, no_repeat_teams)
        VALUES (:id, :owner_id, :name, :slug, :invite_code, :status, :lives_per_player, :no_repeat_teams)`, competition)
	return err
}

func (s *CompetitionStore) GetCompetition(ctx context.Context, id string) (*league.Competition, error) {
	var competition league.Competition
	err := s.db.GetContext(ctx, &competition, "SELECT * FROM competitions WHERE id = ?", id)
	return &competition, err
}

func (s *CompetitionStore) GetCompetitionTx(ctx context.Context, tx *sqlx.Tx, id string) (*league.Competition, error) {
	var competition league.Competition
	err := tx.GetContext(ctx, &competition, "SELECT * FROM competitions WHERE id = ?", id)
	return &competition, err
}

func (s *CompetitionStore) GetCompetitionBySlug(ctx context.Context, slug string) (*league.Competition, error) {
	var competition league.Competition
	err := s.db.GetContext(ctx, &competition, "SELECT * FROM competitions WHERE slug = ? ORDER BY created_at DESC LIMIT 1", slug)
	return &competition, err
}

func (s *CompetitionStore) GetCompetitionByInviteCode(ctx context.Context, code string) (*league.Competition, error) {
	var competition league.Competition
	err := s.db.GetContext(ctx, &competition, "SELECT * FROM competitions WHERE invite_code = ?", code)
	return &competition, err
}

// GetCompetitionsForUser returns competitions the user organises or plays in.
func (s *CompetitionStore) GetCompetitionsForUser(ctx context.Context, userID uuid.UUID) ([]league.Competition, error) {
	var competitions []league.Competition
	err := s.db.SelectContext(ctx, &competitions, `SELECT c.* FROM competitions c
        WHERE c.owner_id = ?
        OR EXISTS (SELECT 1 FROM members m WHERE m.competition_id = c.id AND m.user_id = ?)
        ORDER BY c.created_at DESC`, userID, userID)
	return competitions, err
}

func (s *CompetitionStore) UpdateCompetitionStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status league.CompetitionStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE competitions SET status = ? WHERE id = ?", status, id)
	return err
}

// CompleteCompetitionTx records the terminal classification. winnerID is
// nil for an all-eliminated draw.
func (s *CompetitionStore) CompleteCompetitionTx(ctx context.Context, tx *sqlx.Tx, id string, result league.CompetitionResult, winnerID *uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "UPDATE competitions SET status = ?, result = ?, winner_user_id = ? WHERE id = ?",
		league.CompetitionComplete, result, winnerID, id)
	return err
}

func (s *CompetitionStore) CreateTeams(ctx context.Context, tx *sqlx.Tx, teams []league.Team) error {
	if len(teams) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO teams (id, competition_id, name)
            VALUES (:id, :competition_id, :name)`, teams)
	return err
}

func (s *CompetitionStore) GetTeams(ctx context.Context, competitionID string) ([]league.Team, error) {
	var teams []league.Team
	err := s.db.SelectContext(ctx, &teams, "SELECT * FROM teams WHERE competition_id = ? ORDER BY name ASC", competitionID)
	return teams, err
}

func (s *CompetitionStore) GetTeam(ctx context.Context, id string) (*league.Team, error) {
	var team league.Team
	err := s.db.GetContext(ctx, &team, "SELECT * FROM teams WHERE id = ?", id)
	return &team, err
}

func (s *CompetitionStore) CreateMember(ctx context.Context, tx *sqlx.Tx, member *league.Member) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO members (competition_id, user_id, lives_remaining, status)
        VALUES (:competition_id, :user_id, :lives_remaining, :status)`, member)
	return err
}

func (s *CompetitionStore) GetMember(ctx context.Context, competitionID, userID string) (*league.Member, error) {
	var member league.Member
	err := s.db.GetContext(ctx, &member, "SELECT * FROM members WHERE competition_id = ? AND user_id = ?", competitionID, userID)
	return &member, err
}

func (s *CompetitionStore) GetMemberTx(ctx context.Context, tx *sqlx.Tx, competitionID, userID string) (*league.Member, error) {
	var member league.Member
	err := tx.GetContext(ctx, &member, "SELECT * FROM members WHERE competition_id = ? AND user_id = ?", competitionID, userID)
	return &member, err
}

func (s *CompetitionStore) GetMembers(ctx context.Context, competitionID string) ([]league.Member, error) {
	var members []league.Member
	err := s.db.SelectContext(ctx, &members, "SELECT * FROM members WHERE competition_id = ? ORDER BY joined_at ASC", competitionID)
	return members, err
}

func (s *CompetitionStore) GetActiveMembersTx(ctx context.Context, tx *sqlx.Tx, competitionID string) ([]league.Member, error) {
	var members []league.Member
	err := tx.SelectContext(ctx, &members, "SELECT * FROM members WHERE competition_id = ? AND status = ? ORDER BY joined_at ASC",
		competitionID, league.MemberActive)
	return members, err
}

// UpdateMemberTx is the life ledger's single write path for lives and status.
func (s *CompetitionStore) UpdateMemberTx(ctx context.Context, tx *sqlx.Tx, member *league.Member) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE members SET
        lives_remaining = :lives_remaining,
        status = :status
        WHERE competition_id = :competition_id AND user_id = :user_id`, member)
	return err
}
