package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/canchalibre/booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrProposalNotFound = errors.New("join proposal not found")
	// ErrProposalConflict: для пары (team, user) уже есть pending/accepted
	// заявка или приглашение. Частичный уникальный индекс схемы остается финальным
	// арбитр; предварительная проверка в сервисе нужна только для дружелюбного
	// ответа.
	ErrProposalConflict    = errors.New("active join proposal already exists for this user and team")
	ErrProposalTeamInvalid = errors.New("proposal team conflict or invalid")
	ErrProposalUserInvalid = errors.New("proposal user conflict or invalid")
	ErrProposalNotPending  = errors.New("join proposal is not pending")
)

type ProposalRepository interface {
	Create(ctx context.Context, proposal *models.JoinProposal) error
	GetByID(ctx context.Context, id int) (*models.JoinProposal, error)
	// FindActiveByTeamAndUser возвращает pending/accepted proposal любого вида
	// для пары, либо ErrProposalNotFound.
	FindActiveByTeamAndUser(ctx context.Context, teamID, userID int) (*models.JoinProposal, error)
	// UpdateStatus переводит proposal из pending в указанный статус.
	// Возвращает ErrProposalNotPending, если строка уже не pending.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ProposalStatus) error
	ListByTeam(ctx context.Context, teamID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error)
	ListByUser(ctx context.Context, userID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error)
	CountPending(ctx context.Context) (int, error)
}

type postgresProposalRepository struct {
	db *sql.DB
}

func NewPostgresProposalRepository(db *sql.DB) ProposalRepository {
	return &postgresProposalRepository{db: db}
}

func (r *postgresProposalRepository) Create(ctx context.Context, proposal *models.JoinProposal) error {
	query := `
		INSERT INTO join_proposals (team_id, user_id, kind, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		proposal.TeamID,
		proposal.UserID,
		proposal.Kind,
		proposal.Status,
		proposal.CreatedBy,
	).Scan(&proposal.ID, &proposal.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "join_proposals_active_pair_key" {
					return ErrProposalConflict
				}
			case "23503":
				switch pqErr.Constraint {
				case "join_proposals_team_id_fkey":
					return ErrProposalTeamInvalid
				case "join_proposals_user_id_fkey":
					return ErrProposalUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create join proposal: %w", err)
	}
	return nil
}

func (r *postgresProposalRepository) GetByID(ctx context.Context, id int) (*models.JoinProposal, error) {
	query := `
		SELECT id, team_id, user_id, kind, status, created_by, created_at
		FROM join_proposals
		WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresProposalRepository) FindActiveByTeamAndUser(ctx context.Context, teamID, userID int) (*models.JoinProposal, error) {
	query := `
		SELECT id, team_id, user_id, kind, status, created_by, created_at
		FROM join_proposals
		WHERE team_id = $1 AND user_id = $2 AND status IN ('pending', 'accepted')`
	return r.findOne(ctx, query, teamID, userID)
}

func (r *postgresProposalRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ProposalStatus) error {
	executor := r.getExecutor(exec)
	// Guard по status = 'pending' закрывает гонку двух одновременных решений.
	query := `UPDATE join_proposals SET status = $1 WHERE id = $2 AND status = 'pending'`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update join proposal %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrProposalNotPending)
}

func (r *postgresProposalRepository) ListByTeam(ctx context.Context, teamID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error) {
	query := `
		SELECT id, team_id, user_id, kind, status, created_by, created_at
		FROM join_proposals
		WHERE team_id = $1`
	args := []interface{}{teamID}
	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *postgresProposalRepository) ListByUser(ctx context.Context, userID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error) {
	query := `
		SELECT id, team_id, user_id, kind, status, created_by, created_at
		FROM join_proposals
		WHERE user_id = $1`
	args := []interface{}{userID}
	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *postgresProposalRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM join_proposals WHERE status = 'pending'`
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending proposals: %w", err)
	}
	return count, nil
}

func (r *postgresProposalRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresProposalRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.JoinProposal, error) {
	p := &models.JoinProposal{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.TeamID,
		&p.UserID,
		&p.Kind,
		&p.Status,
		&p.CreatedBy,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to find join proposal: %w", err)
	}
	return p, nil
}

func (r *postgresProposalRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.JoinProposal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list join proposals: %w", err)
	}
	defer rows.Close()

	proposals := make([]*models.JoinProposal, 0)
	for rows.Next() {
		var p models.JoinProposal
		if scanErr := rows.Scan(
			&p.ID,
			&p.TeamID,
			&p.UserID,
			&p.Kind,
			&p.Status,
			&p.CreatedBy,
			&p.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan join proposal row: %w", scanErr)
		}
		proposals = append(proposals, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return proposals, nil
}
