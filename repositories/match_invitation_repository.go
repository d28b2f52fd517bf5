package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/canchalibre/booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrMatchInvitationNotFound = errors.New("match invitation not found")
	// ErrMatchInvitationConflict: приглашение для тройки
	// (reservation, inviting, invited) уже существует. Уникальный индекс схемы
	// сериализует создание, предварительной проверки в сервисе нет вовсе.
	ErrMatchInvitationConflict   = errors.New("match invitation already exists for this reservation and teams")
	ErrMatchInvitationInvalidRef = errors.New("match invitation reservation or team invalid")
	ErrMatchInvitationNotPending = errors.New("match invitation is not pending")
)

type MatchInvitationRepository interface {
	Create(ctx context.Context, invitation *models.MatchInvitation) error
	GetByID(ctx context.Context, id int) (*models.MatchInvitation, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ProposalStatus) error
	ListIncoming(ctx context.Context, teamID int) ([]*models.MatchInvitation, error)
	ListOutgoing(ctx context.Context, teamID int) ([]*models.MatchInvitation, error)
	// RejectForPastReservations отклоняет pending-приглашения, чьи брони уже
	// в прошлом или отменены. Возвращает число затронутых строк.
	RejectForPastReservations(ctx context.Context, now time.Time) (int64, error)
}

type postgresMatchInvitationRepository struct {
	db *sql.DB
}

func NewPostgresMatchInvitationRepository(db *sql.DB) MatchInvitationRepository {
	return &postgresMatchInvitationRepository{db: db}
}

func (r *postgresMatchInvitationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchInvitationRepository) Create(ctx context.Context, invitation *models.MatchInvitation) error {
	query := `
		INSERT INTO match_invitations (reservation_id, inviting_team_id, invited_team_id, status, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invitation.ReservationID,
		invitation.InvitingTeamID,
		invitation.InvitedTeamID,
		invitation.Status,
		invitation.Comment,
	).Scan(&invitation.ID, &invitation.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "match_invitations_triple_key" {
					return ErrMatchInvitationConflict
				}
			case "23503":
				return ErrMatchInvitationInvalidRef
			}
		}
		return fmt.Errorf("failed to create match invitation: %w", err)
	}
	return nil
}

func (r *postgresMatchInvitationRepository) GetByID(ctx context.Context, id int) (*models.MatchInvitation, error) {
	query := `
		SELECT id, reservation_id, inviting_team_id, invited_team_id, status, comment, created_at
		FROM match_invitations
		WHERE id = $1`

	inv := &models.MatchInvitation{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID,
		&inv.ReservationID,
		&inv.InvitingTeamID,
		&inv.InvitedTeamID,
		&inv.Status,
		&inv.Comment,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get match invitation %d: %w", id, err)
	}
	return inv, nil
}

func (r *postgresMatchInvitationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ProposalStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE match_invitations SET status = $1 WHERE id = $2 AND status = 'pending'`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update match invitation %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchInvitationNotPending)
}

func (r *postgresMatchInvitationRepository) ListIncoming(ctx context.Context, teamID int) ([]*models.MatchInvitation, error) {
	query := `
		SELECT id, reservation_id, inviting_team_id, invited_team_id, status, comment, created_at
		FROM match_invitations
		WHERE invited_team_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, teamID)
}

func (r *postgresMatchInvitationRepository) ListOutgoing(ctx context.Context, teamID int) ([]*models.MatchInvitation, error) {
	query := `
		SELECT id, reservation_id, inviting_team_id, invited_team_id, status, comment, created_at
		FROM match_invitations
		WHERE inviting_team_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, teamID)
}

func (r *postgresMatchInvitationRepository) RejectForPastReservations(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE match_invitations mi
		SET status = 'rejected'
		FROM reservations res
		WHERE mi.reservation_id = res.id
		  AND mi.status = 'pending'
		  AND (res.date < $1 OR res.active = false)`

	result, err := r.db.ExecContext(ctx, query, now.Format(reservationDateLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to reject stale match invitations: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}

func (r *postgresMatchInvitationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.MatchInvitation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list match invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]*models.MatchInvitation, 0)
	for rows.Next() {
		var inv models.MatchInvitation
		if scanErr := rows.Scan(
			&inv.ID,
			&inv.ReservationID,
			&inv.InvitingTeamID,
			&inv.InvitedTeamID,
			&inv.Status,
			&inv.Comment,
			&inv.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match invitation row: %w", scanErr)
		}
		invitations = append(invitations, &inv)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invitations, nil
}
