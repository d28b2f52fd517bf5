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
	ErrReservationTeamConflict = errors.New("team is already linked to this reservation")
	ErrReservationLinkInvalid  = errors.New("reservation link conflict or invalid")
)

type ReservationTeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, link *models.ReservationTeam) error
	Exists(ctx context.Context, reservationID, teamID int) (bool, error)
	ListByReservation(ctx context.Context, reservationID int) ([]*models.ReservationTeam, error)
}

type postgresReservationTeamRepository struct {
	db *sql.DB
}

func NewPostgresReservationTeamRepository(db *sql.DB) ReservationTeamRepository {
	return &postgresReservationTeamRepository{db: db}
}

func (r *postgresReservationTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresReservationTeamRepository) Create(ctx context.Context, exec SQLExecutor, link *models.ReservationTeam) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO reservation_teams (reservation_id, team_id, creator)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		link.ReservationID,
		link.TeamID,
		link.Creator,
	).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "reservation_teams_reservation_id_team_id_key" {
					return ErrReservationTeamConflict
				}
			case "23503":
				return ErrReservationLinkInvalid
			}
		}
		return fmt.Errorf("failed to link team %d to reservation %d: %w", link.TeamID, link.ReservationID, err)
	}
	return nil
}

func (r *postgresReservationTeamRepository) Exists(ctx context.Context, reservationID, teamID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reservation_teams WHERE reservation_id = $1 AND team_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, reservationID, teamID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check reservation team link: %w", err)
	}
	return exists, nil
}

func (r *postgresReservationTeamRepository) ListByReservation(ctx context.Context, reservationID int) ([]*models.ReservationTeam, error) {
	query := `
		SELECT id, reservation_id, team_id, creator, created_at
		FROM reservation_teams
		WHERE reservation_id = $1
		ORDER BY creator DESC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservation teams for %d: %w", reservationID, err)
	}
	defer rows.Close()

	links := make([]*models.ReservationTeam, 0)
	for rows.Next() {
		var link models.ReservationTeam
		if scanErr := rows.Scan(
			&link.ID,
			&link.ReservationID,
			&link.TeamID,
			&link.Creator,
			&link.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan reservation team row: %w", scanErr)
		}
		links = append(links, &link)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}
