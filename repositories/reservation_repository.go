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
	ErrReservationNotFound        = errors.New("reservation not found")
	ErrReservationSlotConflict    = errors.New("reservation slot conflict")
	ErrReservationAlreadyInactive = errors.New("reservation already inactive")
	ErrReservationTeamInvalid     = errors.New("reservation team conflict or invalid")
	ErrReservationCourtInvalid    = errors.New("reservation court conflict or invalid")
)

const reservationDateLayout = "2006-01-02"

type ReservationRepository interface {
	// CreateWithSlotGuard выполняет проверку занятости и вставку в одной
	// транзакции под advisory-блокировкой по паре (court, date), плюс создаёт
	// строку reservation_teams для команды-создателя. Эксклюзивное ограничение
	// схемы остаётся финальным арбитром, если блокировку обойдут.
	CreateWithSlotGuard(ctx context.Context, reservation *models.Reservation) error
	GetByID(ctx context.Context, id int) (*models.Reservation, error)
	ListActiveByCourtAndDate(ctx context.Context, courtID int, date time.Time) ([]*models.Reservation, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.Reservation, error)
	Cancel(ctx context.Context, id int) error
	CountActive(ctx context.Context) (int, error)
}

type postgresReservationRepository struct {
	db *sql.DB
}

func NewPostgresReservationRepository(db *sql.DB) ReservationRepository {
	return &postgresReservationRepository{db: db}
}

func (r *postgresReservationRepository) CreateWithSlotGuard(ctx context.Context, reservation *models.Reservation) error {
	date := reservation.Date.Format(reservationDateLayout)

	return RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		// Сериализуем check-and-insert по паре (court, date).
		lockQuery := `SELECT pg_advisory_xact_lock($1, hashtext($2))`
		if _, err := tx.ExecContext(ctx, lockQuery, reservation.CourtID, date); err != nil {
			return fmt.Errorf("failed to acquire reservation lock: %w", err)
		}

		occupiedQuery := `
			SELECT slots FROM reservations
			WHERE court_id = $1 AND date = $2 AND active = true`
		rows, err := tx.QueryContext(ctx, occupiedQuery, reservation.CourtID, date)
		if err != nil {
			return fmt.Errorf("failed to load occupied slots: %w", err)
		}
		occupied := make(map[int]struct{})
		for rows.Next() {
			var slots pq.Int64Array
			if scanErr := rows.Scan(&slots); scanErr != nil {
				rows.Close()
				return fmt.Errorf("failed to scan occupied slots: %w", scanErr)
			}
			for _, s := range slots {
				occupied[int(s)] = struct{}{}
			}
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return err
		}

		for _, s := range reservation.Slots {
			if _, taken := occupied[s]; taken {
				return ErrReservationSlotConflict
			}
		}

		insertQuery := `
			INSERT INTO reservations (team_id, complex_id, court_id, date, slots, active)
			VALUES ($1, $2, $3, $4, $5, true)
			RETURNING id, created_at`

		err = tx.QueryRowContext(ctx, insertQuery,
			reservation.TeamID,
			reservation.ComplexID,
			reservation.CourtID,
			date,
			pq.Array(reservation.Slots),
		).Scan(&reservation.ID, &reservation.CreatedAt)

		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				switch pqErr.Code {
				case "23P01": // exclusion_violation
					if pqErr.Constraint == "reservations_no_overlap_excl" {
						return ErrReservationSlotConflict
					}
				case "23503":
					switch pqErr.Constraint {
					case "reservations_team_id_fkey":
						return ErrReservationTeamInvalid
					case "reservations_court_id_fkey":
						return ErrReservationCourtInvalid
					}
				}
			}
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		reservation.Active = true

		linkQuery := `
			INSERT INTO reservation_teams (reservation_id, team_id, creator)
			VALUES ($1, $2, true)`
		if _, err = tx.ExecContext(ctx, linkQuery, reservation.ID, reservation.TeamID); err != nil {
			return fmt.Errorf("failed to link creator team to reservation: %w", err)
		}
		return nil
	})
}

func (r *postgresReservationRepository) GetByID(ctx context.Context, id int) (*models.Reservation, error) {
	query := `
		SELECT id, team_id, complex_id, court_id, date, slots, active, created_at
		FROM reservations
		WHERE id = $1`

	reservation, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation %d: %w", id, err)
	}
	return reservation, nil
}

func (r *postgresReservationRepository) ListActiveByCourtAndDate(ctx context.Context, courtID int, date time.Time) ([]*models.Reservation, error) {
	query := `
		SELECT id, team_id, complex_id, court_id, date, slots, active, created_at
		FROM reservations
		WHERE court_id = $1 AND date = $2 AND active = true
		ORDER BY created_at ASC`
	return r.list(ctx, query, courtID, date.Format(reservationDateLayout))
}

func (r *postgresReservationRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Reservation, error) {
	// Через reservation_teams, чтобы захватить и брони, разделённые по матч-приглашению.
	query := `
		SELECT res.id, res.team_id, res.complex_id, res.court_id, res.date, res.slots, res.active, res.created_at
		FROM reservations res
		JOIN reservation_teams rt ON rt.reservation_id = res.id
		WHERE rt.team_id = $1
		ORDER BY res.date DESC, res.created_at DESC`
	return r.list(ctx, query, teamID)
}

func (r *postgresReservationRepository) Cancel(ctx context.Context, id int) error {
	query := `UPDATE reservations SET active = false WHERE id = $1 AND active = true`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrReservationAlreadyInactive)
}

func (r *postgresReservationRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM reservations WHERE active = true`
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active reservations: %w", err)
	}
	return count, nil
}

func (r *postgresReservationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]*models.Reservation, 0)
	for rows.Next() {
		reservation, scanErr := scanReservation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan reservation row: %w", scanErr)
		}
		reservations = append(reservations, reservation)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func scanReservation(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Reservation, error) {
	var res models.Reservation
	var slots pq.Int64Array
	err := scanner.Scan(
		&res.ID,
		&res.TeamID,
		&res.ComplexID,
		&res.CourtID,
		&res.Date,
		&slots,
		&res.Active,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Slots = make([]int, 0, len(slots))
	for _, s := range slots {
		res.Slots = append(res.Slots, int(s))
	}
	return &res, nil
}
