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
	ErrCourtNotFound       = errors.New("court not found")
	ErrCourtComplexInvalid = errors.New("court complex conflict or invalid")
)

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	GetByID(ctx context.Context, id int) (*models.Court, error)
	Update(ctx context.Context, court *models.Court) error
	Delete(ctx context.Context, id int) error
	ListByComplex(ctx context.Context, complexID int) ([]*models.Court, error)
	Count(ctx context.Context) (int, error)
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) Create(ctx context.Context, court *models.Court) error {
	query := `
		INSERT INTO courts (complex_id, name, capacity, roofed, price_per_slot)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		court.ComplexID,
		court.Name,
		court.Capacity,
		court.Roofed,
		court.PricePerSlot,
	).Scan(&court.ID, &court.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23503" && pqErr.Constraint == "courts_complex_id_fkey" {
				return ErrCourtComplexInvalid
			}
		}
		return fmt.Errorf("failed to create court: %w", err)
	}
	return nil
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	query := `
		SELECT id, complex_id, name, capacity, roofed, price_per_slot, photo_key, created_at
		FROM courts
		WHERE id = $1`

	court := &models.Court{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&court.ID,
		&court.ComplexID,
		&court.Name,
		&court.Capacity,
		&court.Roofed,
		&court.PricePerSlot,
		&court.PhotoKey,
		&court.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to scan court: %w", err)
	}
	return court, nil
}

func (r *postgresCourtRepository) Update(ctx context.Context, court *models.Court) error {
	query := `
		UPDATE courts SET
			name = $1,
			capacity = $2,
			roofed = $3,
			price_per_slot = $4,
			photo_key = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		court.Name,
		court.Capacity,
		court.Roofed,
		court.PricePerSlot,
		court.PhotoKey,
		court.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update court %d: %w", court.ID, err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) Delete(ctx context.Context, id int) error {
	// Бронирования корта удаляются каскадом (FK ON DELETE CASCADE).
	query := `DELETE FROM courts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete court %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) ListByComplex(ctx context.Context, complexID int) ([]*models.Court, error) {
	query := `
		SELECT id, complex_id, name, capacity, roofed, price_per_slot, photo_key, created_at
		FROM courts
		WHERE complex_id = $1
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, complexID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts by complex %d: %w", complexID, err)
	}
	defer rows.Close()

	courts := make([]*models.Court, 0)
	for rows.Next() {
		var c models.Court
		if scanErr := rows.Scan(
			&c.ID,
			&c.ComplexID,
			&c.Name,
			&c.Capacity,
			&c.Roofed,
			&c.PricePerSlot,
			&c.PhotoKey,
			&c.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan court row: %w", scanErr)
		}
		courts = append(courts, &c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return courts, nil
}

func (r *postgresCourtRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count courts: %w", err)
	}
	return count, nil
}
