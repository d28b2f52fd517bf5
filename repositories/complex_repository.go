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
	ErrComplexNotFound     = errors.New("complex not found")
	ErrComplexNameConflict = errors.New("complex name conflict")
	ErrComplexAdminInvalid = errors.New("complex admin conflict or invalid")
)

type ComplexRepository interface {
	Create(ctx context.Context, complex *models.Complex) error
	GetByID(ctx context.Context, id int) (*models.Complex, error)
	Update(ctx context.Context, complex *models.Complex) error
	Delete(ctx context.Context, id int) error
	ListAll(ctx context.Context) ([]*models.Complex, error)
	ListByAdmin(ctx context.Context, adminID int) ([]*models.Complex, error)
	Count(ctx context.Context) (int, error)
}

type postgresComplexRepository struct {
	db *sql.DB
}

func NewPostgresComplexRepository(db *sql.DB) ComplexRepository {
	return &postgresComplexRepository{db: db}
}

func (r *postgresComplexRepository) Create(ctx context.Context, complex *models.Complex) error {
	query := `
		INSERT INTO complexes (name, location, admin_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		complex.Name,
		complex.Location,
		complex.AdminID,
	).Scan(&complex.ID, &complex.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "complexes_name_key" {
					return ErrComplexNameConflict
				}
			case "23503":
				if pqErr.Constraint == "complexes_admin_id_fkey" {
					return ErrComplexAdminInvalid
				}
			}
		}
		return fmt.Errorf("failed to create complex: %w", err)
	}
	return nil
}

func (r *postgresComplexRepository) GetByID(ctx context.Context, id int) (*models.Complex, error) {
	query := `
		SELECT id, name, location, admin_id, photo_key, created_at
		FROM complexes
		WHERE id = $1`

	complex := &models.Complex{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&complex.ID,
		&complex.Name,
		&complex.Location,
		&complex.AdminID,
		&complex.PhotoKey,
		&complex.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrComplexNotFound
		}
		return nil, fmt.Errorf("failed to scan complex: %w", err)
	}
	return complex, nil
}

func (r *postgresComplexRepository) Update(ctx context.Context, complex *models.Complex) error {
	query := `
		UPDATE complexes SET
			name = $1,
			location = $2,
			photo_key = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query,
		complex.Name,
		complex.Location,
		complex.PhotoKey,
		complex.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "complexes_name_key" {
				return ErrComplexNameConflict
			}
		}
		return fmt.Errorf("failed to update complex %d: %w", complex.ID, err)
	}
	return checkAffectedRows(result, ErrComplexNotFound)
}

func (r *postgresComplexRepository) Delete(ctx context.Context, id int) error {
	// Корты и их бронирования удаляются каскадом (FK ON DELETE CASCADE).
	query := `DELETE FROM complexes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete complex %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrComplexNotFound)
}

func (r *postgresComplexRepository) ListAll(ctx context.Context) ([]*models.Complex, error) {
	query := `
		SELECT id, name, location, admin_id, photo_key, created_at
		FROM complexes
		ORDER BY name ASC`
	return r.list(ctx, query)
}

func (r *postgresComplexRepository) ListByAdmin(ctx context.Context, adminID int) ([]*models.Complex, error) {
	query := `
		SELECT id, name, location, admin_id, photo_key, created_at
		FROM complexes
		WHERE admin_id = $1
		ORDER BY name ASC`
	return r.list(ctx, query, adminID)
}

func (r *postgresComplexRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM complexes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count complexes: %w", err)
	}
	return count, nil
}

func (r *postgresComplexRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Complex, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list complexes: %w", err)
	}
	defer rows.Close()

	complexes := make([]*models.Complex, 0)
	for rows.Next() {
		var c models.Complex
		if scanErr := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Location,
			&c.AdminID,
			&c.PhotoKey,
			&c.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan complex row: %w", scanErr)
		}
		complexes = append(complexes, &c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return complexes, nil
}
