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
	ErrRosterMemberNotFound = errors.New("team member not found")
	ErrRosterMemberConflict = errors.New("user is already a member of this team")
	ErrRosterTeamInvalid    = errors.New("roster team conflict or invalid")
	ErrRosterTeamFull       = errors.New("team roster is at capacity")
	ErrRosterUserInvalid    = errors.New("roster user conflict or invalid")
)

// RosterRepository владеет таблицей team_members. Методы записи принимают
// SQLExecutor, чтобы сервисный слой мог включить их в транзакцию перехода
// заявки/приглашения в accepted.
type RosterRepository interface {
	Add(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	// AddWithCapacityGuard проверяет вместимость и вставляет под
	// advisory-блокировкой по id команды, чтобы два параллельных accepted-
	// перехода не заняли последнее место дважды. Вызывается только внутри
	// транзакции (exec должен быть *sql.Tx).
	AddWithCapacityGuard(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	Remove(ctx context.Context, exec SQLExecutor, teamID, userID int) error
	Exists(ctx context.Context, exec SQLExecutor, teamID, userID int) (bool, error)
	CountMembers(ctx context.Context, exec SQLExecutor, teamID int) (int, error)
	ListByTeam(ctx context.Context, teamID int) ([]models.User, error)
}

type postgresRosterRepository struct {
	db *sql.DB
}

func NewPostgresRosterRepository(db *sql.DB) RosterRepository {
	return &postgresRosterRepository{db: db}
}

func (r *postgresRosterRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRosterRepository) Add(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, member.TeamID, member.UserID).
		Scan(&member.ID, &member.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "team_members_team_id_user_id_key" {
					return ErrRosterMemberConflict
				}
			case "23503":
				switch pqErr.Constraint {
				case "team_members_team_id_fkey":
					return ErrRosterTeamInvalid
				case "team_members_user_id_fkey":
					return ErrRosterUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (r *postgresRosterRepository) AddWithCapacityGuard(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	executor := r.getExecutor(exec)

	// Сериализуем check-and-insert по команде. Ключевое пространство
	// отделено от блокировок бронирований хэшем имени таблицы.
	lockQuery := `SELECT pg_advisory_xact_lock(hashtext('team_members'), $1)`
	if _, err := executor.ExecContext(ctx, lockQuery, member.TeamID); err != nil {
		return fmt.Errorf("failed to acquire roster lock for team %d: %w", member.TeamID, err)
	}

	capacityQuery := `
		SELECT t.max_players,
		       (SELECT COUNT(*) FROM team_members tm WHERE tm.team_id = t.id)
		FROM teams t
		WHERE t.id = $1`
	var maxPlayers, count int
	if err := executor.QueryRowContext(ctx, capacityQuery, member.TeamID).Scan(&maxPlayers, &count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRosterTeamInvalid
		}
		return fmt.Errorf("failed to check capacity of team %d: %w", member.TeamID, err)
	}
	if count >= maxPlayers {
		return ErrRosterTeamFull
	}

	return r.Add(ctx, exec, member)
}

func (r *postgresRosterRepository) Remove(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	result, err := executor.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return checkAffectedRows(result, ErrRosterMemberNotFound)
}

func (r *postgresRosterRepository) Exists(ctx context.Context, exec SQLExecutor, teamID, userID int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`
	var exists bool
	if err := executor.QueryRowContext(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check team membership: %w", err)
	}
	return exists, nil
}

func (r *postgresRosterRepository) CountMembers(ctx context.Context, exec SQLExecutor, teamID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM team_members WHERE team_id = $1`
	var count int
	if err := executor.QueryRowContext(ctx, query, teamID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count team members: %w", err)
	}
	return count, nil
}

func (r *postgresRosterRepository) ListByTeam(ctx context.Context, teamID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.role, u.avatar_key, u.created_at
		FROM team_members tm
		JOIN users u ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY tm.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members for team %d: %w", teamID, err)
	}
	defer rows.Close()

	members := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if scanErr := rows.Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.Email,
			&u.Role,
			&u.AvatarKey,
			&u.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan team member row: %w", scanErr)
		}
		members = append(members, u)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}
