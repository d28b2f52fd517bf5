package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/canchalibre/booking-system/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID int) error
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, recipient_kind, title, message, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		notification.RecipientID,
		notification.RecipientKind,
		notification.Title,
		notification.Message,
		notification.Link,
	).Scan(&notification.ID, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	query := `
		SELECT id, recipient_id, recipient_kind, title, message, link, read, created_at
		FROM notifications
		WHERE recipient_id = $1 AND recipient_kind = 'user'`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if scanErr := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.RecipientKind,
			&n.Title,
			&n.Message,
			&n.Link,
			&n.Read,
			&n.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", scanErr)
		}
		notifications = append(notifications, &n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id, userID int) error {
	query := `UPDATE notifications SET read = true WHERE id = $1 AND recipient_id = $2 AND recipient_kind = 'user'`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}
