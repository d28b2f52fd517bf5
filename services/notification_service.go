package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
)

// Notifier рассылает уведомления участникам workflow. Вызовы fire-and-forget:
// сбой доставки не должен откатывать бронирование или принятую заявку,
// поэтому метод ничего не возвращает, а ошибки уходят в лог.
type Notifier interface {
	Notify(ctx context.Context, recipientID int, kind models.RecipientKind, title, message string, link *string)
}

// RealtimePublisher отправляет событие в открытые websocket-сессии пользователя.
type RealtimePublisher interface {
	PushToUser(userID int, payload any)
}

// EmailSender доставляет письмо на адрес. Реализация может быть nil-safe
// заглушкой, если SMTP не сконфигурирован.
type EmailSender interface {
	Send(to, subject, htmlBody string) error
}

type NotificationService interface {
	Notifier
	ListUserNotifications(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID int) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	publisher        RealtimePublisher
	email            EmailSender
	logger           *slog.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	publisher RealtimePublisher,
	email EmailSender,
	logger *slog.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		publisher:        publisher,
		email:            email,
		logger:           logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, recipientID int, kind models.RecipientKind, title, message string, link *string) {
	notification := &models.Notification{
		RecipientID:   recipientID,
		RecipientKind: kind,
		Title:         title,
		Message:       message,
		Link:          link,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("failed to persist notification",
			slog.Int("recipient_id", recipientID),
			slog.String("title", title),
			slog.Any("error", err))
		return
	}

	if kind == models.RecipientUser && s.publisher != nil {
		s.publisher.PushToUser(recipientID, notification)
	}

	if kind == models.RecipientUser && s.email != nil {
		s.sendEmailCopy(ctx, recipientID, title, message)
	}
}

// sendEmailCopy дублирует уведомление письмом. Best effort.
func (s *notificationService) sendEmailCopy(ctx context.Context, userID int, subject, body string) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.Warn("failed to resolve notification recipient",
				slog.Int("user_id", userID), slog.Any("error", err))
		}
		return
	}
	if err := s.email.Send(user.Email, subject, body); err != nil {
		s.logger.Warn("failed to send notification email",
			slog.Int("user_id", userID), slog.Any("error", err))
	}
}

func (s *notificationService) ListUserNotifications(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly)
}

func (s *notificationService) MarkNotificationRead(ctx context.Context, notificationID, userID int) error {
	err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
