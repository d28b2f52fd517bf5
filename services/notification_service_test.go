package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
)

type fakeNotificationRepo struct {
	notifications []*models.Notification
	nextID        int

	createErr error
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	notification.ID = r.nextID
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	out := make([]*models.Notification, 0)
	for _, notification := range r.notifications {
		if notification.RecipientID != userID || notification.RecipientKind != models.RecipientUser {
			continue
		}
		if unreadOnly && notification.Read {
			continue
		}
		out = append(out, notification)
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID int) error {
	for _, notification := range r.notifications {
		if notification.ID == id && notification.RecipientID == userID {
			notification.Read = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

type fakePublisher struct {
	pushes []int
}

func (p *fakePublisher) PushToUser(userID int, _ any) {
	p.pushes = append(p.pushes, userID)
}

type fakeEmailSender struct {
	sent []string
	err  error
}

func (s *fakeEmailSender) Send(to, _, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotificationService_Notify_PersistsAndPushes(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{}
	publisher := &fakePublisher{}
	email := &fakeEmailSender{}
	userRepo := newFakeUserRepo(&models.User{ID: 10, Email: "captain@example.com"})
	service := NewNotificationService(repo, userRepo, publisher, email, discardLogger())

	service.Notify(context.Background(), 10, models.RecipientUser, "Reservation confirmed", "Court is booked.", nil)

	if len(repo.notifications) != 1 {
		t.Fatalf("persisted notifications = %d, want 1", len(repo.notifications))
	}
	if len(publisher.pushes) != 1 || publisher.pushes[0] != 10 {
		t.Fatalf("pushes = %v, want [10]", publisher.pushes)
	}
	if len(email.sent) != 1 || email.sent[0] != "captain@example.com" {
		t.Fatalf("emails = %v, want [captain@example.com]", email.sent)
	}
}

func TestNotificationService_Notify_PersistFailureSkipsDelivery(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{createErr: errors.New("insert failed")}
	publisher := &fakePublisher{}
	service := NewNotificationService(repo, newFakeUserRepo(), publisher, nil, discardLogger())

	service.Notify(context.Background(), 10, models.RecipientUser, "t", "m", nil)

	if len(publisher.pushes) != 0 {
		t.Fatalf("pushes = %v, want none", publisher.pushes)
	}
}

func TestNotificationService_Notify_EmailFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{}
	email := &fakeEmailSender{err: errors.New("smtp down")}
	userRepo := newFakeUserRepo(&models.User{ID: 10, Email: "captain@example.com"})
	service := NewNotificationService(repo, userRepo, &fakePublisher{}, email, discardLogger())

	// Сбой доставки не должен ничего ронять.
	service.Notify(context.Background(), 10, models.RecipientUser, "t", "m", nil)

	if len(repo.notifications) != 1 {
		t.Fatalf("persisted notifications = %d, want 1", len(repo.notifications))
	}
}

func TestNotificationService_Notify_TeamRecipientSkipsPush(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{}
	publisher := &fakePublisher{}
	service := NewNotificationService(repo, newFakeUserRepo(), publisher, nil, discardLogger())

	service.Notify(context.Background(), 1, models.RecipientTeam, "t", "m", nil)

	if len(repo.notifications) != 1 {
		t.Fatalf("persisted notifications = %d, want 1", len(repo.notifications))
	}
	if len(publisher.pushes) != 0 {
		t.Fatalf("pushes = %v, want none for team recipient", publisher.pushes)
	}
}

func TestNotificationService_MarkNotificationRead(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{}
	service := NewNotificationService(repo, newFakeUserRepo(), nil, nil, discardLogger())

	service.Notify(context.Background(), 10, models.RecipientUser, "t", "m", nil)

	if err := service.MarkNotificationRead(context.Background(), 1, 10); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	unread, err := service.ListUserNotifications(context.Background(), 10, true)
	if err != nil {
		t.Fatalf("ListUserNotifications: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("unread = %d, want 0", len(unread))
	}

	// Чужое или несуществующее уведомление пометить нельзя.
	if err := service.MarkNotificationRead(context.Background(), 1, 20); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkNotificationRead error = %v, want ErrNotFound", err)
	}
}
