package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canchalibre/booking-system/models"
)

type reservationFixture struct {
	service         ReservationService
	reservationRepo *fakeReservationRepo
	notifier        *fakeNotifier
}

// Корт 5 в комплексе 3, команда 1 с капитаном 10.
func newReservationFixture(t *testing.T, reservations ...*models.Reservation) reservationFixture {
	t.Helper()

	reservationRepo := newFakeReservationRepo(reservations...)
	courtRepo := newFakeCourtRepo(&models.Court{ID: 5, ComplexID: 3, Name: "Cancha 1"})
	teamRepo := newFakeTeamRepo(&models.Team{ID: 1, Name: "Toros FC", CaptainID: 10, MaxPlayers: 5})
	notifier := &fakeNotifier{}

	service := NewReservationService(
		reservationRepo,
		courtRepo,
		teamRepo,
		NewAvailabilityService(reservationRepo),
		notifier,
	)
	return reservationFixture{service: service, reservationRepo: reservationRepo, notifier: notifier}
}

func validInput() CreateReservationInput {
	return CreateReservationInput{
		TeamID:        1,
		ComplexID:     3,
		CourtID:       5,
		Date:          testDate,
		Slots:         []int{15, 14},
		CurrentUserID: 10,
	}
}

func TestReservationService_CreateReservation(t *testing.T) {
	t.Parallel()

	fx := newReservationFixture(t)

	reservation, err := fx.service.CreateReservation(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if reservation.ID == 0 || !reservation.Active {
		t.Fatalf("unexpected reservation: %+v", reservation)
	}
	// Слоты хранятся отсортированными.
	if reservation.Slots[0] != 14 || reservation.Slots[1] != 15 {
		t.Fatalf("Slots = %v, want [14 15]", reservation.Slots)
	}

	if sent := fx.notifier.sentTo(10); len(sent) != 1 {
		t.Fatalf("captain notifications = %d, want 1", len(sent))
	}
}

func TestReservationService_CreateReservation_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*CreateReservationInput)
		wantErr error
	}{
		{name: "no slots", mutate: func(in *CreateReservationInput) { in.Slots = nil }, wantErr: ErrSlotsRequired},
		{name: "slot above 23", mutate: func(in *CreateReservationInput) { in.Slots = []int{24} }, wantErr: ErrSlotOutOfRange},
		{name: "negative slot", mutate: func(in *CreateReservationInput) { in.Slots = []int{-1} }, wantErr: ErrSlotOutOfRange},
		{name: "duplicated slots", mutate: func(in *CreateReservationInput) { in.Slots = []int{14, 14} }, wantErr: ErrSlotsDuplicated},
		{name: "zero date", mutate: func(in *CreateReservationInput) { in.Date = time.Time{} }, wantErr: ErrDateRequired},
		{name: "court from another complex", mutate: func(in *CreateReservationInput) { in.ComplexID = 99 }, wantErr: ErrCourtNotInComplex},
		{name: "unknown court", mutate: func(in *CreateReservationInput) { in.CourtID = 99 }, wantErr: ErrCourtNotFound},
		{name: "unknown team", mutate: func(in *CreateReservationInput) { in.TeamID = 99 }, wantErr: ErrTeamNotFound},
		{name: "not the captain", mutate: func(in *CreateReservationInput) { in.CurrentUserID = 20 }, wantErr: ErrCaptainActionForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fx := newReservationFixture(t)
			input := validInput()
			tt.mutate(&input)

			_, err := fx.service.CreateReservation(context.Background(), input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateReservation error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReservationService_CreateReservation_OccupiedSlots(t *testing.T) {
	t.Parallel()

	fx := newReservationFixture(t, &models.Reservation{
		ID: 1, TeamID: 2, ComplexID: 3, CourtID: 5, Date: testDate, Slots: []int{15, 16}, Active: true,
	})

	_, err := fx.service.CreateReservation(context.Background(), validInput())
	if !errors.Is(err, ErrSlotsUnavailable) {
		t.Fatalf("CreateReservation error = %v, want ErrSlotsUnavailable", err)
	}
}

func TestReservationService_CreateReservation_CanceledSlotsAreFree(t *testing.T) {
	t.Parallel()

	// Отменённая бронь освобождает слоты.
	fx := newReservationFixture(t, &models.Reservation{
		ID: 1, TeamID: 2, ComplexID: 3, CourtID: 5, Date: testDate, Slots: []int{14, 15}, Active: false,
	})

	if _, err := fx.service.CreateReservation(context.Background(), validInput()); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
}

func TestReservationService_CancelReservation(t *testing.T) {
	t.Parallel()

	fx := newReservationFixture(t, &models.Reservation{
		ID: 1, TeamID: 1, ComplexID: 3, CourtID: 5, Date: testDate, Slots: []int{14}, Active: true,
	})

	if err := fx.service.CancelReservation(context.Background(), 1, 10); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	reservation, err := fx.service.GetReservation(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	// Строка сохраняется, снимается только флаг.
	if reservation.Active {
		t.Fatal("reservation still active after cancel")
	}
}

func TestReservationService_CancelReservation_Errors(t *testing.T) {
	t.Parallel()

	t.Run("already canceled", func(t *testing.T) {
		t.Parallel()
		fx := newReservationFixture(t, &models.Reservation{
			ID: 1, TeamID: 1, CourtID: 5, Date: testDate, Slots: []int{14}, Active: false,
		})
		err := fx.service.CancelReservation(context.Background(), 1, 10)
		if !errors.Is(err, ErrReservationAlreadyCanceled) {
			t.Fatalf("CancelReservation error = %v, want ErrReservationAlreadyCanceled", err)
		}
	})

	t.Run("only captain cancels", func(t *testing.T) {
		t.Parallel()
		fx := newReservationFixture(t, &models.Reservation{
			ID: 1, TeamID: 1, CourtID: 5, Date: testDate, Slots: []int{14}, Active: true,
		})
		err := fx.service.CancelReservation(context.Background(), 1, 20)
		if !errors.Is(err, ErrCaptainActionForbidden) {
			t.Fatalf("CancelReservation error = %v, want ErrCaptainActionForbidden", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		t.Parallel()
		fx := newReservationFixture(t)
		err := fx.service.CancelReservation(context.Background(), 99, 10)
		if !errors.Is(err, ErrReservationNotFound) {
			t.Fatalf("CancelReservation error = %v, want ErrReservationNotFound", err)
		}
	})
}

func TestReservationService_ListCourtDay(t *testing.T) {
	t.Parallel()

	fx := newReservationFixture(t,
		&models.Reservation{ID: 1, TeamID: 1, CourtID: 5, Date: testDate, Slots: []int{14, 15}, Active: true},
		&models.Reservation{ID: 2, TeamID: 2, CourtID: 5, Date: testDate, Slots: []int{18}, Active: true},
	)

	reservations, occupied, err := fx.service.ListCourtDay(context.Background(), 5, testDate)
	if err != nil {
		t.Fatalf("ListCourtDay: %v", err)
	}
	if len(reservations) != 2 {
		t.Fatalf("reservations = %d, want 2", len(reservations))
	}
	want := []int{14, 15, 18}
	if len(occupied) != len(want) {
		t.Fatalf("occupied = %v, want %v", occupied, want)
	}
	for i, slot := range want {
		if occupied[i] != slot {
			t.Fatalf("occupied = %v, want %v", occupied, want)
		}
	}
}
