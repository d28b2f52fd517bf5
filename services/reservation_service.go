package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
)

type CreateReservationInput struct {
	TeamID    int       `json:"team_id" validate:"required,gt=0"`
	ComplexID int       `json:"complex_id" validate:"required,gt=0"`
	CourtID   int       `json:"court_id" validate:"required,gt=0"`
	Date      time.Time `json:"date" validate:"required"`
	Slots     []int     `json:"slots" validate:"required,min=1,dive,gte=0,lte=23"`

	CurrentUserID int `json:"-"`
}

type ReservationService interface {
	CreateReservation(ctx context.Context, input CreateReservationInput) (*models.Reservation, error)
	CancelReservation(ctx context.Context, reservationID, currentUserID int) error
	GetReservation(ctx context.Context, reservationID int) (*models.Reservation, error)
	ListCourtDay(ctx context.Context, courtID int, date time.Time) ([]*models.Reservation, []int, error)
	ListTeamReservations(ctx context.Context, teamID int) ([]*models.Reservation, error)
}

type reservationService struct {
	reservationRepo repositories.ReservationRepository
	courtRepo       repositories.CourtRepository
	teamRepo        repositories.TeamRepository
	availability    AvailabilityService
	notifier        Notifier
}

func NewReservationService(
	reservationRepo repositories.ReservationRepository,
	courtRepo repositories.CourtRepository,
	teamRepo repositories.TeamRepository,
	availability AvailabilityService,
	notifier Notifier,
) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		courtRepo:       courtRepo,
		teamRepo:        teamRepo,
		availability:    availability,
		notifier:        notifier,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, input CreateReservationInput) (*models.Reservation, error) {
	if err := validateSlots(input.Slots); err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, ErrDateRequired
	}

	team, err := s.teamRepo.GetByID(ctx, input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", input.TeamID, err)
	}
	if team.CaptainID != input.CurrentUserID {
		return nil, ErrCaptainActionForbidden
	}

	court, err := s.courtRepo.GetByID(ctx, input.CourtID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to get court %d: %w", input.CourtID, err)
	}
	if court.ComplexID != input.ComplexID {
		return nil, ErrCourtNotInComplex
	}

	// Быстрый отказ до транзакции; решающая проверка повторяется внутри
	// CreateWithSlotGuard под advisory-блокировкой.
	available, err := s.availability.IsAvailable(ctx, input.CourtID, input.Date, input.Slots)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrSlotsUnavailable
	}

	reservation := &models.Reservation{
		TeamID:    input.TeamID,
		ComplexID: input.ComplexID,
		CourtID:   input.CourtID,
		Date:      input.Date,
		Slots:     normalizeSlots(input.Slots),
	}
	if err := s.reservationRepo.CreateWithSlotGuard(ctx, reservation); err != nil {
		if errors.Is(err, repositories.ErrReservationSlotConflict) {
			return nil, ErrSlotsUnavailable
		}
		if errors.Is(err, repositories.ErrReservationCourtInvalid) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.notifier.Notify(ctx, team.CaptainID, models.RecipientUser,
		"Reservation confirmed",
		fmt.Sprintf("Court %q is booked for %s.", court.Name, reservation.Date.Format("2006-01-02")),
		nil)

	return reservation, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, reservationID, currentUserID int) error {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repositories.ErrReservationNotFound) {
			return ErrReservationNotFound
		}
		return fmt.Errorf("failed to get reservation %d: %w", reservationID, err)
	}

	team, err := s.teamRepo.GetByID(ctx, reservation.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", reservation.TeamID, err)
	}
	if team.CaptainID != currentUserID {
		return ErrCaptainActionForbidden
	}

	if !reservation.Active {
		return ErrReservationAlreadyCanceled
	}

	// Строка не удаляется: история нужна для отзывов и статистики.
	if err := s.reservationRepo.Cancel(ctx, reservationID); err != nil {
		if errors.Is(err, repositories.ErrReservationAlreadyInactive) {
			return ErrReservationAlreadyCanceled
		}
		return fmt.Errorf("failed to cancel reservation %d: %w", reservationID, err)
	}
	return nil
}

func (s *reservationService) GetReservation(ctx context.Context, reservationID int) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repositories.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation %d: %w", reservationID, err)
	}
	return reservation, nil
}

func (s *reservationService) ListCourtDay(ctx context.Context, courtID int, date time.Time) ([]*models.Reservation, []int, error) {
	if _, err := s.courtRepo.GetByID(ctx, courtID); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, nil, ErrCourtNotFound
		}
		return nil, nil, fmt.Errorf("failed to get court %d: %w", courtID, err)
	}

	reservations, err := s.reservationRepo.ListActiveByCourtAndDate(ctx, courtID, date)
	if err != nil {
		return nil, nil, err
	}
	occupied, err := s.availability.OccupiedSlots(ctx, courtID, date)
	if err != nil {
		return nil, nil, err
	}
	return reservations, occupied, nil
}

func (s *reservationService) ListTeamReservations(ctx context.Context, teamID int) ([]*models.Reservation, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return s.reservationRepo.ListByTeam(ctx, teamID)
}

func validateSlots(slots []int) error {
	if len(slots) == 0 {
		return ErrSlotsRequired
	}
	seen := make(map[int]struct{}, len(slots))
	for _, slot := range slots {
		if slot < 0 || slot > 23 {
			return ErrSlotOutOfRange
		}
		if _, dup := seen[slot]; dup {
			return ErrSlotsDuplicated
		}
		seen[slot] = struct{}{}
	}
	return nil
}

func normalizeSlots(slots []int) []int {
	out := make([]int, len(slots))
	copy(out, slots)
	sort.Ints(out)
	return out
}
