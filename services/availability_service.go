package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/canchalibre/booking-system/repositories"
)

// AvailabilityService отвечает на один вопрос: свободны ли слоты корта на дату.
// Ничего не мутирует; финальную проверку при вставке делает ReservationRepository.
type AvailabilityService interface {
	OccupiedSlots(ctx context.Context, courtID int, date time.Time) ([]int, error)
	IsAvailable(ctx context.Context, courtID int, date time.Time, slots []int) (bool, error)
}

type availabilityService struct {
	reservationRepo repositories.ReservationRepository
}

func NewAvailabilityService(reservationRepo repositories.ReservationRepository) AvailabilityService {
	return &availabilityService{reservationRepo: reservationRepo}
}

func (s *availabilityService) OccupiedSlots(ctx context.Context, courtID int, date time.Time) ([]int, error) {
	reservations, err := s.reservationRepo.ListActiveByCourtAndDate(ctx, courtID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations for court %d: %w", courtID, err)
	}

	seen := make(map[int]struct{})
	occupied := make([]int, 0)
	for _, res := range reservations {
		for _, slot := range res.Slots {
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			occupied = append(occupied, slot)
		}
	}
	sort.Ints(occupied)
	return occupied, nil
}

func (s *availabilityService) IsAvailable(ctx context.Context, courtID int, date time.Time, slots []int) (bool, error) {
	occupied, err := s.OccupiedSlots(ctx, courtID, date)
	if err != nil {
		return false, err
	}

	occupiedSet := make(map[int]struct{}, len(occupied))
	for _, slot := range occupied {
		occupiedSet[slot] = struct{}{}
	}
	for _, slot := range slots {
		if _, taken := occupiedSet[slot]; taken {
			return false, nil
		}
	}
	return true, nil
}
