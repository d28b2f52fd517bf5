package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
)

type CreateCourtInput struct {
	ComplexID    int    `json:"complex_id" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Capacity     int    `json:"capacity" validate:"required,gt=0"`
	Roofed       bool   `json:"roofed"`
	PricePerSlot int    `json:"price_per_slot" validate:"gte=0"`
}

type UpdateCourtInput struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Capacity     *int    `json:"capacity" validate:"omitempty,gt=0"`
	Roofed       *bool   `json:"roofed"`
	PricePerSlot *int    `json:"price_per_slot" validate:"omitempty,gte=0"`
}

type CourtService interface {
	CreateCourt(ctx context.Context, input CreateCourtInput, currentUserID int) (*models.Court, error)
	GetCourtByID(ctx context.Context, courtID int) (*models.Court, error)
	UpdateCourt(ctx context.Context, courtID int, input UpdateCourtInput, currentUserID int) (*models.Court, error)
	DeleteCourt(ctx context.Context, courtID, currentUserID int) error
	ListCourtsByComplex(ctx context.Context, complexID int) ([]*models.Court, error)
}

type courtService struct {
	courtRepo   repositories.CourtRepository
	complexRepo repositories.ComplexRepository
}

func NewCourtService(courtRepo repositories.CourtRepository, complexRepo repositories.ComplexRepository) CourtService {
	return &courtService{courtRepo: courtRepo, complexRepo: complexRepo}
}

func (s *courtService) CreateCourt(ctx context.Context, input CreateCourtInput, currentUserID int) (*models.Court, error) {
	cx, err := s.complexRepo.GetByID(ctx, input.ComplexID)
	if err != nil {
		if errors.Is(err, repositories.ErrComplexNotFound) {
			return nil, ErrComplexNotFound
		}
		return nil, fmt.Errorf("failed to get complex %d: %w", input.ComplexID, err)
	}
	if cx.AdminID != currentUserID {
		return nil, ErrComplexAdminForbidden
	}

	court := &models.Court{
		ComplexID:    input.ComplexID,
		Name:         strings.TrimSpace(input.Name),
		Capacity:     input.Capacity,
		Roofed:       input.Roofed,
		PricePerSlot: input.PricePerSlot,
	}
	if court.Name == "" {
		return nil, ErrValidationFailed
	}

	if err := s.courtRepo.Create(ctx, court); err != nil {
		if errors.Is(err, repositories.ErrCourtComplexInvalid) {
			return nil, ErrComplexNotFound
		}
		return nil, fmt.Errorf("failed to create court: %w", err)
	}
	return court, nil
}

func (s *courtService) GetCourtByID(ctx context.Context, courtID int) (*models.Court, error) {
	return s.getCourt(ctx, courtID)
}

func (s *courtService) UpdateCourt(ctx context.Context, courtID int, input UpdateCourtInput, currentUserID int) (*models.Court, error) {
	court, err := s.getCourt(ctx, courtID)
	if err != nil {
		return nil, err
	}
	if err := s.requireComplexAdmin(ctx, court.ComplexID, currentUserID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrValidationFailed
		}
		court.Name = name
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return nil, ErrValidationFailed
		}
		court.Capacity = *input.Capacity
	}
	if input.Roofed != nil {
		court.Roofed = *input.Roofed
	}
	if input.PricePerSlot != nil {
		if *input.PricePerSlot < 0 {
			return nil, ErrValidationFailed
		}
		court.PricePerSlot = *input.PricePerSlot
	}

	if err := s.courtRepo.Update(ctx, court); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to update court %d: %w", courtID, err)
	}
	return court, nil
}

func (s *courtService) DeleteCourt(ctx context.Context, courtID, currentUserID int) error {
	court, err := s.getCourt(ctx, courtID)
	if err != nil {
		return err
	}
	if err := s.requireComplexAdmin(ctx, court.ComplexID, currentUserID); err != nil {
		return err
	}

	if err := s.courtRepo.Delete(ctx, courtID); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return ErrCourtNotFound
		}
		return fmt.Errorf("failed to delete court %d: %w", courtID, err)
	}
	return nil
}

func (s *courtService) ListCourtsByComplex(ctx context.Context, complexID int) ([]*models.Court, error) {
	if _, err := s.complexRepo.GetByID(ctx, complexID); err != nil {
		if errors.Is(err, repositories.ErrComplexNotFound) {
			return nil, ErrComplexNotFound
		}
		return nil, fmt.Errorf("failed to get complex %d: %w", complexID, err)
	}
	return s.courtRepo.ListByComplex(ctx, complexID)
}

func (s *courtService) getCourt(ctx context.Context, courtID int) (*models.Court, error) {
	court, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to get court %d: %w", courtID, err)
	}
	return court, nil
}

func (s *courtService) requireComplexAdmin(ctx context.Context, complexID, userID int) error {
	cx, err := s.complexRepo.GetByID(ctx, complexID)
	if err != nil {
		if errors.Is(err, repositories.ErrComplexNotFound) {
			return ErrComplexNotFound
		}
		return fmt.Errorf("failed to get complex %d: %w", complexID, err)
	}
	if cx.AdminID != userID {
		return ErrComplexAdminForbidden
	}
	return nil
}
