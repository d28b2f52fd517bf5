package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
	"github.com/canchalibre/booking-system/storage"
)

type CreateComplexInput struct {
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Location string `json:"location" validate:"required,max=250"`

	AdminID int `json:"-"`
}

type UpdateComplexInput struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=150"`
	Location *string `json:"location" validate:"omitempty,max=250"`
}

// ComplexService управляет спортивными комплексами. Мутации доступны
// только администратору комплекса.
type ComplexService interface {
	CreateComplex(ctx context.Context, input CreateComplexInput) (*models.Complex, error)
	GetComplexByID(ctx context.Context, complexID int) (*models.Complex, error)
	UpdateComplex(ctx context.Context, complexID int, input UpdateComplexInput, currentUserID int) (*models.Complex, error)
	DeleteComplex(ctx context.Context, complexID, currentUserID int) error
	ListComplexes(ctx context.Context) ([]*models.Complex, error)
	UploadComplexPhoto(ctx context.Context, complexID, currentUserID int, contentType string, file io.Reader) (*models.Complex, error)
}

type complexService struct {
	complexRepo repositories.ComplexRepository
	courtRepo   repositories.CourtRepository
	uploader    storage.FileUploader
}

func NewComplexService(
	complexRepo repositories.ComplexRepository,
	courtRepo repositories.CourtRepository,
	uploader storage.FileUploader,
) ComplexService {
	return &complexService{
		complexRepo: complexRepo,
		courtRepo:   courtRepo,
		uploader:    uploader,
	}
}

func (s *complexService) CreateComplex(ctx context.Context, input CreateComplexInput) (*models.Complex, error) {
	cx := &models.Complex{
		Name:     strings.TrimSpace(input.Name),
		Location: strings.TrimSpace(input.Location),
		AdminID:  input.AdminID,
	}
	if cx.Name == "" {
		return nil, ErrValidationFailed
	}

	if err := s.complexRepo.Create(ctx, cx); err != nil {
		if errors.Is(err, repositories.ErrComplexNameConflict) {
			return nil, ErrComplexNameConflict
		}
		if errors.Is(err, repositories.ErrComplexAdminInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create complex: %w", err)
	}
	return cx, nil
}

func (s *complexService) GetComplexByID(ctx context.Context, complexID int) (*models.Complex, error) {
	cx, err := s.getComplex(ctx, complexID)
	if err != nil {
		return nil, err
	}

	courts, err := s.courtRepo.ListByComplex(ctx, complexID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts of complex %d: %w", complexID, err)
	}
	cx.Courts = make([]models.Court, 0, len(courts))
	for _, court := range courts {
		cx.Courts = append(cx.Courts, *court)
	}

	populateComplexPhotoURL(cx, s.uploader)
	return cx, nil
}

func (s *complexService) UpdateComplex(ctx context.Context, complexID int, input UpdateComplexInput, currentUserID int) (*models.Complex, error) {
	cx, err := s.getComplex(ctx, complexID)
	if err != nil {
		return nil, err
	}
	if cx.AdminID != currentUserID {
		return nil, ErrComplexAdminForbidden
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrValidationFailed
		}
		cx.Name = name
	}
	if input.Location != nil {
		cx.Location = strings.TrimSpace(*input.Location)
	}

	if err := s.complexRepo.Update(ctx, cx); err != nil {
		if errors.Is(err, repositories.ErrComplexNameConflict) {
			return nil, ErrComplexNameConflict
		}
		if errors.Is(err, repositories.ErrComplexNotFound) {
			return nil, ErrComplexNotFound
		}
		return nil, fmt.Errorf("failed to update complex %d: %w", complexID, err)
	}

	populateComplexPhotoURL(cx, s.uploader)
	return cx, nil
}

func (s *complexService) DeleteComplex(ctx context.Context, complexID, currentUserID int) error {
	cx, err := s.getComplex(ctx, complexID)
	if err != nil {
		return err
	}
	if cx.AdminID != currentUserID {
		return ErrComplexAdminForbidden
	}

	if err := s.complexRepo.Delete(ctx, complexID); err != nil {
		if errors.Is(err, repositories.ErrComplexNotFound) {
			return ErrComplexNotFound
		}
		return fmt.Errorf("failed to delete complex %d: %w", complexID, err)
	}

	if cx.PhotoKey != nil && s.uploader != nil {
		_ = s.uploader.Delete(ctx, *cx.PhotoKey)
	}
	return nil
}

func (s *complexService) ListComplexes(ctx context.Context) ([]*models.Complex, error) {
	complexes, err := s.complexRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, cx := range complexes {
		populateComplexPhotoURL(cx, s.uploader)
	}
	return complexes, nil
}

func (s *complexService) UploadComplexPhoto(ctx context.Context, complexID, currentUserID int, contentType string, file io.Reader) (*models.Complex, error) {
	cx, err := s.getComplex(ctx, complexID)
	if err != nil {
		return nil, err
	}
	if cx.AdminID != currentUserID {
		return nil, ErrComplexAdminForbidden
	}

	result, err := s.uploader.Upload(ctx, storage.ComplexPhotoKey(complexID), contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload complex photo: %w", err)
	}

	cx.PhotoKey = &result.Key
	if err := s.complexRepo.Update(ctx, cx); err != nil {
		return nil, fmt.Errorf("failed to store complex photo key: %w", err)
	}

	populateComplexPhotoURL(cx, s.uploader)
	return cx, nil
}

func (s *complexService) getComplex(ctx context.Context, complexID int) (*models.Complex, error) {
	cx, err := s.complexRepo.GetByID(ctx, complexID)
	if err != nil {
		if errors.Is(err, repositories.ErrComplexNotFound) {
			return nil, ErrComplexNotFound
		}
		return nil, fmt.Errorf("failed to get complex %d: %w", complexID, err)
	}
	return cx, nil
}
