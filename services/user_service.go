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

type UpdateUserInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

type UserService interface {
	GetUserByID(ctx context.Context, userID int) (*models.User, error)
	UpdateUser(ctx context.Context, userID int, input UpdateUserInput, currentUserID int) (*models.User, error)
	UploadAvatar(ctx context.Context, userID, currentUserID int, contentType string, file io.Reader) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{userRepo: userRepo, uploader: uploader}
}

func (s *userService) GetUserByID(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	populateUserAvatarURL(user, s.uploader)
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID int, input UpdateUserInput, currentUserID int) (*models.User, error) {
	if userID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}

	user.PasswordHash = ""
	populateUserAvatarURL(user, s.uploader)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID, currentUserID int, contentType string, file io.Reader) (*models.User, error) {
	if userID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.uploader.Upload(ctx, storage.UserAvatarKey(userID), contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	user.AvatarKey = &result.Key
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store avatar key: %w", err)
	}

	user.PasswordHash = ""
	populateUserAvatarURL(user, s.uploader)
	return user, nil
}

func (s *userService) getUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}
