package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
	"github.com/bgaliyev/cue-league/storage"
)

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	UploadLogo(ctx context.Context, userID int, file io.Reader, contentType string) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{userRepo: userRepo, uploader: uploader}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	populateUserLogoURL(user, s.uploader)
	return user, nil
}

func (s *userService) UploadLogo(ctx context.Context, userID int, file io.Reader, contentType string) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	key := fmt.Sprintf("users/%d/logo%s", userID, ext)
	if _, err := s.uploader.Upload(ctx, key, file, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload user logo: %w", err)
	}
	if err := s.userRepo.UpdateLogoKey(ctx, userID, key); err != nil {
		return nil, fmt.Errorf("failed to persist user logo key: %w", err)
	}
	user.LogoKey = &key
	populateUserLogoURL(user, s.uploader)
	return user, nil
}
