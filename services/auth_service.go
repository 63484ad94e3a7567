package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
	"github.com/bgaliyev/cue-league/utils"
	"github.com/golang-jwt/jwt/v4"
)

const (
	minPasswordLength = 8
	tokenTTL          = 24 * time.Hour
	defaultRating     = 1000
)

type SignUpInput struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Nickname  *string `json:"nickname"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
}

type AuthService interface {
	SignUp(ctx context.Context, input SignUpInput) (*models.User, error)
	// SignIn verifies credentials and returns a signed JWT.
	SignIn(ctx context.Context, email, password string) (string, *models.User, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) AuthService {
	return &authService{userRepo: userRepo, jwtSecret: []byte(jwtSecret)}
}

func (s *authService) SignUp(ctx context.Context, input SignUpInput) (*models.User, error) {
	if input.Email == "" || input.FirstName == "" {
		return nil, fmt.Errorf("%w: first name and email are required", ErrValidationFailed)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, minPasswordLength)
	}

	role := models.UserRole(input.Role)
	switch role {
	case models.RolePlayer, models.RoleOrganizer:
	case "":
		role = models.RolePlayer
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationFailed, input.Role)
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Nickname:     input.Nickname,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		Rating:       defaultRating,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserNicknameConflict):
			return nil, ErrUserNicknameConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	user.PasswordHash = ""
	return token, user, nil
}
