// Package services contains business logic sitting above the repository
// layer but below the HTTP handlers — currently just user registration and
// profile management, since matchmaking and game lifecycle logic live in
// internal/session instead (§4.7-4.9).
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rtchess/backend/internal/models"
	"github.com/rtchess/backend/internal/repository"
)

// UserService handles user registration and profile business logic.
type UserService struct {
	userRepo *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates a new user with the default starting rating, or returns
// the existing user if id is already registered.
func (s *UserService) Register(ctx context.Context, id, displayName string) (*models.User, error) {
	existing, err := s.userRepo.GetUser(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if err := s.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:          id,
		DisplayName: displayName,
		Rating:      models.DefaultRating,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateDisplayName updates a user's display name.
func (s *UserService) UpdateDisplayName(ctx context.Context, id, displayName string) (*models.User, error) {
	if err := s.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.userRepo.UpdateDisplayName(ctx, id, displayName); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.DisplayName = displayName
	return user, nil
}

// ValidateDisplayName validates a display name.
func (s *UserService) ValidateDisplayName(name string) error {
	length := utf8.RuneCountInString(name)
	if length < 3 {
		return ErrDisplayNameTooShort
	}
	if length > 20 {
		return ErrDisplayNameTooLong
	}

	validPattern := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	if !validPattern.MatchString(name) {
		return ErrDisplayNameInvalidChars
	}

	lowercaseName := strings.ToLower(name)
	reservedWords := []string{"admin", "moderator", "system", "null", "undefined"}
	for _, word := range reservedWords {
		if strings.Contains(lowercaseName, word) {
			return ErrDisplayNameReserved
		}
	}

	return nil
}

// Service errors
var (
	ErrUserNotFound            = errors.New("user not found")
	ErrDisplayNameTooShort     = errors.New("display name must be at least 3 characters")
	ErrDisplayNameTooLong      = errors.New("display name must be at most 20 characters")
	ErrDisplayNameInvalidChars = errors.New("display name can only contain letters, numbers, underscores, and hyphens")
	ErrDisplayNameReserved     = errors.New("display name contains a reserved word")
)
