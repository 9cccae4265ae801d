package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rtchess/backend/internal/models"
)

// UserRepository is the Postgres-backed UserStore implementation.
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

var _ UserStore = (*UserRepository)(nil)

// Create creates a new user with the default starting rating.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, display_name, rating, total_games, wins, losses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Rating == 0 {
		user.Rating = models.DefaultRating
	}

	_, err := r.db.Pool().Exec(ctx, query,
		user.ID,
		user.DisplayName,
		user.Rating,
		user.TotalGames,
		user.Wins,
		user.Losses,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, display_name, rating, total_games, wins, losses, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.DisplayName,
		&user.Rating,
		&user.TotalGames,
		&user.Wins,
		&user.Losses,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateRating sets a user's rating, as computed by GameManager's ELO
// update (§4.7).
func (r *UserRepository) UpdateRating(ctx context.Context, id string, newRating int) error {
	query := `UPDATE users SET rating = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, id, newRating, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateStats updates a user's win/loss tally after a finished game.
func (r *UserRepository) UpdateStats(ctx context.Context, id string, stats models.UserStats) error {
	query := `
		UPDATE users
		SET total_games = $2, wins = $3, losses = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.Pool().Exec(ctx, query, id, stats.TotalGames, stats.Wins, stats.Losses, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update user stats: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateDisplayName changes a user's display name.
func (r *UserRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	query := `UPDATE users SET display_name = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, id, displayName, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Exists checks if a user with the given ID exists.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := r.db.Pool().QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
