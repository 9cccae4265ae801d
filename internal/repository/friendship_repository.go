package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rtchess/backend/internal/models"
)

// FriendshipRepository is the Postgres-backed FriendshipStore implementation.
type FriendshipRepository struct {
	db *PostgresDB
}

// NewFriendshipRepository creates a new FriendshipRepository.
func NewFriendshipRepository(db *PostgresDB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

var _ FriendshipStore = (*FriendshipRepository)(nil)

// CreateFriendship records a directed friend relationship.
func (r *FriendshipRepository) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	f.CreatedAt = time.Now()
	query := `
		INSERT INTO friendships (user_id, friend_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`
	if _, err := r.db.Pool().Exec(ctx, query, f.UserID, f.FriendID, f.CreatedAt); err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// AreFriends reports whether a directed friendship exists between the two
// users.
func (r *FriendshipRepository) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`

	var exists bool
	if err := r.db.Pool().QueryRow(ctx, query, userID, friendID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// DeleteFriendship removes a directed friend relationship.
func (r *FriendshipRepository) DeleteFriendship(ctx context.Context, userID, friendID string) error {
	query := `DELETE FROM friendships WHERE user_id = $1 AND friend_id = $2`
	if _, err := r.db.Pool().Exec(ctx, query, userID, friendID); err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	return nil
}
