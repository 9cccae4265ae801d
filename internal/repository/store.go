package repository

import (
	"context"
	"errors"

	"github.com/rtchess/backend/internal/models"
)

// Sentinel resource errors (§7 taxonomy: recoverable, per-request).
var (
	ErrGameNotFound        = errors.New("repository: game not found")
	ErrUserNotFound        = errors.New("repository: user not found")
	ErrCustomBoardNotFound = errors.New("repository: custom board not found")
)

// GameStore is the persistence contract GameManager depends on (§6). It is
// an interface — not the concrete *PostgresDB-backed type directly — because
// the spec frames persistence as an external, contract-only collaborator
// and GameManager must be testable against an in-memory fake.
type GameStore interface {
	CreateGame(ctx context.Context, game *models.Game) error
	GetGame(ctx context.Context, id string) (*models.Game, error)
	GetGameByRoomCode(ctx context.Context, roomCode string) (*models.Game, error)
	UpdateGame(ctx context.Context, game *models.Game) error
	DeleteGame(ctx context.Context, id string) error
}

// UserStore is the persistence contract for rating lookups and updates.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateRating(ctx context.Context, id string, newRating int) error
	UpdateStats(ctx context.Context, id string, stats models.UserStats) error
}

// CustomBoardStore is the persistence contract for saved board layouts.
type CustomBoardStore interface {
	CreateCustomBoard(ctx context.Context, board *models.CustomBoard) error
	GetCustomBoard(ctx context.Context, id string) (*models.CustomBoard, error)
	DeleteCustomBoard(ctx context.Context, id string) error
	UpdateCustomBoard(ctx context.Context, board *models.CustomBoard) error
}

// FriendshipStore is the persistence contract for friend lookups, used by
// FriendshipHandler; RoomManager does not consult it.
type FriendshipStore interface {
	CreateFriendship(ctx context.Context, f *models.Friendship) error
	AreFriends(ctx context.Context, userID, friendID string) (bool, error)
	DeleteFriendship(ctx context.Context, userID, friendID string) error
}
