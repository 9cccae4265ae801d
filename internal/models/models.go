// Package models contains the persisted record shapes for the chess
// variant application — the DTOs that cross the repository boundary, kept
// separate from the live in-memory types in internal/chess.
package models

import "time"

// User represents a player account.
type User struct {
	ID          string    `json:"id" db:"id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Rating      int       `json:"rating" db:"rating"`
	TotalGames  int       `json:"total_games" db:"total_games"`
	Wins        int       `json:"wins" db:"wins"`
	Losses      int       `json:"losses" db:"losses"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultRating is the starting ELO rating for a newly created user (§6).
const DefaultRating = 1000

// UserStats summarises a user's win rate.
type UserStats struct {
	TotalGames    int     `json:"total_games"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinPercentage float64 `json:"win_percentage"`
	Rating        int     `json:"rating"`
}

// Stats computes the user's gameplay statistics.
func (u *User) Stats() UserStats {
	var winPct float64
	if u.TotalGames > 0 {
		winPct = float64(u.Wins) / float64(u.TotalGames) * 100
	}
	return UserStats{
		TotalGames:    u.TotalGames,
		Wins:          u.Wins,
		Losses:        u.Losses,
		WinPercentage: winPct,
		Rating:        u.Rating,
	}
}

// GameStatus mirrors chess.Status for the persisted record.
type GameStatus string

const (
	GameStatusWaiting   GameStatus = "waiting"
	GameStatusActive    GameStatus = "active"
	GameStatusFinished  GameStatus = "finished"
	GameStatusAbandoned GameStatus = "abandoned"
)

// PlayerColor mirrors chess.Color for persistence. Kept as its own type so
// this package does not need to import internal/chess.
type PlayerColor string

const (
	PlayerColorWhite PlayerColor = "white"
	PlayerColorBlack PlayerColor = "black"
)

// Game is the persisted record of one game, matching the persistence
// contract in §6: board and player-state snapshots are stored as opaque
// JSON rather than structured columns, since the core treats persistence as
// an external, contract-only collaborator.
type Game struct {
	ID            string       `json:"id" db:"id"`
	WhitePlayerID string       `json:"white_player_id" db:"white_player_id"`
	BlackPlayerID string       `json:"black_player_id" db:"black_player_id"`
	Status        GameStatus   `json:"status" db:"status"`
	WinnerColor   *PlayerColor `json:"winner_color,omitempty" db:"winner_color"`
	Rated         bool         `json:"rated" db:"rated"`
	RoomCode      *string      `json:"room_code,omitempty" db:"room_code"`
	BoardSnapshot []byte       `json:"board_snapshot" db:"board_snapshot"`
	WhiteState    []byte       `json:"white_state" db:"white_state"`
	BlackState    []byte       `json:"black_state" db:"black_state"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty" db:"started_at"`
	LastMoveAt    *time.Time   `json:"last_move_at,omitempty" db:"last_move_at"`
	EndedAt       *time.Time   `json:"ended_at,omitempty" db:"ended_at"`
}

// PieceSnapshot is the JSON-portable representation of one board piece,
// used inside BoardSnapshot.
type PieceSnapshot struct {
	ID               string `json:"id"`
	Kind             string `json:"kind"`
	Color            string `json:"color"`
	Row              int    `json:"row"`
	Col              int    `json:"col"`
	HasMoved         bool   `json:"hasMoved"`
	AbilityAvailable bool   `json:"abilityAvailable,omitempty"`
}

// PlayerStateSnapshot is the JSON-portable representation of a PlayerState.
// pieceCooldowns is serialised as an object keyed by piece identifier with
// numeric millisecond values (§6): the native map type needs an explicit
// field to round-trip predictably through the repository boundary.
type PlayerStateSnapshot struct {
	Energy           float64          `json:"energy"`
	EnergyRegenRate  float64          `json:"energyRegenRate"`
	LastEnergyUpdate int64            `json:"lastEnergyUpdate"`
	PieceCooldowns   map[string]int64 `json:"pieceCooldowns"`
}

// Friendship is a single directed friend relationship.
type Friendship struct {
	UserID    string    `json:"user_id" db:"user_id"`
	FriendID  string    `json:"friend_id" db:"friend_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CustomBoard is a saved, named alternate board layout: an 8x8 grid where
// each cell is an optional "<color>:<kind>" string.
type CustomBoard struct {
	ID        string      `json:"id" db:"id"`
	OwnerID   string      `json:"owner_id" db:"owner_id"`
	Name      string      `json:"name" db:"name"`
	Layout    [][]*string `json:"layout" db:"layout"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
