package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rtchess/backend/internal/models"
)

// GameRepository is the Postgres-backed GameStore implementation.
type GameRepository struct {
	db *PostgresDB
}

// NewGameRepository creates a new GameRepository.
func NewGameRepository(db *PostgresDB) *GameRepository {
	return &GameRepository{db: db}
}

var _ GameStore = (*GameRepository)(nil)

// CreateGame persists a new game record.
func (r *GameRepository) CreateGame(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (
			id, white_player_id, black_player_id, status, winner_color, rated,
			room_code, board_snapshot, white_state, black_state, created_at,
			started_at, last_move_at, ended_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	game.CreatedAt = time.Now()

	_, err := r.db.Pool().Exec(ctx, query,
		game.ID,
		game.WhitePlayerID,
		game.BlackPlayerID,
		game.Status,
		game.WinnerColor,
		game.Rated,
		game.RoomCode,
		game.BoardSnapshot,
		game.WhiteState,
		game.BlackState,
		game.CreatedAt,
		game.StartedAt,
		game.LastMoveAt,
		game.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// GetGame retrieves a game by its ID.
func (r *GameRepository) GetGame(ctx context.Context, id string) (*models.Game, error) {
	query := `
		SELECT id, white_player_id, black_player_id, status, winner_color, rated,
			   room_code, board_snapshot, white_state, black_state, created_at,
			   started_at, last_move_at, ended_at
		FROM games
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

// GetGameByRoomCode retrieves a game by its room code.
func (r *GameRepository) GetGameByRoomCode(ctx context.Context, roomCode string) (*models.Game, error) {
	query := `
		SELECT id, white_player_id, black_player_id, status, winner_color, rated,
			   room_code, board_snapshot, white_state, black_state, created_at,
			   started_at, last_move_at, ended_at
		FROM games
		WHERE room_code = $1
	`
	return r.scanOne(ctx, query, roomCode)
}

func (r *GameRepository) scanOne(ctx context.Context, query string, arg any) (*models.Game, error) {
	var game models.Game
	err := r.db.Pool().QueryRow(ctx, query, arg).Scan(
		&game.ID,
		&game.WhitePlayerID,
		&game.BlackPlayerID,
		&game.Status,
		&game.WinnerColor,
		&game.Rated,
		&game.RoomCode,
		&game.BoardSnapshot,
		&game.WhiteState,
		&game.BlackState,
		&game.CreatedAt,
		&game.StartedAt,
		&game.LastMoveAt,
		&game.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &game, nil
}

// UpdateGame updates a game's mutable fields (players/board/states/status/
// winner/timestamps), per the §6 persistence contract.
func (r *GameRepository) UpdateGame(ctx context.Context, game *models.Game) error {
	query := `
		UPDATE games
		SET status = $2, winner_color = $3, board_snapshot = $4,
			white_state = $5, black_state = $6, started_at = $7,
			last_move_at = $8, ended_at = $9,
			white_player_id = $10, black_player_id = $11
		WHERE id = $1
	`
	result, err := r.db.Pool().Exec(ctx, query,
		game.ID,
		game.Status,
		game.WinnerColor,
		game.BoardSnapshot,
		game.WhiteState,
		game.BlackState,
		game.StartedAt,
		game.LastMoveAt,
		game.EndedAt,
		game.WhitePlayerID,
		game.BlackPlayerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

// DeleteGame deletes a game record.
func (r *GameRepository) DeleteGame(ctx context.Context, id string) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}
