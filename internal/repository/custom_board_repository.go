package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rtchess/backend/internal/models"
)

// CustomBoardRepository is the Postgres-backed CustomBoardStore implementation.
type CustomBoardRepository struct {
	db *PostgresDB
}

// NewCustomBoardRepository creates a new CustomBoardRepository.
func NewCustomBoardRepository(db *PostgresDB) *CustomBoardRepository {
	return &CustomBoardRepository{db: db}
}

var _ CustomBoardStore = (*CustomBoardRepository)(nil)

// CreateCustomBoard persists a new custom board layout.
func (r *CustomBoardRepository) CreateCustomBoard(ctx context.Context, board *models.CustomBoard) error {
	layout, err := json.Marshal(board.Layout)
	if err != nil {
		return fmt.Errorf("failed to marshal custom board layout: %w", err)
	}

	board.CreatedAt = time.Now()

	query := `
		INSERT INTO custom_boards (id, owner_id, name, layout, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Pool().Exec(ctx, query, board.ID, board.OwnerID, board.Name, layout, board.CreatedAt); err != nil {
		return fmt.Errorf("failed to create custom board: %w", err)
	}
	return nil
}

// GetCustomBoard retrieves a custom board by ID.
func (r *CustomBoardRepository) GetCustomBoard(ctx context.Context, id string) (*models.CustomBoard, error) {
	query := `SELECT id, owner_id, name, layout, created_at FROM custom_boards WHERE id = $1`

	var board models.CustomBoard
	var layout []byte
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&board.ID, &board.OwnerID, &board.Name, &layout, &board.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomBoardNotFound
		}
		return nil, fmt.Errorf("failed to get custom board: %w", err)
	}
	if err := json.Unmarshal(layout, &board.Layout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal custom board layout: %w", err)
	}
	return &board, nil
}

// UpdateCustomBoard updates a custom board's name and layout.
func (r *CustomBoardRepository) UpdateCustomBoard(ctx context.Context, board *models.CustomBoard) error {
	layout, err := json.Marshal(board.Layout)
	if err != nil {
		return fmt.Errorf("failed to marshal custom board layout: %w", err)
	}

	query := `UPDATE custom_boards SET name = $2, layout = $3 WHERE id = $1`
	result, err := r.db.Pool().Exec(ctx, query, board.ID, board.Name, layout)
	if err != nil {
		return fmt.Errorf("failed to update custom board: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCustomBoardNotFound
	}
	return nil
}

// DeleteCustomBoard deletes a custom board.
func (r *CustomBoardRepository) DeleteCustomBoard(ctx context.Context, id string) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM custom_boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete custom board: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCustomBoardNotFound
	}
	return nil
}
