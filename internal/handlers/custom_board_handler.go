package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rtchess/backend/internal/chess"
	"github.com/rtchess/backend/internal/middleware"
	"github.com/rtchess/backend/internal/models"
	"github.com/rtchess/backend/internal/repository"
)

// CustomBoardHandler exposes the saved-board-layout persistence contract
// (§4.2 constraints, §6) over REST.
type CustomBoardHandler struct {
	boards repository.CustomBoardStore
}

// NewCustomBoardHandler creates a new CustomBoardHandler.
func NewCustomBoardHandler(boards repository.CustomBoardStore) *CustomBoardHandler {
	return &CustomBoardHandler{boards: boards}
}

// SaveCustomBoardRequest represents a request to save a custom board layout.
type SaveCustomBoardRequest struct {
	Name   string      `json:"name"`
	Layout [][]*string `json:"layout"`
}

// CreateCustomBoard validates and persists a new saved board layout.
func (h *CustomBoardHandler) CreateCustomBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}

	var req SaveCustomBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := validateCustomBoardLayout(req.Layout); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_layout", err.Error())
		return
	}

	board := &models.CustomBoard{
		ID:      uuid.NewString(),
		OwnerID: userID,
		Name:    req.Name,
		Layout:  req.Layout,
	}
	if err := h.boards.CreateCustomBoard(r.Context(), board); err != nil {
		respondError(w, http.StatusInternalServerError, "save_failed", "Failed to save custom board")
		return
	}

	respondJSON(w, http.StatusCreated, board)
}

// GetCustomBoard retrieves a saved board layout by ID.
func (h *CustomBoardHandler) GetCustomBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "boardId")

	board, err := h.boards.GetCustomBoard(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomBoardNotFound) {
			respondError(w, http.StatusNotFound, "board_not_found", "Custom board not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", "Failed to get custom board")
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// UpdateCustomBoard updates a saved board layout's name and/or layout.
func (h *CustomBoardHandler) UpdateCustomBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}

	id := chi.URLParam(r, "boardId")
	existing, err := h.boards.GetCustomBoard(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomBoardNotFound) {
			respondError(w, http.StatusNotFound, "board_not_found", "Custom board not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", "Failed to get custom board")
		return
	}
	if existing.OwnerID != userID {
		respondError(w, http.StatusForbidden, "not_owner", "Only the owner may update this board")
		return
	}

	var req SaveCustomBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := validateCustomBoardLayout(req.Layout); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_layout", err.Error())
		return
	}

	existing.Name = req.Name
	existing.Layout = req.Layout
	if err := h.boards.UpdateCustomBoard(r.Context(), existing); err != nil {
		respondError(w, http.StatusInternalServerError, "update_failed", "Failed to update custom board")
		return
	}

	respondJSON(w, http.StatusOK, existing)
}

// DeleteCustomBoard deletes a saved board layout.
func (h *CustomBoardHandler) DeleteCustomBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}

	id := chi.URLParam(r, "boardId")
	existing, err := h.boards.GetCustomBoard(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomBoardNotFound) {
			respondError(w, http.StatusNotFound, "board_not_found", "Custom board not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", "Failed to get custom board")
		return
	}
	if existing.OwnerID != userID {
		respondError(w, http.StatusForbidden, "not_owner", "Only the owner may delete this board")
		return
	}

	if err := h.boards.DeleteCustomBoard(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "delete_failed", "Failed to delete custom board")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var errCustomBoardDim = fmt.Errorf("custom board layout must be an %dx%d grid", chess.BoardSize, chess.BoardSize)

// validateCustomBoardLayout checks dimensions, then delegates piece-kind and
// king-placement validation to chess.ValidateCustomBoard (§4.2), the same
// entry point NewBoardFromLayout requires callers to run first.
func validateCustomBoardLayout(layout [][]*string) error {
	if len(layout) != chess.BoardSize {
		return errCustomBoardDim
	}

	var grid [chess.BoardSize][chess.BoardSize]*chess.PieceLayout
	for r, row := range layout {
		if len(row) != chess.BoardSize {
			return errCustomBoardDim
		}
		for c, cell := range row {
			if cell == nil {
				continue
			}
			pl, err := parsePieceLayout(*cell)
			if err != nil {
				return err
			}
			grid[r][c] = pl
		}
	}

	return chess.ValidateCustomBoard(grid)
}

// parsePieceLayout parses a "<color>:<kind>" cell string into a PieceLayout.
func parsePieceLayout(cell string) (*chess.PieceLayout, error) {
	color, kind, ok := strings.Cut(cell, ":")
	if !ok {
		return nil, fmt.Errorf("custom board: cell %q must be \"<color>:<kind>\"", cell)
	}
	switch chess.Color(color) {
	case chess.White, chess.Black:
	default:
		return nil, fmt.Errorf("custom board: unrecognised color %q", color)
	}
	return &chess.PieceLayout{Kind: chess.Kind(kind), Color: chess.Color(color)}, nil
}
