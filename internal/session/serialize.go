package session

import (
	"encoding/json"
	"fmt"

	"github.com/rtchess/backend/internal/chess"
	"github.com/rtchess/backend/internal/models"
)

// boardToSnapshot flattens a live board into its JSON-portable form, built on
// Board.Pieces() — the same occupied-cell view the wire representation uses.
func boardToSnapshot(b *chess.Board) ([]byte, error) {
	var pieces []models.PieceSnapshot
	for _, p := range b.Pieces() {
		pieces = append(pieces, models.PieceSnapshot{
			ID:               p.ID,
			Kind:             string(p.Kind),
			Color:            string(p.Color),
			Row:              p.Row,
			Col:              p.Col,
			HasMoved:         p.HasMoved,
			AbilityAvailable: p.AbilityAvailable,
		})
	}
	data, err := json.Marshal(pieces)
	if err != nil {
		return nil, fmt.Errorf("marshal board snapshot: %w", err)
	}
	return data, nil
}

// boardFromSnapshot rebuilds a board from its JSON-portable form.
func boardFromSnapshot(data []byte) (*chess.Board, error) {
	var pieces []models.PieceSnapshot
	if err := json.Unmarshal(data, &pieces); err != nil {
		return nil, fmt.Errorf("unmarshal board snapshot: %w", err)
	}
	b := chess.NewBoard()
	for _, p := range pieces {
		b.Set(p.Row, p.Col, &chess.Piece{
			ID:               p.ID,
			Kind:             chess.Kind(p.Kind),
			Color:            chess.Color(p.Color),
			HasMoved:         p.HasMoved,
			AbilityAvailable: p.AbilityAvailable,
		})
	}
	return b, nil
}

func playerStateToSnapshot(s *chess.PlayerState) ([]byte, error) {
	snap := models.PlayerStateSnapshot{
		Energy:           s.Energy,
		EnergyRegenRate:  s.EnergyRegenRate,
		LastEnergyUpdate: s.LastEnergyUpdate,
		PieceCooldowns:   s.PieceCooldowns,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal player state snapshot: %w", err)
	}
	return data, nil
}

func playerStateFromSnapshot(data []byte) (*chess.PlayerState, error) {
	var snap models.PlayerStateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal player state snapshot: %w", err)
	}
	if snap.PieceCooldowns == nil {
		snap.PieceCooldowns = make(map[string]int64)
	}
	return &chess.PlayerState{
		Energy:           snap.Energy,
		EnergyRegenRate:  snap.EnergyRegenRate,
		LastEnergyUpdate: snap.LastEnergyUpdate,
		PieceCooldowns:   snap.PieceCooldowns,
	}, nil
}
