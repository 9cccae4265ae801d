package chess

import (
	"encoding/json"
	"fmt"
)

// BoardSize is the fixed board dimension for this variant.
const BoardSize = 8

// Board is an 8x8 grid of optional pieces. A nil entry means the cell is
// empty. Board never shares Piece pointers with another Board — Clone always
// deep-copies.
type Board struct {
	cells [BoardSize][BoardSize]*Piece
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// inBounds reports whether (r, c) is a valid board coordinate.
func inBounds(r, c int) bool {
	return r >= 0 && r < BoardSize && c >= 0 && c < BoardSize
}

// Get returns the piece at (r, c), or nil if the cell is empty or out of
// bounds (§4.1 invariant).
func (b *Board) Get(r, c int) *Piece {
	if !inBounds(r, c) {
		return nil
	}
	return b.cells[r][c]
}

// Set places piece at (r, c), overwriting any previous occupant. If piece is
// non-nil its Row/Col are overwritten to (r, c). Out-of-bounds calls are a
// no-op.
func (b *Board) Set(r, c int, piece *Piece) {
	if !inBounds(r, c) {
		return
	}
	if piece != nil {
		piece.Row = r
		piece.Col = c
	}
	b.cells[r][c] = piece
}

// IsEmpty reports whether (r, c) holds no piece.
func (b *Board) IsEmpty(r, c int) bool {
	return b.Get(r, c) == nil
}

// FindByID returns the piece with the given identifier, or nil.
func (b *Board) FindByID(id string) *Piece {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if p := b.cells[r][c]; p != nil && p.ID == id {
				return p
			}
		}
	}
	return nil
}

// FindByColor returns every piece belonging to color, in row-major order.
func (b *Board) FindByColor(color Color) []*Piece {
	var out []*Piece
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if p := b.cells[r][c]; p != nil && p.Color == color {
				out = append(out, p)
			}
		}
	}
	return out
}

// FindKing returns the king belonging to color, or nil if it has been
// captured.
func (b *Board) FindKing(color Color) *Piece {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if p := b.cells[r][c]; p != nil && p.Color == color && p.Kind == KindKing {
				return p
			}
		}
	}
	return nil
}

// MovePiece relocates the piece at (fromR, fromC) to (toR, toC), marking it
// moved. Any previous occupant of the destination is discarded (capture is
// the caller's responsibility to record before calling this). Returns false
// if the source cell is empty.
func (b *Board) MovePiece(fromR, fromC, toR, toC int) bool {
	piece := b.Get(fromR, fromC)
	if piece == nil {
		return false
	}
	b.Set(fromR, fromC, nil)
	piece.HasMoved = true
	b.Set(toR, toC, piece)
	return true
}

// Pieces returns every occupied cell as a flat, row-major slice — the view
// used both for persistence snapshots and for the wire representation of a
// GameState, since Board's own cells field is unexported.
func (b *Board) Pieces() []*Piece {
	var out []*Piece
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if p := b.cells[r][c]; p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// MarshalJSON encodes the board as its occupied pieces, each carrying its own
// Row/Col. Without this, json.Marshal sees only the unexported cells array
// and silently emits "{}".
func (b *Board) MarshalJSON() ([]byte, error) {
	pieces := b.Pieces()
	if pieces == nil {
		pieces = []*Piece{}
	}
	return json.Marshal(pieces)
}

// UnmarshalJSON rebuilds the board from the piece list MarshalJSON produces.
func (b *Board) UnmarshalJSON(data []byte) error {
	var pieces []*Piece
	if err := json.Unmarshal(data, &pieces); err != nil {
		return err
	}
	var fresh Board
	for _, p := range pieces {
		fresh.cells[p.Row][p.Col] = p
	}
	*b = fresh
	return nil
}

// Clone returns a deep, independent copy of the board.
func (b *Board) Clone() *Board {
	out := NewBoard()
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if p := b.cells[r][c]; p != nil {
				out.cells[r][c] = p.Clone()
			}
		}
	}
	return out
}

// CheckIntegrity validates the board invariants from §3: a piece appears in
// at most one cell, each piece's stored Row/Col matches its cell, and
// identifiers are unique. It returns a non-nil *InvariantError describing the
// first violation found, or nil.
func (b *Board) CheckIntegrity() error {
	seen := make(map[string]struct{}, 32)
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			p := b.cells[r][c]
			if p == nil {
				continue
			}
			if p.Row != r || p.Col != c {
				return &InvariantError{Msg: fmt.Sprintf("piece %s stored at (%d,%d) but cell is (%d,%d)", p.ID, p.Row, p.Col, r, c)}
			}
			if _, dup := seen[p.ID]; dup {
				return &InvariantError{Msg: fmt.Sprintf("duplicate piece id %s on board", p.ID)}
			}
			seen[p.ID] = struct{}{}
		}
	}
	return nil
}

var standardBackRank = [BoardSize]Kind{
	KindRook, KindKnight, KindBishop, KindQueen, KindKing, KindBishop, KindKnight, KindRook,
}

// NewInitialBoard returns the standard chess starting position, with stable
// identifiers of the form "<color>-<kind>-<n>".
func NewInitialBoard() *Board {
	b := NewBoard()
	counts := make(map[Kind]int)
	place := func(row int, color Color, kind Kind, col int) {
		counts[kind]++
		id := fmt.Sprintf("%s-%s-%d", color, kind, counts[kind])
		b.Set(row, col, &Piece{ID: id, Kind: kind, Color: color, AbilityAvailable: kind == KindPrince})
	}

	for c := 0; c < BoardSize; c++ {
		place(7, White, standardBackRank[c], c)
		place(6, White, KindPawn, c)
		place(0, Black, standardBackRank[c], c)
		place(1, Black, KindPawn, c)
	}
	return b
}

// PieceLayout describes a single cell of a custom board setup (§4.2).
type PieceLayout struct {
	Kind  Kind
	Color Color
}

// NewBoardFromLayout builds a board from an 8x8 grid of optional piece
// descriptors, assigning stable identifiers the same way NewInitialBoard
// does. Callers must validate the layout with ValidateCustomBoard first.
func NewBoardFromLayout(layout [BoardSize][BoardSize]*PieceLayout) *Board {
	b := NewBoard()
	counts := make(map[Kind]int)
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			l := layout[r][c]
			if l == nil {
				continue
			}
			counts[l.Kind]++
			id := fmt.Sprintf("%s-%s-%d", l.Color, l.Kind, counts[l.Kind])
			b.Set(r, c, &Piece{ID: id, Kind: l.Kind, Color: l.Color, AbilityAvailable: l.Kind == KindPrince})
		}
	}
	return b
}
