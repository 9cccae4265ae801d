package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func freshState() *PlayerState {
	return &PlayerState{
		Energy:           25,
		EnergyRegenRate:  EnergyInitialRegen,
		LastEnergyUpdate: 0,
		PieceCooldowns:   make(map[string]int64),
	}
}

func TestValidateMoveRejectsSameSquare(t *testing.T) {
	b := NewInitialBoard()
	state := freshState()
	result := ValidateMove(b, Move{PlayerID: "p1", FromRow: 6, FromCol: 0, ToRow: 6, ToCol: 0}, White, state, 0)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonIllegalMove, result.Reason)
}

func TestValidateMoveRejectsOutOfBounds(t *testing.T) {
	b := NewInitialBoard()
	state := freshState()
	result := ValidateMove(b, Move{FromRow: 6, FromCol: 0, ToRow: 8, ToCol: 0}, White, state, 0)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonInvalidPiece, result.Reason)
}

func TestValidateMoveRejectsEmptySource(t *testing.T) {
	b := NewInitialBoard()
	state := freshState()
	result := ValidateMove(b, Move{FromRow: 4, FromCol: 4, ToRow: 3, ToCol: 4}, White, state, 0)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonInvalidPiece, result.Reason)
}

func TestValidateMoveRejectsWrongOwner(t *testing.T) {
	b := NewInitialBoard()
	state := freshState()
	result := ValidateMove(b, Move{FromRow: 1, FromCol: 0, ToRow: 2, ToCol: 0}, White, state, 0)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonInvalidPiece, result.Reason)
}

func TestValidateMoveRejectsOnCooldown(t *testing.T) {
	b := NewInitialBoard()
	state := freshState()
	pawn := b.Get(6, 0)
	state.PieceCooldowns[pawn.ID] = 5000
	result := ValidateMove(b, Move{FromRow: 6, FromCol: 0, ToRow: 5, ToCol: 0}, White, state, 1000)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonPieceOnCooldown, result.Reason)
}

func TestValidateMoveAllowsAtCooldownEquality(t *testing.T) {
	b := NewInitialBoard()
	state := freshState()
	pawn := b.Get(6, 0)
	state.PieceCooldowns[pawn.ID] = 1000
	result := ValidateMove(b, Move{FromRow: 6, FromCol: 0, ToRow: 5, ToCol: 0}, White, state, 1000)
	assert.True(t, result.Valid)
}

func TestValidateMoveRejectsInsufficientEnergy(t *testing.T) {
	b := NewInitialBoard()
	state := freshState()
	state.Energy = 0
	result := ValidateMove(b, Move{FromRow: 6, FromCol: 0, ToRow: 5, ToCol: 0}, White, state, 0)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonInsufficientEnergy, result.Reason)
}

func TestValidateMoveRejectsFriendlyCapture(t *testing.T) {
	b := NewInitialBoard()
	state := freshState()
	result := ValidateMove(b, Move{FromRow: 7, FromCol: 0, ToRow: 6, ToCol: 0}, White, state, 0)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonIllegalMove, result.Reason)
}

func TestPawnGeometry(t *testing.T) {
	b := NewBoard()
	pawn := &Piece{ID: "w-pawn-1", Kind: KindPawn, Color: White}
	b.Set(6, 4, pawn)

	assert.True(t, pawnGeometry{}.IsLegal(b, pawn, 5, 4), "single step forward")
	assert.True(t, pawnGeometry{}.IsLegal(b, pawn, 4, 4), "double step from starting row")

	b.Set(5, 4, &Piece{ID: "blocker", Kind: KindPawn, Color: White})
	assert.False(t, pawnGeometry{}.IsLegal(b, pawn, 4, 4), "blocked intermediate cell")
}

func TestPawnGeometryDiagonalCapture(t *testing.T) {
	b := NewBoard()
	pawn := &Piece{ID: "w-pawn-1", Kind: KindPawn, Color: White}
	b.Set(6, 4, pawn)
	b.Set(5, 5, &Piece{ID: "b-pawn-1", Kind: KindPawn, Color: Black})

	assert.True(t, pawnGeometry{}.IsLegal(b, pawn, 5, 5))
	assert.False(t, pawnGeometry{}.IsLegal(b, pawn, 5, 3), "no enemy on empty diagonal")
}

func TestTwistedPawnInvertsCaptureRules(t *testing.T) {
	b := NewBoard()
	tp := &Piece{ID: "w-tp-1", Kind: KindTwistedPawn, Color: White}
	b.Set(6, 4, tp)

	assert.True(t, twistedPawnGeometry{}.IsLegal(b, tp, 5, 5), "diagonal move onto empty square is legal")

	b.Set(5, 4, &Piece{ID: "b-pawn-1", Kind: KindPawn, Color: Black})
	assert.True(t, twistedPawnGeometry{}.IsLegal(b, tp, 5, 4), "straight move is legal only as a capture")

	b.Set(5, 4, nil)
	assert.False(t, twistedPawnGeometry{}.IsLegal(b, tp, 5, 4), "straight move onto empty square is illegal")
}

func TestKnightGeometry(t *testing.T) {
	b := NewBoard()
	n := &Piece{ID: "w-knight-1", Kind: KindKnight, Color: White}
	b.Set(4, 4, n)
	assert.True(t, knightGeometry{}.IsLegal(b, n, 6, 5))
	assert.True(t, knightGeometry{}.IsLegal(b, n, 2, 3))
	assert.False(t, knightGeometry{}.IsLegal(b, n, 5, 5))
}

func TestRookGeometryBlockedPath(t *testing.T) {
	b := NewBoard()
	r := &Piece{ID: "w-rook-1", Kind: KindRook, Color: White}
	b.Set(7, 0, r)
	assert.True(t, rookGeometry{}.IsLegal(b, r, 0, 0))

	b.Set(4, 0, &Piece{ID: "blocker", Kind: KindPawn, Color: Black})
	assert.False(t, rookGeometry{}.IsLegal(b, r, 0, 0))
}

func TestBishopGeometryDiagonalOnly(t *testing.T) {
	b := NewBoard()
	bp := &Piece{ID: "w-bishop-1", Kind: KindBishop, Color: White}
	b.Set(7, 2, bp)
	assert.True(t, bishopGeometry{}.IsLegal(b, bp, 3, 6))
	assert.False(t, bishopGeometry{}.IsLegal(b, bp, 7, 5), "not diagonal")
}

func TestFlyingCastleJumpsAtMostOne(t *testing.T) {
	b := NewBoard()
	fc := &Piece{ID: "w-fc-1", Kind: KindFlyingCastle, Color: White}
	b.Set(7, 0, fc)
	b.Set(5, 0, &Piece{ID: "screen", Kind: KindPawn, Color: White})

	assert.True(t, flyingCastleGeometry{}.IsLegal(b, fc, 2, 0), "one screen piece is jumpable")

	b.Set(3, 0, &Piece{ID: "second-screen", Kind: KindPawn, Color: White})
	assert.False(t, flyingCastleGeometry{}.IsLegal(b, fc, 2, 0), "two screens cannot be jumped")
}

func TestKingGeometryOneStepAnyDirection(t *testing.T) {
	b := NewBoard()
	k := &Piece{ID: "w-king-1", Kind: KindKing, Color: White}
	b.Set(4, 4, k)
	assert.True(t, kingGeometry{}.IsLegal(b, k, 5, 5))
	assert.True(t, kingGeometry{}.IsLegal(b, k, 3, 4))
	assert.False(t, kingGeometry{}.IsLegal(b, k, 6, 4))
}

func TestPrinceUsesKnightGeometry(t *testing.T) {
	b := NewBoard()
	pr := &Piece{ID: "w-prince-1", Kind: KindPrince, Color: White}
	b.Set(4, 4, pr)
	assert.True(t, geometryFor(KindPrince).IsLegal(b, pr, 6, 5))
}

func TestIceBishopUsesBishopGeometry(t *testing.T) {
	b := NewBoard()
	ib := &Piece{ID: "w-iceb-1", Kind: KindIceBishop, Color: White}
	b.Set(4, 4, ib)
	assert.True(t, geometryFor(KindIceBishop).IsLegal(b, ib, 2, 2))
}
