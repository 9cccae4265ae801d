package chess

import "fmt"

// ValidateCustomBoard checks an 8x8 grid of optional piece layouts against
// the custom-board rules (§4.2): correct dimensions, only recognised kinds,
// and exactly the kings placed on row 0 or row 7 at column 4. Returns the
// first violation found, or nil if the layout is valid.
func ValidateCustomBoard(layout [BoardSize][BoardSize]*PieceLayout) error {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			l := layout[r][c]
			if l == nil {
				continue
			}
			if !isKnownKind(l.Kind) {
				return fmt.Errorf("custom board: unrecognised piece kind %q at (%d,%d)", l.Kind, r, c)
			}
			if l.Kind == KindKing && !(c == 4 && (r == 0 || r == 7)) {
				return fmt.Errorf("custom board: king must be placed at column 4 of row 0 or row 7, found at (%d,%d)", r, c)
			}
		}
	}
	return nil
}

func isKnownKind(k Kind) bool {
	switch k {
	case KindPawn, KindKnight, KindBishop, KindRook, KindQueen, KindKing,
		KindTwistedPawn, KindPawnGeneral, KindFlyingCastle, KindPrince, KindIceBishop:
		return true
	default:
		return false
	}
}

// CanReplace reports whether a custom board may substitute replacement in
// place of original: both kinds must fall in the same category (§4.2).
func CanReplace(original, replacement Kind) bool {
	return CategoryOf(original) == CategoryOf(replacement)
}
