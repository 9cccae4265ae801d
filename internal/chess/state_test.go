package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStateCloneIsIndependent(t *testing.T) {
	state := &GameState{
		ID:    "g1",
		Board: NewInitialBoard(),
		White: NewPlayerState(0),
		Black: NewPlayerState(0),
	}
	state.White.PieceCooldowns["w-pawn-1"] = 5000

	clone := state.Clone()
	clone.White.Energy = 999
	clone.White.PieceCooldowns["w-pawn-1"] = 1
	clone.Board.Set(6, 0, nil)

	require.NotEqual(t, clone.White.Energy, state.White.Energy)
	assert.Equal(t, int64(5000), state.White.PieceCooldowns["w-pawn-1"])
	assert.False(t, state.Board.IsEmpty(6, 0))
}
