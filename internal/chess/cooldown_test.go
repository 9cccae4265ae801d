package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetCooldownUsesBaseDuration(t *testing.T) {
	state := NewPlayerState(0)
	SetCooldown(state, "w-queen-1", KindQueen, 1000)
	assert.Equal(t, int64(1000+9000), state.PieceCooldowns["w-queen-1"])
}

func TestIsOnCooldownStrict(t *testing.T) {
	state := NewPlayerState(0)
	state.PieceCooldowns["p1"] = 5000
	assert.True(t, IsOnCooldown(state, "p1", 4999))
	assert.False(t, IsOnCooldown(state, "p1", 5000), "expiry is effective at equality")
	assert.False(t, IsOnCooldown(state, "p1", 5001))
}

func TestGetRemaining(t *testing.T) {
	state := NewPlayerState(0)
	state.PieceCooldowns["p1"] = 5000
	assert.Equal(t, int64(1000), GetRemaining(state, "p1", 4000))
	assert.Equal(t, int64(0), GetRemaining(state, "p1", 5000))
	assert.Equal(t, int64(0), GetRemaining(state, "missing", 0))
}

func TestClearCooldown(t *testing.T) {
	state := NewPlayerState(0)
	state.PieceCooldowns["p1"] = 5000
	ClearCooldown(state, "p1")
	_, ok := state.PieceCooldowns["p1"]
	assert.False(t, ok)
}

func TestSweepRemovesOnlyExpiredEntries(t *testing.T) {
	state := NewPlayerState(0)
	state.PieceCooldowns["expired"] = 1000
	state.PieceCooldowns["exactly-now"] = 2000
	state.PieceCooldowns["still-active"] = 3000

	Sweep(state, 2000)

	_, expiredPresent := state.PieceCooldowns["expired"]
	_, exactPresent := state.PieceCooldowns["exactly-now"]
	_, activePresent := state.PieceCooldowns["still-active"]

	assert.False(t, expiredPresent)
	assert.False(t, exactPresent)
	assert.True(t, activePresent)
}
