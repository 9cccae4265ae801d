package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	userID string
	mu     sync.Mutex
	frames [][]byte
	full   bool
}

func (f *fakeHandle) UserID() string { return f.userID }

func (f *fakeHandle) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return errSendBufferFull
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeHandle) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeHandle) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

func TestHubRegisterAndSendToUser(t *testing.T) {
	h := NewHub()
	client := &fakeHandle{userID: "u1"}
	h.Register(client)

	h.SendToUser("u1", []byte("hello"))
	assert.Equal(t, 1, client.count())
	assert.Equal(t, []byte("hello"), client.last())
}

func TestHubUnregisterDropsFromGameGroupToo(t *testing.T) {
	h := NewHub()
	client := &fakeHandle{userID: "u1"}
	h.Register(client)
	h.Join("game-1", client)

	h.Unregister(client)

	assert.Empty(t, h.SessionsForUser("u1"))
	h.broadcastNow("game-1", []byte("x"))
	assert.Equal(t, 0, client.count())
}

func TestHubSendToUserDropsFullSession(t *testing.T) {
	h := NewHub()
	client := &fakeHandle{userID: "u1", full: true}
	h.Register(client)

	h.SendToUser("u1", []byte("hello"))
	assert.Empty(t, h.SessionsForUser("u1"))
}

func TestBroadcastGameStateDebouncesAndSupersedes(t *testing.T) {
	h := NewHub()
	client := &fakeHandle{userID: "u1"}
	h.Register(client)
	h.Join("game-1", client)

	h.BroadcastGameState("game-1", []byte("first"))
	h.BroadcastGameState("game-1", []byte("second"))

	require.Eventually(t, func() bool { return client.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []byte("second"), client.last())

	h.CloseGame("game-1")
}

func TestBroadcastGameStateFlushNow(t *testing.T) {
	h := NewHub()
	client := &fakeHandle{userID: "u1"}
	h.Register(client)
	h.Join("game-1", client)

	h.BroadcastGameState("game-1", []byte("payload"))
	h.FlushGameState("game-1")

	require.Eventually(t, func() bool { return client.count() == 1 }, 200*time.Millisecond, 2*time.Millisecond)

	h.CloseGame("game-1")
}

func TestBroadcastGameStateHardCeiling(t *testing.T) {
	h := NewHub()
	client := &fakeHandle{userID: "u1"}
	h.Register(client)
	h.Join("game-1", client)

	start := time.Now()
	// Keep resupplying updates faster than the debounce window so the
	// ceiling timer, not the debounce timer, is what forces emission.
	ticker := time.NewTicker(30 * time.Millisecond)
	defer ticker.Stop()
	stopAt := time.After(600 * time.Millisecond)
loop:
	for {
		select {
		case <-ticker.C:
			h.BroadcastGameState("game-1", []byte("tick"))
		case <-stopAt:
			break loop
		}
	}

	require.Eventually(t, func() bool { return client.count() >= 1 }, time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, client.count(), 3)
	_ = start

	h.CloseGame("game-1")
}
