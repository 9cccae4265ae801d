package transport

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub maintains the bidirectional user<->session mapping and per-game
// broadcast groups, generalizing the teacher's websocket.Hub register/
// unregister/broadcast loop (internal/websocket/hub.go) away from a concrete
// *websocket.Conn to the transport-agnostic SessionHandle.
type Hub struct {
	mu sync.RWMutex

	// byUser supports multiple simultaneous sessions per user (§4.10).
	byUser map[string]map[SessionHandle]struct{}

	// byGame is the broadcast group for each live game: every handle that
	// should receive that game's state updates (players and spectators).
	byGame map[string]map[SessionHandle]struct{}

	broadcasters map[string]*gameBroadcaster
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		byUser:       make(map[string]map[SessionHandle]struct{}),
		byGame:       make(map[string]map[SessionHandle]struct{}),
		broadcasters: make(map[string]*gameBroadcaster),
	}
}

// Register adds handle to the hub, associated with userID.
func (h *Hub) Register(handle SessionHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := handle.UserID()
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[SessionHandle]struct{})
	}
	h.byUser[userID][handle] = struct{}{}

	log.Debug().Str("user_id", userID).Msg("session registered")
}

// Unregister removes handle from the hub and from every game group it joined.
func (h *Hub) Unregister(handle SessionHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := handle.UserID()
	if sessions, ok := h.byUser[userID]; ok {
		delete(sessions, handle)
		if len(sessions) == 0 {
			delete(h.byUser, userID)
		}
	}
	for gameID, group := range h.byGame {
		if _, ok := group[handle]; ok {
			delete(group, handle)
			if len(group) == 0 {
				delete(h.byGame, gameID)
			}
		}
	}

	log.Debug().Str("user_id", userID).Msg("session unregistered")
}

// Join adds handle to gameID's broadcast group (used for both players and
// spectators — the contract does not distinguish them at the transport
// layer).
func (h *Hub) Join(gameID string, handle SessionHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byGame[gameID] == nil {
		h.byGame[gameID] = make(map[SessionHandle]struct{})
	}
	h.byGame[gameID][handle] = struct{}{}
}

// Leave removes handle from gameID's broadcast group.
func (h *Hub) Leave(gameID string, handle SessionHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if group, ok := h.byGame[gameID]; ok {
		delete(group, handle)
		if len(group) == 0 {
			delete(h.byGame, gameID)
		}
	}
}

// SessionsForUser returns every live handle registered for userID.
func (h *Hub) SessionsForUser(userID string) []SessionHandle {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sessions := h.byUser[userID]
	out := make([]SessionHandle, 0, len(sessions))
	for s := range sessions {
		out = append(out, s)
	}
	return out
}

// Users enumerates every user identifier with at least one live session.
func (h *Hub) Users() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.byUser))
	for u := range h.byUser {
		out = append(out, u)
	}
	return out
}

// SendToUser delivers data to every session registered for userID, dropping
// and unregistering any whose buffer is full.
func (h *Hub) SendToUser(userID string, data []byte) {
	for _, s := range h.SessionsForUser(userID) {
		if err := s.Send(data); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("dropping unresponsive session")
			h.Unregister(s)
		}
	}
}

// broadcastNow sends data immediately to every handle in gameID's group. It
// is the flush primitive the debounced broadcaster calls on its timer.
func (h *Hub) broadcastNow(gameID string, data []byte) {
	h.mu.RLock()
	group := h.byGame[gameID]
	handles := make([]SessionHandle, 0, len(group))
	for s := range group {
		handles = append(handles, s)
	}
	h.mu.RUnlock()

	for _, s := range handles {
		if err := s.Send(data); err != nil {
			log.Warn().Err(err).Str("game_id", gameID).Msg("dropping unresponsive session")
			h.Unregister(s)
		}
	}
}

// BroadcastGameState queues a state update for gameID through the per-game
// debounced broadcaster, creating one if this is the first update for that
// game (§4.10: at most one outbound message per (game, 100ms window), hard
// cap 500ms between first pending and emission).
func (h *Hub) BroadcastGameState(gameID string, data []byte) {
	h.broadcasterFor(gameID).queue(data)
}

// FlushGameState immediately emits any pending state update for gameID,
// bypassing the debounce window.
func (h *Hub) FlushGameState(gameID string) {
	h.mu.Lock()
	b, ok := h.broadcasters[gameID]
	h.mu.Unlock()
	if ok {
		b.flushNow()
	}
}

// BroadcastNow sends data immediately to every handle in gameID's group,
// bypassing the debounced broadcaster — for one-off events (gameStarted)
// that must reach the group outside the regular state-update
// flow FlushGameState/BroadcastGameState manage.
func (h *Hub) BroadcastNow(gameID string, data []byte) {
	h.broadcastNow(gameID, data)
}

// CloseGame tears down gameID's debounced broadcaster. Call once a game is
// evicted from GameManager so its goroutine doesn't leak.
func (h *Hub) CloseGame(gameID string) {
	h.mu.Lock()
	b, ok := h.broadcasters[gameID]
	delete(h.broadcasters, gameID)
	delete(h.byGame, gameID)
	h.mu.Unlock()
	if ok {
		b.stop()
	}
}

func (h *Hub) broadcasterFor(gameID string) *gameBroadcaster {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.broadcasters[gameID]
	if !ok {
		b = newGameBroadcaster(gameID, h)
		h.broadcasters[gameID] = b
	}
	return b
}
