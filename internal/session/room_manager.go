package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rtchess/backend/internal/models"
	"github.com/rtchess/backend/internal/repository"
)

// Resource errors (§7): recoverable, per-request.
var (
	ErrRoomNotFound   = errors.New("session: room not found")
	ErrRoomNotWaiting = errors.New("session: room is not waiting for a second player")
	ErrRoomFull       = errors.New("session: room already has two players")
	ErrJoinerIsHost   = errors.New("session: joiner is already the host")
	ErrCodeGenFailed  = errors.New("session: failed to generate unique room code")
	ErrAlreadyInQueue = errors.New("session: player is already queued")
	ErrNotInQueue     = errors.New("session: player is not queued")
)

const (
	roomCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	roomCodeLength   = 6
	roomCodeRetries  = 100
	roomTTL          = 24 * time.Hour
	roomSweepPeriod  = 30 * time.Minute
)

// RoomInfo is the in-memory record of a friend room (§3, §4.8).
type RoomInfo struct {
	Code        string
	HostID      string
	GameID      string
	PlayerCount int
	CreatedAt   time.Time
}

// RoomManager owns short-code friend rooms (§4.8).
type RoomManager struct {
	games *GameManager
	store repository.GameStore

	mu    sync.Mutex
	rooms map[string]*RoomInfo
}

// NewRoomManager constructs a RoomManager.
func NewRoomManager(games *GameManager, store repository.GameStore) *RoomManager {
	return &RoomManager{
		games: games,
		store: store,
		rooms: make(map[string]*RoomInfo),
	}
}

// CreateRoom generates a unique code and creates an unrated waiting game
// with the host occupying both color placeholders until a second player
// joins (§4.8 createRoom).
func (rm *RoomManager) CreateRoom(ctx context.Context, hostID string) (*RoomInfo, error) {
	code, err := rm.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	gameID, err := rm.games.CreateGame(ctx, hostID, hostID, false, &code)
	if err != nil {
		return nil, fmt.Errorf("create room game: %w", err)
	}

	info := &RoomInfo{
		Code:        code,
		HostID:      hostID,
		GameID:      gameID,
		PlayerCount: 1,
		CreatedAt:   time.Now(),
	}

	rm.mu.Lock()
	rm.rooms[code] = info
	rm.mu.Unlock()

	return info, nil
}

func (rm *RoomManager) generateCode(ctx context.Context) (string, error) {
	for i := 0; i < roomCodeRetries; i++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}

		rm.mu.Lock()
		_, liveCollision := rm.rooms[code]
		rm.mu.Unlock()
		if liveCollision {
			continue
		}

		if _, err := rm.store.GetGameByRoomCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrGameNotFound) {
			return "", fmt.Errorf("check room code collision: %w", err)
		}

		return code, nil
	}
	return "", ErrCodeGenFailed
}

// maxUnbiasedByte is the exclusive bound (252) below which b % len(roomCodeAlphabet)
// is uniform; bytes at or above it are discarded and redrawn (256 % 36 != 0, so a
// plain modulo would favor the first four characters of the alphabet).
var maxUnbiasedByte = byte(256 - 256%len(roomCodeAlphabet))

func randomCode() (string, error) {
	out := make([]byte, roomCodeLength)
	buf := make([]byte, 1)
	for i := 0; i < roomCodeLength; {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		if buf[0] >= maxUnbiasedByte {
			continue
		}
		out[i] = roomCodeAlphabet[int(buf[0])%len(roomCodeAlphabet)]
		i++
	}
	return string(out), nil
}

// JoinRoom rehydrates the room from persistence if unknown in memory,
// validates the join, and assigns the joiner the opposite color (§4.8
// joinRoom).
func (rm *RoomManager) JoinRoom(ctx context.Context, code, userID string) (*RoomInfo, error) {
	info, err := rm.lookupOrRehydrate(ctx, code)
	if err != nil {
		return nil, err
	}

	game, err := rm.store.GetGame(ctx, info.GameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GameStatusWaiting {
		return nil, ErrRoomNotWaiting
	}
	if userID == info.HostID {
		return nil, ErrJoinerIsHost
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if info.PlayerCount >= 2 {
		return nil, ErrRoomFull
	}

	// The host occupies both color placeholders at creation time; the
	// joiner takes black, the opposite of the host's white.
	game.BlackPlayerID = userID
	if err := rm.store.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("assign joiner color: %w", err)
	}

	info.PlayerCount = 2
	return info, nil
}

func (rm *RoomManager) lookupOrRehydrate(ctx context.Context, code string) (*RoomInfo, error) {
	rm.mu.Lock()
	info, ok := rm.rooms[code]
	rm.mu.Unlock()
	if ok {
		return info, nil
	}

	game, err := rm.store.GetGameByRoomCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	playerCount := 1
	if game.BlackPlayerID != game.WhitePlayerID {
		playerCount = 2
	}
	rehydrated := &RoomInfo{
		Code:        code,
		HostID:      game.WhitePlayerID,
		GameID:      game.ID,
		PlayerCount: playerCount,
		CreatedAt:   game.CreatedAt,
	}

	rm.mu.Lock()
	rm.rooms[code] = rehydrated
	rm.mu.Unlock()

	return rehydrated, nil
}

// SweepExpired abandons rooms older than 24h that are still waiting with a
// single occupant, and drops their in-memory entry (§4.8 expiry sweep).
func (rm *RoomManager) SweepExpired(ctx context.Context) {
	rm.mu.Lock()
	var expired []*RoomInfo
	for code, info := range rm.rooms {
		if info.PlayerCount == 1 && time.Since(info.CreatedAt) > roomTTL {
			expired = append(expired, info)
			delete(rm.rooms, code)
		}
	}
	rm.mu.Unlock()

	for _, info := range expired {
		game, err := rm.store.GetGame(ctx, info.GameID)
		if err != nil || game.Status != models.GameStatusWaiting {
			continue
		}
		game.Status = models.GameStatusAbandoned
		_ = rm.store.UpdateGame(ctx, game)
	}
}

// StartSweepLoop runs SweepExpired every 30 minutes until ctx is cancelled.
func (rm *RoomManager) StartSweepLoop(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(roomSweepPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rm.SweepExpired(ctx)
			}
		}
	}()
}
