// Package session implements the components that run many live games
// concurrently: GameManager (C7), RoomManager (C8) and MatchmakingManager
// (C9).
package session

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/rtchess/backend/internal/chess"
	"github.com/rtchess/backend/internal/models"
	"github.com/rtchess/backend/internal/repository"
)

// nowMS returns the current wall clock in epoch milliseconds. Exposed as a
// variable so tests can freeze time.
var nowMS = func() int64 { return time.Now().UnixMilli() }

// gameCommand is one unit of serialised work submitted to a managedGame's
// command loop: attemptMove, tick and checkpoint are all expressed this way
// so the three can never interleave and tear a GameState (§5).
type gameCommand func(mg *managedGame)

type managedGame struct {
	id             string
	engine         *chess.GameEngine
	cmds           chan gameCommand
	ticksSinceCkpt int
	done           chan struct{}
	manager        *GameManager

	closeMu sync.RWMutex
	closed  bool
}

// submit sends cmd to the command loop unless the game has already been
// evicted, synchronizing with evict's close(mg.cmds) under closeMu so a send
// can never race a close on this channel. Returns false if the game is gone.
func (mg *managedGame) submit(cmd gameCommand) bool {
	mg.closeMu.RLock()
	defer mg.closeMu.RUnlock()
	if mg.closed {
		return false
	}
	mg.cmds <- cmd
	return true
}

// GameManager owns every live GameEngine, keyed by game ID, and runs the
// periodic tick/checkpoint loop (§4.7). It depends on repository.GameStore
// and repository.UserStore as interfaces rather than concrete Postgres
// types, since persistence is an external, contract-only collaborator.
type GameManager struct {
	store repository.GameStore
	users repository.UserStore

	mu    sync.Mutex
	games map[string]*managedGame

	onUpdate    func(gameID string, state *chess.GameState)
	stopTicker  chan struct{}
	tickerDone  chan struct{}
	tickPeriod  time.Duration
	checkpointN int
}

// NewGameManager constructs a GameManager. onUpdate, if non-nil, is invoked
// after every successful tick/move with the latest state — SessionHub wires
// this to its debounced broadcaster.
func NewGameManager(store repository.GameStore, users repository.UserStore, onUpdate func(string, *chess.GameState)) *GameManager {
	return &GameManager{
		store:       store,
		users:       users,
		games:       make(map[string]*managedGame),
		onUpdate:    onUpdate,
		stopTicker:  make(chan struct{}),
		tickerDone:  make(chan struct{}),
		tickPeriod:  time.Second,
		checkpointN: 5,
	}
}

// CreateGame persists a new waiting game with a standard initial board and
// two fresh PlayerStates (§4.7 createGame).
func (m *GameManager) CreateGame(ctx context.Context, whiteID, blackID string, rated bool, roomCode *string) (string, error) {
	now := nowMS()
	board := chess.NewInitialBoard()
	white := chess.NewPlayerState(now)
	black := chess.NewPlayerState(now)

	boardSnap, err := boardToSnapshot(board)
	if err != nil {
		return "", err
	}
	whiteSnap, err := playerStateToSnapshot(white)
	if err != nil {
		return "", err
	}
	blackSnap, err := playerStateToSnapshot(black)
	if err != nil {
		return "", err
	}

	game := &models.Game{
		ID:            uuid.NewString(),
		WhitePlayerID: whiteID,
		BlackPlayerID: blackID,
		Status:        models.GameStatusWaiting,
		Rated:         rated,
		RoomCode:      roomCode,
		BoardSnapshot: boardSnap,
		WhiteState:    whiteSnap,
		BlackState:    blackSnap,
	}

	if err := m.store.CreateGame(ctx, game); err != nil {
		return "", fmt.Errorf("create game: %w", err)
	}
	return game.ID, nil
}

// StartGame loads a waiting game from persistence, constructs its in-memory
// engine, and transitions it to active (§4.7 startGame).
func (m *GameManager) StartGame(ctx context.Context, id string) error {
	game, err := m.store.GetGame(ctx, id)
	if err != nil {
		return err
	}
	if game.Status != models.GameStatusWaiting {
		return fmt.Errorf("%w: game %s is not waiting", chess.ErrGameNotActive, id)
	}

	board, err := boardFromSnapshot(game.BoardSnapshot)
	if err != nil {
		return err
	}
	white, err := playerStateFromSnapshot(game.WhiteState)
	if err != nil {
		return err
	}
	black, err := playerStateFromSnapshot(game.BlackState)
	if err != nil {
		return err
	}

	now := nowMS()
	state := &chess.GameState{
		ID:            game.ID,
		Board:         board,
		White:         white,
		Black:         black,
		WhitePlayerID: game.WhitePlayerID,
		BlackPlayerID: game.BlackPlayerID,
		Status:        chess.StatusActive,
		Rated:         game.Rated,
		GameStartedAt: now,
		StartedAt:     now,
		HasStarted:    true,
	}

	startedAt := time.UnixMilli(now)
	game.Status = models.GameStatusActive
	game.StartedAt = &startedAt
	if err := m.store.UpdateGame(ctx, game); err != nil {
		return fmt.Errorf("persist game start: %w", err)
	}

	m.register(id, chess.NewGameEngine(state))
	return nil
}

func (m *GameManager) register(id string, engine *chess.GameEngine) *managedGame {
	mg := &managedGame{
		id:      id,
		engine:  engine,
		cmds:    make(chan gameCommand, 32),
		done:    make(chan struct{}),
		manager: m,
	}
	go mg.run()

	m.mu.Lock()
	m.games[id] = mg
	m.mu.Unlock()
	return mg
}

// run drains the command loop until the channel is closed or a command
// panics. A panic (§7: a programmer-invariant violation) aborts only this
// one game: it is logged, the game
// is evicted from the registry, and every other game's loop is untouched.
func (mg *managedGame) run() {
	defer close(mg.done)
	for cmd := range mg.cmds {
		if !mg.execute(cmd) {
			return
		}
	}
}

func (mg *managedGame) execute(cmd gameCommand) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("game_id", mg.id).
				Interface("panic", r).
				Msg("game command loop panicked; aborting this game only")
			go mg.manager.evict(mg.id)
			ok = false
		}
	}()
	cmd(mg)
	return true
}

func (m *GameManager) lookup(id string) (*managedGame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mg, ok := m.games[id]
	return mg, ok
}

func (m *GameManager) evict(id string) {
	m.mu.Lock()
	mg, ok := m.games[id]
	delete(m.games, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	mg.closeMu.Lock()
	defer mg.closeMu.Unlock()
	if mg.closed {
		return
	}
	mg.closed = true
	close(mg.cmds)
}

// AttemptMove rehydrates the engine if absent (only valid for active
// games), ticks it, then submits the move through the per-game command
// loop so it never races a concurrent tick or checkpoint (§4.7, §5).
func (m *GameManager) AttemptMove(ctx context.Context, gameID string, move chess.Move) (chess.AttemptResult, error) {
	mg, ok := m.lookup(gameID)
	if !ok {
		rehydrated, err := m.rehydrate(ctx, gameID)
		if err != nil {
			return chess.AttemptResult{}, err
		}
		mg = rehydrated
	}

	type outcome struct {
		result chess.AttemptResult
	}
	replyCh := make(chan outcome, 1)

	sent := mg.submit(func(mg *managedGame) {
		now := nowMS()
		mg.engine.Tick(now)
		result := mg.engine.AttemptMove(move, now)
		if result.Success {
			m.onGameMutated(ctx, mg)
		}
		replyCh <- outcome{result: result}
	})
	if !sent {
		return chess.AttemptResult{}, fmt.Errorf("%w: game %s is not active", chess.ErrGameNotActive, gameID)
	}

	select {
	case out := <-replyCh:
		return out.result, nil
	case <-ctx.Done():
		return chess.AttemptResult{}, ctx.Err()
	}
}

// GetState returns a deep-copied snapshot of gameID's live state, rehydrating
// the engine from persistence first if it isn't currently held in memory.
// Used to answer a single client's requestGameState (§6) without waiting for
// the next debounced broadcast.
func (m *GameManager) GetState(ctx context.Context, gameID string) (*chess.GameState, error) {
	mg, ok := m.lookup(gameID)
	if !ok {
		rehydrated, err := m.rehydrate(ctx, gameID)
		if err != nil {
			return nil, err
		}
		mg = rehydrated
	}

	replyCh := make(chan *chess.GameState, 1)
	sent := mg.submit(func(mg *managedGame) {
		replyCh <- mg.engine.State().Clone()
	})
	if !sent {
		return nil, fmt.Errorf("%w: game %s is not active", chess.ErrGameNotActive, gameID)
	}

	select {
	case state := <-replyCh:
		return state, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *GameManager) rehydrate(ctx context.Context, gameID string) (*managedGame, error) {
	game, err := m.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GameStatusActive {
		return nil, fmt.Errorf("%w: game %s is not active", chess.ErrGameNotActive, gameID)
	}

	board, err := boardFromSnapshot(game.BoardSnapshot)
	if err != nil {
		return nil, err
	}
	white, err := playerStateFromSnapshot(game.WhiteState)
	if err != nil {
		return nil, err
	}
	black, err := playerStateFromSnapshot(game.BlackState)
	if err != nil {
		return nil, err
	}

	var startedAt int64
	if game.StartedAt != nil {
		startedAt = game.StartedAt.UnixMilli()
	}

	state := &chess.GameState{
		ID:            game.ID,
		Board:         board,
		White:         white,
		Black:         black,
		WhitePlayerID: game.WhitePlayerID,
		BlackPlayerID: game.BlackPlayerID,
		Status:        chess.StatusActive,
		Rated:         game.Rated,
		GameStartedAt: startedAt,
		StartedAt:     startedAt,
		HasStarted:    true,
	}
	return m.register(gameID, chess.NewGameEngine(state)), nil
}

// onGameMutated runs the end-of-game check and persists, evicting the game
// from memory if it finished (§4.7 end-of-game detection). It is always
// called from within the owning managedGame's command loop.
func (m *GameManager) onGameMutated(ctx context.Context, mg *managedGame) {
	state := mg.engine.State()

	if state.Status == chess.StatusActive {
		whiteKing := state.Board.FindKing(chess.White)
		blackKing := state.Board.FindKing(chess.Black)
		if whiteKing == nil || blackKing == nil {
			winner, ok := mg.engine.ResolveSimultaneousKingCapture(whiteKing == nil, blackKing == nil)
			if ok {
				state.Status = chess.StatusFinished
				state.Winner = winner
				state.HasWinner = true
			}
		}
	}

	if err := m.persist(ctx, mg); err != nil {
		log.Error().Err(err).Str("game_id", mg.id).Msg("failed to persist game after move")
	}

	if state.Status == chess.StatusFinished {
		if err := m.applyGameCompletion(ctx, state); err != nil {
			log.Error().Err(err).Str("game_id", mg.id).Msg("failed to apply game completion")
		}
		m.evict(mg.id)
	}

	if m.onUpdate != nil {
		m.onUpdate(mg.id, state)
	}
}

func (m *GameManager) persist(ctx context.Context, mg *managedGame) error {
	state := mg.engine.State()

	boardSnap, err := boardToSnapshot(state.Board)
	if err != nil {
		return err
	}
	whiteSnap, err := playerStateToSnapshot(state.White)
	if err != nil {
		return err
	}
	blackSnap, err := playerStateToSnapshot(state.Black)
	if err != nil {
		return err
	}

	game, err := m.store.GetGame(ctx, mg.id)
	if err != nil {
		return err
	}
	game.Status = models.GameStatus(state.Status)
	game.BoardSnapshot = boardSnap
	game.WhiteState = whiteSnap
	game.BlackState = blackSnap
	if state.HasLastMove {
		t := time.UnixMilli(state.LastMoveAt)
		game.LastMoveAt = &t
	}
	if state.HasWinner {
		winner := models.PlayerColor(state.Winner)
		game.WinnerColor = &winner
	}
	if state.Status == chess.StatusFinished {
		t := time.UnixMilli(state.LastMoveAt)
		game.EndedAt = &t
	}

	return m.store.UpdateGame(ctx, game)
}

const eloK = 32

// applyGameCompletion updates both players' win/loss tallies for any
// finished game, and additionally applies the standard Elo update with K=32
// when the game was rated (§4.7).
func (m *GameManager) applyGameCompletion(ctx context.Context, state *chess.GameState) error {
	white, err := m.users.GetUser(ctx, state.WhitePlayerID)
	if err != nil {
		return err
	}
	black, err := m.users.GetUser(ctx, state.BlackPlayerID)
	if err != nil {
		return err
	}

	whiteActual, blackActual := 0.0, 0.0
	switch state.Winner {
	case chess.White:
		whiteActual = 1.0
	case chess.Black:
		blackActual = 1.0
	}

	whiteStats := white.Stats()
	whiteStats.TotalGames++
	if whiteActual == 1.0 {
		whiteStats.Wins++
	} else if state.HasWinner {
		whiteStats.Losses++
	}
	blackStats := black.Stats()
	blackStats.TotalGames++
	if blackActual == 1.0 {
		blackStats.Wins++
	} else if state.HasWinner {
		blackStats.Losses++
	}

	if err := m.users.UpdateStats(ctx, white.ID, whiteStats); err != nil {
		return err
	}
	if err := m.users.UpdateStats(ctx, black.ID, blackStats); err != nil {
		return err
	}

	if !state.Rated {
		return nil
	}

	whiteExpected := expectedScore(white.Rating, black.Rating)
	blackExpected := expectedScore(black.Rating, white.Rating)

	newWhiteRating := roundRating(float64(white.Rating) + eloK*(whiteActual-whiteExpected))
	newBlackRating := roundRating(float64(black.Rating) + eloK*(blackActual-blackExpected))

	if err := m.users.UpdateRating(ctx, white.ID, newWhiteRating); err != nil {
		return err
	}
	return m.users.UpdateRating(ctx, black.ID, newBlackRating)
}

func expectedScore(ratingSelf, ratingOpponent int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingOpponent-ratingSelf)/400.0))
}

func roundRating(v float64) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return int(v - 0.5)
}

// StartPeriodicLoop runs the once-per-second tick and every-5th-tick
// checkpoint loop (§4.7, §5 suspension points). Call Stop to halt it.
func (m *GameManager) StartPeriodicLoop(ctx context.Context) {
	go func() {
		defer close(m.tickerDone)
		ticker := time.NewTicker(m.tickPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-m.stopTicker:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.tickAll(ctx)
			}
		}
	}()
}

// Stop halts the periodic tick loop.
func (m *GameManager) Stop() {
	close(m.stopTicker)
	<-m.tickerDone
}

// tickAll ticks every live game exactly once, bounded to a small number of
// concurrent workers via conc's pool — games are independent (§5), so this
// is the "run N independent units of work, wait for all" shape the pool is
// built for.
func (m *GameManager) tickAll(ctx context.Context) {
	m.mu.Lock()
	snapshot := make([]*managedGame, 0, len(m.games))
	for _, mg := range m.games {
		snapshot = append(snapshot, mg)
	}
	m.mu.Unlock()

	p := pool.New().WithMaxGoroutines(8)
	for _, mg := range snapshot {
		mg := mg
		p.Go(func() {
			m.tickOne(ctx, mg)
		})
	}
	p.Wait()
}

func (m *GameManager) tickOne(ctx context.Context, mg *managedGame) {
	done := make(chan struct{})
	sent := mg.submit(func(mg *managedGame) {
		defer close(done)
		mg.engine.Tick(nowMS())
		mg.ticksSinceCkpt++
		if mg.ticksSinceCkpt >= m.checkpointN {
			mg.ticksSinceCkpt = 0
			if err := m.persist(ctx, mg); err != nil {
				log.Warn().Err(err).Str("game_id", mg.id).Msg("checkpoint persist failed, will retry next cycle")
			}
		}
		if m.onUpdate != nil {
			m.onUpdate(mg.id, mg.engine.State())
		}
	})
	if !sent {
		return
	}
	<-done
}
