package session

import (
	"context"
	"sync"

	"github.com/rtchess/backend/internal/models"
	"github.com/rtchess/backend/internal/repository"
)

// fakeGameStore is an in-memory repository.GameStore for exercising
// GameManager/RoomManager without a real Postgres instance.
type fakeGameStore struct {
	mu    sync.Mutex
	games map[string]*models.Game
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{games: make(map[string]*models.Game)}
}

func cloneGame(g *models.Game) *models.Game {
	cp := *g
	return &cp
}

func (s *fakeGameStore) CreateGame(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = cloneGame(game)
	return nil
}

func (s *fakeGameStore) GetGame(ctx context.Context, id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, repository.ErrGameNotFound
	}
	return cloneGame(g), nil
}

func (s *fakeGameStore) GetGameByRoomCode(ctx context.Context, roomCode string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.RoomCode != nil && *g.RoomCode == roomCode {
			return cloneGame(g), nil
		}
	}
	return nil, repository.ErrGameNotFound
}

func (s *fakeGameStore) UpdateGame(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[game.ID]; !ok {
		return repository.ErrGameNotFound
	}
	s.games[game.ID] = cloneGame(game)
	return nil
}

func (s *fakeGameStore) DeleteGame(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	return nil
}

var _ repository.GameStore = (*fakeGameStore)(nil)

// fakeUserStore is an in-memory repository.UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) addUser(id string, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &models.User{ID: id, DisplayName: id, Rating: rating}
}

func (s *fakeUserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) UpdateRating(ctx context.Context, id string, newRating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Rating = newRating
	return nil
}

func (s *fakeUserStore) UpdateStats(ctx context.Context, id string, stats models.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.TotalGames = stats.TotalGames
	u.Wins = stats.Wins
	u.Losses = stats.Losses
	return nil
}

var _ repository.UserStore = (*fakeUserStore)(nil)
