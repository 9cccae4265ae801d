package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rtchess/backend/internal/middleware"
	"github.com/rtchess/backend/internal/models"
	"github.com/rtchess/backend/internal/repository"
)

type fakeFriendshipStore struct {
	pairs map[string]bool
}

func newFakeFriendshipStore() *fakeFriendshipStore {
	return &fakeFriendshipStore{pairs: make(map[string]bool)}
}

func (f *fakeFriendshipStore) CreateFriendship(ctx context.Context, fr *models.Friendship) error {
	f.pairs[fr.UserID+"|"+fr.FriendID] = true
	return nil
}

func (f *fakeFriendshipStore) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	return f.pairs[userID+"|"+friendID], nil
}

func (f *fakeFriendshipStore) DeleteFriendship(ctx context.Context, userID, friendID string) error {
	delete(f.pairs, userID+"|"+friendID)
	return nil
}

var _ repository.FriendshipStore = (*fakeFriendshipStore)(nil)

func withUser(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func newFriendshipRouter(store *fakeFriendshipStore) chi.Router {
	h := NewFriendshipHandler(store)
	r := chi.NewRouter()
	r.Post("/api/v1/friends", h.AddFriend)
	r.Get("/api/v1/friends/{friendId}", h.CheckFriend)
	r.Delete("/api/v1/friends/{friendId}", h.RemoveFriend)
	return r
}

func TestFriendshipHandler_AddFriend(t *testing.T) {
	store := newFakeFriendshipStore()
	r := newFriendshipRouter(store)

	body, _ := json.Marshal(AddFriendRequest{FriendID: "friend-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/friends", bytes.NewReader(body))
	req = withUser(req, "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if !store.pairs["user-1|friend-1"] {
		t.Error("expected friendship to be recorded")
	}
}

func TestFriendshipHandler_AddFriend_Unauthorized(t *testing.T) {
	store := newFakeFriendshipStore()
	r := newFriendshipRouter(store)

	body, _ := json.Marshal(AddFriendRequest{FriendID: "friend-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/friends", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestFriendshipHandler_CheckFriend(t *testing.T) {
	store := newFakeFriendshipStore()
	store.pairs["user-1|friend-1"] = true
	r := newFriendshipRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/friends/friend-1", nil)
	req = withUser(req, "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]bool
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp["are_friends"] {
		t.Error("expected are_friends true")
	}
}

func TestFriendshipHandler_RemoveFriend(t *testing.T) {
	store := newFakeFriendshipStore()
	store.pairs["user-1|friend-1"] = true
	r := newFriendshipRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/friends/friend-1", nil)
	req = withUser(req, "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if store.pairs["user-1|friend-1"] {
		t.Error("expected friendship to be removed")
	}
}
