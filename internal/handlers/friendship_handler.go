package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rtchess/backend/internal/middleware"
	"github.com/rtchess/backend/internal/models"
	"github.com/rtchess/backend/internal/repository"
)

// FriendshipHandler exposes the friend-lookup persistence contract (§6) over
// REST: add a friend, check one pair via AreFriends, remove a friend.
type FriendshipHandler struct {
	friends repository.FriendshipStore
}

// NewFriendshipHandler creates a new FriendshipHandler.
func NewFriendshipHandler(friends repository.FriendshipStore) *FriendshipHandler {
	return &FriendshipHandler{friends: friends}
}

// AddFriendRequest represents a request to record a friend relationship.
type AddFriendRequest struct {
	FriendID string `json:"friend_id"`
}

// AddFriend records a directed friend relationship from the caller to the
// named friend.
func (h *FriendshipHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}

	var req AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.FriendID == "" {
		respondError(w, http.StatusBadRequest, "missing_friend_id", "friend_id is required")
		return
	}

	f := &models.Friendship{UserID: userID, FriendID: req.FriendID}
	if err := h.friends.CreateFriendship(r.Context(), f); err != nil {
		respondError(w, http.StatusInternalServerError, "add_friend_failed", "Failed to add friend")
		return
	}

	respondJSON(w, http.StatusCreated, f)
}

// CheckFriend reports whether the caller and the named user are friends.
func (h *FriendshipHandler) CheckFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}

	friendID := chi.URLParam(r, "friendId")
	areFriends, err := h.friends.AreFriends(r.Context(), userID, friendID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup_failed", "Failed to check friendship")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"are_friends": areFriends})
}

// RemoveFriend deletes a directed friend relationship.
func (h *FriendshipHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}

	friendID := chi.URLParam(r, "friendId")
	if err := h.friends.DeleteFriendship(r.Context(), userID, friendID); err != nil {
		respondError(w, http.StatusInternalServerError, "remove_friend_failed", "Failed to remove friend")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
