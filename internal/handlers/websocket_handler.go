package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/rtchess/backend/internal/chess"
	custommiddleware "github.com/rtchess/backend/internal/middleware"
	"github.com/rtchess/backend/internal/repository"
	"github.com/rtchess/backend/internal/session"
	"github.com/rtchess/backend/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades a connection and dispatches every inbound
// envelope to the owning session manager, grounded on the teacher's
// websocket.Handler connection-upgrade-then-dispatch shape.
type WebSocketHandler struct {
	hub     *transport.Hub
	games   *session.GameManager
	rooms   *session.RoomManager
	matches *session.MatchmakingManager
	users   repository.UserStore
}

// NewWebSocketHandler constructs a WebSocketHandler wired to the live
// session managers and the broadcast hub.
func NewWebSocketHandler(hub *transport.Hub, games *session.GameManager, rooms *session.RoomManager, matches *session.MatchmakingManager, users repository.UserStore) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, games: games, rooms: rooms, matches: matches, users: users}
}

// HandleConnection upgrades the HTTP request to a websocket and registers
// the resulting client with the hub under the caller's authenticated
// identity (§4.10, §6).
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := custommiddleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	var client *transport.WSClient
	onClose := func() {
		h.hub.Unregister(client)
	}
	client = transport.NewWSClient(conn, userID, func(data []byte) {
		h.dispatch(r.Context(), client, data)
	}, onClose)

	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}

func (h *WebSocketHandler) dispatch(ctx context.Context, client *transport.WSClient, data []byte) {
	var env transport.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	switch transport.InboundEvent(env.Type) {
	case transport.InboundCreateRoom:
		h.handleCreateRoom(ctx, client)
	case transport.InboundJoinRoom:
		h.handleJoinRoom(ctx, client, env.Payload)
	case transport.InboundStartGame:
		h.handleStartGame(ctx, client, env.Payload)
	case transport.InboundMakeMove:
		h.handleMakeMove(ctx, client, env.Payload)
	case transport.InboundRequestMatchmaking:
		h.handleRequestMatchmaking(ctx, client)
	case transport.InboundCancelMatchmaking:
		h.handleCancelMatchmaking(ctx, client)
	case transport.InboundGetMatchmakingStatus:
		h.handleMatchmakingStatus(client)
	case transport.InboundSpectateGame:
		h.handleSpectateGame(client, env.Payload)
	case transport.InboundLeaveGame:
		h.handleLeaveGame(client, env.Payload)
	case transport.InboundRequestGameState:
		h.handleRequestGameState(ctx, client, env.Payload)
	}
}

func (h *WebSocketHandler) sendError(client *transport.WSClient, event transport.OutboundEvent, message string) {
	var payload interface{}
	switch event {
	case transport.OutboundRoomError:
		payload = transport.RoomErrorPayload{Error: message}
	case transport.OutboundMatchmakingError:
		payload = transport.MatchmakingErrorPayload{Error: message}
	case transport.OutboundSpectateError:
		payload = transport.SpectateErrorPayload{Error: message}
	default:
		payload = transport.GameErrorPayload{Error: message}
	}
	if data, err := transport.Encode(event, payload); err == nil {
		client.Send(data)
	}
}

func (h *WebSocketHandler) handleCreateRoom(ctx context.Context, client *transport.WSClient) {
	info, err := h.rooms.CreateRoom(ctx, client.UserID())
	if err != nil {
		h.sendError(client, transport.OutboundRoomError, err.Error())
		return
	}
	data, _ := transport.Encode(transport.OutboundRoomCreated, transport.RoomCreatedPayload{RoomCode: info.Code})
	client.Send(data)

	h.hub.Join(info.GameID, client)
	waiting, _ := transport.Encode(transport.OutboundGameWaiting, transport.GameWaitingPayload{GameID: info.GameID})
	client.Send(waiting)
}

func (h *WebSocketHandler) handleJoinRoom(ctx context.Context, client *transport.WSClient, raw json.RawMessage) {
	var p transport.JoinRoomPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(client, transport.OutboundRoomError, "invalid payload")
		return
	}

	info, err := h.rooms.JoinRoom(ctx, p.RoomCode, client.UserID())
	if err != nil {
		h.sendError(client, transport.OutboundRoomError, err.Error())
		return
	}

	h.hub.Join(info.GameID, client)
	data, _ := transport.Encode(transport.OutboundRoomJoined, transport.RoomJoinedPayload{GameID: info.GameID, RoomCode: info.Code})
	client.Send(data)

	notify, _ := transport.Encode(transport.OutboundPlayerJoined, transport.PlayerJoinedPayload{GameID: info.GameID, UserID: client.UserID()})
	h.hub.BroadcastGameState(info.GameID, notify)
}

func (h *WebSocketHandler) handleStartGame(ctx context.Context, client *transport.WSClient, raw json.RawMessage) {
	var p transport.StartGamePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(client, transport.OutboundGameError, "invalid payload")
		return
	}

	if err := h.games.StartGame(ctx, p.GameID); err != nil {
		h.sendError(client, transport.OutboundGameError, err.Error())
		return
	}

	h.hub.Join(p.GameID, client)

	state, err := h.games.GetState(ctx, p.GameID)
	if err != nil {
		log.Error().Err(err).Str("game_id", p.GameID).Msg("failed to load state for gameStarted")
		return
	}
	data, err := transport.Encode(transport.OutboundGameStarted, transport.GameStartedPayload{GameID: p.GameID, State: state})
	if err != nil {
		return
	}
	h.hub.BroadcastNow(p.GameID, data)
}

func (h *WebSocketHandler) handleMakeMove(ctx context.Context, client *transport.WSClient, raw json.RawMessage) {
	var p transport.MakeMovePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(client, transport.OutboundGameError, "invalid payload")
		return
	}

	result, err := h.games.AttemptMove(ctx, p.GameID, chess.Move{
		PlayerID: client.UserID(),
		FromRow:  p.FromRow,
		FromCol:  p.FromCol,
		ToRow:    p.ToRow,
		ToCol:    p.ToCol,
	})
	if err != nil {
		h.sendError(client, transport.OutboundGameError, err.Error())
		return
	}

	if !result.Success {
		data, _ := transport.Encode(transport.OutboundMoveRejected, transport.MoveRejectedPayload{Reason: result.Reason})
		client.Send(data)
		return
	}

	data, _ := transport.Encode(transport.OutboundMoveAccepted, transport.MoveAcceptedPayload{Move: p})
	client.Send(data)
}

func (h *WebSocketHandler) handleRequestMatchmaking(ctx context.Context, client *transport.WSClient) {
	user, err := h.users.GetUser(ctx, client.UserID())
	if err != nil {
		h.sendError(client, transport.OutboundMatchmakingError, "unknown user")
		return
	}

	if err := h.matches.Enqueue(ctx, client.UserID(), user.Rating, ""); err != nil {
		h.sendError(client, transport.OutboundMatchmakingError, err.Error())
		return
	}
	data, _ := transport.Encode(transport.OutboundMatchmakingStarted, transport.MatchmakingStartedPayload{QueueSize: h.matches.QueueSize()})
	client.Send(data)
}

func (h *WebSocketHandler) handleCancelMatchmaking(ctx context.Context, client *transport.WSClient) {
	if err := h.matches.Dequeue(ctx, client.UserID()); err != nil {
		h.sendError(client, transport.OutboundMatchmakingError, err.Error())
		return
	}
	data, _ := transport.Encode(transport.OutboundMatchmakingCancelled, nil)
	client.Send(data)
}

func (h *WebSocketHandler) handleMatchmakingStatus(client *transport.WSClient) {
	entry, position, inQueue := h.matches.Status(client.UserID())
	payload := transport.MatchmakingStatusPayload{InQueue: inQueue, QueueSize: h.matches.QueueSize()}
	if inQueue {
		payload.QueueInfo = map[string]interface{}{"position": position, "joinedAt": entry.JoinedAt}
	}
	data, _ := transport.Encode(transport.OutboundMatchmakingStatus, payload)
	client.Send(data)
}

func (h *WebSocketHandler) handleSpectateGame(client *transport.WSClient, raw json.RawMessage) {
	var p transport.SpectateGamePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(client, transport.OutboundSpectateError, "invalid payload")
		return
	}
	h.hub.Join(p.GameID, client)
	data, _ := transport.Encode(transport.OutboundSpectatingStarted, transport.SpectatingStartedPayload{GameID: p.GameID})
	client.Send(data)
}

func (h *WebSocketHandler) handleLeaveGame(client *transport.WSClient, raw json.RawMessage) {
	var p transport.LeaveGamePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	h.hub.Leave(p.GameID, client)
}

func (h *WebSocketHandler) handleRequestGameState(ctx context.Context, client *transport.WSClient, raw json.RawMessage) {
	var p transport.RequestGameStatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(client, transport.OutboundGameError, "invalid payload")
		return
	}

	state, err := h.games.GetState(ctx, p.GameID)
	if err != nil {
		h.sendError(client, transport.OutboundGameError, err.Error())
		return
	}
	data, err := transport.Encode(transport.OutboundGameStateUpdate, transport.GameStateUpdatePayload{State: state})
	if err != nil {
		return
	}
	client.Send(data)
}
