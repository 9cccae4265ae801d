// Package transport implements the real-time channel: SessionHub's
// user<->session registry, debounced per-game broadcasting, and the
// websocket transport binding (§4.10, §6).
package transport

import "encoding/json"

// InboundEvent names every event a client may send (§6).
type InboundEvent string

const (
	InboundCreateRoom           InboundEvent = "createRoom"
	InboundJoinRoom             InboundEvent = "joinRoom"
	InboundStartGame            InboundEvent = "startGame"
	InboundMakeMove             InboundEvent = "makeMove"
	InboundRequestMatchmaking   InboundEvent = "requestMatchmaking"
	InboundCancelMatchmaking    InboundEvent = "cancelMatchmaking"
	InboundGetMatchmakingStatus InboundEvent = "getMatchmakingStatus"
	InboundSpectateGame         InboundEvent = "spectateGame"
	InboundLeaveGame            InboundEvent = "leaveGame"
	InboundRequestGameState     InboundEvent = "requestGameState"
)

// OutboundEvent names every event the server may send (§6).
type OutboundEvent string

const (
	OutboundRoomCreated          OutboundEvent = "roomCreated"
	OutboundRoomJoined           OutboundEvent = "roomJoined"
	OutboundRoomError            OutboundEvent = "roomError"
	OutboundPlayerJoined         OutboundEvent = "playerJoined"
	OutboundGameWaiting          OutboundEvent = "gameWaiting"
	OutboundGameStarted          OutboundEvent = "gameStarted"
	OutboundGameStateUpdate      OutboundEvent = "gameStateUpdate"
	OutboundMoveAccepted         OutboundEvent = "moveAccepted"
	OutboundMoveRejected         OutboundEvent = "moveRejected"
	OutboundMatchFound           OutboundEvent = "matchFound"
	OutboundMatchmakingStarted   OutboundEvent = "matchmakingStarted"
	OutboundMatchmakingCancelled OutboundEvent = "matchmakingCancelled"
	OutboundMatchmakingStatus    OutboundEvent = "matchmakingStatus"
	OutboundMatchmakingError     OutboundEvent = "matchmakingError"
	OutboundGameEnded            OutboundEvent = "gameEnded"
	OutboundGameError            OutboundEvent = "gameError"
	OutboundSpectatingStarted    OutboundEvent = "spectatingStarted"
	OutboundSpectateError        OutboundEvent = "spectateError"
)

// Envelope is the wire shape of every message in both directions: a type tag
// and an opaque payload, mirroring the teacher's IncomingMessage/
// OutgoingMessage split in internal/websocket/client.go.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound payload shapes. Coordinates are integers 0..7 (§6) — never
// algebraic notation, per spec.md's explicit Non-goal.

type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
}

type StartGamePayload struct {
	GameID string `json:"gameId"`
}

type MakeMovePayload struct {
	GameID  string `json:"gameId"`
	FromRow int    `json:"fromRow"`
	FromCol int    `json:"fromCol"`
	ToRow   int    `json:"toRow"`
	ToCol   int    `json:"toCol"`
}

type SpectateGamePayload struct {
	GameID string `json:"gameId"`
}

type LeaveGamePayload struct {
	GameID string `json:"gameId"`
}

type RequestGameStatePayload struct {
	GameID string `json:"gameId"`
}

// Outbound payload shapes.

type RoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

type RoomJoinedPayload struct {
	GameID   string `json:"gameId"`
	RoomCode string `json:"roomCode"`
}

type RoomErrorPayload struct {
	Error string `json:"error"`
}

type PlayerJoinedPayload struct {
	GameID string `json:"gameId"`
	UserID string `json:"userId"`
}

type GameWaitingPayload struct {
	GameID string `json:"gameId"`
}

type GameStartedPayload struct {
	GameID string      `json:"gameId"`
	State  interface{} `json:"state"`
}

type GameStateUpdatePayload struct {
	State interface{} `json:"state"`
}

type MoveAcceptedPayload struct {
	Move interface{} `json:"move"`
}

type MoveRejectedPayload struct {
	Reason string `json:"reason"`
}

type MatchFoundPayload struct {
	GameID string `json:"gameId"`
}

type MatchmakingStartedPayload struct {
	QueueSize int `json:"queueSize"`
}

type MatchmakingStatusPayload struct {
	InQueue   bool        `json:"inQueue"`
	QueueInfo interface{} `json:"queueInfo,omitempty"`
	QueueSize int         `json:"queueSize"`
}

type MatchmakingErrorPayload struct {
	Error string `json:"error"`
}

type GameEndedPayload struct {
	GameID string      `json:"gameId"`
	Winner string      `json:"winner,omitempty"`
	State  interface{} `json:"state"`
}

type GameErrorPayload struct {
	Error string `json:"error"`
}

type SpectatingStartedPayload struct {
	GameID string `json:"gameId"`
}

type SpectateErrorPayload struct {
	Error string `json:"error"`
}

// Encode marshals an outbound event and its payload into an Envelope.
func Encode(event OutboundEvent, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: string(event), Payload: data})
}
