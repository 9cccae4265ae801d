package transport

import "github.com/rtchess/backend/internal/chess"

// GameStateHandler returns the callback session.NewGameManager expects for
// its onUpdate hook: every tick or accepted move funnels the latest state
// through the hub's debounced per-game broadcaster, and a finished game is
// flushed immediately (bypassing the debounce window, since the end of a
// game is not a state a client should ever see stale) and its broadcaster
// torn down.
func GameStateHandler(hub *Hub) func(gameID string, state *chess.GameState) {
	return func(gameID string, state *chess.GameState) {
		if state.Status == chess.StatusFinished {
			winner := ""
			if state.HasWinner {
				winner = string(state.Winner)
			}
			data, err := Encode(OutboundGameEnded, GameEndedPayload{
				GameID: gameID,
				Winner: winner,
				State:  state,
			})
			if err != nil {
				return
			}
			hub.broadcastNow(gameID, data)
			hub.CloseGame(gameID)
			return
		}

		data, err := Encode(OutboundGameStateUpdate, GameStateUpdatePayload{State: state})
		if err != nil {
			return
		}
		hub.BroadcastGameState(gameID, data)
	}
}
