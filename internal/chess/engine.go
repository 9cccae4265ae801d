package chess

// GameEngine orchestrates exactly one live game: materialising player state,
// validating and executing moves, applying special effects, and detecting
// the win condition (§4.6).
type GameEngine struct {
	state *GameState
}

// NewGameEngine wraps an already-constructed GameState.
func NewGameEngine(state *GameState) *GameEngine {
	return &GameEngine{state: state}
}

// State returns the engine's live GameState. Callers must not mutate it
// outside the engine's own methods.
func (e *GameEngine) State() *GameState {
	return e.state
}

// AttemptResult is the outcome of AttemptMove.
type AttemptResult struct {
	Success      bool
	Reason       string
	Captured     *Piece
	PrinceShield bool
	GameFinished bool
	Winner       Color
	HasWinner    bool
}

func fail(reason FailReason) AttemptResult {
	return AttemptResult{Success: false, Reason: string(reason)}
}

// AttemptMove runs the full §4.6 attemptMove pipeline: resolve the mover's
// color, materialise their PlayerState, validate, then execute.
func (e *GameEngine) AttemptMove(move Move, now int64) AttemptResult {
	if e.state.Status != StatusActive {
		return AttemptResult{Success: false, Reason: "Game is not active"}
	}

	color, ok := e.state.ColorOf(move.PlayerID)
	if !ok {
		return AttemptResult{Success: false, Reason: "Player not in game"}
	}

	state := e.state.StateFor(color)
	e.materialize(state, now)

	result := ValidateMove(e.state.Board, move, color, state, now)
	if !result.Valid {
		return fail(result.Reason)
	}

	return e.execute(move, color, state, now)
}

// materialize recomputes regen rate, energy and sweeps expired cooldowns for
// one player, in that order, per §4.6(b).
func (e *GameEngine) materialize(state *PlayerState, now int64) {
	state.EnergyRegenRate = UpdateRegenRate(e.state.GameStartedAt, now)
	state.Energy = CurrentEnergy(state, now)
	state.LastEnergyUpdate = now
	state.Sweep(now)
}

// Tick materialises both players' state without evaluating a move (§4.6
// tick). Safe to call at any frequency.
func (e *GameEngine) Tick(now int64) {
	e.materialize(e.state.White, now)
	e.materialize(e.state.Black, now)
}

func (e *GameEngine) execute(move Move, color Color, state *PlayerState, now int64) AttemptResult {
	board := e.state.Board
	src := board.Get(move.FromRow, move.FromCol)
	if src == nil {
		return AttemptResult{Success: false, Reason: "Invariant violation: source vanished mid-execute"}
	}
	dst := board.Get(move.ToRow, move.ToCol)

	// Prince shield: the prince absorbs one capture without moving or
	// swapping places (§4.6 execution step 1).
	if dst != nil && dst.Color != color && dst.Kind == KindPrince && dst.AbilityAvailable {
		dst.AbilityAvailable = false
		consumed := Consume(state, float64(BaseEnergyCost(src.Kind)), now)
		if !consumed.OK {
			return AttemptResult{Success: false, Reason: "Invariant violation: energy check passed validation but failed at execute"}
		}
		state.SetCooldown(src.ID, src.Kind, now)
		src.HasMoved = true
		e.applySpecialEffects(src, move.FromRow, move.FromCol, now)
		e.state.LastMoveAt = now
		e.state.HasLastMove = true
		return AttemptResult{Success: true, PrinceShield: true}
	}

	consumed := Consume(state, float64(BaseEnergyCost(src.Kind)), now)
	if !consumed.OK {
		return AttemptResult{Success: false, Reason: "Invariant violation: energy check passed validation but failed at execute"}
	}
	state.SetCooldown(src.ID, src.Kind, now)

	var captured *Piece
	if dst != nil {
		captured = dst
	}
	board.MovePiece(move.FromRow, move.FromCol, move.ToRow, move.ToCol)

	e.applySpecialEffects(src, move.ToRow, move.ToCol, now)

	e.state.LastMoveAt = now
	e.state.HasLastMove = true

	result := AttemptResult{Success: true, Captured: captured}
	if captured != nil && captured.Kind == KindKing {
		e.state.Status = StatusFinished
		e.state.Winner = color
		e.state.HasWinner = true
		result.GameFinished = true
		result.Winner = color
		result.HasWinner = true
	}
	return result
}

// applySpecialEffects implements §4.6 execution step 3, keyed on the
// mover's kind, centred on (row, col) — the square the mover's effect
// radiates from (its destination for a normal move, its untouched source for
// a prince-shielded one).
func (e *GameEngine) applySpecialEffects(mover *Piece, row, col int, now int64) {
	switch mover.Kind {
	case KindPawnGeneral:
		e.forEachNeighbor(row, col, func(p *Piece) {
			if p.Color != mover.Color {
				return
			}
			ownerState := e.state.StateFor(p.Color)
			remaining := ownerState.GetRemaining(p.ID, now)
			if remaining <= 0 {
				return
			}
			reduced := remaining - 2000
			if reduced < 0 {
				reduced = 0
			}
			ownerState.PieceCooldowns[p.ID] = now + reduced
		})
	case KindIceBishop:
		e.forEachNeighbor(row, col, func(p *Piece) {
			if p.Color == mover.Color {
				return
			}
			ownerState := e.state.StateFor(p.Color)
			remaining := ownerState.GetRemaining(p.ID, now)
			cap := int64(BaseCooldownSeconds(p.Kind) * 1000)
			var newDeadline int64
			if remaining > 0 {
				extended := remaining + 3000
				if extended > cap {
					extended = cap
				}
				newDeadline = now + extended
			} else {
				newDeadline = now + 3000
			}
			ownerState.PieceCooldowns[p.ID] = newDeadline
		})
	}
}

func (e *GameEngine) forEachNeighbor(row, col int, fn func(p *Piece)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if p := e.state.Board.Get(row+dr, col+dc); p != nil {
				fn(p)
			}
		}
	}
}

// CalculatePoints sums the material value of every surviving piece of color
// (§4.6 calculatePoints).
func (e *GameEngine) CalculatePoints(color Color) int {
	total := 0
	for _, p := range e.state.Board.FindByColor(color) {
		total += BasePointValue(p.Kind)
	}
	return total
}

// ResolveSimultaneousKingCapture implements §4.6: if both kings were
// captured in a tied step, the higher point total wins, white breaking ties;
// if only one fell, its opponent wins; if neither, returns (_, false).
func (e *GameEngine) ResolveSimultaneousKingCapture(whiteCaptured, blackCaptured bool) (Color, bool) {
	switch {
	case whiteCaptured && blackCaptured:
		whitePoints := e.CalculatePoints(White)
		blackPoints := e.CalculatePoints(Black)
		if blackPoints > whitePoints {
			return Black, true
		}
		return White, true
	case whiteCaptured:
		return Black, true
	case blackCaptured:
		return White, true
	default:
		return "", false
	}
}
