package chess

// CooldownManager exposes the §4.4 operations as free functions over a
// PlayerState, mirroring the teacher's validators.go convention of one
// stateless operation set per concern rather than a stateful manager object.

// IsOnCooldown reports whether pieceID is still blocked from moving.
func IsOnCooldown(state *PlayerState, pieceID string, now int64) bool {
	return state.IsOnCooldown(pieceID, now)
}

// GetRemaining returns the remaining cooldown in milliseconds.
func GetRemaining(state *PlayerState, pieceID string, now int64) int64 {
	return state.GetRemaining(pieceID, now)
}

// SetCooldown starts a fresh cooldown for pieceID based on its kind.
func SetCooldown(state *PlayerState, pieceID string, kind Kind, now int64) {
	state.SetCooldown(pieceID, kind, now)
}

// ClearCooldown erases pieceID's cooldown entry.
func ClearCooldown(state *PlayerState, pieceID string) {
	state.ClearCooldown(pieceID)
}

// Sweep erases every expired cooldown entry in state.
func Sweep(state *PlayerState, now int64) {
	state.Sweep(now)
}
