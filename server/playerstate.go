package server

import "time"

// PlayerState is the per-player subset of room state. It is immutable once
// constructed: every mutation produces a new value via the With* methods
// rather than touching an existing instance in place, so a concurrent reader
// can never observe a torn state.
type PlayerState struct {
	PlayerID       string
	PlayerName     string
	Color          string
	X              float64
	Y              float64
	LastUpdateTime int64 // milliseconds, server-assigned, never part of a Delta
}

// NewPlayerState builds the initial state for a freshly joined player.
func NewPlayerState(playerID, playerName, color string, x, y float64) PlayerState {
	return PlayerState{
		PlayerID:       playerID,
		PlayerName:     playerName,
		Color:          color,
		X:              x,
		Y:              y,
		LastUpdateTime: nowMillis(),
	}
}

// WithPosition returns a new PlayerState with an updated x/y.
func (p PlayerState) WithPosition(x, y float64) PlayerState {
	p.X = x
	p.Y = y
	p.LastUpdateTime = nowMillis()
	return p
}

// WithName returns a new PlayerState with an updated player name.
func (p PlayerState) WithName(name string) PlayerState {
	p.PlayerName = name
	p.LastUpdateTime = nowMillis()
	return p
}

// WithColor returns a new PlayerState with an updated color.
func (p PlayerState) WithColor(color string) PlayerState {
	p.Color = color
	p.LastUpdateTime = nowMillis()
	return p
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// colorPalette is the deterministic fallback palette used when a joining
// player's payload omits a color. Round-robin, not random: two players
// joining in the same millisecond still get visually distinct defaults.
var colorPalette = [8]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
}

func paletteColor(index int64) string {
	n := int64(len(colorPalette))
	return colorPalette[((index%n)+n)%n]
}
