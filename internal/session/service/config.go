package service

import "time"

// Config holds configuration for the session service.
type Config struct {
	// TickInterval is the base wall-clock interval between ticks at 1x speed.
	TickInterval time.Duration
	// SpeedMultipliers is the set of accepted playback speeds.
	SpeedMultipliers []float64
	// SessionLength is the number of ticks in one session.
	SessionLength int
	// StartingCash is the opening balance for new players.
	StartingCash float64
	// Seed seeds the random source; 0 means seed from the clock.
	Seed int64
	// CommandBuffer is the size of the inbound command channel.
	CommandBuffer int
	// UpdateBuffer is the size of the external updates channel.
	UpdateBuffer int
	// DropUpdates determines whether the updates channel drops on overflow.
	DropUpdates bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:     200 * time.Millisecond,
		SpeedMultipliers: []float64{0.5, 1, 2, 4},
		SessionLength:    390,
		StartingCash:     10_000,
		CommandBuffer:    64,
		UpdateBuffer:     256,
		DropUpdates:      true,
	}
}
