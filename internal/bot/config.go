package bot

// Config holds configuration for a bot runner.
type Config struct {
	// EventBuffer is the size of the bot events channel.
	EventBuffer int
	// DropEvents determines whether the events channel drops on overflow.
	DropEvents bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		EventBuffer: 256,
		DropEvents:  true,
	}
}
