package bot

// BotConfig represents the configuration for the bot.
type BotConfig struct {
	// Long-poll timeout for the Telegram updates channel, in seconds.
	UpdateTimeout int
}

// DefaultConfig returns the default bot configuration.
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout: 60,
	}
}
