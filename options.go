package coinward

import (
	"time"

	"github.com/coinward/coinward/core"
	"github.com/coinward/coinward/logger"
)

// WithStorage sets the storage for the bot, by default a local BuntDB file.
func WithStorage(store core.Storage) Option {
	return func(bot *Bot) {
		bot.storage = store
	}
}

// WithInterval sets the scheduler tick interval.
func WithInterval(interval time.Duration) Option {
	return func(bot *Bot) {
		if interval > 0 {
			bot.interval = interval
		}
	}
}

// WithNotifier wires the outbound notification sink at construction time.
func WithNotifier(notifier core.Notifier) Option {
	return func(bot *Bot) {
		bot.SetNotifier(notifier)
	}
}

// WithLogger replaces the default logger.
func WithLogger(log logger.Logger) Option {
	return func(bot *Bot) {
		bot.log = log
	}
}

// WithLogLevel sets the log level on the bot's logger.
func WithLogLevel(level logger.Level) Option {
	return func(bot *Bot) {
		bot.log.SetLevel(level)
	}
}
