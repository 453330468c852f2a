// Package coinward wires the ledger engine, the persisted store, the price
// quoter and the Telegram transport into a running bot with a periodic
// evaluation tick.
package coinward

import (
	"context"
	"fmt"
	"time"

	"github.com/coinward/coinward/core"
	"github.com/coinward/coinward/ledger"
	"github.com/coinward/coinward/logger"
	"github.com/coinward/coinward/logger/zerolog"
	"github.com/coinward/coinward/storage"
)

// DefaultLog is the default logger instance.
var DefaultLog logger.Logger = mustDefaultLog()

const (
	defaultDatabase = "coinward.db"
	defaultInterval = time.Minute
)

// Bot owns the long-running pieces: the engine, its storage, the snapshot
// refresh loop and the notification transport.
type Bot struct {
	storage  core.Storage
	quoter   core.Quoter
	engine   *ledger.Engine
	notifier core.Notifier
	telegram core.NotifierWithStart
	log      logger.Logger

	interval time.Duration
}

// Option is a function that configures a Bot.
type Option func(*Bot)

// NewBot creates a bot instance around the given quoter. Storage defaults to
// a local BuntDB file and the tick interval to one minute.
func NewBot(quoter core.Quoter, options ...Option) (*Bot, error) {
	bot := &Bot{
		quoter:   quoter,
		log:      DefaultLog,
		interval: defaultInterval,
	}

	for _, option := range options {
		option(bot)
	}

	if bot.storage == nil {
		store, err := storage.NewFromFile(defaultDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to open default storage: %w", err)
		}
		bot.storage = store
	}

	snapshot := ledger.NewSnapshot(bot.quoter, bot.log)
	bot.engine = ledger.NewEngine(bot.storage, snapshot, bot.log)

	return bot, nil
}

// Engine exposes the ledger engine, mainly so the transport can be built
// around it before Run is called.
func (b *Bot) Engine() *ledger.Engine { return b.engine }

// SetNotifier wires the outbound notification sink. A NotifierWithStart is
// also started when Run begins.
func (b *Bot) SetNotifier(notifier core.Notifier) {
	b.notifier = notifier
	if withStart, ok := notifier.(core.NotifierWithStart); ok {
		b.telegram = withStart
	}
}

// Run starts the transport and drives the scheduler loop until the context
// is canceled. Ticks run to completion on the loop goroutine, so a tick can
// never overlap with itself; when one overruns the interval the ticker
// simply drops the missed firings.
func (b *Bot) Run(ctx context.Context) error {
	if b.telegram != nil {
		b.telegram.Start()
	}

	b.log.Infof("bot started, evaluating every %s", b.interval)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.tick(ctx)
		case <-ctx.Done():
			b.log.Info("bot stopped")
			return b.storage.Close()
		}
	}
}

// tick runs one scheduler pass and dispatches the collected notifications
// after the engine has persisted its mutations.
func (b *Bot) tick(ctx context.Context) {
	notifications, err := b.engine.Tick(ctx)
	if err != nil {
		b.log.WithError(err).Error("tick failed")
		if b.notifier != nil {
			b.notifier.OnError(err)
		}
		return
	}

	for _, notification := range notifications {
		if b.notifier != nil {
			b.notifier.Notify(notification.UserID, notification.Text)
		}
		b.log.WithField("user", notification.UserID).Debug(notification.Text)
	}
}

func mustDefaultLog() logger.Logger {
	log, err := zerolog.New("info", "2006-01-02 15:04:05", true, false)
	if err != nil {
		panic(err)
	}
	return log
}
