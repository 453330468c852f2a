package coinward

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coinward/coinward/core"
	"github.com/coinward/coinward/ledger"
	"github.com/coinward/coinward/storage"
)

type stubQuoter struct {
	quotes core.Quotes
}

func (q *stubQuoter) GetQuotes(_ context.Context, _ []string) (core.Quotes, error) {
	return q.quotes, nil
}

type recordingNotifier struct {
	sent   []core.Notification
	errors []error
}

func (n *recordingNotifier) Notify(userID, text string) {
	n.sent = append(n.sent, core.Notification{UserID: userID, Text: text})
}

func (n *recordingNotifier) OnError(err error) {
	n.errors = append(n.errors, err)
}

func newMemoryBot(t *testing.T, quoter core.Quoter) *Bot {
	store, err := storage.NewFromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bot, err := NewBot(quoter, WithStorage(store))
	require.NoError(t, err)
	return bot
}

func TestBotTickDispatchesNotifications(t *testing.T) {
	bot := newMemoryBot(t, &stubQuoter{quotes: core.Quotes{
		"bitcoin": decimal.NewFromInt(150),
	}})
	notifier := &recordingNotifier{}
	bot.SetNotifier(notifier)
	ctx := context.Background()

	require.NoError(t, bot.Engine().AddCoin(ctx, "bitcoin", "Bitcoin"))
	require.NoError(t, bot.Engine().SetAlert(ctx, "42", "bitcoin", ledger.AlertAbove, decimal.NewFromInt(100)))

	bot.tick(ctx)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "42", notifier.sent[0].UserID)
	require.Contains(t, notifier.sent[0].Text, "above")

	// The fired trigger is gone; a second pass sends nothing.
	bot.tick(ctx)
	require.Len(t, notifier.sent, 1)
	require.Empty(t, notifier.errors)
}

func TestBotTickWithoutNotifier(t *testing.T) {
	bot := newMemoryBot(t, &stubQuoter{quotes: core.Quotes{
		"bitcoin": decimal.NewFromInt(150),
	}})
	ctx := context.Background()

	require.NoError(t, bot.Engine().SetAlert(ctx, "42", "bitcoin", ledger.AlertAbove, decimal.NewFromInt(100)))

	// A missing notifier must not panic; the mutation still persists.
	bot.tick(ctx)

	notifications, err := bot.Engine().Tick(ctx)
	require.NoError(t, err)
	require.Empty(t, notifications)
}
