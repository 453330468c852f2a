// Package ledger implements the persisted cost-basis ledger and the alert
// engine: one-shot threshold alerts, LIFO lot matching for sells and
// hysteresis-gated profit/loss notifications evaluated on a periodic tick.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/StudioSol/set"
	"github.com/shopspring/decimal"

	"github.com/coinward/coinward/core"
	"github.com/coinward/coinward/logger"
)

// Snapshot caches the most recent USD price per tracked coin. Refresh is the
// only writer and replaces the whole mapping; a failed refresh keeps the
// previous snapshot, which readers treat as stale but usable.
type Snapshot struct {
	mu          sync.RWMutex
	prices      core.Quotes
	refreshedAt time.Time

	quoter core.Quoter
	log    logger.Logger
}

func NewSnapshot(quoter core.Quoter, log logger.Logger) *Snapshot {
	return &Snapshot{
		prices: make(core.Quotes),
		quoter: quoter,
		log:    log,
	}
}

// Refresh fetches quotes for the given coin ids and swaps in the result.
// On failure the previous snapshot is left untouched and the error is
// returned for logging only; readers are never failed by a bad refresh.
func (s *Snapshot) Refresh(ctx context.Context, coinIDs []string) error {
	ids := set.NewLinkedHashSetString(coinIDs...)
	if ids.Length() == 0 {
		return nil
	}

	ordered := make([]string, 0, ids.Length())
	for id := range ids.Iter() {
		ordered = append(ordered, id)
	}

	quotes, err := s.quoter.GetQuotes(ctx, ordered)
	if err != nil {
		s.log.WithError(err).Warn("price refresh failed, keeping previous snapshot")
		return err
	}

	s.mu.Lock()
	s.prices = quotes
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	s.log.Debugf("price snapshot refreshed: %d coins", len(quotes))
	return nil
}

// Get returns the cached price for a coin. A false result means the coin is
// untracked or no successful refresh has covered it yet; callers skip the
// coin, they do not alert and do not fail.
func (s *Snapshot) Get(coinID string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[coinID]
	return price, ok
}

// Age returns the time elapsed since the last successful refresh.
func (s *Snapshot) Age() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refreshedAt.IsZero() {
		return 0
	}
	return time.Since(s.refreshedAt)
}
