package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinward/coinward/core"
	"github.com/coinward/coinward/logger"
)

// AlertSide selects which trigger of a threshold alert an operation targets.
type AlertSide string

const (
	AlertAbove AlertSide = "above"
	AlertBelow AlertSide = "below"
)

// SellRequest is the resolved argument of a sell command: either an explicit
// quantity or "max", which closes the whole position.
type SellRequest struct {
	Max      bool
	Quantity decimal.Decimal
}

// BuyReceipt confirms a recorded purchase.
type BuyReceipt struct {
	CoinID    string
	CoinName  string
	AmountUSD decimal.Decimal
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	CreatedAt time.Time
}

// SellReceipt confirms a matched sell.
type SellReceipt struct {
	CoinID   string
	CoinName string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Proceeds decimal.Decimal
	SoldAt   time.Time
}

// Engine owns the persisted ledger. Every operation, user command and
// scheduler tick alike, runs a full load-mutate-save cycle under a single
// mutex; the saved document is the only durable state, so an operation whose
// save fails has no effect.
type Engine struct {
	store    core.Storage
	snapshot *Snapshot
	log      logger.Logger

	opMu sync.Mutex

	// now is replaceable for tests.
	now func() time.Time
}

func NewEngine(store core.Storage, snapshot *Snapshot, log logger.Logger) *Engine {
	return &Engine{
		store:    store,
		snapshot: snapshot,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot exposes the engine's price cache for read-only collaborators.
func (e *Engine) Snapshot() *Snapshot { return e.snapshot }

// Buy appends a new lot priced at the current snapshot quote. Adding cost
// basis re-arms the P/L hysteresis for the whole position.
func (e *Engine) Buy(ctx context.Context, userID, coinID string, amountUSD decimal.Decimal) (*BuyReceipt, error) {
	if coinID == "" {
		return nil, core.ErrNoCoinSelected
	}
	if !amountUSD.IsPositive() {
		return nil, core.ErrBadAmount
	}

	price, ok := e.snapshot.Get(coinID)
	if !ok || !price.IsPositive() {
		return nil, core.ErrPriceUnavailable
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	ledger := doc.User(userID)
	lot := &core.Lot{
		InvestedUSD:  amountUSD,
		PricePerUnit: price,
		Quantity:     amountUSD.Div(price),
		CreatedAt:    e.now(),
	}
	ledger.Lots[coinID] = append(ledger.Lots[coinID], lot)
	resetNotified(ledger.Lots[coinID])

	if err := e.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}

	e.log.WithFields(map[string]any{
		"user": userID, "coin": coinID, "amount": amountUSD.String(),
	}).Info("buy recorded")

	return &BuyReceipt{
		CoinID:    coinID,
		CoinName:  doc.CoinName(coinID),
		AmountUSD: amountUSD,
		Price:     price,
		Quantity:  lot.Quantity,
		CreatedAt: lot.CreatedAt,
	}, nil
}

// Sell consumes lots newest-first at the current snapshot quote. Selling
// more than the held quantity is rejected with the computed shortfall; a
// position reduced to zero lots disappears from the store entirely.
func (e *Engine) Sell(ctx context.Context, userID, coinID string, req SellRequest) (*SellReceipt, error) {
	if coinID == "" {
		return nil, core.ErrNoCoinSelected
	}
	if !req.Max && !req.Quantity.IsPositive() {
		return nil, core.ErrBadQuantity
	}

	price, ok := e.snapshot.Get(coinID)
	if !ok || !price.IsPositive() {
		return nil, core.ErrPriceUnavailable
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	ledger := doc.User(userID)
	held := ledger.Holdings(coinID)

	quantity := req.Quantity
	if req.Max {
		quantity = held
	}
	if !quantity.IsPositive() || quantity.GreaterThan(held) {
		return nil, &core.HoldingsError{CoinID: coinID, Held: held, Requested: quantity}
	}

	result := matchSell(ledger.Lots[coinID], quantity, price)
	if len(result.remaining) == 0 {
		delete(ledger.Lots, coinID)
	} else {
		resetNotified(result.remaining)
		ledger.Lots[coinID] = result.remaining
	}
	compact(doc)

	if err := e.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}

	e.log.WithFields(map[string]any{
		"user": userID, "coin": coinID, "quantity": result.sold.String(),
	}).Info("sell recorded")

	return &SellReceipt{
		CoinID:   coinID,
		CoinName: doc.CoinName(coinID),
		Quantity: result.sold,
		Price:    price,
		Proceeds: result.proceeds,
		SoldAt:   e.now(),
	}, nil
}

// SetAlert upserts one side of the user's threshold alert for a coin,
// leaving the other side untouched.
func (e *Engine) SetAlert(ctx context.Context, userID, coinID string, side AlertSide, price decimal.Decimal) error {
	if coinID == "" {
		return core.ErrNoCoinSelected
	}
	if !price.IsPositive() {
		return core.ErrBadPrice
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	ledger := doc.User(userID)
	alert, ok := ledger.Alerts[coinID]
	if !ok {
		alert = &core.ThresholdAlert{}
		ledger.Alerts[coinID] = alert
	}
	switch side {
	case AlertAbove:
		alert.Above = &price
	case AlertBelow:
		alert.Below = &price
	default:
		return fmt.Errorf("unknown alert side %q", side)
	}

	if err := e.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// SetProfitBand updates the persisted hysteresis band. Lots already flagged
// keep their state; the new band applies from the next evaluation on.
func (e *Engine) SetProfitBand(ctx context.Context, band decimal.Decimal) error {
	if !band.IsPositive() {
		return core.ErrBadPrice
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	doc.Settings.ProfitBandPct = band
	if err := e.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// AddCoin registers a coin in the global registry shared by all users.
func (e *Engine) AddCoin(ctx context.Context, coinID, name string) error {
	if coinID == "" {
		return core.ErrUnknownCoin
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	doc.Coins[coinID] = name
	if err := e.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// RemoveCoin drops a coin from the registry. Existing alerts and lots are
// left alone; without a registry entry the coin stops being refreshed, so
// evaluation skips it from the next tick on.
func (e *Engine) RemoveCoin(ctx context.Context, coinID string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if _, ok := doc.Coins[coinID]; !ok {
		return core.ErrUnknownCoin
	}
	delete(doc.Coins, coinID)
	if err := e.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// Coins returns a copy of the coin registry.
func (e *Engine) Coins(ctx context.Context) (map[string]string, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	coins := make(map[string]string, len(doc.Coins))
	for id, name := range doc.Coins {
		coins[id] = name
	}
	return coins, nil
}

// Tick runs the scheduler sequence to completion: refresh the snapshot,
// evaluate threshold alerts, evaluate P/L hysteresis, compact, persist once
// and hand the collected notifications back for dispatch. A crash between
// save and dispatch can duplicate notifications but never loses threshold
// state, because the destructive clears are saved first.
func (e *Engine) Tick(ctx context.Context) ([]core.Notification, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	// A failed refresh leaves the previous snapshot usable; evaluation
	// simply skips coins without a fresh entry.
	if err := e.snapshot.Refresh(ctx, coinIDs(doc)); err != nil {
		e.log.WithError(err).Warn("tick: no price update this cycle")
	}

	notifications := e.evaluateAlerts(doc)
	notifications = append(notifications, e.evaluateProfitLoss(doc)...)
	compact(doc)

	if err := e.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}

	return notifications, nil
}

// coinIDs collects every coin the tick must quote: the registry plus any
// coin still referenced by a user's alerts or lots.
func coinIDs(doc *core.Document) []string {
	ids := make([]string, 0, len(doc.Coins))
	for id := range doc.Coins {
		ids = append(ids, id)
	}
	for _, ledger := range doc.Users {
		for id := range ledger.Alerts {
			ids = append(ids, id)
		}
		for id := range ledger.Lots {
			ids = append(ids, id)
		}
	}
	return ids
}
