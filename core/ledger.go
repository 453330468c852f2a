package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quotes maps a coin identifier to its current USD price.
type Quotes map[string]decimal.Decimal

// Lot is a discrete purchase with its own cost basis. Lots are consumed by
// sells in matching order and deleted once their quantity reaches zero.
type Lot struct {
	InvestedUSD  decimal.Decimal `json:"invested_usd"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	CreatedAt    time.Time       `json:"created_at"`

	// Notified is the profit/loss hysteresis flag: set when the lot leaves
	// the configured band, cleared when it returns inside it.
	Notified bool `json:"notified"`
}

// Value returns the current value of the lot at the given price.
func (l *Lot) Value(price decimal.Decimal) decimal.Decimal {
	return l.Quantity.Mul(price)
}

// ProfitPercent returns the unrealized profit of the lot at the given price,
// in percent of the invested amount.
func (l *Lot) ProfitPercent(price decimal.Decimal) decimal.Decimal {
	if l.InvestedUSD.IsZero() {
		return decimal.Zero
	}
	return l.Value(price).Div(l.InvestedUSD).
		Sub(decimal.NewFromInt(1)).
		Mul(decimal.NewFromInt(100))
}

// ThresholdAlert is a one-shot pair of price triggers for a (user, coin).
// A fired side is removed immediately; a record with neither side set must
// not be retained.
type ThresholdAlert struct {
	Above *decimal.Decimal `json:"above,omitempty"`
	Below *decimal.Decimal `json:"below,omitempty"`
}

// Empty reports whether the alert has no side configured.
func (a *ThresholdAlert) Empty() bool {
	return a == nil || (a.Above == nil && a.Below == nil)
}

// UserLedger holds one user's threshold alerts and purchase lots, both keyed
// by coin identifier. Lot slices are ordered by creation time; that order is
// the matching order for sells.
type UserLedger struct {
	Alerts map[string]*ThresholdAlert `json:"alerts"`
	Lots   map[string][]*Lot          `json:"lots"`
}

// NewUserLedger returns an empty ledger with initialized maps.
func NewUserLedger() *UserLedger {
	return &UserLedger{
		Alerts: make(map[string]*ThresholdAlert),
		Lots:   make(map[string][]*Lot),
	}
}

// Holdings returns the total quantity held for a coin.
func (u *UserLedger) Holdings(coinID string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range u.Lots[coinID] {
		total = total.Add(lot.Quantity)
	}
	return total
}

// Empty reports whether the ledger carries no alerts and no lots.
func (u *UserLedger) Empty() bool {
	return len(u.Alerts) == 0 && len(u.Lots) == 0
}

// DefaultProfitBandPct is the default ± band for profit/loss notifications.
var DefaultProfitBandPct = decimal.NewFromInt(5)

// Settings holds bot-level configuration persisted alongside user data.
type Settings struct {
	// ProfitBandPct is the hysteresis band for P/L notifications, in percent.
	ProfitBandPct decimal.Decimal `json:"profit_band_pct"`
}

// Document is the complete persisted store: the global coin registry, the
// bot settings and every user ledger, each under its own typed field so user
// ids can never collide with reserved names.
type Document struct {
	// Coins maps a coin identifier to its display name.
	Coins    map[string]string      `json:"coins"`
	Settings Settings               `json:"settings"`
	Users    map[string]*UserLedger `json:"users"`
}

// NewDocument returns an empty document with default settings.
func NewDocument() *Document {
	return &Document{
		Coins:    make(map[string]string),
		Settings: Settings{ProfitBandPct: DefaultProfitBandPct},
		Users:    make(map[string]*UserLedger),
	}
}

// User returns the ledger for the given user id, creating it if absent.
func (d *Document) User(id string) *UserLedger {
	ledger, ok := d.Users[id]
	if !ok {
		ledger = NewUserLedger()
		d.Users[id] = ledger
	}
	return ledger
}

// CoinName returns the display name registered for a coin id, falling back
// to the id itself for coins no longer in the registry.
func (d *Document) CoinName(coinID string) string {
	if name, ok := d.Coins[coinID]; ok {
		return name
	}
	return coinID
}
