package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/coinward/coinward/core"
)

// LotView is one line of a user's history report.
type LotView struct {
	CoinID       string
	CoinName     string
	InvestedUSD  decimal.Decimal
	PricePerUnit decimal.Decimal
	Quantity     decimal.Decimal
	CreatedAt    time.Time
}

// PositionView aggregates a user's lots for one coin.
type PositionView struct {
	CoinID   string
	CoinName string
	Lots     []LotView

	Holdings    decimal.Decimal
	InvestedUSD decimal.Decimal

	// CurrentValue and ProfitPercent are only meaningful when Priced is set:
	// the snapshot held a quote for the coin at report time.
	Priced        bool
	CurrentValue  decimal.Decimal
	ProfitPercent decimal.Decimal
}

// Report is a user's full purchase history plus portfolio totals.
type Report struct {
	Positions []PositionView

	TotalInvested decimal.Decimal
	TotalValue    decimal.Decimal
	FullyPriced   bool
}

// Empty reports whether the user holds no lots at all.
func (r *Report) Empty() bool { return len(r.Positions) == 0 }

// History builds the per-coin lot report for a user, valuing positions
// against the current snapshot where a quote is available.
func (e *Engine) History(ctx context.Context, userID string) (*Report, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	ledger, ok := doc.Users[userID]
	if !ok {
		return &Report{FullyPriced: true}, nil
	}

	report := &Report{
		TotalInvested: decimal.Zero,
		TotalValue:    decimal.Zero,
		FullyPriced:   true,
	}

	coins := lo.Keys(ledger.Lots)
	sort.Strings(coins)

	for _, coinID := range coins {
		lots := ledger.Lots[coinID]
		if len(lots) == 0 {
			continue
		}

		name := doc.CoinName(coinID)
		position := PositionView{
			CoinID:   coinID,
			CoinName: name,
			Lots: lo.Map(lots, func(lot *core.Lot, _ int) LotView {
				return LotView{
					CoinID:       coinID,
					CoinName:     name,
					InvestedUSD:  lot.InvestedUSD,
					PricePerUnit: lot.PricePerUnit,
					Quantity:     lot.Quantity,
					CreatedAt:    lot.CreatedAt,
				}
			}),
			Holdings: ledger.Holdings(coinID),
			InvestedUSD: lo.Reduce(lots, func(sum decimal.Decimal, lot *core.Lot, _ int) decimal.Decimal {
				return sum.Add(lot.InvestedUSD)
			}, decimal.Zero),
		}

		if price, ok := e.snapshot.Get(coinID); ok {
			position.Priced = true
			position.CurrentValue = position.Holdings.Mul(price)
			if position.InvestedUSD.IsPositive() {
				position.ProfitPercent = position.CurrentValue.Div(position.InvestedUSD).
					Sub(decimal.NewFromInt(1)).
					Mul(decimal.NewFromInt(100))
			}
			report.TotalValue = report.TotalValue.Add(position.CurrentValue)
		} else {
			report.FullyPriced = false
		}

		report.TotalInvested = report.TotalInvested.Add(position.InvestedUSD)
		report.Positions = append(report.Positions, position)
	}

	return report, nil
}
