package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/coinward/coinward/core"
)

// matchResult is the outcome of consuming lots for a sell.
type matchResult struct {
	remaining []*core.Lot
	proceeds  decimal.Decimal
	sold      decimal.Decimal
}

// matchSell consumes quantity from the lot sequence newest-first. A lot fully
// covered by the remaining amount is removed and its quantity valued at the
// current price; the boundary lot is split, with quantity and invested_usd
// reduced proportionally. The caller guarantees quantity <= total holdings.
func matchSell(lots []*core.Lot, quantity, price decimal.Decimal) matchResult {
	result := matchResult{
		remaining: make([]*core.Lot, len(lots)),
		proceeds:  decimal.Zero,
		sold:      decimal.Zero,
	}
	copy(result.remaining, lots)

	toSell := quantity
	for i := len(result.remaining) - 1; i >= 0 && toSell.IsPositive(); i-- {
		lot := result.remaining[i]

		if lot.Quantity.LessThanOrEqual(toSell) {
			// Lot fully consumed: drop it, value it at the current price.
			result.proceeds = result.proceeds.Add(lot.Quantity.Mul(price))
			result.sold = result.sold.Add(lot.Quantity)
			toSell = toSell.Sub(lot.Quantity)
			result.remaining = append(result.remaining[:i], result.remaining[i+1:]...)
			continue
		}

		// Boundary lot: split it, scaling the cost basis by the share kept.
		kept := lot.Quantity.Sub(toSell)
		lot.InvestedUSD = lot.InvestedUSD.Mul(kept).Div(lot.Quantity)
		lot.Quantity = kept
		result.proceeds = result.proceeds.Add(toSell.Mul(price))
		result.sold = result.sold.Add(toSell)
		toSell = decimal.Zero
	}

	return result
}

// resetNotified clears the P/L hysteresis flag on every lot. Any change to
// the cost-basis composition of a position invalidates prior notifications.
func resetNotified(lots []*core.Lot) {
	for _, lot := range lots {
		lot.Notified = false
	}
}
