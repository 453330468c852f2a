package notification

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coinward/coinward/core"
	"github.com/coinward/coinward/ledger"
)

const timeLayout = "2006-01-02 15:04:05"

func formatBuyReceipt(receipt *ledger.BuyReceipt) string {
	return fmt.Sprintf(
		"✅ Logged Buy:\nCoin: %s\nAmount: $%s\nPrice: $%s\nQuantity: %s\nDate: %s UTC",
		receipt.CoinName,
		receipt.AmountUSD.StringFixed(2),
		receipt.Price.StringFixed(2),
		receipt.Quantity.StringFixed(4),
		receipt.CreatedAt.Format(timeLayout),
	)
}

func formatSellReceipt(receipt *ledger.SellReceipt) string {
	return fmt.Sprintf(
		"🔴 Sold %s %s\nAt price: $%s per coin\nTotal: $%s\nDate: %s UTC",
		receipt.Quantity.StringFixed(4),
		receipt.CoinName,
		receipt.Price.StringFixed(2),
		receipt.Proceeds.StringFixed(2),
		receipt.SoldAt.Format(timeLayout),
	)
}

func formatHistory(report *ledger.Report) string {
	if report.Empty() {
		return "🗒 Your purchase diary is empty."
	}

	var sb strings.Builder
	sb.WriteString("📗 *Your Purchase Diary*\n")

	for _, position := range report.Positions {
		fmt.Fprintf(&sb, "\n*%s*\n", position.CoinName)
		for _, lot := range position.Lots {
			fmt.Fprintf(&sb, "  Bought for $%s at $%s, quantity `%s` (%s UTC)\n",
				lot.InvestedUSD.StringFixed(2),
				lot.PricePerUnit.StringFixed(2),
				lot.Quantity.StringFixed(4),
				lot.CreatedAt.Format(timeLayout))
		}
		fmt.Fprintf(&sb, "  Holdings: `%s`", position.Holdings.StringFixed(4))
		if position.Priced {
			fmt.Fprintf(&sb, " ≅ $%s (%s%%)",
				position.CurrentValue.StringFixed(2),
				position.ProfitPercent.StringFixed(2))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\n-----\nInvested: $%s\n", report.TotalInvested.StringFixed(2))
	if report.FullyPriced {
		fmt.Fprintf(&sb, "Current value: $%s\n", report.TotalValue.StringFixed(2))
	}

	return sb.String()
}

// userMessage translates the engine's error taxonomy into a corrective
// message; unhandled errors fall back to a generic failure notice.
func userMessage(err error) string {
	var holdings *core.HoldingsError
	switch {
	case errors.As(err, &holdings):
		return fmt.Sprintf("❌ You don't have enough %s. You have %s, but tried selling %s.",
			holdings.CoinID, holdings.Held.StringFixed(4), holdings.Requested.StringFixed(4))
	case errors.Is(err, core.ErrNoCoinSelected):
		return "❌ Please select a coin first with /start"
	case errors.Is(err, core.ErrBadAmount):
		return "Invalid amount. Please enter a numeric value.\nExample: /buy 100"
	case errors.Is(err, core.ErrBadQuantity):
		return "❌ Invalid quantity. Enter a numeric value or `max`.\nExample: /sell 10"
	case errors.Is(err, core.ErrBadPrice):
		return "Invalid price. Please enter a valid number."
	case errors.Is(err, core.ErrPriceUnavailable):
		return "❌ Failed to retrieve the current price. Try again later."
	case errors.Is(err, core.ErrUnknownCoin):
		return "❌ Coin not found."
	default:
		return "🛑 Something went wrong. Try again later."
	}
}
