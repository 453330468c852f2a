package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coinward/coinward/core"
	"github.com/coinward/coinward/ledger"
)

func TestFormatBuyReceipt(t *testing.T) {
	text := formatBuyReceipt(&ledger.BuyReceipt{
		CoinID:    "bitcoin",
		CoinName:  "Bitcoin",
		AmountUSD: decimal.NewFromInt(100),
		Price:     decimal.NewFromInt(50000),
		Quantity:  decimal.RequireFromString("0.002"),
		CreatedAt: time.Date(2023, 3, 1, 10, 30, 0, 0, time.UTC),
	})

	require.Contains(t, text, "Coin: Bitcoin")
	require.Contains(t, text, "Amount: $100.00")
	require.Contains(t, text, "Price: $50000.00")
	require.Contains(t, text, "Quantity: 0.0020")
	require.Contains(t, text, "2023-03-01 10:30:00 UTC")
}

func TestFormatSellReceipt(t *testing.T) {
	text := formatSellReceipt(&ledger.SellReceipt{
		CoinName: "Bitcoin",
		Quantity: decimal.RequireFromString("0.5"),
		Price:    decimal.NewFromInt(60000),
		Proceeds: decimal.NewFromInt(30000),
		SoldAt:   time.Date(2023, 3, 2, 9, 0, 0, 0, time.UTC),
	})

	require.Contains(t, text, "Sold 0.5000 Bitcoin")
	require.Contains(t, text, "At price: $60000.00 per coin")
	require.Contains(t, text, "Total: $30000.00")
}

func TestFormatHistory(t *testing.T) {
	report := &ledger.Report{
		Positions: []ledger.PositionView{{
			CoinID:   "bitcoin",
			CoinName: "Bitcoin",
			Lots: []ledger.LotView{{
				InvestedUSD:  decimal.NewFromInt(100),
				PricePerUnit: decimal.NewFromInt(50000),
				Quantity:     decimal.RequireFromString("0.002"),
				CreatedAt:    time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC),
			}},
			Holdings:      decimal.RequireFromString("0.002"),
			InvestedUSD:   decimal.NewFromInt(100),
			Priced:        true,
			CurrentValue:  decimal.NewFromInt(120),
			ProfitPercent: decimal.NewFromInt(20),
		}},
		TotalInvested: decimal.NewFromInt(100),
		TotalValue:    decimal.NewFromInt(120),
		FullyPriced:   true,
	}

	text := formatHistory(report)
	require.Contains(t, text, "*Your Purchase Diary*")
	require.Contains(t, text, "*Bitcoin*")
	require.Contains(t, text, "Bought for $100.00 at $50000.00")
	require.Contains(t, text, "$120.00 (20.00%)")
	require.Contains(t, text, "Invested: $100.00")
	require.Contains(t, text, "Current value: $120.00")
}

func TestFormatHistoryEmpty(t *testing.T) {
	text := formatHistory(&ledger.Report{FullyPriced: true})
	require.Contains(t, text, "empty")
}

func TestFormatHistoryUnpricedOmitsTotalValue(t *testing.T) {
	report := &ledger.Report{
		Positions: []ledger.PositionView{{
			CoinID:      "ethereum",
			CoinName:    "Ethereum",
			Holdings:    decimal.NewFromInt(2),
			InvestedUSD: decimal.NewFromInt(200),
		}},
		TotalInvested: decimal.NewFromInt(200),
	}

	text := formatHistory(report)
	require.Contains(t, text, "Holdings: `2.0000`")
	require.NotContains(t, text, "Current value")
}

func TestUserMessage(t *testing.T) {
	holdings := &core.HoldingsError{
		CoinID:    "bitcoin",
		Held:      decimal.RequireFromString("0.5"),
		Requested: decimal.NewFromInt(1),
	}
	text := userMessage(holdings)
	require.Contains(t, text, "don't have enough bitcoin")
	require.Contains(t, text, "0.5000")
	require.Contains(t, text, "1.0000")

	require.Contains(t, userMessage(core.ErrNoCoinSelected), "/start")
	require.Contains(t, userMessage(core.ErrBadAmount), "/buy 100")
	require.Contains(t, userMessage(core.ErrBadQuantity), "/sell 10")
	require.Contains(t, userMessage(core.ErrPriceUnavailable), "Try again later")
	require.Contains(t, userMessage(core.ErrUnknownCoin), "not found")
	require.Contains(t, userMessage(errors.New("boom")), "Something went wrong")
}
