package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coinward/coinward/core"
)

func testLots() []*core.Lot {
	return []*core.Lot{
		{
			InvestedUSD:  decimal.NewFromInt(10),
			PricePerUnit: decimal.NewFromInt(10),
			Quantity:     decimal.NewFromInt(1),
			CreatedAt:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			InvestedUSD:  decimal.NewFromInt(40),
			PricePerUnit: decimal.NewFromInt(20),
			Quantity:     decimal.NewFromInt(2),
			CreatedAt:    time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestMatchSell_SplitsNewestLot(t *testing.T) {
	lots := testLots()
	result := matchSell(lots, decimal.RequireFromString("1.5"), decimal.NewFromInt(30))

	require.True(t, result.sold.Equal(decimal.RequireFromString("1.5")))
	require.True(t, result.proceeds.Equal(decimal.NewFromInt(45)))
	require.Len(t, result.remaining, 2)

	// The oldest lot is untouched, the newest is split with its cost basis
	// scaled by the share kept.
	oldest, newest := result.remaining[0], result.remaining[1]
	require.True(t, oldest.Quantity.Equal(decimal.NewFromInt(1)))
	require.True(t, oldest.InvestedUSD.Equal(decimal.NewFromInt(10)))
	require.True(t, newest.Quantity.Equal(decimal.RequireFromString("0.5")))
	require.True(t, newest.InvestedUSD.Equal(decimal.NewFromInt(10)))
}

func TestMatchSell_SpansLots(t *testing.T) {
	lots := testLots()
	result := matchSell(lots, decimal.RequireFromString("2.5"), decimal.NewFromInt(30))

	require.True(t, result.sold.Equal(decimal.RequireFromString("2.5")))
	require.True(t, result.proceeds.Equal(decimal.NewFromInt(75)))
	require.Len(t, result.remaining, 1)

	boundary := result.remaining[0]
	require.True(t, boundary.Quantity.Equal(decimal.RequireFromString("0.5")))
	require.True(t, boundary.InvestedUSD.Equal(decimal.NewFromInt(5)))
}

func TestMatchSell_ClosesPosition(t *testing.T) {
	lots := testLots()
	result := matchSell(lots, decimal.NewFromInt(3), decimal.NewFromInt(30))

	require.True(t, result.sold.Equal(decimal.NewFromInt(3)))
	require.True(t, result.proceeds.Equal(decimal.NewFromInt(90)))
	require.Empty(t, result.remaining)
}

func TestMatchSell_QuantityConserved(t *testing.T) {
	lots := testLots()
	sold := decimal.RequireFromString("1.75")
	result := matchSell(lots, sold, decimal.NewFromInt(30))

	remaining := decimal.Zero
	for _, lot := range result.remaining {
		remaining = remaining.Add(lot.Quantity)
	}
	require.True(t, remaining.Add(result.sold).Equal(decimal.NewFromInt(3)))
}

func TestResetNotified(t *testing.T) {
	lots := testLots()
	lots[0].Notified = true
	lots[1].Notified = true

	resetNotified(lots)
	for _, lot := range lots {
		require.False(t, lot.Notified)
	}
}
