package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coinward/coinward/core"
)

func lotDoc() *core.Document {
	doc := core.NewDocument()
	doc.Coins["bitcoin"] = "Bitcoin"
	doc.User("42").Lots["bitcoin"] = []*core.Lot{{
		InvestedUSD:  decimal.NewFromInt(100),
		PricePerUnit: decimal.NewFromInt(100),
		Quantity:     decimal.NewFromInt(1),
		CreatedAt:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	return doc
}

func TestEvaluateProfitLoss_Hysteresis(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})
	doc := lotDoc()

	evalAt := func(price int64) []core.Notification {
		setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(price)})
		return engine.evaluateProfitLoss(doc)
	}

	// Inside the default 5% band: silent.
	require.Empty(t, evalAt(104))

	// Crossing out fires once.
	out := evalAt(106)
	require.Len(t, out, 1)
	require.Equal(t, "42", out[0].UserID)
	require.Contains(t, out[0].Text, "profit")
	require.True(t, doc.Users["42"].Lots["bitcoin"][0].Notified)

	// Still outside: no repeat.
	require.Empty(t, evalAt(107))

	// Back inside the band re-arms silently.
	require.Empty(t, evalAt(104))
	require.False(t, doc.Users["42"].Lots["bitcoin"][0].Notified)

	// Leaving the band again fires again.
	require.Len(t, evalAt(106), 1)
}

func TestEvaluateProfitLoss_BandBoundaryFires(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})
	setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(105)})

	// Exactly on the band edge counts as outside.
	out := engine.evaluateProfitLoss(lotDoc())
	require.Len(t, out, 1)
}

func TestEvaluateProfitLoss_LossDirection(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})
	setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(90)})

	out := engine.evaluateProfitLoss(lotDoc())
	require.Len(t, out, 1)
	require.Contains(t, out[0].Text, "loss")
	require.Contains(t, out[0].Text, "-10.00%")
}

func TestEvaluateProfitLoss_CustomBand(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})
	setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(108)})

	doc := lotDoc()
	doc.Settings.ProfitBandPct = decimal.NewFromInt(10)
	require.Empty(t, engine.evaluateProfitLoss(doc))

	setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(111)})
	require.Len(t, engine.evaluateProfitLoss(doc), 1)
}

func TestEvaluateProfitLoss_SkipsUnquotedCoins(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})

	doc := lotDoc()
	doc.Users["42"].Lots["bitcoin"][0].Notified = true
	require.Empty(t, engine.evaluateProfitLoss(doc))

	// Absent quotes must not re-arm or fire.
	require.True(t, doc.Users["42"].Lots["bitcoin"][0].Notified)
}
