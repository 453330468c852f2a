package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coinward/coinward/core"
)

func alertDoc(above, below *decimal.Decimal) *core.Document {
	doc := core.NewDocument()
	doc.Coins["bitcoin"] = "Bitcoin"
	doc.User("42").Alerts["bitcoin"] = &core.ThresholdAlert{Above: above, Below: below}
	return doc
}

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestEvaluateAlerts_FiresOnceAndClears(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})
	setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(101)})

	doc := alertDoc(price("100"), nil)

	out := engine.evaluateAlerts(doc)
	require.Len(t, out, 1)
	require.Equal(t, "42", out[0].UserID)
	require.Equal(t, "Bitcoin price is above $100.00: current price is $101.00", out[0].Text)
	require.Nil(t, doc.Users["42"].Alerts["bitcoin"].Above)

	// The trigger is gone, so a second pass at a higher price stays silent.
	setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(102)})
	require.Empty(t, engine.evaluateAlerts(doc))
}

func TestEvaluateAlerts_StrictComparison(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})
	setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(100)})

	doc := alertDoc(price("100"), price("100"))
	require.Empty(t, engine.evaluateAlerts(doc))
	require.NotNil(t, doc.Users["42"].Alerts["bitcoin"].Above)
	require.NotNil(t, doc.Users["42"].Alerts["bitcoin"].Below)
}

func TestEvaluateAlerts_BelowFires(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})
	setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(95)})

	doc := alertDoc(nil, price("100"))
	out := engine.evaluateAlerts(doc)
	require.Len(t, out, 1)
	require.Equal(t, "Bitcoin price is below $100.00: current price is $95.00", out[0].Text)
	require.Nil(t, doc.Users["42"].Alerts["bitcoin"].Below)
}

func TestEvaluateAlerts_InvertedSidesBothFire(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})
	setQuotes(engine, core.Quotes{"bitcoin": decimal.NewFromInt(150)})

	// below > above is a misconfiguration; a price between them satisfies
	// both sides in the same pass.
	doc := alertDoc(price("100"), price("200"))
	out := engine.evaluateAlerts(doc)
	require.Len(t, out, 2)
	require.Contains(t, out[0].Text, "above")
	require.Contains(t, out[1].Text, "below")
	require.True(t, doc.Users["42"].Alerts["bitcoin"].Empty())
}

func TestEvaluateAlerts_SkipsUnquotedCoins(t *testing.T) {
	engine := newTestEngine(t, &stubQuoter{})

	doc := alertDoc(price("100"), nil)
	require.Empty(t, engine.evaluateAlerts(doc))
	require.NotNil(t, doc.Users["42"].Alerts["bitcoin"].Above)
}

func TestCompact(t *testing.T) {
	doc := core.NewDocument()

	fired := doc.User("fired")
	fired.Alerts["bitcoin"] = &core.ThresholdAlert{}
	fired.Lots["bitcoin"] = nil

	kept := doc.User("kept")
	kept.Alerts["bitcoin"] = &core.ThresholdAlert{Above: price("100")}

	compact(doc)

	require.NotContains(t, doc.Users, "fired")
	require.Contains(t, doc.Users, "kept")
	require.NotNil(t, doc.Users["kept"].Alerts["bitcoin"].Above)
}
