package ledger

import (
	"fmt"

	"github.com/coinward/coinward/core"
)

// evaluateProfitLoss applies the hysteresis rule to every retained lot: a
// notification fires when the lot's unrealized P/L leaves the ± band and the
// lot has not notified yet; the flag re-arms silently once the lot returns
// inside the band. Lots of coins absent from the snapshot keep their state.
func (e *Engine) evaluateProfitLoss(doc *core.Document) []core.Notification {
	var out []core.Notification
	band := doc.Settings.ProfitBandPct

	for userID, ledger := range doc.Users {
		for coinID, lots := range ledger.Lots {
			price, ok := e.snapshot.Get(coinID)
			if !ok {
				continue
			}

			name := doc.CoinName(coinID)

			for _, lot := range lots {
				pl := lot.ProfitPercent(price)
				outside := pl.Abs().GreaterThanOrEqual(band)

				switch {
				case outside && !lot.Notified:
					direction := "profit"
					if pl.IsNegative() {
						direction = "loss"
					}
					out = append(out, core.Notification{
						UserID: userID,
						Text: fmt.Sprintf("%s lot bought at $%s is at %s%% (%s): value $%s on $%s invested",
							name, lot.PricePerUnit.StringFixed(2), pl.StringFixed(2),
							direction, lot.Value(price).StringFixed(2), lot.InvestedUSD.StringFixed(2)),
					})
					lot.Notified = true
				case !outside && lot.Notified:
					// Back inside the band: re-arm without notifying.
					lot.Notified = false
				}
			}
		}
	}

	return out
}
