package ledger

import (
	"fmt"

	"github.com/coinward/coinward/core"
)

// evaluateAlerts walks every configured threshold alert against the current
// snapshot. A satisfied side fires exactly once and is removed on the spot,
// so the user must re-arm it explicitly. The above side is evaluated before
// the below side; with a misconfigured below > above both can fire in the
// same pass. Coins absent from the snapshot are skipped untouched.
func (e *Engine) evaluateAlerts(doc *core.Document) []core.Notification {
	var out []core.Notification

	for userID, ledger := range doc.Users {
		for coinID, alert := range ledger.Alerts {
			price, ok := e.snapshot.Get(coinID)
			if !ok {
				continue
			}

			name := doc.CoinName(coinID)

			if alert.Above != nil && price.GreaterThan(*alert.Above) {
				out = append(out, core.Notification{
					UserID: userID,
					Text: fmt.Sprintf("%s price is above $%s: current price is $%s",
						name, alert.Above.StringFixed(2), price.StringFixed(2)),
				})
				alert.Above = nil
			}
			if alert.Below != nil && price.LessThan(*alert.Below) {
				out = append(out, core.Notification{
					UserID: userID,
					Text: fmt.Sprintf("%s price is below $%s: current price is $%s",
						name, alert.Below.StringFixed(2), price.StringFixed(2)),
				})
				alert.Below = nil
			}
		}
	}

	return out
}

// compact removes structurally empty records from the document: fired-out
// alert entries, emptied lot sequences and users left with neither. It runs
// once per tick, after all evaluations, so iteration never deletes the
// elements it is walking.
func compact(doc *core.Document) {
	for userID, ledger := range doc.Users {
		for coinID, alert := range ledger.Alerts {
			if alert.Empty() {
				delete(ledger.Alerts, coinID)
			}
		}
		for coinID, lots := range ledger.Lots {
			if len(lots) == 0 {
				delete(ledger.Lots, coinID)
			}
		}
		if ledger.Empty() {
			delete(doc.Users, userID)
		}
	}
}
