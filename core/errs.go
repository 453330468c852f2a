package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoCoinSelected       = errors.New("no coin selected")
	ErrUnknownCoin          = errors.New("unknown coin")
	ErrBadAmount            = errors.New("invalid amount")
	ErrBadQuantity          = errors.New("invalid quantity")
	ErrBadPrice             = errors.New("invalid price")
	ErrPriceUnavailable     = errors.New("price unavailable")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// HoldingsError reports a sell that exceeds the user's holdings, carrying
// the computed shortfall for the user-facing message.
type HoldingsError struct {
	CoinID    string
	Held      decimal.Decimal
	Requested decimal.Decimal
}

func (e *HoldingsError) Error() string {
	return fmt.Sprintf("insufficient holdings for %s: held %s, requested %s",
		e.CoinID, e.Held.String(), e.Requested.String())
}

func (e *HoldingsError) Unwrap() error { return ErrInsufficientHoldings }
