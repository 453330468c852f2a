package quote

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"github.com/coinward/coinward/core"
)

// Binance implements core.Quoter against the Binance ticker API, for
// deployments whose coin registry is keyed by exchange symbols such as
// BTCUSDT rather than CoinGecko slugs.
type Binance struct {
	client *binance.Client
}

func NewBinance(apiKey, secretKey string) *Binance {
	return &Binance{client: binance.NewClient(apiKey, secretKey)}
}

// GetQuotes fetches the last price for every symbol in one request. Symbols
// unknown to the exchange are simply absent from the result.
func (b *Binance) GetQuotes(ctx context.Context, symbols []string) (core.Quotes, error) {
	prices, err := b.client.NewListPricesService().Symbols(symbols).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance list prices: %w", err)
	}

	quotes := make(core.Quotes, len(prices))
	for _, price := range prices {
		value, err := decimal.NewFromString(price.Price)
		if err != nil {
			return nil, fmt.Errorf("binance price for %s: %w", price.Symbol, err)
		}
		quotes[price.Symbol] = value
	}
	return quotes, nil
}
