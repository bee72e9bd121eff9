package collector

import (
	"context"
	"errors"

	"BreakoutScanner/internal/model"
)

// ErrUnavailable means the provider could not deliver any bars for a symbol.
var ErrUnavailable = errors.New("price data unavailable")

// DefaultLookback is ten years of daily history.
const DefaultLookback = "10y"

// Lookbacks lists the ranges accepted by FetchDailyBars.
var Lookbacks = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol, lookback string) ([]model.OHLCV, error)
	Name() string
}

// ValidLookback reports whether lookback is one of Lookbacks.
func ValidLookback(lookback string) bool {
	for _, l := range Lookbacks {
		if l == lookback {
			return true
		}
	}
	return false
}
