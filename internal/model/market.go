package model

import "time"

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds one security's daily history for a single analysis.
// Bars are strictly increasing by Time.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Empty reports whether the series carries no bars.
func (s *PriceSeries) Empty() bool { return s == nil || len(s.Bars) == 0 }
