package calculator

import (
	"time"

	"BreakoutScanner/internal/model"
)

const (
	trendPeriod = 200
	rsiPeriod   = 14
)

// MatchContext describes where a matched series stands on its final bar.
type MatchContext struct {
	LastDate    time.Time
	LastClose   float64
	MA200       float64 // 0 with fewer than 200 bars
	DailyRSI    float64
	FromHighPct float64 // percent below lifetimeHigh; 0 when lifetimeHigh is not positive
}

// Describe summarizes the last bar of bars against lifetimeHigh.
func Describe(bars []model.OHLCV, lifetimeHigh float64) MatchContext {
	if len(bars) == 0 {
		return MatchContext{DailyRSI: NeutralRSI}
	}
	last := bars[len(bars)-1]
	ctx := MatchContext{
		LastDate:  last.Time,
		LastClose: last.Close,
		DailyRSI:  RSI(bars, rsiPeriod),
	}
	if ma, ok := SMA(bars, trendPeriod); ok {
		ctx.MA200 = ma
	}
	if d, err := CalculateDistanceFromHigh(last.Close, lifetimeHigh); err == nil {
		ctx.FromHighPct = d
	}
	return ctx
}
