package calculator

import "BreakoutScanner/internal/model"

// SMA returns the mean close of the last period bars. ok is false when
// period is below 1 or fewer than period bars exist.
func SMA(bars []model.OHLCV, period int) (avg float64, ok bool) {
	if period < 1 || len(bars) < period {
		return 0, false
	}
	var sum float64
	for _, b := range bars[len(bars)-period:] {
		sum += b.Close
	}
	return sum / float64(period), true
}
