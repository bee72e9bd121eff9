package calculator

import (
	"errors"

	"BreakoutScanner/internal/model"
)

var errNoBars = errors.New("no bars provided")

// HighestHigh returns the maximum High in bars and the index of its first occurrence.
func HighestHigh(bars []model.OHLCV) (high float64, idx int, err error) {
	if len(bars) == 0 {
		return 0, -1, errNoBars
	}
	high, idx = bars[0].High, 0
	for i := 1; i < len(bars); i++ {
		if bars[i].High > high {
			high, idx = bars[i].High, i
		}
	}
	return high, idx, nil
}

// LowestLow returns the minimum Low in bars and the index of its first occurrence.
func LowestLow(bars []model.OHLCV) (low float64, idx int, err error) {
	if len(bars) == 0 {
		return 0, -1, errNoBars
	}
	low, idx = bars[0].Low, 0
	for i := 1; i < len(bars); i++ {
		if bars[i].Low < low {
			low, idx = bars[i].Low, i
		}
	}
	return low, idx, nil
}

// HighestClose returns the maximum Close in bars and the index of its first occurrence.
func HighestClose(bars []model.OHLCV) (best float64, idx int, err error) {
	if len(bars) == 0 {
		return 0, -1, errNoBars
	}
	best, idx = bars[0].Close, 0
	for i := 1; i < len(bars); i++ {
		if bars[i].Close > best {
			best, idx = bars[i].Close, i
		}
	}
	return best, idx, nil
}

// CalculateDistanceFromHigh returns how far current sits below high, in percent.
func CalculateDistanceFromHigh(current, high float64) (float64, error) {
	if high <= 0 {
		return 0, errors.New("high must be positive")
	}
	return (high - current) / high * 100, nil
}
