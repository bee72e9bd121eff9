package strategy

import (
	"errors"
	"fmt"
	"math"

	"BreakoutScanner/internal/calculator"
	"BreakoutScanner/internal/model"
)

// ErrInvalidThreshold is returned when a threshold lies outside (0, 1].
var ErrInvalidThreshold = errors.New("threshold must be in (0, 1]")

const (
	DefaultSupportThreshold      = 0.25
	DefaultAppreciationThreshold = 0.10
)

// Thresholds configures the detector.
type Thresholds struct {
	// Support is the maximum retracement from the lifetime high, as a fraction.
	Support float64
	// Appreciation is the minimum rise above the pullback low, as a fraction.
	Appreciation float64
}

// DefaultThresholds returns 25% support and 10% appreciation.
func DefaultThresholds() Thresholds {
	return Thresholds{Support: DefaultSupportThreshold, Appreciation: DefaultAppreciationThreshold}
}

// Validate rejects thresholds outside (0, 1].
func (t Thresholds) Validate() error {
	if !inUnitRange(t.Support) {
		return fmt.Errorf("support %v: %w", t.Support, ErrInvalidThreshold)
	}
	if !inUnitRange(t.Appreciation) {
		return fmt.Errorf("appreciation %v: %w", t.Appreciation, ErrInvalidThreshold)
	}
	return nil
}

// validPrice rejects zero, negative, NaN and infinite prices.
func validPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v > 0 && v <= 1
}

// Detect decides whether bars show a lifetime high that held as support
// and was followed by a rally off the pullback low.
//
// Windows:
//   - post-high:     bars[hi:]     (the high bar itself included)
//   - post-pullback: bars[lo+1:]   (strictly after the pullback low)
//
// Ties resolve to the earliest bar. Short or empty history is a NotMatched
// result, not an error.
func Detect(bars []model.OHLCV, th Thresholds) (model.DetectionResult, error) {
	if err := th.Validate(); err != nil {
		return model.DetectionResult{}, err
	}
	if len(bars) == 0 {
		return model.NotMatched(model.ReasonInsufficientHistory), nil
	}

	high, hi, _ := calculator.HighestHigh(bars)
	if hi == len(bars)-1 {
		return model.NotMatched(model.ReasonInsufficientHistory), nil
	}

	postHigh := bars[hi:]
	low, off, _ := calculator.LowestLow(postHigh)
	lo := hi + off

	if !validPrice(high) || !validPrice(low) {
		return model.NotMatched(model.ReasonInvalidPrices), nil
	}
	if (high-low)/high >= th.Support {
		return model.NotMatched(model.ReasonSupportBroken), nil
	}

	postPullback := bars[lo+1:]
	if len(postPullback) == 0 {
		return model.NotMatched(model.ReasonNoRecovery), nil
	}
	apprec, off, _ := calculator.HighestClose(postPullback)
	ai := lo + 1 + off
	if !validPrice(apprec) {
		return model.NotMatched(model.ReasonInvalidPrices), nil
	}

	if apprec/low <= 1+th.Appreciation {
		return model.NotMatched(model.ReasonNoAppreciation), nil
	}

	return model.DetectionResult{
		Matched:            true,
		LifetimeHigh:       high,
		LifetimeHighAt:     bars[hi].Time,
		PullbackLow:        low,
		PullbackLowAt:      bars[lo].Time,
		AppreciationHigh:   apprec,
		AppreciationHighAt: bars[ai].Time,
	}, nil
}
