package model

import (
	"sort"
	"time"
)

// Reason explains why a series did not match the pattern.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonInsufficientHistory Reason = "INSUFFICIENT_HISTORY"
	ReasonSupportBroken       Reason = "SUPPORT_BROKEN"
	ReasonNoRecovery          Reason = "NO_RECOVERY"
	ReasonNoAppreciation      Reason = "NO_APPRECIATION"
	ReasonInvalidPrices       Reason = "INVALID_PRICES"
)

// DetectionResult is the outcome of running the detector over one series.
// The price levels and dates are only meaningful when Matched is true.
type DetectionResult struct {
	Matched            bool
	Reason             Reason
	LifetimeHigh       float64
	LifetimeHighAt     time.Time
	PullbackLow        float64
	PullbackLowAt      time.Time
	AppreciationHigh   float64
	AppreciationHighAt time.Time
}

// NotMatched builds a negative result carrying the given reason.
func NotMatched(reason Reason) DetectionResult {
	return DetectionResult{Reason: reason}
}

// MatchRecord is one matching security in a scan.
type MatchRecord struct {
	Ticker           string
	LifetimeHigh     float64
	PullbackLow      float64
	AppreciationHigh float64

	LifetimeHighAt     time.Time
	PullbackLowAt      time.Time
	AppreciationHighAt time.Time

	// Context at the most recent bar.
	LastDate    time.Time
	LastClose   float64
	MA200       float64 // 0 when fewer than 200 bars
	DailyRSI    float64
	FromHighPct float64 // last close distance below the lifetime high, percent
}

// ScanSummary aggregates one run over a ticker universe.
type ScanSummary struct {
	RunID                 string
	StartedAt             time.Time
	FinishedAt            time.Time
	SupportThreshold      float64
	AppreciationThreshold float64

	Total      int
	Matches    []MatchRecord
	Failed     []string
	YearCounts map[int]int
}

// NewScanSummary returns an empty summary with its maps allocated.
func NewScanSummary() *ScanSummary {
	return &ScanSummary{
		Matches:    []MatchRecord{},
		Failed:     []string{},
		YearCounts: map[int]int{},
	}
}

// SuccessRate returns matches divided by tickers attempted.
// ok is false when no tickers were attempted.
func (s *ScanSummary) SuccessRate() (rate float64, ok bool) {
	if s.Total == 0 {
		return 0, false
	}
	return float64(len(s.Matches)) / float64(s.Total), true
}

// Years returns the years present in YearCounts in ascending order.
func (s *ScanSummary) Years() []int {
	years := make([]int, 0, len(s.YearCounts))
	for y := range s.YearCounts {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
