package scanner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"BreakoutScanner/internal/collector"
	"BreakoutScanner/internal/model"
	"BreakoutScanner/internal/strategy"
)

// seriesEnding builds a matching series (high 100, pullback 80, close 95)
// whose last bar falls on end.
func seriesEnding(end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, 11)
	start := end.AddDate(0, 0, -10)
	for i := range bars {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: 85, High: 86, Low: 84, Close: 85}
	}
	bars[0].High = 100
	bars[5].Low = 80
	bars[10].Close = 95
	bars[10].High = 96
	return bars
}

// flatSeries never matches.
func flatSeries(end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, 5)
	for i := range bars {
		bars[i] = model.OHLCV{Time: end.AddDate(0, 0, i-4), Open: 10, High: 10, Low: 10, Close: 10}
	}
	return bars
}

var (
	end2023 = time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	end2024 = time.Date(2024, 10, 18, 0, 0, 0, 0, time.UTC)
)

func newMock() *collector.MockFetcher {
	return &collector.MockFetcher{
		Bars: map[string][]model.OHLCV{
			"AAA.NS":   seriesEnding(end2024),
			"BBB.NS":   seriesEnding(end2024),
			"CCC.NS":   seriesEnding(end2023),
			"FLAT.NS":  flatSeries(end2024),
			"EMPTY.NS": {},
		},
		Errors: map[string]error{
			"DOWN.NS": errors.New("connection reset"),
		},
	}
}

func TestScan_EmptyUniverse(t *testing.T) {
	s := New(newMock(), Options{}, zap.NewNop())
	sum, err := s.Scan(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Matches) != 0 || len(sum.Failed) != 0 || len(sum.YearCounts) != 0 {
		t.Errorf("expected empty summary, got %+v", sum)
	}
	if _, ok := sum.SuccessRate(); ok {
		t.Error("expected no-data success rate for empty universe")
	}
}

func TestScan_AllProvidersFail(t *testing.T) {
	tickers := []string{"X.NS", "Y.NS", "DOWN.NS", "EMPTY.NS"}
	s := New(newMock(), Options{}, zap.NewNop())
	sum, err := s.Scan(context.Background(), tickers)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sum.Failed, tickers) {
		t.Errorf("failed = %v, want %v", sum.Failed, tickers)
	}
	if len(sum.Matches) != 0 {
		t.Errorf("expected no matches, got %d", len(sum.Matches))
	}
	rate, ok := sum.SuccessRate()
	if !ok || rate != 0 {
		t.Errorf("expected success rate 0, got %v (ok=%v)", rate, ok)
	}
}

func TestScan_MixedUniverse(t *testing.T) {
	tickers := []string{"AAA.NS", "DOWN.NS", "FLAT.NS", "CCC.NS", "BBB.NS", "MISSING.NS"}
	s := New(newMock(), Options{}, zap.NewNop())
	sum, err := s.Scan(context.Background(), tickers)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, m := range sum.Matches {
		got = append(got, m.Ticker)
	}
	if want := []string{"AAA.NS", "CCC.NS", "BBB.NS"}; !reflect.DeepEqual(got, want) {
		t.Errorf("matches = %v, want %v", got, want)
	}
	if want := []string{"DOWN.NS", "MISSING.NS"}; !reflect.DeepEqual(sum.Failed, want) {
		t.Errorf("failed = %v, want %v", sum.Failed, want)
	}
	if sum.YearCounts[2024] != 2 || sum.YearCounts[2023] != 1 {
		t.Errorf("unexpected year counts %v", sum.YearCounts)
	}
	if !reflect.DeepEqual(sum.Years(), []int{2023, 2024}) {
		t.Errorf("unexpected years %v", sum.Years())
	}
	if rate, ok := sum.SuccessRate(); !ok || rate != 0.5 {
		t.Errorf("expected success rate 0.5, got %v", rate)
	}
	if sum.Total != len(tickers) || sum.RunID == "" {
		t.Errorf("unexpected bookkeeping total=%d run=%q", sum.Total, sum.RunID)
	}

	m := sum.Matches[0]
	if m.LifetimeHigh != 100 || m.PullbackLow != 80 || m.AppreciationHigh != 95 {
		t.Errorf("unexpected levels %+v", m)
	}
	if !m.LastDate.Equal(end2024) || m.LastClose != 95 || m.FromHighPct != 5 {
		t.Errorf("unexpected context %+v", m)
	}
	if m.MA200 != 0 {
		t.Errorf("MA200 should be 0 for short history, got %v", m.MA200)
	}
	if m.DailyRSI != 50 {
		t.Errorf("DailyRSI should be neutral for short history, got %v", m.DailyRSI)
	}
}

func TestScan_YearBucketing(t *testing.T) {
	s := New(newMock(), Options{}, zap.NewNop())
	sum, err := s.Scan(context.Background(), []string{"AAA.NS", "BBB.NS"})
	if err != nil {
		t.Fatal(err)
	}
	if sum.YearCounts[2024] != 2 {
		t.Errorf("year_counts[2024] = %d, want 2", sum.YearCounts[2024])
	}
}

func TestScan_DuplicateFailureRecordedOnce(t *testing.T) {
	s := New(newMock(), Options{}, zap.NewNop())
	sum, err := s.Scan(context.Background(), []string{"DOWN.NS", "DOWN.NS"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Failed) != 1 || sum.Total != 2 {
		t.Errorf("failed=%v total=%d", sum.Failed, sum.Total)
	}
}

func TestScan_InvalidThresholds(t *testing.T) {
	mock := newMock()
	s := New(mock, Options{Thresholds: strategy.Thresholds{Support: 1.5, Appreciation: 0.1}}, zap.NewNop())
	sum, err := s.Scan(context.Background(), []string{"AAA.NS"})
	if !errors.Is(err, strategy.ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
	if sum != nil {
		t.Error("expected nil summary")
	}
	if mock.Calls("AAA.NS") != 0 {
		t.Error("provider should not be called with invalid thresholds")
	}
}

func TestScan_CustomThresholds(t *testing.T) {
	// 20% pullback fails a 10% support band.
	s := New(newMock(), Options{Thresholds: strategy.Thresholds{Support: 0.10, Appreciation: 0.10}}, zap.NewNop())
	sum, err := s.Scan(context.Background(), []string{"AAA.NS"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Matches) != 0 {
		t.Errorf("expected no matches, got %d", len(sum.Matches))
	}
}

func TestScan_ConcurrentMatchesSequential(t *testing.T) {
	var tickers []string
	for i := 0; i < 5; i++ {
		tickers = append(tickers, "AAA.NS", "DOWN.NS", "FLAT.NS", "CCC.NS", fmt.Sprintf("GONE%d.NS", i), "BBB.NS")
	}

	seq, err := New(newMock(), Options{Workers: 1}, zap.NewNop()).Scan(context.Background(), tickers)
	if err != nil {
		t.Fatal(err)
	}
	par, err := New(newMock(), Options{Workers: 8}, zap.NewNop()).Scan(context.Background(), tickers)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(seq.Matches, par.Matches) {
		t.Error("matches differ between sequential and concurrent scans")
	}
	if !reflect.DeepEqual(seq.Failed, par.Failed) {
		t.Errorf("failed differ: %v vs %v", seq.Failed, par.Failed)
	}
	if !reflect.DeepEqual(seq.YearCounts, par.YearCounts) {
		t.Errorf("year counts differ: %v vs %v", seq.YearCounts, par.YearCounts)
	}
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 4} {
		_, err := New(newMock(), Options{Workers: workers}, zap.NewNop()).Scan(ctx, []string{"AAA.NS"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
	}
}

type recordingSink struct {
	mu      sync.Mutex
	tickers []string
	bars    int
	err     error
}

func (r *recordingSink) HandleMatch(_ context.Context, rec model.MatchRecord, series *model.PriceSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickers = append(r.tickers, rec.Ticker)
	r.bars += len(series.Bars)
	return r.err
}

func TestScan_SinksReceiveMatches(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	s := New(newMock(), Options{Sinks: []MatchSink{sink}}, zap.NewNop())
	sum, err := s.Scan(context.Background(), []string{"AAA.NS", "FLAT.NS", "BBB.NS"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sink.tickers, []string{"AAA.NS", "BBB.NS"}) {
		t.Errorf("sink saw %v", sink.tickers)
	}
	if sink.bars != 22 {
		t.Errorf("sink saw %d bars, want 22", sink.bars)
	}
	// sink errors do not drop matches
	if len(sum.Matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(sum.Matches))
	}
}
