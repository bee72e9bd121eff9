package collector

import (
	"context"
	"fmt"
	"sync"

	"BreakoutScanner/internal/model"
)

// MockFetcher returns fixed per-symbol data for development and testing.
// Symbols present in neither map are reported as unavailable.
type MockFetcher struct {
	Bars   map[string][]model.OHLCV
	Errors map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol, _ string) ([]model.OHLCV, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrUnavailable)
	}
	return bars, nil
}

// Calls returns how many times symbol was requested.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}
