package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"BreakoutScanner/internal/model"
)

func TestCachedFetcher_MemoizesSuccess(t *testing.T) {
	mock := &MockFetcher{
		Bars: map[string][]model.OHLCV{
			"AAA.NS": {{Time: time.Now(), Open: 1, High: 1, Low: 1, Close: 1}},
		},
	}
	c := NewCachedFetcher(mock, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		bars, err := c.FetchDailyBars(ctx, "AAA.NS", "10y")
		if err != nil || len(bars) != 1 {
			t.Fatalf("unexpected result %v, %v", bars, err)
		}
	}
	if n := mock.Calls("AAA.NS"); n != 1 {
		t.Errorf("expected 1 upstream call, got %d", n)
	}

	// different lookback is a different key
	if _, err := c.FetchDailyBars(ctx, "AAA.NS", "1y"); err != nil {
		t.Fatal(err)
	}
	if n := mock.Calls("AAA.NS"); n != 2 {
		t.Errorf("expected 2 upstream calls, got %d", n)
	}

	c.Flush()
	if _, err := c.FetchDailyBars(ctx, "AAA.NS", "10y"); err != nil {
		t.Fatal(err)
	}
	if n := mock.Calls("AAA.NS"); n != 3 {
		t.Errorf("expected refetch after flush, got %d calls", n)
	}
}

func TestCachedFetcher_DoesNotCacheFailures(t *testing.T) {
	mock := &MockFetcher{}
	c := NewCachedFetcher(mock, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := c.FetchDailyBars(context.Background(), "GONE.NS", "10y"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	}
	if n := mock.Calls("GONE.NS"); n != 2 {
		t.Errorf("expected 2 upstream calls, got %d", n)
	}
	if c.Name() != "mock+cache" {
		t.Errorf("unexpected name %q", c.Name())
	}
}
