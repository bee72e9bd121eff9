package calculator

import (
	"math"
	"testing"
	"time"

	"BreakoutScanner/internal/model"
)

func makeBars(highs, lows, closes []float64) []model.OHLCV {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(highs))
	for i := range highs {
		bars[i] = model.OHLCV{
			Time:  start.AddDate(0, 0, i),
			Open:  closes[i],
			High:  highs[i],
			Low:   lows[i],
			Close: closes[i],
		}
	}
	return bars
}

func TestExtrema_EarliestOnTies(t *testing.T) {
	bars := makeBars(
		[]float64{10, 12, 12, 11},
		[]float64{9, 8, 8, 10},
		[]float64{9.5, 11, 11, 10.5},
	)

	h, hi, err := HighestHigh(bars)
	if err != nil || h != 12 || hi != 1 {
		t.Errorf("HighestHigh = (%v, %d, %v), want (12, 1, nil)", h, hi, err)
	}
	l, li, err := LowestLow(bars)
	if err != nil || l != 8 || li != 1 {
		t.Errorf("LowestLow = (%v, %d, %v), want (8, 1, nil)", l, li, err)
	}
	c, ci, err := HighestClose(bars)
	if err != nil || c != 11 || ci != 1 {
		t.Errorf("HighestClose = (%v, %d, %v), want (11, 1, nil)", c, ci, err)
	}
}

func TestExtrema_Empty(t *testing.T) {
	if _, idx, err := HighestHigh(nil); err == nil || idx != -1 {
		t.Error("expected error for empty input")
	}
	if _, _, err := LowestLow(nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, _, err := HighestClose(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func risingBars(n int) []model.OHLCV {
	highs, lows, closes := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + float64(i)
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
	}
	return makeBars(highs, lows, closes)
}

func TestSMA(t *testing.T) {
	bars := makeBars([]float64{2, 3, 4, 5, 6}, []float64{0, 1, 2, 3, 4}, []float64{1, 2, 3, 4, 5})
	got, ok := SMA(bars, 2)
	if !ok || got != 4.5 {
		t.Errorf("SMA = (%v, %v), want (4.5, true)", got, ok)
	}
	if _, ok := SMA(bars[:1], 2); ok {
		t.Error("expected ok=false for short input")
	}
	if _, ok := SMA(bars, 0); ok {
		t.Error("expected ok=false for zero period")
	}
}

func TestRSI(t *testing.T) {
	bars := risingBars(30)
	if rsi := RSI(bars, 14); rsi != 100 {
		t.Errorf("monotonic rise should give RSI 100, got %.2f", rsi)
	}
	if short := RSI(bars[:14], 14); short != NeutralRSI {
		t.Errorf("short history should give %v, got %.2f", NeutralRSI, short)
	}
	if rsi := RSI(bars, 0); rsi != NeutralRSI {
		t.Errorf("zero period should give %v, got %.2f", NeutralRSI, rsi)
	}

	// alternating +1/-1 changes balance out
	closes := make([]float64, 41)
	for i := range closes {
		closes[i] = 100 + float64(i%2)
	}
	flat := makeBars(closes, closes, closes)
	if rsi := RSI(flat, 14); math.Abs(rsi-50) > 5 {
		t.Errorf("balanced changes should give RSI near 50, got %.2f", rsi)
	}
}

func TestDescribe(t *testing.T) {
	bars := risingBars(250)
	ctx := Describe(bars, 400)

	last := bars[len(bars)-1]
	if !ctx.LastDate.Equal(last.Time) || ctx.LastClose != 349 {
		t.Errorf("unexpected last bar %+v", ctx)
	}
	// mean of closes 150..349
	if math.Abs(ctx.MA200-249.5) > 1e-9 {
		t.Errorf("MA200 = %v, want 249.5", ctx.MA200)
	}
	if ctx.DailyRSI != 100 {
		t.Errorf("DailyRSI = %v, want 100", ctx.DailyRSI)
	}
	if math.Abs(ctx.FromHighPct-12.75) > 1e-9 {
		t.Errorf("FromHighPct = %v, want 12.75", ctx.FromHighPct)
	}

	short := Describe(bars[:20], 0)
	if short.MA200 != 0 || short.FromHighPct != 0 {
		t.Errorf("short series should leave MA200 and distance at zero, got %+v", short)
	}
	if empty := Describe(nil, 100); empty.DailyRSI != NeutralRSI || !empty.LastDate.IsZero() {
		t.Errorf("unexpected empty context %+v", empty)
	}
}

func TestCalculateDistanceFromHigh(t *testing.T) {
	got, err := CalculateDistanceFromHigh(90, 100)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("expected 10, got %v", got)
	}
	if _, err := CalculateDistanceFromHigh(1, 0); err == nil {
		t.Error("expected error for zero high")
	}
}
