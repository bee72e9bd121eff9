package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"BreakoutScanner/internal/model"
)

// DefaultYahooBaseURL is the Yahoo Finance v8 chart endpoint.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	client *resty.Client
	logger *zap.Logger
}

// YahooOptions configures a YahooFetcher. Zero values fall back to defaults.
type YahooOptions struct {
	BaseURL string
	Proxy   string
	Timeout time.Duration
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(opts YahooOptions, logger *zap.Logger) *YahooFetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		})
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}
	return &YahooFetcher{client: client, logger: logger}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
// Quote values are pointers because Yahoo emits null for halted sessions.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				GMTOffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailyBars returns daily bars for symbol over lookback, oldest first.
// Any failure, including an empty history, wraps ErrUnavailable.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol, lookback string) ([]model.OHLCV, error) {
	if lookback == "" {
		lookback = DefaultLookback
	}
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":    lookback,
			"interval": "1d",
		}).
		Get("/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %v: %w", symbol, err, ErrUnavailable)
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("yahoo %s: status %d: %w", symbol, resp.StatusCode(), ErrUnavailable)
		}
		return nil, fmt.Errorf("yahoo decode %s: %v: %w", symbol, err, ErrUnavailable)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error %s: %s: %w", symbol, chart.Chart.Error.Description, ErrUnavailable)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("yahoo %s: status %d: %w", symbol, resp.StatusCode(), ErrUnavailable)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: no data returned: %w", symbol, ErrUnavailable)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	loc := time.UTC
	if result.Meta.GMTOffset != 0 || result.Meta.ExchangeTimezoneName != "" {
		loc = time.FixedZone(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	}

	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	skipped := 0
	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		c, okC := at(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			skipped++
			continue
		}
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).In(loc),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}
	if skipped > 0 && f.logger != nil {
		f.logger.Debug("skipped null bars", zap.String("symbol", symbol), zap.Int("count", skipped))
	}

	bars = normalizeBars(bars)
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: only null bars: %w", symbol, ErrUnavailable)
	}
	return bars, nil
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

// normalizeBars sorts bars chronologically and drops repeated timestamps,
// keeping the last one seen.
func normalizeBars(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
