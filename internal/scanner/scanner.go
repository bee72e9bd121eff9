package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"BreakoutScanner/internal/calculator"
	"BreakoutScanner/internal/collector"
	"BreakoutScanner/internal/model"
	"BreakoutScanner/internal/strategy"
)

// MatchSink receives every matching series while it is still in memory.
// Sinks must be safe for concurrent use when Workers > 1.
type MatchSink interface {
	HandleMatch(ctx context.Context, rec model.MatchRecord, series *model.PriceSeries) error
}

// Options configures a Scanner. Zero values fall back to defaults.
type Options struct {
	Thresholds strategy.Thresholds
	Lookback   string
	Workers    int
	Sinks      []MatchSink
}

// Scanner runs the detector over a ticker universe.
type Scanner struct {
	fetcher    collector.Fetcher
	thresholds strategy.Thresholds
	lookback   string
	workers    int
	sinks      []MatchSink
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a Scanner backed by fetcher.
func New(fetcher collector.Fetcher, opts Options, logger *zap.Logger) *Scanner {
	if opts.Thresholds == (strategy.Thresholds{}) {
		opts.Thresholds = strategy.DefaultThresholds()
	}
	if opts.Lookback == "" {
		opts.Lookback = collector.DefaultLookback
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		fetcher:    fetcher,
		thresholds: opts.Thresholds,
		lookback:   opts.Lookback,
		workers:    opts.Workers,
		sinks:      opts.Sinks,
		logger:     logger,
		now:        time.Now,
	}
}

// outcome is the per-ticker result folded into the summary.
type outcome struct {
	failed  bool
	matched bool
	record  model.MatchRecord
}

// Scan analyzes tickers and aggregates the results. Provider failures are
// recorded per ticker and never abort the run; invalid thresholds and a
// cancelled ctx do.
func (s *Scanner) Scan(ctx context.Context, tickers []string) (*model.ScanSummary, error) {
	if err := s.thresholds.Validate(); err != nil {
		return nil, err
	}

	summary := model.NewScanSummary()
	summary.RunID = uuid.NewString()
	summary.StartedAt = s.now()
	summary.SupportThreshold = s.thresholds.Support
	summary.AppreciationThreshold = s.thresholds.Appreciation
	summary.Total = len(tickers)

	s.logger.Info("scan started",
		zap.String("run_id", summary.RunID),
		zap.Int("tickers", len(tickers)),
		zap.String("source", s.fetcher.Name()),
		zap.Int("workers", s.workers))

	var err error
	if s.workers > 1 {
		err = s.scanConcurrent(ctx, tickers, summary)
	} else {
		err = s.scanSequential(ctx, tickers, summary)
	}
	if err != nil {
		return nil, err
	}

	summary.FinishedAt = s.now()
	rate, _ := summary.SuccessRate()
	s.logger.Info("scan finished",
		zap.String("run_id", summary.RunID),
		zap.Int("matched", len(summary.Matches)),
		zap.Int("failed", len(summary.Failed)),
		zap.Float64("success_rate", rate),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))
	return summary, nil
}

func (s *Scanner) scanSequential(ctx context.Context, tickers []string, summary *model.ScanSummary) error {
	failed := make(map[string]struct{})
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := s.analyze(ctx, ticker)
		if err != nil {
			return err
		}
		fold(summary, failed, ticker, out)
	}
	return nil
}

// scanConcurrent fetches and analyzes in parallel, then folds outcomes in
// input order so the summary matches a sequential run.
func (s *Scanner) scanConcurrent(ctx context.Context, tickers []string, summary *model.ScanSummary) error {
	outcomes := make([]outcome, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := s.analyze(gctx, ticker)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	failed := make(map[string]struct{})
	for i, ticker := range tickers {
		fold(summary, failed, ticker, outcomes[i])
	}
	return nil
}

func fold(summary *model.ScanSummary, failed map[string]struct{}, ticker string, out outcome) {
	switch {
	case out.failed:
		if _, dup := failed[ticker]; !dup {
			failed[ticker] = struct{}{}
			summary.Failed = append(summary.Failed, ticker)
		}
	case out.matched:
		summary.Matches = append(summary.Matches, out.record)
		summary.YearCounts[out.record.LastDate.Year()]++
	}
}

// analyze handles one ticker. The returned error is reserved for conditions
// that must stop the whole scan.
func (s *Scanner) analyze(ctx context.Context, ticker string) (outcome, error) {
	log := s.logger.With(zap.String("symbol", ticker))
	log.Debug("analyzing")

	bars, err := s.fetcher.FetchDailyBars(ctx, ticker, s.lookback)
	if err != nil {
		if ctx.Err() != nil {
			return outcome{}, ctx.Err()
		}
		log.Warn("no data available", zap.Error(err))
		return outcome{failed: true}, nil
	}
	if len(bars) == 0 {
		log.Warn("no data available", zap.Error(collector.ErrUnavailable))
		return outcome{failed: true}, nil
	}
	series := &model.PriceSeries{Symbol: ticker, Bars: bars, FetchedAt: s.now()}

	res, err := strategy.Detect(series.Bars, s.thresholds)
	if err != nil {
		return outcome{}, fmt.Errorf("detect %s: %w", ticker, err)
	}
	if !res.Matched {
		log.Debug("did not meet the criteria", zap.String("reason", string(res.Reason)))
		return outcome{}, nil
	}

	rec := buildRecord(ticker, series, res)
	log.Info("met the criteria",
		zap.Float64("lifetime_high", rec.LifetimeHigh),
		zap.Float64("pullback_low", rec.PullbackLow),
		zap.Float64("appreciation_high", rec.AppreciationHigh))

	for _, sink := range s.sinks {
		if err := sink.HandleMatch(ctx, rec, series); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return outcome{}, err
			}
			log.Error("match sink failed", zap.Error(err))
		}
	}
	return outcome{matched: true, record: rec}, nil
}

func buildRecord(ticker string, series *model.PriceSeries, res model.DetectionResult) model.MatchRecord {
	ctx := calculator.Describe(series.Bars, res.LifetimeHigh)
	return model.MatchRecord{
		Ticker:             ticker,
		LifetimeHigh:       res.LifetimeHigh,
		PullbackLow:        res.PullbackLow,
		AppreciationHigh:   res.AppreciationHigh,
		LifetimeHighAt:     res.LifetimeHighAt,
		PullbackLowAt:      res.PullbackLowAt,
		AppreciationHighAt: res.AppreciationHighAt,
		LastDate:           ctx.LastDate,
		LastClose:          ctx.LastClose,
		MA200:              ctx.MA200,
		DailyRSI:           ctx.DailyRSI,
		FromHighPct:        ctx.FromHighPct,
	}
}
