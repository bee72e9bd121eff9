package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"BreakoutScanner/internal/model"
	"BreakoutScanner/internal/notifier"
	"BreakoutScanner/internal/recorder"
	"BreakoutScanner/internal/report"
	"BreakoutScanner/internal/scanner"
	"BreakoutScanner/internal/state"
)

// UniverseLoader supplies the ordered ticker list for a run.
type UniverseLoader func() ([]string, error)

// Notifier delivers a rendered report.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs scans on demand or on a cron schedule and hands each
// summary to the configured sinks.
type Scheduler struct {
	Cron       *cron.Cron
	Scanner    *scanner.Scanner
	Universe   UniverseLoader
	Recorder   recorder.Recorder
	Notifier   Notifier // optional
	ResultsCSV string   // optional
	StatePath  string   // optional, last summary snapshot
	Ctx        context.Context

	logger *zap.Logger

	runMu sync.Mutex // one scan at a time

	mu   sync.RWMutex
	last *model.ScanSummary
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, universe UniverseLoader, rec recorder.Recorder, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Scanner:  sc,
		Universe: universe,
		Recorder: rec,
		Ctx:      ctx,
		logger:   logger,
	}
}

// Register schedules the scan job.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// LastSummary returns the most recent completed scan, or nil.
func (s *Scheduler) LastSummary() *model.ScanSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// RestoreLast loads the summary saved by a previous process, if any.
func (s *Scheduler) RestoreLast() error {
	if s.StatePath == "" {
		return nil
	}
	sum, err := state.LoadSummary(s.StatePath)
	if err != nil {
		return fmt.Errorf("restore last summary: %w", err)
	}
	if sum != nil {
		s.mu.Lock()
		s.last = sum
		s.mu.Unlock()
		s.logger.Info("restored last summary", zap.String("run_id", sum.RunID))
	}
	return nil
}

func (s *Scheduler) scanTask() {
	if _, err := s.RunScan(); err != nil {
		s.logger.Error("scheduled scan failed", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ Scan failed: %v", err))
	}
}

// RunScan loads the universe, scans it and publishes the summary to every sink.
// Sink failures are logged; only universe, configuration and cancellation
// errors are returned.
func (s *Scheduler) RunScan() (*model.ScanSummary, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	tickers, err := s.Universe()
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	s.logger.Info("universe loaded", zap.Int("tickers", len(tickers)))

	sum, err := s.Scanner.Scan(s.Ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	s.mu.Lock()
	s.last = sum
	s.mu.Unlock()

	s.publish(sum)
	return sum, nil
}

func (s *Scheduler) publish(sum *model.ScanSummary) {
	if s.ResultsCSV != "" {
		if err := report.SaveCSV(s.ResultsCSV, sum.Matches); err != nil {
			s.logger.Error("save results csv", zap.Error(err))
		} else {
			s.logger.Info("results saved", zap.String("path", s.ResultsCSV))
		}
	}

	if s.StatePath != "" {
		if err := state.SaveSummary(s.StatePath, sum); err != nil {
			s.logger.Error("save last summary", zap.Error(err))
		}
	}

	if err := s.Recorder.RecordScan(sum); err != nil {
		s.logger.Error("record scan", zap.Error(err))
	}

	s.logger.Info("scan summary\n" + report.FormatSummary(sum))
	s.trySend(notifier.FormatScanReport(sum))
}

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/scan":
		go s.scanTask()
		return "🔎 Scan started"
	case "/summary":
		last := s.LastSummary()
		if last == nil {
			return "No scan has completed yet."
		}
		return notifier.FormatScanReport(last)
	default:
		return "Available commands:\n• /scan\n• /summary"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error("send notification", zap.Error(err))
	}
}
