package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"BreakoutScanner/internal/collector"
	"BreakoutScanner/internal/config"
	"BreakoutScanner/internal/logger"
	"BreakoutScanner/internal/notifier"
	"BreakoutScanner/internal/recorder"
	"BreakoutScanner/internal/report"
	"BreakoutScanner/internal/scanner"
	"BreakoutScanner/internal/scheduler"
	"BreakoutScanner/internal/universe"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("config validation", zap.Error(err))
	}
	log.Info("BreakoutScanner starting", zap.String("config", cfgPath))

	// Init fetcher
	var fetcher collector.Fetcher = collector.NewYahooFetcher(collector.YahooOptions{
		BaseURL: cfg.DataSource.BaseURL,
		Proxy:   cfg.Proxy,
		Timeout: cfg.Timeout(),
	}, log)
	if ttl := cfg.CacheTTL(); ttl > 0 {
		fetcher = collector.NewCachedFetcher(fetcher, ttl)
	}
	log.Info("data source ready", zap.String("source", fetcher.Name()), zap.String("lookback", cfg.DataSource.Lookback))

	// Init chart sink
	var sinks []scanner.MatchSink
	if cfg.Output.ChartDir != "" {
		cw, err := report.NewChartWriter(cfg.Output.ChartDir)
		if err != nil {
			log.Warn("charts disabled", zap.Error(err))
		} else {
			sinks = append(sinks, cw)
		}
	}

	sc := scanner.New(fetcher, scanner.Options{
		Thresholds: cfg.Thresholds(),
		Lookback:   cfg.DataSource.Lookback,
		Workers:    cfg.Scan.Workers,
		Sinks:      sinks,
	}, log)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadUniverse := func() ([]string, error) {
		return universe.LoadCSV(cfg.Universe.Path, universe.Options{
			Column: cfg.Universe.Column,
			Suffix: cfg.Universe.Suffix,
		})
	}
	sched := scheduler.NewScheduler(ctx, sc, loadUniverse, rec, log)
	sched.ResultsCSV = cfg.Output.ResultsCSV
	sched.StatePath = cfg.Output.StatePath
	if err := sched.RestoreLast(); err != nil {
		log.Warn("starting without previous summary", zap.Error(err))
	}

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier("", cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sched.Notifier = tn
	}

	// One-shot mode
	if cfg.Schedule.ScanCron == "" {
		if _, err := sched.RunScan(); err != nil {
			log.Error("scan failed", zap.Error(err))
			rec.Close()
			os.Exit(1)
		}
		log.Info("analysis complete")
		return
	}

	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatal("register cron task", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, executing scan now")
		go sched.HandleCommand("/scan")
	}

	log.Info("BreakoutScanner is running. Press Ctrl+C to stop.", zap.String("cron", cfg.Schedule.ScanCron))
	<-ctx.Done()
	log.Info("shutdown signal received, stopping...")
}
