package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"StockTracker/internal/app"
	"StockTracker/internal/collector"
	"StockTracker/internal/config"
	"StockTracker/internal/console"
	"StockTracker/internal/logger"
	"StockTracker/internal/recorder"
	"StockTracker/internal/watchlist"
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

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	log.Infof("StockTracker starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	case "mock":
		fetcher = collector.NewMockFetcher(100, time.Now().UnixNano())
	default:
		if cfg.DataSource.APIKey == "" {
			log.Warnf("POLYGON_API_KEY is not set; quote requests will fail until it is")
		}
		fetcher = collector.NewPolygonFetcher(cfg.DataSource.APIKey, cfg.Proxy)
	}
	log.Infof("data source: %s", fetcher.Name())

	// Init watchlist store
	var store watchlist.Store
	switch cfg.Watchlist.Backend {
	case "postgres":
		ps, err := watchlist.NewPostgresStore(ctx, cfg.Watchlist.DatabaseURL, log.Named("watchlist"))
		if err != nil {
			log.Fatalf("init postgres watchlist: %v", err)
		}
		store = ps
	default:
		store = watchlist.NewFileStore(cfg.Watchlist.File)
	}
	defer store.Close()

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.Named("recorder"))
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	out := console.NewOutput(os.Stdout)
	a := app.New(fetcher, store, rec, out, log, app.Options{
		QuotePollInterval: cfg.Quotes.PollInterval,
		HighlightDuration: cfg.Quotes.HighlightDuration,
		ChartPollInterval: cfg.Chart.PollInterval,
		PageSize:          cfg.Table.PageSize,
		Timezone:          cfg.Chart.Timezone,
		Live:              cfg.Chart.Live,
	})

	first, err := a.Start(ctx)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	defer a.Stop()
	out.Print(first)
	out.Print("type help for commands")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return console.Run(gctx, os.Stdin, out, a.HandleCommand, log.Named("console"))
	})

	if err := g.Wait(); err != nil {
		log.Errorf("console: %v", err)
	}
	log.Infof("StockTracker stopped")
}
