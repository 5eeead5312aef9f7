package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kjannette/optiondash/internal/api"
	"github.com/kjannette/optiondash/internal/config"
	"github.com/kjannette/optiondash/internal/dashboard"
	"github.com/kjannette/optiondash/internal/db"
	"github.com/kjannette/optiondash/internal/external"
	"github.com/kjannette/optiondash/internal/logger"
	"github.com/kjannette/optiondash/internal/marketdata"
	"github.com/kjannette/optiondash/internal/metrics"
	"github.com/kjannette/optiondash/internal/notifications"
	"github.com/kjannette/optiondash/internal/repository"
	"github.com/kjannette/optiondash/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║   Black-Scholes Option Dashboard     ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("main")

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}
	cfg.Print()
	metrics.Register()

	provider, err := newProvider(cfg)
	if err != nil {
		log.Fatalw("market data provider", "error", err)
	}
	provider = marketdata.Instrumented{Name: cfg.MarketData.Provider, Next: provider}

	// Database (optional price archive)
	var (
		pool    *pgxpool.Pool
		archive api.Archive
		pinger  api.Pinger
	)
	if cfg.DB.Enabled {
		log.Infow("connecting to database", "host", cfg.DB.Host, "port", cfg.DB.Port, "name", cfg.DB.Name)
		pool, err = db.Connect(cfg.DSN())
		if err != nil {
			log.Fatalw("database connection failed", "error", err)
		}
		defer func() {
			pool.Close()
			log.Info("database pool closed")
		}()

		if err := db.TestConnection(pool); err != nil {
			log.Fatalw("database test query failed", "error", err)
		}
		migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.Migrate(migrateCtx, pool)
		cancel()
		if err != nil {
			log.Fatalw("database migration failed", "error", err)
		}

		bars := repository.NewBarRepo(pool)
		provider = marketdata.NewArchived(provider, bars, cfg.MarketData.Provider)
		archive, pinger = bars, pool
	}

	// Redis (optional history cache)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warnw("redis unreachable, cache will pass through", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
		provider = marketdata.NewCached(rdb, provider, cfg.Redis.TTL)
	}

	window, _ := marketdata.ParsePeriod(cfg.MarketData.VolatilityWindow)
	defaultPeriod, _ := marketdata.ParsePeriod(cfg.Defaults.Period)
	svc := dashboard.NewService(provider, dashboard.Options{
		Defaults: dashboard.Defaults{
			Ticker:   cfg.Defaults.Ticker,
			Strike:   cfg.Defaults.Strike,
			Maturity: cfg.Defaults.Maturity,
			Rate:     cfg.Defaults.Rate,
			Period:   defaultPeriod,
		},
		VolatilityWindow:   window,
		FallbackVolatility: cfg.MarketData.FallbackVol,
	})

	notify := notifications.NewSender(cfg.Warmer.WebhookURL, cfg.App.Name)

	var warmer *scheduler.Warmer
	if cfg.Warmer.Interval > 0 {
		warmer = scheduler.NewWarmer(provider, scheduler.WarmerConfig{
			Interval: cfg.Warmer.Interval,
			Tickers:  cfg.WarmTickers(),
			Periods:  uniquePeriods(window, defaultPeriod),
			OnRun:    notify.WarmFailures(30 * time.Second),
		})
	}

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(svc, api.Options{
		Port:       cfg.API.Port,
		APIKey:     cfg.API.Key,
		CORSOrigin: cfg.API.CORSAllowOrigin,
		DB:         pinger,
		Archive:    archive,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
	}()

	if warmer != nil {
		warmer.Start()
	} else {
		log.Info("warmer skipped, WARM_INTERVAL not set")
	}

	<-ctx.Done()
	log.Info("shutting down gracefully")

	if warmer != nil {
		warmer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown error", "error", err)
	}
	log.Info("shutdown complete")
}

func newProvider(cfg *config.Config) (marketdata.Provider, error) {
	md := cfg.MarketData
	switch md.Provider {
	case config.ProviderYahoo:
		return external.NewYahooClient(external.YahooOptions{
			BaseURL:           md.YahooBaseURL,
			Timeout:           md.Timeout,
			RequestsPerSecond: md.RequestsPerSecond,
		}), nil
	case config.ProviderPolygon:
		return external.NewPolygonClient(md.PolygonAPIKey, md.PolygonBaseURL, md.Timeout), nil
	case config.ProviderSynthetic:
		return marketdata.NewSynthetic(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", md.Provider)
	}
}

func uniquePeriods(periods ...marketdata.Period) []marketdata.Period {
	var out []marketdata.Period
	for _, p := range periods {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
