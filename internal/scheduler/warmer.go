// Package scheduler refreshes watched tickers in the background so the
// cache and price archive are populated before users ask for them.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kjannette/optiondash/internal/logger"
	"github.com/kjannette/optiondash/internal/marketdata"
)

type WarmerConfig struct {
	Interval time.Duration // e.g. 1*time.Hour
	Timeout  time.Duration // per run
	Tickers  []string
	Periods  []marketdata.Period
	// OnRun is called after every run with the number of failed fetches.
	// ctx is cancelled when the warmer stops.
	OnRun func(ctx context.Context, failed int)
}

type Warmer struct {
	provider marketdata.Provider
	cfg      WarmerConfig
	log      *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWarmer(provider marketdata.Provider, cfg WarmerConfig) *Warmer {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if len(cfg.Periods) == 0 {
		cfg.Periods = []marketdata.Period{marketdata.DefaultPeriod}
	}
	return &Warmer{provider: provider, cfg: cfg, log: logger.Named("scheduler")}
}

func (s *Warmer) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("warmer already running")
		return
	}
	s.running = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runOnce(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	s.log.Infow("warmer started", "every", s.cfg.Interval.String(), "tickers", s.cfg.Tickers)
}

// Stop halts the schedule, cancels an in-flight run and waits for it to
// return.
func (s *Warmer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("warmer stopped")
}

func (s *Warmer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow fetches every ticker and period once outside the schedule.
func (s *Warmer) RunNow(ctx context.Context) error {
	failed := s.warm(ctx)
	s.report(ctx, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d fetches failed", failed, len(s.cfg.Tickers)*len(s.cfg.Periods))
	}
	return nil
}

func (s *Warmer) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	failed := s.warm(runCtx)
	cancel()
	s.report(ctx, failed)
}

func (s *Warmer) warm(ctx context.Context) int {
	failed := 0
	for i, t := range s.cfg.Tickers {
		for j, p := range s.cfg.Periods {
			if err := ctx.Err(); err != nil {
				remaining := (len(s.cfg.Tickers)-i)*len(s.cfg.Periods) - j
				s.log.Infow("warm run cut short", "skipped", remaining, "error", err)
				return failed + remaining
			}
			bars, err := s.provider.FetchHistory(ctx, t, p)
			if err != nil {
				failed++
				s.log.Warnw("warm fetch failed", "ticker", t, "period", p, "error", err)
				continue
			}
			s.log.Debugw("warmed", "ticker", t, "period", p, "bars", len(bars))
		}
	}
	return failed
}

func (s *Warmer) report(ctx context.Context, failed int) {
	if s.cfg.OnRun != nil {
		s.cfg.OnRun(ctx, failed)
	}
}
