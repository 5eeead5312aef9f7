package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/optiondash/internal/marketdata"
	"github.com/kjannette/optiondash/internal/models"
	"github.com/kjannette/optiondash/internal/scheduler"
)

type countingProvider struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (p *countingProvider) FetchHistory(_ context.Context, ticker string, period marketdata.Period) ([]models.Bar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, ticker+"/"+string(period))
	if p.fail[ticker] {
		return nil, errors.New("upstream down")
	}
	return []models.Bar{{Close: 1}}, nil
}

// stallingProvider blocks every fetch until its context ends.
type stallingProvider struct {
	entered chan struct{}
	once    sync.Once
}

func (p *stallingProvider) FetchHistory(ctx context.Context, _ string, _ marketdata.Period) ([]models.Bar, error) {
	p.once.Do(func() { close(p.entered) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func (p *countingProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func TestWarmer_RunNow(t *testing.T) {
	p := &countingProvider{fail: map[string]bool{"BAD": true}}
	w := scheduler.NewWarmer(p, scheduler.WarmerConfig{
		Tickers: []string{"AAPL", "BAD"},
		Periods: []marketdata.Period{marketdata.Period1Y, marketdata.Period1M},
	})

	err := w.RunNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 4")
	assert.Equal(t, []string{"AAPL/1y", "AAPL/1mo", "BAD/1y", "BAD/1mo"}, p.calls)
}

func TestWarmer_DefaultPeriod(t *testing.T) {
	p := &countingProvider{}
	w := scheduler.NewWarmer(p, scheduler.WarmerConfig{Tickers: []string{"MSFT"}})
	require.NoError(t, w.RunNow(context.Background()))
	assert.Equal(t, []string{"MSFT/1y"}, p.calls)
}

func TestWarmer_StartStop(t *testing.T) {
	p := &countingProvider{}
	var runs atomic.Int32
	w := scheduler.NewWarmer(p, scheduler.WarmerConfig{
		Interval: 10 * time.Millisecond,
		Tickers:  []string{"AAPL"},
		OnRun:    func(context.Context, int) { runs.Add(1) },
	})

	w.Start()
	assert.True(t, w.Running())
	w.Start() // second start is a no-op

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	w.Stop()
	assert.False(t, w.Running())
	after := p.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, p.count())

	w.Stop() // idempotent
}

func TestWarmer_StopCancelsInFlightRun(t *testing.T) {
	p := &stallingProvider{entered: make(chan struct{})}
	var (
		reported atomic.Int32
		notified = make(chan error, 1)
	)
	w := scheduler.NewWarmer(p, scheduler.WarmerConfig{
		Interval: time.Hour,
		Timeout:  time.Minute,
		Tickers:  []string{"AAPL", "MSFT"},
		OnRun: func(ctx context.Context, failed int) {
			reported.Store(int32(failed))
			notified <- ctx.Err()
		},
	})

	w.Start()
	select {
	case <-p.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("warm run never started")
	}

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop waited on the run timeout")
	}

	assert.ErrorIs(t, <-notified, context.Canceled)
	assert.Equal(t, int32(2), reported.Load())
}

func TestWarmer_RunNowHonoursCancelledContext(t *testing.T) {
	p := &countingProvider{}
	w := scheduler.NewWarmer(p, scheduler.WarmerConfig{
		Tickers: []string{"AAPL", "MSFT"},
		Periods: []marketdata.Period{marketdata.Period1Y, marketdata.Period1M},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.RunNow(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 of 4")
	assert.Zero(t, p.count())
}
