// Package marketdata supplies ordered daily closing prices for a ticker.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kjannette/optiondash/internal/metrics"
	"github.com/kjannette/optiondash/internal/models"
)

// ErrDataUnavailable covers unknown tickers, empty windows and upstream failures.
var ErrDataUnavailable = errors.New("market data unavailable")

var tickerRegexp = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]{0,14}$`)

// Provider returns daily bars ordered oldest to newest. A successful call
// never returns an empty slice.
type Provider interface {
	FetchHistory(ctx context.Context, ticker string, period Period) ([]models.Bar, error)
}

// NormalizeTicker upper-cases and validates a ticker symbol.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if !tickerRegexp.MatchString(t) {
		return "", fmt.Errorf("%w: invalid ticker %q", ErrDataUnavailable, ticker)
	}
	return t, nil
}

// Unavailable builds an ErrDataUnavailable error with a formatted reason.
func Unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataUnavailable, fmt.Sprintf(format, args...))
}

// FetchFailed wraps a transport error from an upstream request. When ctx is
// done the cancellation is returned as is, so callers do not mistake it for
// missing data.
func FetchFailed(ctx context.Context, err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", msg, ctxErr)
	}
	return fmt.Errorf("%w: %s: %w", ErrDataUnavailable, msg, err)
}

// Clean sorts bars by date, drops non-positive closes and keeps the last bar
// seen for each day.
func Clean(bars []models.Bar) []models.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if !(b.Close > 0) {
			continue
		}
		if n := len(out); n > 0 && sameDay(out[n-1].Date, b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Instrumented records fetch counts and latency for a named provider.
type Instrumented struct {
	Name string
	Next Provider
}

func (p Instrumented) FetchHistory(ctx context.Context, ticker string, period Period) ([]models.Bar, error) {
	started := time.Now()
	bars, err := p.Next.FetchHistory(ctx, ticker, period)
	status := "ok"
	switch {
	case errors.Is(err, ErrDataUnavailable):
		status = "unavailable"
	case err != nil:
		status = "error"
	}
	metrics.ObserveFetch(p.Name, status, started)
	return bars, err
}
