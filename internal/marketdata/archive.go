package marketdata

import (
	"context"
	"time"

	"github.com/kjannette/optiondash/internal/logger"
	"github.com/kjannette/optiondash/internal/models"
)

// BarStore persists fetched bars so a window can be served when the
// upstream provider is down.
type BarStore interface {
	SaveBars(ctx context.Context, ticker, source string, bars []models.Bar) error
	GetRange(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error)
}

// Archived writes every successful fetch to a BarStore and falls back to the
// stored range when the upstream call fails.
type Archived struct {
	next   Provider
	store  BarStore
	source string
	now    func() time.Time
	log    *logger.Logger
}

func NewArchived(next Provider, store BarStore, source string) *Archived {
	return &Archived{
		next:   next,
		store:  store,
		source: source,
		now:    time.Now,
		log:    logger.Named("marketdata.archive"),
	}
}

func (a *Archived) FetchHistory(ctx context.Context, ticker string, period Period) ([]models.Bar, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	bars, fetchErr := a.next.FetchHistory(ctx, t, period)
	if fetchErr == nil {
		if err := a.store.SaveBars(ctx, t, a.source, bars); err != nil {
			a.log.Warnw("archive write failed", "ticker", t, "error", err)
		}
		return bars, nil
	}

	now := a.now()
	stored, err := a.store.GetRange(ctx, t, period.Start(now), now)
	if err != nil {
		a.log.Warnw("archive read failed", "ticker", t, "error", err)
		return nil, fetchErr
	}
	if len(stored) == 0 {
		return nil, fetchErr
	}
	a.log.Infow("serving archived history", "ticker", t, "period", period, "bars", len(stored), "upstreamError", fetchErr)
	return stored, nil
}
