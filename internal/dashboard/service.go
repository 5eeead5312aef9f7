// Package dashboard combines market data, volatility estimation and pricing
// into the quote and chart shown on the web page and the JSON API.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kjannette/optiondash/internal/analytics"
	"github.com/kjannette/optiondash/internal/logger"
	"github.com/kjannette/optiondash/internal/marketdata"
	"github.com/kjannette/optiondash/internal/metrics"
	"github.com/kjannette/optiondash/internal/models"
	"github.com/kjannette/optiondash/internal/pricing"
)

// VolatilitySource tells where the volatility of a quote came from.
type VolatilitySource string

const (
	VolatilityUser      VolatilitySource = "user"
	VolatilityEstimated VolatilitySource = "estimated"
	VolatilityFallback  VolatilitySource = "fallback"
)

const defaultFallbackVolatility = 0.2

// Defaults seed the form when a field is missing.
type Defaults struct {
	Ticker   string
	Strike   float64
	Maturity float64
	Rate     float64
	Period   marketdata.Period
}

type Options struct {
	Defaults           Defaults
	VolatilityWindow   marketdata.Period
	FallbackVolatility float64
}

type Service struct {
	provider    marketdata.Provider
	defaults    Defaults
	window      marketdata.Period
	fallbackVol float64
	now         func() time.Time
	log         *logger.Logger
}

func NewService(provider marketdata.Provider, opts Options) *Service {
	if opts.VolatilityWindow == "" {
		opts.VolatilityWindow = marketdata.DefaultPeriod
	}
	if opts.FallbackVolatility <= 0 {
		opts.FallbackVolatility = defaultFallbackVolatility
	}
	if opts.Defaults.Period == "" {
		opts.Defaults.Period = marketdata.DefaultPeriod
	}
	return &Service{
		provider:    provider,
		defaults:    opts.Defaults,
		window:      opts.VolatilityWindow,
		fallbackVol: opts.FallbackVolatility,
		now:         time.Now,
		log:         logger.Named("dashboard"),
	}
}

// QuoteRequest asks for call and put prices on a listed underlying.
// Volatility 0 means estimate it from history; any other value must be
// positive and finite.
type QuoteRequest struct {
	Ticker     string  `json:"ticker"`
	Strike     float64 `json:"strike"`
	Maturity   float64 `json:"maturity"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility,omitempty"`
}

type Quote struct {
	Ticker           string           `json:"ticker"`
	Spot             float64          `json:"spot"`
	Volatility       float64          `json:"volatility"`
	VolatilitySource VolatilitySource `json:"volatilitySource"`
	Inputs           pricing.Inputs   `json:"inputs"`
	Result           pricing.Result   `json:"result"`
	AsOf             time.Time        `json:"asOf"`
}

type Chart struct {
	Ticker string            `json:"ticker"`
	Period marketdata.Period `json:"period"`
	Bars   []models.Bar      `json:"bars"`
	Change analytics.Change  `json:"change"`
}

// Quote prices both legs using the last close as spot.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	ticker, err := marketdata.NormalizeTicker(req.Ticker)
	if err != nil {
		return nil, err
	}
	bars, err := s.history(ctx, ticker, s.window)
	if err != nil {
		return nil, err
	}
	return s.quoteFromBars(ticker, req, bars)
}

// Chart returns the bars of period with their percent change.
func (s *Service) Chart(ctx context.Context, ticker string, period marketdata.Period) (*Chart, error) {
	ticker, err := marketdata.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	bars, err := s.history(ctx, ticker, period)
	if err != nil {
		return nil, err
	}
	return chartFromBars(ticker, period, bars)
}

func (s *Service) history(ctx context.Context, ticker string, period marketdata.Period) ([]models.Bar, error) {
	bars, err := s.provider.FetchHistory(ctx, ticker, period)
	if err != nil {
		return nil, fmt.Errorf("history %s %s: %w", ticker, period, err)
	}
	if len(bars) == 0 {
		return nil, marketdata.Unavailable("no bars for %s over %s", ticker, period)
	}
	return bars, nil
}

func (s *Service) quoteFromBars(ticker string, req QuoteRequest, bars []models.Bar) (*Quote, error) {
	last := bars[len(bars)-1]
	vol, src, err := s.volatility(ticker, req.Volatility, bars)
	if err != nil {
		metrics.ObservePricing("both", err)
		return nil, err
	}

	in := pricing.Inputs{
		Spot:           last.Close,
		Strike:         req.Strike,
		TimeToMaturity: req.Maturity,
		RiskFreeRate:   req.Rate,
		Volatility:     vol,
	}
	res, err := pricing.Evaluate(in)
	metrics.ObservePricing("both", err)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Ticker:           ticker,
		Spot:             last.Close,
		Volatility:       vol,
		VolatilitySource: src,
		Inputs:           in,
		Result:           res,
		AsOf:             last.Date,
	}, nil
}

func validVolatility(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func (s *Service) volatility(ticker string, override float64, bars []models.Bar) (float64, VolatilitySource, error) {
	if override != 0 {
		if !validVolatility(override) {
			return 0, "", fmt.Errorf("%w: volatility must be positive, got %v", pricing.ErrInvalidInput, override)
		}
		return override, VolatilityUser, nil
	}
	est, err := analytics.AnnualizedVolatility(analytics.Closes(bars))
	if err != nil || est <= 0 {
		s.log.Debugw("using fallback volatility", "ticker", ticker, "bars", len(bars), "error", err)
		return s.fallbackVol, VolatilityFallback, nil
	}
	return est, VolatilityEstimated, nil
}

func chartFromBars(ticker string, period marketdata.Period, bars []models.Bar) (*Chart, error) {
	change, err := analytics.Summarize(bars)
	if err != nil {
		return nil, err
	}
	return &Chart{Ticker: ticker, Period: period, Bars: bars, Change: change}, nil
}
