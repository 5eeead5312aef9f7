package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjannette/optiondash/internal/analytics"
	"github.com/kjannette/optiondash/internal/marketdata"
	"github.com/kjannette/optiondash/internal/pricing"
)

// Form is the state of the dashboard inputs. Volatility 0 means estimate.
type Form struct {
	Ticker     string
	Strike     float64
	Maturity   float64
	Rate       float64
	Volatility float64
	Period     marketdata.Period
}

// ParseForm reads the dashboard query string. Missing fields take the
// defaults; malformed ones take the defaults and are reported. A supplied
// volatility must be positive and finite.
func (s *Service) ParseForm(q url.Values) (Form, []string) {
	d := s.defaults
	f := Form{
		Ticker:   strings.ToUpper(strings.TrimSpace(q.Get("ticker"))),
		Strike:   d.Strike,
		Maturity: d.Maturity,
		Rate:     d.Rate,
		Period:   d.Period,
	}
	if f.Ticker == "" {
		f.Ticker = d.Ticker
	}

	var problems []string
	num := func(key string, dst *float64) {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %q is not a number", key, raw))
			return
		}
		*dst = v
	}
	num("strike", &f.Strike)
	num("maturity", &f.Maturity)
	num("rate", &f.Rate)

	// Only a blank volatility asks for an estimate.
	var vol float64
	before := len(problems)
	num("volatility", &vol)
	if raw := strings.TrimSpace(q.Get("volatility")); raw != "" && len(problems) == before {
		if validVolatility(vol) {
			f.Volatility = vol
		} else {
			problems = append(problems, fmt.Sprintf("volatility must be a positive number, got %q", raw))
		}
	}

	if p, err := marketdata.ParsePeriod(q.Get("period")); err != nil {
		problems = append(problems, err.Error())
	} else if q.Get("period") != "" {
		f.Period = p
	}
	return f, problems
}

func (f Form) QuoteRequest() QuoteRequest {
	return QuoteRequest{
		Ticker:     f.Ticker,
		Strike:     f.Strike,
		Maturity:   f.Maturity,
		Rate:       f.Rate,
		Volatility: f.Volatility,
	}
}

// View is everything the page template needs.
type View struct {
	Form        Form
	Periods     []marketdata.Period
	Problems    []string
	Quote       *Quote
	QuoteError  string
	Chart       *Chart
	ChartError  string
	ChartData   ChartData
	ResetURL    string
	GeneratedAt time.Time
}

// ChartData is the Plotly trace for the close series.
type ChartData struct {
	X []string  `json:"x"`
	Y []float64 `json:"y"`
}

func (v *View) TrendColor() string {
	if v.Chart != nil && v.Chart.Change.Trend == analytics.TrendUp {
		return "green"
	}
	return "red"
}

func (v *View) Title() string {
	return fmt.Sprintf("%s Stock Price (%s)", v.Form.Ticker, strings.ToUpper(string(v.Form.Period)))
}

// Build assembles one page. Failures end up in the view, never as an error.
func (s *Service) Build(ctx context.Context, f Form) *View {
	v := &View{Form: f, Periods: marketdata.Periods, ResetURL: s.resetURL(), GeneratedAt: s.now()}

	ticker, err := marketdata.NormalizeTicker(f.Ticker)
	if err != nil {
		v.QuoteError = userMessage(err)
		v.ChartError = v.QuoteError
		return v
	}
	v.Form.Ticker = ticker

	windowBars, err := s.history(ctx, ticker, s.window)
	if err != nil {
		v.QuoteError = userMessage(err)
	} else if q, err := s.quoteFromBars(ticker, f.QuoteRequest(), windowBars); err != nil {
		v.QuoteError = userMessage(err)
	} else {
		v.Quote = q
	}

	chartBars := windowBars
	if f.Period != s.window || chartBars == nil {
		chartBars, err = s.history(ctx, ticker, f.Period)
	}
	if err != nil {
		v.ChartError = userMessage(err)
		return v
	}
	c, err := chartFromBars(ticker, f.Period, chartBars)
	if err != nil {
		v.ChartError = userMessage(err)
		return v
	}
	v.Chart = c
	v.ChartData = ChartData{X: make([]string, len(c.Bars)), Y: make([]float64, len(c.Bars))}
	for i, b := range c.Bars {
		v.ChartData.X[i] = b.Date.UTC().Format("2006-01-02")
		v.ChartData.Y[i] = b.Close
	}
	return v
}

// resetURL links back to the page with the configured defaults filled in.
func (s *Service) resetURL() string {
	d := s.defaults
	q := url.Values{}
	q.Set("ticker", d.Ticker)
	q.Set("strike", formatInput(d.Strike))
	q.Set("maturity", formatInput(d.Maturity))
	q.Set("rate", formatInput(d.Rate))
	q.Set("period", string(d.Period))
	return "/?" + q.Encode()
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		return "Invalid input: " + err.Error()
	case errors.Is(err, marketdata.ErrDataUnavailable):
		return "No market data: " + err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}
