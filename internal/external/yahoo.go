package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/kjannette/optiondash/internal/httputil"
	"github.com/kjannette/optiondash/internal/marketdata"
	"github.com/kjannette/optiondash/internal/models"
)

const (
	yahooBaseURL   = "https://query1.finance.yahoo.com"
	yahooUserAgent = "Mozilla/5.0 (compatible; optiondash/1.0)"
)

// YahooClient reads daily history from the Yahoo Finance chart API.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	now        func() time.Time
}

type YahooOptions struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond caps outbound calls; 0 disables limiting.
	RequestsPerSecond float64
}

func NewYahooClient(opts YahooOptions) *YahooClient {
	base := opts.BaseURL
	if base == "" {
		base = yahooBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retry := httputil.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    5 * time.Second,
	}
	if opts.RequestsPerSecond > 0 {
		retry.Limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &YahooClient{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		now:        time.Now,
	}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) FetchHistory(ctx context.Context, ticker string, period marketdata.Period) ([]models.Bar, error) {
	t, err := marketdata.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(period.Start(now).Unix(), 10))
	q.Set("period2", strconv.FormatInt(now.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	q.Set("includeAdjustedClose", "true")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(t), q.Encode())

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", yahooUserAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, marketdata.FetchFailed(ctx, err, "yahoo fetch %s", t)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, marketdata.Unavailable("yahoo read %s: %v", t, err)
	}

	var data yahooChart
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, marketdata.Unavailable("yahoo decode %s (status %d): %v", t, resp.StatusCode, err)
	}
	if data.Chart.Error != nil {
		return nil, marketdata.Unavailable("yahoo %s: %s: %s", t, data.Chart.Error.Code, data.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, marketdata.Unavailable("yahoo returned status %d for %s", resp.StatusCode, t)
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, marketdata.Unavailable("yahoo returned no data for %s", t)
	}

	res := data.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	out := make([]models.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		closePx := at(quote.Close, i)
		if closePx <= 0 {
			continue
		}
		bar := models.Bar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  closePx,
			Volume: at(quote.Volume, i),
		}
		// Scale the row onto the adjusted close so splits and dividends
		// don't show up as returns.
		if a := at(adj, i); a > 0 && a != closePx {
			f := a / closePx
			bar.Open *= f
			bar.High *= f
			bar.Low *= f
			bar.Close = a
		}
		out = append(out, bar)
	}

	out = marketdata.Clean(out)
	if len(out) == 0 {
		return nil, marketdata.Unavailable("no closing prices for %s in %s", t, period)
	}
	return out, nil
}

func at(v []*float64, i int) float64 {
	if i >= len(v) || v[i] == nil {
		return 0
	}
	return *v[i]
}
