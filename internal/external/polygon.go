package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kjannette/optiondash/internal/httputil"
	"github.com/kjannette/optiondash/internal/marketdata"
	"github.com/kjannette/optiondash/internal/models"
)

const polygonBaseURL = "https://api.polygon.io"

// PolygonClient reads daily aggregates from Polygon.io.
type PolygonClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	now        func() time.Time
}

func NewPolygonClient(apiKey, baseURL string, timeout time.Duration) *PolygonClient {
	if baseURL == "" {
		baseURL = polygonBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PolygonClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
		},
		now: time.Now,
	}
}

type polygonAggs struct {
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Message      string `json:"message"`
	Results      []struct {
		Time  int64   `json:"t"`
		Open  float64 `json:"o"`
		High  float64 `json:"h"`
		Low   float64 `json:"l"`
		Close float64 `json:"c"`
		Vol   float64 `json:"v"`
	} `json:"results"`
}

func (c *PolygonClient) FetchHistory(ctx context.Context, ticker string, period marketdata.Period) ([]models.Bar, error) {
	t, err := marketdata.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=50000",
		c.baseURL, url.PathEscape(t), period.Start(now).Format("2006-01-02"), now.Format("2006-01-02"))

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, marketdata.FetchFailed(ctx, err, "polygon fetch %s", t)
	}
	defer resp.Body.Close()

	var body polygonAggs
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, marketdata.Unavailable("polygon decode %s (status %d): %v", t, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, marketdata.Unavailable("polygon aggs status %d for %s: %s", resp.StatusCode, t, body.Message)
	}

	out := make([]models.Bar, 0, len(body.Results))
	for _, r := range body.Results {
		out = append(out, models.Bar{
			Date:   time.UnixMilli(r.Time).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Vol,
		})
	}

	out = marketdata.Clean(out)
	if len(out) == 0 {
		return nil, marketdata.Unavailable("polygon returned no aggregates for %s in %s", t, period)
	}
	return out, nil
}
