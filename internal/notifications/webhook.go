// Package notifications posts operational alerts to a Slack or Discord
// compatible webhook.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/optiondash/internal/httputil"
	"github.com/kjannette/optiondash/internal/logger"
)

type Sender struct {
	webhookURL string
	appName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	log        *logger.Logger
}

func NewSender(webhookURL, appName string) *Sender {
	if appName == "" {
		appName = "optiondash"
	}
	return &Sender{
		webhookURL: webhookURL,
		appName:    appName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
		log: logger.Named("notifications"),
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

// Send logs msg and, when a webhook is configured, posts it.
func (s *Sender) Send(ctx context.Context, msg string) error {
	s.log.Infow("notify", "message", msg)
	if !s.Enabled() {
		return nil
	}

	body, err := json.Marshal(s.payload(fmt.Sprintf("[%s] %s", s.appName, msg)))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.log.Warnw("webhook delivery failed", "error", err)
		return fmt.Errorf("send webhook: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send webhook: status %d", resp.StatusCode)
	}
	return nil
}

// WarmFailures builds a warmer callback that alerts when a run had failures.
// The alert is abandoned once ctx is cancelled.
func (s *Sender) WarmFailures(timeout time.Duration) func(ctx context.Context, failed int) {
	return func(ctx context.Context, failed int) {
		if failed == 0 || ctx.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_ = s.Send(ctx, fmt.Sprintf("market data warm run: %d fetches failed", failed))
	}
}

func (s *Sender) payload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.appName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.appName,
	}
}
