package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureServer(t *testing.T, received *map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, received)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSend_NoWebhook(t *testing.T) {
	s := NewSender("", "TestApp")
	assert.False(t, s.Enabled())
	assert.NoError(t, s.Send(context.Background(), "hello from test"))
}

func TestSend_SlackFormat(t *testing.T) {
	var received map[string]string
	srv := captureServer(t, &received)

	s := NewSender(srv.URL, "TestApp")
	require.True(t, s.Enabled())
	require.NoError(t, s.Send(context.Background(), "yahoo unavailable"))

	assert.Equal(t, "TestApp", received["username"])
	assert.Equal(t, "`[TestApp] yahoo unavailable`", received["text"])
}

func TestSend_DiscordFormat(t *testing.T) {
	var received map[string]string
	srv := captureServer(t, &received)

	s := NewSender(srv.URL+"/discord/webhook", "Dash")
	require.NoError(t, s.Send(context.Background(), "warm run failed"))

	assert.Equal(t, "[Dash] warm run failed", received["content"])
	assert.Equal(t, "Dash", received["username"])
	assert.NotContains(t, received, "text")
}

func TestSend_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewSender(srv.URL, "").Send(context.Background(), "x")
	assert.ErrorContains(t, err, "status 404")
}

func TestSend_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := NewSender("http://127.0.0.1:1/bogus", "").Send(ctx, "this will fail")
	assert.Error(t, err)
}

func TestWarmFailures(t *testing.T) {
	var received map[string]string
	srv := captureServer(t, &received)
	hook := NewSender(srv.URL, "Dash").WarmFailures(time.Second)

	hook(context.Background(), 0)
	assert.Nil(t, received)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hook(ctx, 3)
	assert.Nil(t, received)

	hook(context.Background(), 3)
	assert.Contains(t, received["text"], "3 fetches failed")
}

func TestDefaultAppName(t *testing.T) {
	assert.Equal(t, "optiondash", NewSender("", "").appName)
}
