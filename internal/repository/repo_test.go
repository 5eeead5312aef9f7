package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/optiondash/internal/models"
	"github.com/kjannette/optiondash/internal/repository"
	"github.com/kjannette/optiondash/internal/testutil"
)

func TestBarRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewBarRepo(pool)
	ctx := context.Background()

	ticker := "ZZTEST"
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM price_history WHERE ticker = $1`, ticker)
	})

	day := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	bars := []models.Bar{
		{Date: day, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
		{Date: day.AddDate(0, 0, 1), Open: 10.5, High: 12, Low: 10, Close: 11.75, Volume: 1500},
	}
	require.NoError(t, repo.SaveBars(ctx, ticker, "test", bars))

	// Upsert replaces the existing day.
	bars[1].Close = 11.8
	require.NoError(t, repo.SaveBars(ctx, ticker, "test", bars[1:]))

	got, err := repo.GetRange(ctx, ticker, day.AddDate(0, 0, -1), day.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10.5, got[0].Close)
	assert.Equal(t, 11.8, got[1].Close)
	assert.Equal(t, "2024-03-04", repository.TradingDay(got[0].Date))

	latest, err := repo.GetLatest(ctx, ticker)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-03-05", latest.TradingDay)
	assert.Equal(t, "test", latest.Source)

	missing, err := repo.GetLatest(ctx, "NOSUCHTICKER")
	require.NoError(t, err)
	assert.Nil(t, missing)

	tickers, err := repo.GetTickers(ctx)
	require.NoError(t, err)
	assert.Contains(t, tickers, ticker)
}

func TestTradingDay(t *testing.T) {
	cases := map[time.Time]string{
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC):   "2024-01-15",
		time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC):   "2024-01-15",
		time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC): "2024-01-15",
	}
	for ts, want := range cases {
		assert.Equal(t, want, repository.TradingDay(ts))
	}
	ny := time.FixedZone("EST", -5*60*60)
	assert.Equal(t, "2024-01-15", repository.TradingDay(time.Date(2024, 1, 15, 9, 30, 0, 0, ny)))
}
