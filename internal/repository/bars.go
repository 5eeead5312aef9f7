package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/optiondash/internal/models"
)

// BarRepo archives daily bars in price_history, one row per ticker and day.
type BarRepo struct {
	pool *pgxpool.Pool
}

func NewBarRepo(pool *pgxpool.Pool) *BarRepo {
	return &BarRepo{pool: pool}
}

const upsertBar = `
INSERT INTO price_history (ticker, trading_day, open, high, low, close, volume, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (ticker, trading_day) DO UPDATE
SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
    close = EXCLUDED.close, volume = EXCLUDED.volume, source = EXCLUDED.source`

// SaveBars upserts bars in a single batch.
func (r *BarRepo) SaveBars(ctx context.Context, ticker, source string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(upsertBar, ticker, TradingDay(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume, source)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save %d bars for %s: %w", len(bars), ticker, err)
	}
	return nil
}

// GetRange returns archived bars for ticker with trading days in [from, to],
// oldest first.
func (r *BarRepo) GetRange(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ticker, trading_day, open, high, low, close, volume, source, created_at
		 FROM price_history
		 WHERE ticker = $1 AND trading_day BETWEEN $2 AND $3
		 ORDER BY trading_day ASC`,
		ticker, TradingDay(from), TradingDay(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stored, err := collectBars(rows)
	if err != nil {
		return nil, err
	}
	out := make([]models.Bar, len(stored))
	for i, s := range stored {
		out[i] = s.Bar
	}
	return out, nil
}

// GetLatest returns the most recent archived bar for ticker, or nil.
func (r *BarRepo) GetLatest(ctx context.Context, ticker string) (*models.StoredBar, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, ticker, trading_day, open, high, low, close, volume, source, created_at
		 FROM price_history WHERE ticker = $1 ORDER BY trading_day DESC LIMIT 1`,
		ticker,
	)
	b, err := scanBar(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// GetTickers lists archived tickers alphabetically.
func (r *BarRepo) GetTickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT ticker FROM price_history ORDER BY ticker ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanBar(row scannable) (*models.StoredBar, error) {
	var b models.StoredBar
	var td time.Time
	err := row.Scan(&b.ID, &b.Ticker, &td, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Source, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.TradingDay = td.Format("2006-01-02")
	b.Date = td
	return &b, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectBars(rows rowsIter) ([]models.StoredBar, error) {
	var out []models.StoredBar
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
