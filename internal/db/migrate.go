package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_history (
	id          BIGSERIAL PRIMARY KEY,
	ticker      TEXT             NOT NULL,
	trading_day DATE             NOT NULL,
	open        DOUBLE PRECISION NOT NULL DEFAULT 0,
	high        DOUBLE PRECISION NOT NULL DEFAULT 0,
	low         DOUBLE PRECISION NOT NULL DEFAULT 0,
	close       DOUBLE PRECISION NOT NULL,
	volume      DOUBLE PRECISION NOT NULL DEFAULT 0,
	source      TEXT             NOT NULL,
	created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
	UNIQUE (ticker, trading_day)
);
CREATE INDEX IF NOT EXISTS price_history_ticker_day_idx ON price_history (ticker, trading_day);
`

// Migrate creates the archive table if it does not exist.
func Migrate(ctx context.Context, p *pgxpool.Pool) error {
	if _, err := p.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate price_history: %w", err)
	}
	return nil
}
