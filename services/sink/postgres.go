package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"pricesnap/internal/scraper"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS product_snapshots (
	id             BIGSERIAL PRIMARY KEY,
	timestamp_iso  TEXT NOT NULL,
	site_name      TEXT NOT NULL,
	product_name   TEXT NOT NULL,
	sku            TEXT NOT NULL DEFAULT '',
	product_url    TEXT NOT NULL,
	status         TEXT NOT NULL,
	price_value    DOUBLE PRECISION,
	currency       TEXT NOT NULL,
	raw_price_text TEXT NOT NULL DEFAULT '',
	source_url     TEXT NOT NULL,
	notes          TEXT NOT NULL DEFAULT ''
)`

const insertSnapshot = `
INSERT INTO product_snapshots
	(timestamp_iso, site_name, product_name, sku, product_url, status,
	 price_value, currency, raw_price_text, source_url, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// PostgresSink appends records to a snapshots table. Rows are insert-only;
// the table keeps the full history across runs.
type PostgresSink struct {
	db  *pgxpool.Pool
	ctx context.Context
}

// NewPostgresSink connects to the database and ensures the table exists.
func NewPostgresSink(ctx context.Context, connStr string) (*PostgresSink, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if _, err := db.Exec(ctx, createSnapshotsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure snapshots table: %w", err)
	}
	return &PostgresSink{db: db, ctx: ctx}, nil
}

// Append inserts the batch within a single transaction.
func (s *PostgresSink) Append(records []scraper.ProductRecord) error {
	tx, err := s.db.Begin(s.ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(s.ctx)

	for _, rec := range records {
		_, err := tx.Exec(s.ctx, insertSnapshot,
			rec.TimestampISO, rec.SiteName, rec.ProductName, rec.SKU,
			rec.ProductURL, string(rec.Status), rec.PriceValue, rec.Currency,
			rec.RawPriceText, rec.SourceURL, rec.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot row: %w", err)
		}
	}
	return tx.Commit(s.ctx)
}

// Close releases the connection pool.
func (s *PostgresSink) Close() error {
	s.db.Close()
	return nil
}
