package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jakangroup/catalogworker/internal/catalog"
)

// WarehouseSink upserts product snapshots into a Postgres table keyed by the
// dedup key. Rows for known products are refreshed in place; new products
// are inserted.
type WarehouseSink struct {
	pool  *pgxpool.Pool
	table string
}

// NewWarehouseSink connects to the warehouse and verifies the connection.
// The table must exist; schema management is out of scope.
func NewWarehouseSink(ctx context.Context, dsn, table string) (*WarehouseSink, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse warehouse dsn: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create warehouse pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}

	return &WarehouseSink{pool: pool, table: table}, nil
}

// Write implements Sink. All rows of one result set are upserted inside a
// single transaction so a partial batch never becomes visible.
func (s *WarehouseSink) Write(ctx context.Context, records []catalog.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (product_key, store_name, product_url, title, price, stock_status, ean, model, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (product_key) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			product_url = EXCLUDED.product_url,
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			stock_status = EXCLUDED.stock_status,
			ean = EXCLUDED.ean,
			model = EXCLUDED.model,
			scraped_at = EXCLUDED.scraped_at`,
		pgx.Identifier{s.table}.Sanitize(),
	)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(query,
				rec.Key, rec.Store, rec.URL, rec.Title, rec.Price,
				string(rec.Stock), rec.EAN, rec.Model, rec.ScrapedAt,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return &SinkError{Sink: "warehouse", Err: err}
	}

	return nil
}

// Close releases the connection pool.
func (s *WarehouseSink) Close() error {
	s.pool.Close()
	return nil
}
