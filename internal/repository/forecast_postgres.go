package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/repository"
	applogger "StockPredictor/pkg/logger"

	"github.com/lib/pq"
)

// PostgresSchema returns the DDL for the forecast journal table.
func PostgresSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id          UUID PRIMARY KEY,
    created_at  TIMESTAMPTZ NOT NULL,
    ticker      TEXT NOT NULL,
    identifier  TEXT NOT NULL,
    horizon     INTEGER NOT NULL,
    predictions DOUBLE PRECISION[] NOT NULL,
    last_close  DOUBLE PRECISION NOT NULL,
    last_date   DATE,
    trained     BOOLEAN NOT NULL
)`, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_identifier_created_at_idx ON %s (identifier, created_at DESC)", table, table),
	}
}

// PostgresStorage implements Storage for PostgreSQL.
type PostgresStorage struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewPostgresStorage opens dsn, creates the journal table if needed and returns the storage.
func NewPostgresStorage(ctx context.Context, dsn, table string, maxOpenConns int, l *applogger.Logger) (repository.Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range PostgresSchema(table) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
	}
	return &PostgresStorage{db: db, table: table, l: l}, nil
}

func (s *PostgresStorage) Store(ctx context.Context, r *models.ForecastRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, created_at, ticker, identifier, horizon, predictions, last_close, last_date, trained)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table)
	var lastDate interface{}
	if !r.LastDate.IsZero() {
		lastDate = r.LastDate
	}
	_, err := s.db.ExecContext(ctx, q,
		r.ID,
		r.CreatedAt,
		r.Ticker,
		r.Identifier,
		r.Horizon,
		pq.Array(r.Predictions),
		r.LastClose,
		lastDate,
		r.Trained,
	)
	if err != nil {
		return fmt.Errorf("insert forecast: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Recent(ctx context.Context, identifier string, limit int) ([]*models.ForecastRecord, error) {
	q := fmt.Sprintf(`SELECT id, created_at, ticker, identifier, horizon, predictions, last_close, last_date, trained
FROM %s WHERE identifier = $1 ORDER BY created_at DESC LIMIT $2`, s.table)
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, identifier, limit)
	if err != nil {
		return nil, fmt.Errorf("query forecasts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ForecastRecord, 0, limit)
	for rows.Next() {
		var (
			r        models.ForecastRecord
			preds    pq.Float64Array
			lastDate pq.NullTime
		)
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Ticker, &r.Identifier, &r.Horizon, &preds, &r.LastClose, &lastDate, &r.Trained); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		r.Predictions = []float64(preds)
		if lastDate.Valid {
			r.LastDate = lastDate.Time
		}
		r.CreatedAt = r.CreatedAt.UTC()
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.l.Debug("forecasts read",
		applogger.String("identifier", identifier),
		applogger.Int("rows", len(out)),
		applogger.Duration("took", time.Since(start)))
	return out, nil
}

func (s *PostgresStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
