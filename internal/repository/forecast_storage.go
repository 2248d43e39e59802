package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/repository"
	pkgch "StockPredictor/pkg/clickhouse"
	applogger "StockPredictor/pkg/logger"
)

// ForecastSchema returns the DDL for the forecast journal table.
func ForecastSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.forecasts (
    id          String,
    created_at  DateTime64(3, 'UTC'),
    ticker      String,
    identifier  LowCardinality(String),
    horizon     UInt16,
    predictions Array(Float64),
    last_close  Float64,
    last_date   Date,
    trained     UInt8
) ENGINE = MergeTree
ORDER BY (identifier, created_at)`, database),
	}
}

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

// NewClickHouseStorage creates the journal table if needed and returns the storage.
func NewClickHouseStorage(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (repository.Storage, error) {
	if err := ch.InitSchema(ctx, ForecastSchema(ch.Database())); err != nil {
		return nil, err
	}
	return &ClickHouseStorage{
		db:    ch.DB(),
		ch:    ch,
		table: ch.Database() + ".forecasts",
		l:     l,
	}, nil
}

func (s *ClickHouseStorage) Store(ctx context.Context, r *models.ForecastRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (id, created_at, ticker, identifier, horizon, predictions, last_close, last_date, trained) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	trained := uint8(0)
	if r.Trained {
		trained = 1
	}
	_, err := s.db.ExecContext(ctx, q,
		r.ID,
		r.CreatedAt,
		r.Ticker,
		r.Identifier,
		uint16(r.Horizon),
		r.Predictions,
		r.LastClose,
		r.LastDate,
		trained,
	)
	if err != nil {
		return fmt.Errorf("insert forecast: %w", err)
	}
	return nil
}

func (s *ClickHouseStorage) Recent(ctx context.Context, identifier string, limit int) ([]*models.ForecastRecord, error) {
	q := fmt.Sprintf("SELECT id, created_at, ticker, identifier, horizon, predictions, last_close, last_date, trained FROM %s WHERE identifier = ? ORDER BY created_at DESC LIMIT ?", s.table)
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, identifier, limit)
	if err != nil {
		return nil, fmt.Errorf("query forecasts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ForecastRecord, 0, limit)
	for rows.Next() {
		var (
			r       models.ForecastRecord
			horizon uint16
			trained uint8
		)
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Ticker, &r.Identifier, &horizon, &r.Predictions, &r.LastClose, &r.LastDate, &trained); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		r.Horizon = int(horizon)
		r.Trained = trained == 1
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

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return s.ch.Close()
}
