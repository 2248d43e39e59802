package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"StockPredictor/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	topic  string
	key    []byte
	value  interface{}
	closed bool
}

func (p *recordingProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func (p *recordingProducer) Close() error {
	p.closed = true
	return nil
}

func TestKafkaPublisherKeysByIdentifier(t *testing.T) {
	prod := &recordingProducer{}
	pub := NewKafkaPublisher(prod, "stock.forecasts")

	rec := &models.ForecastRecord{Ticker: "RELIANCE", Identifier: "RELIANCE.NS", Horizon: 1, CreatedAt: time.Now()}
	require.NoError(t, pub.Publish(context.Background(), rec))

	assert.Equal(t, "stock.forecasts", prod.topic)
	assert.Equal(t, []byte("RELIANCE.NS"), prod.key)
	assert.Same(t, rec, prod.value)

	require.NoError(t, pub.Close())
	assert.True(t, prod.closed)
}

func TestForecastSchema(t *testing.T) {
	stmts := ForecastSchema("stockpredictor")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS stockpredictor", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE IF NOT EXISTS stockpredictor.forecasts"))
	assert.Contains(t, stmts[1], "ORDER BY (identifier, created_at)")
}

func TestPostgresSchema(t *testing.T) {
	stmts := PostgresSchema("forecasts")
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS forecasts ("))
	assert.Contains(t, stmts[0], "predictions DOUBLE PRECISION[]")
	assert.Contains(t, stmts[1], "ON forecasts (identifier, created_at DESC)")
}
