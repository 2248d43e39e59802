package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/service/ratelimit"
	"StockPredictor/internal/usecase"
	xlogger "StockPredictor/pkg/logger"
	"StockPredictor/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictor struct {
	got     usecase.PredictParams
	out     *models.Forecast
	err     error
	records []*models.ForecastRecord
	limit   int
}

func (f *fakePredictor) Predict(_ context.Context, p usecase.PredictParams) (*models.Forecast, error) {
	f.got = p
	return f.out, f.err
}

func (f *fakePredictor) RecentForecasts(_ context.Context, ticker string, limit int) (string, []*models.ForecastRecord, error) {
	f.limit = limit
	if f.err != nil {
		return "", nil, f.err
	}
	return strings.ToUpper(ticker), f.records, nil
}

func newTestEcho(p Predictor, rl *ratelimit.Limiter) *echo.Echo {
	e := echo.New()
	NewForecastEchoHandler(xlogger.NewNop(), p, Status{AliasesLoaded: true}, rl).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func sampleForecast() *models.Forecast {
	d := func(day int) time.Time { return time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC) }
	return &models.Forecast{
		Input:       "AAPL",
		Identifier:  "AAPL",
		Predictions: []float64{2.675, 102.1},
		History: models.PriceSeries{Symbol: "AAPL", Points: []models.PricePoint{
			{Date: d(2), Close: 99.5},
			{Date: d(5), Close: -1},
			{Date: d(6), Close: 100.25},
		}},
	}
}

func TestPredictSuccess(t *testing.T) {
	p := &fakePredictor{out: sampleForecast()}
	rec := do(newTestEcho(p, nil), http.MethodPost, "/predict", `{"ticker":"aapl","prediction_days":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"2.67", "102.10"}, body.Predictions)
	assert.Equal(t, []string{"2026-01-02", "2026-01-06"}, body.HistoricalData.Dates)
	assert.Equal(t, []float64{99.5, 100.25}, body.HistoricalData.Prices)
	assert.Equal(t, usecase.PredictParams{Ticker: "aapl", Days: 2}, p.got)
}

func TestPredictDefaultsToOneDay(t *testing.T) {
	p := &fakePredictor{out: sampleForecast()}
	rec := do(newTestEcho(p, nil), http.MethodPost, "/predict", `{"ticker":"AAPL"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, p.got.Days)
}

func TestPredictValidation(t *testing.T) {
	e := newTestEcho(&fakePredictor{out: sampleForecast()}, nil)

	rec := do(e, http.MethodPost, "/predict", `{"prediction_days":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ticker is required", errorOf(t, rec))

	rec = do(e, http.MethodPost, "/predict", `{"ticker":"AAPL","prediction_days":366}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/predict", `{"ticker":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, errorOf(t, rec))
}

func TestPredictErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: %q", models.ErrInvalidTicker, "M&M"), http.StatusBadRequest, "Ticker contains invalid characters."},
		{&models.TickerNotFoundError{Input: "ZZZNOPE"}, http.StatusNotFound,
			`"ZZZNOPE" was not found in the alias table or at the market data provider.`},
		{fmt.Errorf("%w: x", models.ErrInsufficientHistory), http.StatusBadRequest,
			`Not enough historical data for "ZZZNOPE" to make a prediction.`},
		{fmt.Errorf("%w: x", models.ErrInsufficientTrainingHistory), http.StatusBadRequest,
			`Not enough historical data for "ZZZNOPE" to train a new model.`},
		{errors.New("disk full"), http.StatusInternalServerError, "An error occurred: disk full"},
	}

	for _, tc := range cases {
		e := newTestEcho(&fakePredictor{err: tc.err}, nil)
		rec := do(e, http.MethodPost, "/predict", `{"ticker":"zzznope"}`)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.msg, errorOf(t, rec))
	}
}

func TestPredictRateLimited(t *testing.T) {
	e := newTestEcho(&fakePredictor{out: sampleForecast()}, ratelimit.New(1, 0.0001))

	rec := do(e, http.MethodPost, "/predict", `{"ticker":"AAPL"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, "/predict", `{"ticker":"AAPL"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limited", errorOf(t, rec))
}

func TestRecentForecasts(t *testing.T) {
	p := &fakePredictor{records: []*models.ForecastRecord{{Identifier: "AAPL", Horizon: 1}}}
	e := newTestEcho(p, nil)

	rec := do(e, http.MethodGet, "/forecasts?ticker=aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, p.limit)

	var body models.RecentForecastsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AAPL", body.Identifier)
	assert.Len(t, body.Records, 1)

	rec = do(e, http.MethodGet, "/forecasts?ticker=aapl&limit=501", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(newTestEcho(&fakePredictor{err: models.ErrJournalUnavailable}, nil), http.MethodGet, "/forecasts?ticker=aapl", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(newTestEcho(&fakePredictor{}, nil), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","aliases_loaded":true,"journal":"none"}`, rec.Body.String())
}

type journalStorage struct {
	healthErr error
}

func (s *journalStorage) Store(context.Context, *models.ForecastRecord) error { return nil }
func (s *journalStorage) Recent(context.Context, string, int) ([]*models.ForecastRecord, error) {
	return nil, nil
}
func (s *journalStorage) Health(context.Context) error { return s.healthErr }
func (s *journalStorage) Close() error                 { return nil }

func healthEcho(storage *journalStorage) *echo.Echo {
	recorder := usecase.NewForecastRecorder(nil, storage,
		metrics.NewWithRegistry(prometheus.NewRegistry()), usecase.BackendClickHouse)
	e := echo.New()
	NewForecastEchoHandler(xlogger.NewNop(), &fakePredictor{}, Status{AliasesLoaded: true, Journal: recorder}, nil).RegisterRoutes(e)
	return e
}

func TestHealthChecksJournal(t *testing.T) {
	rec := do(healthEcho(&journalStorage{}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","aliases_loaded":true,"journal":"clickhouse"}`, rec.Body.String())

	rec = do(healthEcho(&journalStorage{healthErr: errors.New("connection refused")}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t,
		`{"status":"degraded","aliases_loaded":true,"journal":"clickhouse","journal_error":"connection refused"}`,
		rec.Body.String())
}

func TestPredictionDaysBounds(t *testing.T) {
	cases := []struct {
		body   string
		status int
		days   int
		msg    string
	}{
		// zero is indistinguishable from an absent field and takes the default
		{`{"ticker":"AAPL","prediction_days":0}`, http.StatusOK, 1, ""},
		{`{"ticker":"AAPL","prediction_days":365}`, http.StatusOK, 365, ""},
		{`{"ticker":"AAPL","prediction_days":366}`, http.StatusBadRequest, 0, "prediction_days must be at most 365"},
		{`{"ticker":"AAPL","prediction_days":-1}`, http.StatusBadRequest, 0, "prediction_days must be at least 1"},
	}
	for _, tc := range cases {
		p := &fakePredictor{out: sampleForecast()}
		rec := do(newTestEcho(p, nil), http.MethodPost, "/predict", tc.body)
		require.Equal(t, tc.status, rec.Code, tc.body)
		if tc.status == http.StatusOK {
			assert.Equal(t, tc.days, p.got.Days, tc.body)
			continue
		}
		assert.Equal(t, tc.msg, errorOf(t, rec), tc.body)
		assert.Zero(t, p.got.Days, "rejected requests never reach the use case")
	}
}
