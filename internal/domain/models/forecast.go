package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Forecast is the outcome of one prediction request.
type Forecast struct {
	Input       string // upper-cased user input
	Identifier  string // resolved instrument identifier
	Predictions []float64
	History     PriceSeries
	Trained     bool // a model was trained while serving this request
}

// ForecastRecord is what the journal stores for every served forecast.
type ForecastRecord struct {
	ID          string    `json:"id"`
	Ticker      string    `json:"ticker"`
	Identifier  string    `json:"identifier"`
	Horizon     int       `json:"horizon"`
	Predictions []float64 `json:"predictions"`
	LastClose   float64   `json:"last_close"`
	LastDate    time.Time `json:"last_date"`
	Trained     bool      `json:"trained"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewForecastRecord snapshots a forecast for the journal.
func NewForecastRecord(f *Forecast, now time.Time) *ForecastRecord {
	r := &ForecastRecord{
		ID:          uuid.NewString(),
		Ticker:      f.Input,
		Identifier:  f.Identifier,
		Horizon:     len(f.Predictions),
		Predictions: f.Predictions,
		Trained:     f.Trained,
		CreatedAt:   now.UTC(),
	}
	if pts := f.History.ValidPoints(); len(pts) > 0 {
		last := pts[len(pts)-1]
		r.LastClose = last.Close
		r.LastDate = last.Date
	}
	return r
}

// FormatPrice renders p with two decimals, rounding the exact binary value (2.675 is
// stored as 2.67499... and renders as "2.67").
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
