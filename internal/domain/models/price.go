package models

import (
	"math"
	"sort"
	"time"
)

// DateLayout is the calendar-day format used on the wire.
const DateLayout = "2006-01-02"

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// Valid reports whether the close can be used as a model input.
func (p PricePoint) Valid() bool {
	return !math.IsNaN(p.Close) && !math.IsInf(p.Close, 0) && p.Close > 0
}

// PriceSeries is a chronologically ascending sequence of daily closes for one instrument.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// NewPriceSeries sorts points by date and drops duplicate calendar days (the last one wins).
func NewPriceSeries(symbol string, points []PricePoint) PriceSeries {
	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := make([]PricePoint, 0, len(sorted))
	for _, p := range sorted {
		if n := len(out); n > 0 && sameDay(out[n-1].Date, p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return PriceSeries{Symbol: symbol, Points: out}
}

// Empty reports whether the provider returned no rows at all.
func (s PriceSeries) Empty() bool { return len(s.Points) == 0 }

// Len returns the number of rows, valid or not.
func (s PriceSeries) Len() int { return len(s.Points) }

// ValidCloses returns the closes that pass PricePoint.Valid, in order.
func (s PriceSeries) ValidCloses() []float64 {
	out := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid() {
			out = append(out, p.Close)
		}
	}
	return out
}

// ValidPoints returns the rows with a usable close.
func (s PriceSeries) ValidPoints() []PricePoint {
	out := make([]PricePoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
