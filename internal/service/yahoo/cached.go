package yahoo

import (
	"context"
	"errors"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/repository"
	"StockPredictor/pkg/cache"
	applogger "StockPredictor/pkg/logger"
	"StockPredictor/pkg/util"
)

type cachedPoint struct {
	Date  time.Time `json:"d"`
	Close float64   `json:"c"`
}

type cachedSeries struct {
	Symbol string        `json:"symbol"`
	Points []cachedPoint `json:"points"`
}

// CachedMarketData is a read-through cache in front of another MarketData.
type CachedMarketData struct {
	next  repository.MarketData
	cache cache.Service
	ttl   time.Duration
	now   func() time.Time
	l     *applogger.Logger
}

func NewCachedMarketData(next repository.MarketData, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedMarketData {
	return &CachedMarketData{next: next, cache: c, ttl: ttl, now: time.Now, l: l}
}

func (m *CachedMarketData) History(ctx context.Context, symbol string, years int) (models.PriceSeries, error) {
	key := cache.Key("history", symbol, years, util.FormatDay(m.now()))

	var hit cachedSeries
	err := m.cache.Get(ctx, key, &hit)
	if err == nil {
		return fromCached(hit), nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		m.l.Warn("market data cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	series, err := m.next.History(ctx, symbol, years)
	if err != nil {
		return series, err
	}
	if entry, ok := toCached(series); ok {
		if err := m.cache.Set(ctx, key, entry, m.ttl); err != nil {
			m.l.Warn("market data cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return series, nil
}

// toCached refuses empty series and series carrying unusable closes (NaN has no JSON form).
func toCached(s models.PriceSeries) (cachedSeries, bool) {
	if s.Empty() {
		return cachedSeries{}, false
	}
	out := cachedSeries{Symbol: s.Symbol, Points: make([]cachedPoint, 0, s.Len())}
	for _, p := range s.Points {
		if !p.Valid() {
			return cachedSeries{}, false
		}
		out.Points = append(out.Points, cachedPoint{Date: p.Date, Close: p.Close})
	}
	return out, true
}

func fromCached(c cachedSeries) models.PriceSeries {
	points := make([]models.PricePoint, len(c.Points))
	for i, p := range c.Points {
		points[i] = models.PricePoint{Date: p.Date.UTC(), Close: p.Close}
	}
	return models.PriceSeries{Symbol: c.Symbol, Points: points}
}
