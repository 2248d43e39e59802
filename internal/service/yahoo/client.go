package yahoo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockPredictor/internal/domain/models"
	applogger "StockPredictor/pkg/logger"
	"StockPredictor/pkg/util"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// BarFetcher pulls daily bars for one chart request.
type BarFetcher func(params *chart.Params) ([]*finance.ChartBar, error)

const defaultTimeout = 30 * time.Second

// Client is the Yahoo Finance chart provider.
type Client struct {
	fetch BarFetcher
	now   func() time.Time
	l     *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithFetcher replaces the chart call, mainly for tests.
func WithFetcher(f BarFetcher) Option {
	return func(c *Client) { c.fetch = f }
}

// WithClock sets the time source used to compute the history window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(l *applogger.Logger, opts ...Option) *Client {
	backend := finance.NewBackends(newHTTPClient(defaultTimeout)).YFin
	c := &Client{
		fetch: chartFetcher(chart.Client{B: backend}),
		now:   time.Now,
		l:     l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// History returns up to `years` of daily closes ending now. Unknown or delisted symbols
// yield an empty series and a nil error.
func (c *Client) History(ctx context.Context, symbol string, years int) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}
	if years < 1 {
		return models.PriceSeries{}, fmt.Errorf("history window must be at least one year, got %d", years)
	}

	end := c.now().UTC()
	start := end.AddDate(-years, 0, 0)
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	params.Context = &ctx

	began := time.Now()
	bars, err := c.fetch(params)
	if err != nil {
		if isNoData(err) {
			c.l.Debug("provider has no data",
				applogger.String("symbol", symbol),
				applogger.Error(err))
			return models.PriceSeries{Symbol: symbol}, nil
		}
		return models.PriceSeries{}, fmt.Errorf("fetch chart for %s: %w", symbol, err)
	}
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}

	points := make([]models.PricePoint, 0, len(bars))
	for _, bar := range bars {
		if bar == nil {
			continue
		}
		points = append(points, models.PricePoint{
			Date:  util.TruncateDay(time.Unix(int64(bar.Timestamp), 0)),
			Close: bar.Close.InexactFloat64(),
		})
	}

	c.l.Debug("history fetched",
		applogger.String("symbol", symbol),
		applogger.Int("years", years),
		applogger.Int("rows", len(points)),
		applogger.Duration("took", time.Since(began)))

	return models.NewPriceSeries(symbol, points), nil
}

func chartFetcher(cl chart.Client) BarFetcher {
	return func(params *chart.Params) ([]*finance.ChartBar, error) {
		iter := cl.Get(params)
		var bars []*finance.ChartBar
		for iter.Next() {
			bars = append(bars, iter.Bar())
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return bars, nil
	}
}

// chart endpoint messages meaning "this symbol has nothing to return"
var noDataDetails = []string{
	"no data found",
	"no results in chart response",
	"error response recieved from upstream api", // only a 404 gets this far, see statusTransport
}

// isNoData reports whether err means the symbol is unknown or has no bars, as opposed to
// the provider itself failing.
func isNoData(err error) bool {
	if errors.Is(err, ErrProviderUnavailable) {
		return false
	}
	var yerr *finance.YfinError
	if errors.As(err, &yerr) {
		return strings.EqualFold(yerr.Code, "Not Found") ||
			strings.Contains(strings.ToLower(yerr.Description), "no data found")
	}
	msg := strings.ToLower(err.Error())
	for _, detail := range noDataDetails {
		if strings.Contains(msg, detail) {
			return true
		}
	}
	return false
}
