package usecase

import (
	"context"
	"fmt"
	"strings"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/repository"
	applogger "StockPredictor/pkg/logger"
)

// Aliases maps upper-cased human names to instrument identifiers.
type Aliases interface {
	Lookup(name string) (string, bool)
}

// TickerValidator rejects identifiers that must never reach the provider.
type TickerValidator interface {
	Validate(identifier string) error
}

// Rewrite labels, also used as metric label values.
const (
	RewriteDirect = "direct"
	RewriteHyphen = "hyphen"
	RewriteNSE    = "ns"
	RewriteBSE    = "bo"
)

// Attempt is one provider lookup made while resolving.
type Attempt struct {
	Identifier string
	Rewrite    string
	Rows       int
}

// Resolution is a successfully resolved ticker with the history that proved it.
type Resolution struct {
	Input      string
	Identifier string
	Series     models.PriceSeries
	Attempts   []Attempt
}

type Resolver struct {
	aliases   Aliases
	validator TickerValidator
	market    repository.MarketData
	metrics   repository.Metrics
	l         *applogger.Logger
	years     int
}

func NewResolver(
	aliases Aliases,
	validator TickerValidator,
	market repository.MarketData,
	metrics repository.Metrics,
	l *applogger.Logger,
	historyYears int,
) *Resolver {
	return &Resolver{
		aliases:   aliases,
		validator: validator,
		market:    market,
		metrics:   metrics,
		l:         l,
		years:     historyYears,
	}
}

// Candidate upper-cases raw, substitutes an alias when one exists and validates the result.
// Surrounding whitespace is not stripped, so " AAPL " is rejected. It makes no network calls.
func (r *Resolver) Candidate(raw string) (input, candidate string, err error) {
	input = strings.ToUpper(raw)
	candidate = input
	if id, ok := r.aliases.Lookup(input); ok {
		candidate = id
	}
	if err := r.validator.Validate(candidate); err != nil {
		return input, candidate, fmt.Errorf("%w: %q", models.ErrInvalidTicker, candidate)
	}
	return input, candidate, nil
}

// Resolve finds the first identifier the provider has history for, in the order: the
// candidate itself, first '.' replaced by '-', then the .NS and .BO suffixes for bare symbols.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*Resolution, error) {
	input, candidate, err := r.Candidate(raw)
	if err != nil {
		r.metrics.RecordError("invalid_ticker")
		return nil, err
	}

	res := &Resolution{Input: input}
	for _, try := range rewrites(candidate) {
		series, err := r.market.History(ctx, try.Identifier, r.years)
		if err != nil {
			r.metrics.RecordError("market_data")
			return nil, fmt.Errorf("fetch history for %s: %w", try.Identifier, err)
		}

		found := !series.Empty()
		try.Rows = series.Len()
		res.Attempts = append(res.Attempts, try)
		r.metrics.RecordResolveAttempt(try.Rewrite, found)
		r.l.Debug("resolve attempt",
			applogger.String("input", input),
			applogger.String("identifier", try.Identifier),
			applogger.String("rewrite", try.Rewrite),
			applogger.Int("rows", try.Rows))

		if found {
			res.Identifier = try.Identifier
			res.Series = series
			r.l.Info("ticker resolved",
				applogger.String("input", input),
				applogger.String("identifier", try.Identifier),
				applogger.Int("attempts", len(res.Attempts)))
			return res, nil
		}
	}

	r.metrics.RecordError("not_found")
	return nil, &models.TickerNotFoundError{Input: input}
}

func rewrites(candidate string) []Attempt {
	out := []Attempt{{Identifier: candidate, Rewrite: RewriteDirect}}
	switch {
	case strings.Contains(candidate, "."):
		out = append(out, Attempt{Identifier: strings.Replace(candidate, ".", "-", 1), Rewrite: RewriteHyphen})
	case !strings.Contains(candidate, "-"):
		out = append(out,
			Attempt{Identifier: candidate + ".NS", Rewrite: RewriteNSE},
			Attempt{Identifier: candidate + ".BO", Rewrite: RewriteBSE})
	}
	return out
}
