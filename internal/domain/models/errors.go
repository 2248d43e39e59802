package models

import "errors"

var (
	ErrInvalidTicker               = errors.New("invalid ticker symbol format")
	ErrInvalidHorizon              = errors.New("prediction_days must be at least 1")
	ErrTickerNotFound              = errors.New("ticker not found")
	ErrInsufficientHistory         = errors.New("not enough historical data to make a prediction")
	ErrInsufficientTrainingHistory = errors.New("not enough historical data to train a new model")
	ErrJournalUnavailable          = errors.New("forecast journal is not readable for the configured backend")
)

// TickerNotFoundError names the user's input, not any rewritten identifier.
type TickerNotFoundError struct {
	Input string
}

func (e *TickerNotFoundError) Error() string {
	return `"` + e.Input + `" was not found in the alias table or at the market data provider.`
}

func (e *TickerNotFoundError) Is(target error) bool { return target == ErrTickerNotFound }
