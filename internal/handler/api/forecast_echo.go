package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/service/ratelimit"
	"StockPredictor/internal/usecase"
	xhttp "StockPredictor/pkg/http"
	xlogger "StockPredictor/pkg/logger"
	"StockPredictor/pkg/util"

	"github.com/labstack/echo/v4"
)

// Predictor is the use case behind the forecast routes.
type Predictor interface {
	Predict(ctx context.Context, p usecase.PredictParams) (*models.Forecast, error)
	RecentForecasts(ctx context.Context, ticker string, limit int) (string, []*models.ForecastRecord, error)
}

// Journal is the forecast journal as seen by the health endpoint.
type Journal interface {
	Backend() string
	Health(ctx context.Context) error
}

// Status feeds the health endpoint. Journal may be nil when no journal is wired.
type Status struct {
	AliasesLoaded bool
	Journal       Journal
}

type HealthResponse struct {
	Status        string `json:"status"`
	AliasesLoaded bool   `json:"aliases_loaded"`
	Journal       string `json:"journal"`
	JournalError  string `json:"journal_error,omitempty"`
}

const healthTimeout = 2 * time.Second

// ForecastEchoHandler serves forecasts over Echo.
type ForecastEchoHandler struct {
	logger *xlogger.Logger
	uc     Predictor
	status Status
	rl     *ratelimit.Limiter
}

// NewForecastEchoHandler creates the handler. rl may be nil to disable rate limiting.
func NewForecastEchoHandler(logger *xlogger.Logger, uc Predictor, status Status, rl *ratelimit.Limiter) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, uc: uc, status: status, rl: rl}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/predict", h.Predict)
	e.GET("/forecasts", h.RecentForecasts)
	e.GET("/healthz", h.Health)
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	if h.rl != nil && !h.rl.Allow(c.RealIP()+":predict") {
		h.logger.Warn("predict rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	res, err := h.uc.Predict(c.Request().Context(), usecase.PredictParams{Ticker: req.Ticker, Days: req.PredictionDays})
	if err != nil {
		return h.fail(c, req.Ticker, err)
	}
	return xhttp.SuccessResponse(c, toPredictResponse(res))
}

func (h *ForecastEchoHandler) RecentForecasts(c echo.Context) error {
	req := &models.RecentForecastsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	id, records, err := h.uc.RecentForecasts(c.Request().Context(), req.Ticker, req.Limit)
	if err != nil {
		return h.fail(c, req.Ticker, err)
	}
	if records == nil {
		records = []*models.ForecastRecord{}
	}
	return xhttp.SuccessResponse(c, models.RecentForecastsResponse{Identifier: id, Records: records})
}

// Health pings the journal backend on every call. A failing backend turns the answer into a 503.
func (h *ForecastEchoHandler) Health(c echo.Context) error {
	resp := HealthResponse{Status: "ok", AliasesLoaded: h.status.AliasesLoaded, Journal: usecase.BackendNone}
	j := h.status.Journal
	if j == nil {
		return xhttp.SuccessResponse(c, resp)
	}
	resp.Journal = j.Backend()

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()
	if err := j.Health(ctx); err != nil {
		h.logger.Warn("journal health check failed", xlogger.String("journal", resp.Journal), xlogger.Error(err))
		resp.Status = "degraded"
		resp.JournalError = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *ForecastEchoHandler) fail(c echo.Context, ticker string, err error) error {
	appErr := toAppError(strings.ToUpper(ticker), err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("forecast request failed", xlogger.String("ticker", ticker), xlogger.Error(err))
	} else {
		h.logger.Info("forecast request rejected",
			xlogger.String("ticker", ticker),
			xlogger.Int("status", appErr.Status),
			xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(input string, err error) *xhttp.AppError {
	var notFound *models.TickerNotFoundError
	switch {
	case errors.As(err, &notFound):
		return xhttp.NotFoundError(notFound.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidTicker):
		return xhttp.BadRequestError("Ticker contains invalid characters.").WithError(err)
	case errors.Is(err, models.ErrInvalidHorizon):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientHistory):
		return xhttp.BadRequestError(fmt.Sprintf("Not enough historical data for %q to make a prediction.", input)).WithError(err)
	case errors.Is(err, models.ErrInsufficientTrainingHistory):
		return xhttp.BadRequestError(fmt.Sprintf("Not enough historical data for %q to train a new model.", input)).WithError(err)
	case errors.Is(err, models.ErrJournalUnavailable):
		return xhttp.NotFoundError("no forecast journal is configured for reading").WithError(err)
	default:
		return xhttp.InternalError("An error occurred: " + err.Error()).WithError(err)
	}
}

// toPredictResponse formats predictions to two decimals and lays the valid history out as aligned columns.
func toPredictResponse(f *models.Forecast) models.PredictResponse {
	preds := make([]string, len(f.Predictions))
	for i, p := range f.Predictions {
		preds[i] = models.FormatPrice(p)
	}

	points := f.History.ValidPoints()
	hist := models.HistoricalData{
		Dates:  make([]string, len(points)),
		Prices: make([]float64, len(points)),
	}
	for i, p := range points {
		hist.Dates[i] = util.FormatDay(p.Date)
		hist.Prices[i] = p.Close
	}
	return models.PredictResponse{Predictions: preds, HistoricalData: hist}
}
