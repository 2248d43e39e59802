package models

// Requests and responses for the forecast HTTP endpoints.

type PredictRequest struct {
	Ticker         string `json:"ticker" validate:"required"`
	PredictionDays int    `json:"prediction_days" default:"1" validate:"gte=1,lte=365"`
}

type HistoricalData struct {
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

type PredictResponse struct {
	Predictions    []string       `json:"predictions"`
	HistoricalData HistoricalData `json:"historicalData"`
}

type RecentForecastsRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}

type RecentForecastsResponse struct {
	Identifier string            `json:"identifier"`
	Records    []*ForecastRecord `json:"records"`
}
