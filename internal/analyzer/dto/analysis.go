package dto

import (
	"time"

	"stock-whisperer/internal/entity"
)

// IndicatorResult is the evaluated outcome for one indicator. A nil Value
// means the indicator produced no data, which is not the same as zero.
type IndicatorResult struct {
	Value  *float64      `json:"value"`
	Score  float64       `json:"score"`
	Signal entity.Signal `json:"signal"`
}

// MetricScore is a display-oriented factor: a 0-100 normalized strength score
// with a human-readable description. It is produced only for indicators that
// yielded data.
type MetricScore struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"` // 0-100
	Description string  `json:"description"`
}

// StockAnalysis is the engine output for one ticker.
type StockAnalysis struct {
	Ticker         string                                      `json:"ticker"`
	Price          float64                                     `json:"price"`
	Score          float64                                     `json:"score"`
	Recommendation entity.Recommendation                       `json:"recommendation"`
	Results        map[entity.Indicator]IndicatorResult        `json:"results"`
	Factors        []MetricScore                               `json:"factors"`
	AnalyzedAt     time.Time                                   `json:"analyzed_at"`
}

// MacroSnapshot is the cached set of market-wide indicator values.
type MacroSnapshot struct {
	Values      map[entity.Indicator]*float64 `json:"values"`
	LastUpdated time.Time                     `json:"last_updated"`
}

// StreamDataAnalysisCompleted is the payload published to the analysis stream.
type StreamDataAnalysisCompleted struct {
	Ticker         string    `json:"ticker"`
	Score          float64   `json:"score"`
	Recommendation string    `json:"recommendation"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}
