package repository

import (
	"context"
	"errors"

	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/internal/entity"
)

// ErrNotFound is returned when a ticker is unknown to every data source.
var ErrNotFound = errors.New("ticker not found")

// AnalystConsensus is the normalized analyst view of a ticker.
type AnalystConsensus struct {
	Buy         int
	Hold        int
	Sell        int
	PriceTarget float64
}

// MarketDataRepository fetches per-ticker data from the live quotes,
// technical-indicators and reference providers. A nil value with a nil error
// means the provider had no data for the request.
type MarketDataRepository interface {
	Enabled() bool
	GetDailyBars(ctx context.Context, ticker string) ([]dto.AggBar, error)
	GetTechnicalIndicator(ctx context.Context, ticker, name string, window int) (*float64, error)
	GetQuarterlyFinancials(ctx context.Context, ticker string) ([]dto.FinancialReport, error)
	GetAnalystConsensus(ctx context.Context, ticker string) (*AnalystConsensus, error)
}

// MacroDataRepository fetches named macro series from the macro provider.
type MacroDataRepository interface {
	Enabled() bool
	GetLatest(ctx context.Context, seriesID string) (*float64, error)
	GetLatestChange(ctx context.Context, seriesID string) (*float64, error)
}

// NewsRepository produces an aggregate sentiment value in [-1, 1] for a ticker
// from recent news, plus the number of articles that contributed to it.
type NewsRepository interface {
	GetSentiment(ctx context.Context, ticker, name string) (*float64, int, error)
}

// FallbackRepository serves the local fallback dataset used when live fetches
// are unavailable. Get returns nil for tickers outside the fallback universe.
type FallbackRepository interface {
	Get(ticker string) *dto.StockSnapshot
}

// StockAnalysisRepository persists completed analyses.
type StockAnalysisRepository interface {
	Create(ctx context.Context, analysis *entity.StockAnalysis) error
	GetLatest(ctx context.Context, ticker string) (*entity.StockAnalysis, error)
	List(ctx context.Context, ticker string, limit int) ([]entity.StockAnalysis, error)
}
