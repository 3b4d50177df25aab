package dto

// PricePoint is one historical daily bar in a snapshot.
type PricePoint struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// AnalystRatings holds the analyst recommendation counts for a ticker.
type AnalystRatings struct {
	Buy  int `json:"buy"`
	Hold int `json:"hold"`
	Sell int `json:"sell"`
}

// EarningsResult is one quarterly earnings outcome.
type EarningsResult struct {
	ActualEPS    float64 `json:"actual_eps"`
	EstimatedEPS float64 `json:"estimated_eps"`
}

// NewsItem carries the pre-scored sentiment of one recent article.
type NewsItem struct {
	Sentiment float64 `json:"sentiment"` // -1 to 1
}

// StockSnapshot is the baseline input for an analysis. Optional fields feed
// the fallback computations used when a live provider fetch is unavailable.
type StockSnapshot struct {
	Ticker           string           `json:"ticker"`
	Name             string           `json:"name,omitempty"`
	Price            float64          `json:"price"`
	HistoricalPrices []PricePoint     `json:"historical_prices,omitempty"`
	AnalystRatings   *AnalystRatings  `json:"analyst_ratings,omitempty"`
	EarningsHistory  []EarningsResult `json:"earnings_history,omitempty"`
	RecentNews       []NewsItem       `json:"recent_news,omitempty"`
	GrowthRate       *float64         `json:"growth_rate,omitempty"`     // annual, percent
	CEORating        *float64         `json:"ceo_rating,omitempty"`      // 0-100
	RecentEarnings   *float64         `json:"recent_earnings,omitempty"` // latest annual EPS
	Guidance         *float64         `json:"guidance,omitempty"`        // -1 to 1
}
