package dto

// AggsResponse is the aggregates (daily bars) payload from the quotes provider.
type AggsResponse struct {
	Ticker       string   `json:"ticker"`
	ResultsCount int      `json:"resultsCount"`
	Results      []AggBar `json:"results"`
}

// AggBar is one OHLCV bar.
type AggBar struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"` // epoch millis
}

// TechnicalResponse is the named technical indicator series payload.
type TechnicalResponse struct {
	Results struct {
		Values []TechnicalValue `json:"values"`
	} `json:"results"`
}

// TechnicalValue is one point of an indicator series.
type TechnicalValue struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// FinancialsResponse is the quarterly financial statements payload.
type FinancialsResponse struct {
	Results []FinancialReport `json:"results"`
}

// FinancialReport is one quarterly report with the fields the engine reads.
type FinancialReport struct {
	FiscalPeriod string `json:"fiscal_period"`
	FiscalYear   string `json:"fiscal_year"`
	Financials   struct {
		IncomeStatement struct {
			BasicEarningsPerShare struct {
				Value float64 `json:"value"`
			} `json:"basic_earnings_per_share"`
			Revenues struct {
				Value float64 `json:"value"`
			} `json:"revenues"`
		} `json:"income_statement"`
	} `json:"financials"`
}

// RatingsResponse is the analyst consensus payload from the reference provider.
type RatingsResponse struct {
	Results struct {
		Buy         int     `json:"buy"`
		Hold        int     `json:"hold"`
		Sell        int     `json:"sell"`
		PriceTarget float64 `json:"price_target"`
	} `json:"results"`
}

// MacroSeriesResponse is the macro series payload, one observation per period.
type MacroSeriesResponse struct {
	Observations []MacroObservation `json:"observations"`
}

// MacroObservation is one dated value of a macro series. Value arrives as a
// string; missing periods are "." in the source data.
type MacroObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}
