package entity

// Indicator identifies a single scored signal.
type Indicator string

// Per-ticker indicators.
const (
	IndicatorRSI                Indicator = "rsi"
	IndicatorPERatio            Indicator = "pe_ratio"
	IndicatorMovingAverageCross Indicator = "moving_average_cross"
	IndicatorAnnualGrowthRate   Indicator = "annual_growth_rate"
	IndicatorAnalystRatingRatio Indicator = "analyst_rating_ratio"
	IndicatorAnalystPriceTarget Indicator = "analyst_price_target"
	IndicatorCEOStrength        Indicator = "ceo_strength"
	IndicatorEarningsBeats      Indicator = "earnings_beats"
	IndicatorForwardGuidance    Indicator = "forward_guidance"
	IndicatorNewsSentiment      Indicator = "news_sentiment"
)

// Macro and market-wide indicators, shared across all analyses.
const (
	IndicatorMarketSentiment      Indicator = "market_sentiment"
	IndicatorIndexCompositeChange Indicator = "index_composite_change"
	IndicatorBondYield10Y         Indicator = "bond_yield_10y"
	IndicatorInflationYoY         Indicator = "inflation_yoy"
	IndicatorUnemploymentRate     Indicator = "unemployment_rate"
	IndicatorConsumerSpendingMoM  Indicator = "consumer_spending_mom"
	IndicatorConsumerSentiment    Indicator = "consumer_sentiment"
	IndicatorFedFundsRate         Indicator = "fed_funds_rate"
	IndicatorVolatilityIndex      Indicator = "volatility_index"
	IndicatorGDPGrowth            Indicator = "gdp_growth"
)

// TickerIndicators lists the per-ticker indicators in evaluation order.
var TickerIndicators = []Indicator{
	IndicatorRSI,
	IndicatorPERatio,
	IndicatorMovingAverageCross,
	IndicatorAnnualGrowthRate,
	IndicatorAnalystRatingRatio,
	IndicatorAnalystPriceTarget,
	IndicatorCEOStrength,
	IndicatorEarningsBeats,
	IndicatorForwardGuidance,
	IndicatorNewsSentiment,
}

// MacroIndicators lists the market-wide indicators in evaluation order.
var MacroIndicators = []Indicator{
	IndicatorMarketSentiment,
	IndicatorIndexCompositeChange,
	IndicatorBondYield10Y,
	IndicatorInflationYoY,
	IndicatorUnemploymentRate,
	IndicatorConsumerSpendingMoM,
	IndicatorConsumerSentiment,
	IndicatorFedFundsRate,
	IndicatorVolatilityIndex,
	IndicatorGDPGrowth,
}

// Signal is the per-indicator evaluation label. It is descriptive only and
// distinct from the final stock recommendation.
type Signal string

const (
	SignalBuy            Signal = "Buy"
	SignalSell           Signal = "Sell"
	SignalNeutral        Signal = "Neutral"
	SignalNeutralNoData  Signal = "Neutral (No Data)"
	SignalNeutralUnknown Signal = "Neutral (Unknown Indicator)"
)

// Recommendation is the five-level label derived from the aggregate score.
type Recommendation string

const (
	RecommendationStrongBuy  Recommendation = "Strong Buy"
	RecommendationBuy        Recommendation = "Buy"
	RecommendationHold       Recommendation = "Hold"
	RecommendationSell       Recommendation = "Sell"
	RecommendationStrongSell Recommendation = "Strong Sell"
)

// RecommendationForScore maps an aggregate score to its recommendation label.
// Interval boundaries are closed toward the stronger label: 3 is Strong Buy,
// 1 is Buy, -1 is Sell, -3 is Strong Sell.
func RecommendationForScore(score float64) Recommendation {
	switch {
	case score >= 3:
		return RecommendationStrongBuy
	case score >= 1:
		return RecommendationBuy
	case score > -1:
		return RecommendationHold
	case score > -3:
		return RecommendationSell
	default:
		return RecommendationStrongSell
	}
}

// IndicatorConfig holds the scoring weight and decision thresholds for one
// indicator. BuyBelow selects the direction of the buy comparison: when true,
// values at or below BuyThreshold signal Buy; when false, values at or above.
// SellAbove is the symmetric flag for the sell comparison.
type IndicatorConfig struct {
	Weight        float64 `mapstructure:"weight" json:"weight"`
	BuyThreshold  float64 `mapstructure:"buy_threshold" json:"buy_threshold"`
	SellThreshold float64 `mapstructure:"sell_threshold" json:"sell_threshold"`
	BuyBelow      bool    `mapstructure:"buy_below" json:"buy_below"`
	SellAbove     bool    `mapstructure:"sell_above" json:"sell_above"`
}

// DefaultIndicatorConfigs is the canonical scoring table. The values are
// hand-tuned illustrative constants carried over as-is; deployments can
// override individual entries through the analyzer configuration.
func DefaultIndicatorConfigs() map[Indicator]IndicatorConfig {
	return map[Indicator]IndicatorConfig{
		IndicatorRSI:                {Weight: 1.0, BuyThreshold: 30, SellThreshold: 70, BuyBelow: true, SellAbove: true},
		IndicatorPERatio:            {Weight: 1.0, BuyThreshold: 25, SellThreshold: 40, BuyBelow: true, SellAbove: true},
		IndicatorMovingAverageCross: {Weight: 1.0, BuyThreshold: 0.5, SellThreshold: -0.5, BuyBelow: false, SellAbove: false},
		IndicatorAnnualGrowthRate:   {Weight: 0.75, BuyThreshold: 15, SellThreshold: 0, BuyBelow: false, SellAbove: false},
		IndicatorAnalystRatingRatio: {Weight: 0.75, BuyThreshold: 0.6, SellThreshold: 0.25, BuyBelow: false, SellAbove: false},
		IndicatorAnalystPriceTarget: {Weight: 0.75, BuyThreshold: 10, SellThreshold: -5, BuyBelow: false, SellAbove: false},
		IndicatorCEOStrength:        {Weight: 0.5, BuyThreshold: 75, SellThreshold: 40, BuyBelow: false, SellAbove: false},
		IndicatorEarningsBeats:      {Weight: 0.5, BuyThreshold: 3, SellThreshold: 1, BuyBelow: false, SellAbove: false},
		IndicatorForwardGuidance:    {Weight: 0.5, BuyThreshold: 0.5, SellThreshold: -0.5, BuyBelow: false, SellAbove: false},
		IndicatorNewsSentiment:      {Weight: 0.75, BuyThreshold: 0.3, SellThreshold: -0.3, BuyBelow: false, SellAbove: false},

		IndicatorMarketSentiment:      {Weight: 0.5, BuyThreshold: 60, SellThreshold: 35, BuyBelow: false, SellAbove: false},
		IndicatorIndexCompositeChange: {Weight: 0.25, BuyThreshold: 0.5, SellThreshold: -0.5, BuyBelow: false, SellAbove: false},
		IndicatorBondYield10Y:         {Weight: 0.25, BuyThreshold: 3.0, SellThreshold: 4.5, BuyBelow: true, SellAbove: true},
		IndicatorInflationYoY:         {Weight: 0.25, BuyThreshold: 2.5, SellThreshold: 4.0, BuyBelow: true, SellAbove: true},
		IndicatorUnemploymentRate:     {Weight: 0.25, BuyThreshold: 4.0, SellThreshold: 5.5, BuyBelow: true, SellAbove: true},
		IndicatorConsumerSpendingMoM:  {Weight: 0.25, BuyThreshold: 0.4, SellThreshold: -0.2, BuyBelow: false, SellAbove: false},
		IndicatorConsumerSentiment:    {Weight: 0.25, BuyThreshold: 85, SellThreshold: 65, BuyBelow: false, SellAbove: false},
		IndicatorFedFundsRate:         {Weight: 0.25, BuyThreshold: 3.0, SellThreshold: 5.0, BuyBelow: true, SellAbove: true},
		IndicatorVolatilityIndex:      {Weight: 0.5, BuyThreshold: 15, SellThreshold: 28, BuyBelow: true, SellAbove: true},
		IndicatorGDPGrowth:            {Weight: 0.5, BuyThreshold: 2.5, SellThreshold: 0.5, BuyBelow: false, SellAbove: false},
	}
}
