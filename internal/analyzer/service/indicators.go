package service

import (
	"fmt"
	"math"

	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/internal/entity"
)

// --- indicator math over local price history ---

func closesFromHistory(history []dto.PricePoint) []float64 {
	closes := make([]float64, len(history))
	for i, p := range history {
		closes[i] = p.Price
	}
	return closes
}

// computeRSI is the standard Wilder RSI over the last period+1 closes.
func computeRSI(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	var gains, losses float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		rsi := 100.0
		return &rsi
	}

	rs := (gains / float64(period)) / (losses / float64(period))
	rsi := 100 - 100/(1+rs)
	return &rsi
}

func computeSMA(closes []float64, period int) *float64 {
	if len(closes) < period || period <= 0 {
		return nil
	}
	var sum float64
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	sma := sum / float64(period)
	return &sma
}

// movingAverageCrossValue condenses the 50/200-day moving average state into a
// discrete value in {-1, -0.5, 0, 0.5, 1}.
func movingAverageCrossValue(closes []float64) *float64 {
	shortMA := computeSMA(closes, 50)
	longMA := computeSMA(closes, 200)
	if shortMA == nil || longMA == nil {
		return nil
	}
	price := closes[len(closes)-1]

	var value float64
	switch {
	case *shortMA > *longMA && price > *shortMA:
		value = 1
	case *shortMA > *longMA:
		value = 0.5
	case *shortMA < *longMA && price < *shortMA:
		value = -1
	case *shortMA < *longMA:
		value = -0.5
	default:
		value = 0
	}
	return &value
}

// annualizedGrowthFromHistory approximates the annual growth rate in percent
// from the oldest and newest closes of the series.
func annualizedGrowthFromHistory(history []dto.PricePoint) *float64 {
	if len(history) < 2 {
		return nil
	}
	first := history[0].Price
	last := history[len(history)-1].Price
	if first <= 0 {
		return nil
	}
	growth := (last/first - 1) * 100 * 252 / float64(len(history))
	return &growth
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// --- factor construction ---

// factorForIndicator maps a raw indicator value onto the 0-100 display scale
// with its rationale text. Each indicator has its own normalization rule.
// Returns false for indicators that do not surface as display factors.
func factorForIndicator(indicator entity.Indicator, value float64) (dto.MetricScore, bool) {
	switch indicator {
	case entity.IndicatorRSI:
		// Re-centered around 50: oversold readings score high, overbought low.
		return dto.MetricScore{
			Name:        "RSI (14-day)",
			Value:       clamp(100-value, 0, 100),
			Description: fmt.Sprintf("Relative strength index at %.1f; readings below 30 suggest the stock is oversold, above 70 overbought.", value),
		}, true

	case entity.IndicatorPERatio:
		return dto.MetricScore{
			Name:        "P/E Ratio",
			Value:       peBucketScore(value),
			Description: fmt.Sprintf("Trading at %.1f times earnings; lower multiples leave more room for upside.", value),
		}, true

	case entity.IndicatorMovingAverageCross:
		return dto.MetricScore{
			Name:        "Moving Average Trend",
			Value:       maCrossScore(value),
			Description: maCrossDescription(value),
		}, true

	case entity.IndicatorAnnualGrowthRate:
		return dto.MetricScore{
			Name:        "Annual Growth",
			Value:       clamp(50+value*2, 0, 100),
			Description: fmt.Sprintf("Annual growth rate of %.1f%%.", value),
		}, true

	case entity.IndicatorAnalystRatingRatio:
		return dto.MetricScore{
			Name:        "Analyst Ratings",
			Value:       clamp(value*100, 0, 100),
			Description: fmt.Sprintf("%.0f%% of covering analysts rate the stock a buy.", value*100),
		}, true

	case entity.IndicatorAnalystPriceTarget:
		return dto.MetricScore{
			Name:        "Price Target Upside",
			Value:       clamp(50+value*2.5, 0, 100),
			Description: fmt.Sprintf("Consensus price target implies %.1f%% upside from the current price.", value),
		}, true

	case entity.IndicatorCEOStrength:
		return dto.MetricScore{
			Name:        "Leadership Strength",
			Value:       clamp(value, 0, 100),
			Description: fmt.Sprintf("Leadership strength rated %.0f out of 100.", value),
		}, true

	case entity.IndicatorEarningsBeats:
		return dto.MetricScore{
			Name:        "Earnings Track Record",
			Value:       clamp(value*25, 0, 100),
			Description: fmt.Sprintf("Beat earnings estimates in %.0f of the last 4 quarters.", value),
		}, true

	case entity.IndicatorForwardGuidance:
		return dto.MetricScore{
			Name:        "Forward Guidance",
			Value:       clamp(50+value*50, 0, 100),
			Description: guidanceDescription(value),
		}, true

	case entity.IndicatorNewsSentiment:
		return dto.MetricScore{
			Name:        "News Sentiment",
			Value:       clamp(50+value*50, 0, 100),
			Description: fmt.Sprintf("Recent news coverage scores %.2f on a -1 to 1 sentiment scale.", value),
		}, true

	case entity.IndicatorMarketSentiment:
		return dto.MetricScore{
			Name:        "Market Sentiment",
			Value:       clamp(value, 0, 100),
			Description: fmt.Sprintf("Broad market sentiment at %.0f out of 100, derived from the volatility index.", value),
		}, true

	case entity.IndicatorVolatilityIndex:
		return dto.MetricScore{
			Name:        "Market Volatility",
			Value:       clamp(100-(value-10)*(100.0/30.0), 0, 100),
			Description: fmt.Sprintf("Volatility index at %.1f; calmer markets favor holding risk assets.", value),
		}, true
	}

	return dto.MetricScore{}, false
}

// peBucketScore buckets the P/E multiple into display ranges.
func peBucketScore(pe float64) float64 {
	switch {
	case pe <= 0:
		return 20
	case pe <= 10:
		return 90
	case pe <= 18:
		return 75
	case pe <= 25:
		return 60
	case pe <= 35:
		return 45
	case pe <= 50:
		return 30
	default:
		return 15
	}
}

// maCrossScore maps the discrete cross value onto the display scale.
func maCrossScore(value float64) float64 {
	switch value {
	case 1:
		return 90
	case 0.5:
		return 70
	case -0.5:
		return 30
	case -1:
		return 10
	default:
		return 50
	}
}

func maCrossDescription(value float64) string {
	switch {
	case value >= 0.5:
		return "The 50-day moving average is above the 200-day, a bullish trend signal."
	case value <= -0.5:
		return "The 50-day moving average is below the 200-day, a bearish trend signal."
	default:
		return "Moving averages show no clear trend."
	}
}

func guidanceDescription(value float64) string {
	switch {
	case value >= 0.5:
		return "Management guidance points above consensus expectations."
	case value <= -0.5:
		return "Management guidance points below consensus expectations."
	default:
		return "Management guidance is roughly in line with expectations."
	}
}
