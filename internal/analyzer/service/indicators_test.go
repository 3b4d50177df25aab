package service

import (
	"testing"

	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRSI(t *testing.T) {
	t.Run("insufficient history", func(t *testing.T) {
		assert.Nil(t, computeRSI([]float64{100, 101}, 14))
	})

	t.Run("all gains is 100", func(t *testing.T) {
		closes := make([]float64, 15)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		rsi := computeRSI(closes, 14)
		require.NotNil(t, rsi)
		assert.Equal(t, 100.0, *rsi)
	})

	t.Run("all losses near zero", func(t *testing.T) {
		closes := make([]float64, 15)
		for i := range closes {
			closes[i] = 100 - float64(i)
		}
		rsi := computeRSI(closes, 14)
		require.NotNil(t, rsi)
		assert.InDelta(t, 0.0, *rsi, 0.001)
	})

	t.Run("balanced moves near 50", func(t *testing.T) {
		closes := make([]float64, 15)
		for i := range closes {
			if i%2 == 0 {
				closes[i] = 100
			} else {
				closes[i] = 101
			}
		}
		rsi := computeRSI(closes, 14)
		require.NotNil(t, rsi)
		assert.InDelta(t, 50.0, *rsi, 1.0)
	})
}

func TestComputeSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	sma := computeSMA(closes, 5)
	require.NotNil(t, sma)
	assert.Equal(t, 3.0, *sma)

	tail := computeSMA(closes, 2)
	require.NotNil(t, tail)
	assert.Equal(t, 4.5, *tail)

	assert.Nil(t, computeSMA(closes, 6))
	assert.Nil(t, computeSMA(closes, 0))
}

func TestMovingAverageCrossValue(t *testing.T) {
	t.Run("insufficient history", func(t *testing.T) {
		assert.Nil(t, movingAverageCrossValue(make([]float64, 100)))
	})

	t.Run("uptrend with price above short MA", func(t *testing.T) {
		closes := make([]float64, 250)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		value := movingAverageCrossValue(closes)
		require.NotNil(t, value)
		assert.Equal(t, 1.0, *value)
	})

	t.Run("downtrend with price below short MA", func(t *testing.T) {
		closes := make([]float64, 250)
		for i := range closes {
			closes[i] = 400 - float64(i)
		}
		value := movingAverageCrossValue(closes)
		require.NotNil(t, value)
		assert.Equal(t, -1.0, *value)
	})
}

func TestAnnualizedGrowthFromHistory(t *testing.T) {
	assert.Nil(t, annualizedGrowthFromHistory(nil))
	assert.Nil(t, annualizedGrowthFromHistory([]dto.PricePoint{{Price: 100}}))

	// 252 points from 100 to 120 annualizes to roughly 20 percent.
	history := make([]dto.PricePoint, 252)
	for i := range history {
		history[i].Price = 100 + 20*float64(i)/251
	}
	growth := annualizedGrowthFromHistory(history)
	require.NotNil(t, growth)
	assert.InDelta(t, 20.0, *growth, 0.5)
}

func TestFactorForIndicator(t *testing.T) {
	t.Run("rsi inverts onto display scale", func(t *testing.T) {
		factor, ok := factorForIndicator(entity.IndicatorRSI, 25)
		require.True(t, ok)
		assert.Equal(t, "RSI (14-day)", factor.Name)
		assert.Equal(t, 75.0, factor.Value)
	})

	t.Run("pe ratio buckets", func(t *testing.T) {
		low, _ := factorForIndicator(entity.IndicatorPERatio, 8)
		high, _ := factorForIndicator(entity.IndicatorPERatio, 60)
		assert.Greater(t, low.Value, high.Value)
	})

	t.Run("non factor macro indicator", func(t *testing.T) {
		_, ok := factorForIndicator(entity.IndicatorBondYield10Y, 4.0)
		assert.False(t, ok)
	})

	t.Run("values stay on display scale", func(t *testing.T) {
		extremes := map[entity.Indicator]float64{
			entity.IndicatorRSI:                250,
			entity.IndicatorAnnualGrowthRate:   900,
			entity.IndicatorAnalystRatingRatio: 9,
			entity.IndicatorAnalystPriceTarget: -400,
			entity.IndicatorCEOStrength:        140,
			entity.IndicatorEarningsBeats:      40,
			entity.IndicatorForwardGuidance:    -8,
			entity.IndicatorNewsSentiment:      5,
			entity.IndicatorVolatilityIndex:    95,
		}
		for indicator, value := range extremes {
			factor, ok := factorForIndicator(indicator, value)
			require.True(t, ok, "indicator %s", indicator)
			assert.GreaterOrEqual(t, factor.Value, 0.0, "indicator %s", indicator)
			assert.LessOrEqual(t, factor.Value, 100.0, "indicator %s", indicator)
		}
	})
}
