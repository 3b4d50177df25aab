package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendationForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  Recommendation
	}{
		{4.5, RecommendationStrongBuy},
		{3, RecommendationStrongBuy},
		{2.99, RecommendationBuy},
		{1, RecommendationBuy},
		{0.99, RecommendationHold},
		{0, RecommendationHold},
		{-0.99, RecommendationHold},
		{-1, RecommendationSell},
		{-2.99, RecommendationSell},
		{-3, RecommendationStrongSell},
		{-6, RecommendationStrongSell},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, RecommendationForScore(tc.score), "score %v", tc.score)
	}
}

func TestDefaultIndicatorConfigsCoverAllIndicators(t *testing.T) {
	table := DefaultIndicatorConfigs()

	for _, indicator := range TickerIndicators {
		cfg, ok := table[indicator]
		assert.True(t, ok, "missing config for %s", indicator)
		assert.Greater(t, cfg.Weight, 0.0, "weight for %s", indicator)
	}
	for _, indicator := range MacroIndicators {
		cfg, ok := table[indicator]
		assert.True(t, ok, "missing config for %s", indicator)
		assert.Greater(t, cfg.Weight, 0.0, "weight for %s", indicator)
	}
}
