package service

import (
	"testing"

	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/internal/entity"
	"stock-whisperer/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestEvaluator_NilValue(t *testing.T) {
	e := NewEvaluator(entity.DefaultIndicatorConfigs())

	result := e.Evaluate(entity.IndicatorRSI, nil)

	assert.Nil(t, result.Value)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, entity.SignalNeutralNoData, result.Signal)
}

func TestEvaluator_UnknownIndicator(t *testing.T) {
	e := NewEvaluator(entity.DefaultIndicatorConfigs())

	result := e.Evaluate(entity.Indicator("shoe_size"), utils.ToPointer(42.0))

	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, entity.SignalNeutralUnknown, result.Signal)
}

func TestEvaluator_BuyBelowIndicator(t *testing.T) {
	// RSI buys at or below 30 and sells at or above 70.
	e := NewEvaluator(entity.DefaultIndicatorConfigs())

	cases := []struct {
		name   string
		value  float64
		score  float64
		signal entity.Signal
	}{
		{"deep oversold", 12, 1.0, entity.SignalBuy},
		{"buy boundary inclusive", 30, 1.0, entity.SignalBuy},
		{"just above buy boundary", 30.01, 0, entity.SignalNeutral},
		{"neutral middle", 50, 0, entity.SignalNeutral},
		{"just below sell boundary", 69.99, 0, entity.SignalNeutral},
		{"sell boundary inclusive", 70, -1.0, entity.SignalSell},
		{"deep overbought", 91, -1.0, entity.SignalSell},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := e.Evaluate(entity.IndicatorRSI, &tc.value)
			assert.Equal(t, tc.score, result.Score)
			assert.Equal(t, tc.signal, result.Signal)
		})
	}
}

func TestEvaluator_BuyAboveIndicator(t *testing.T) {
	// Annual growth buys at or above 15 and sells at or below 0.
	e := NewEvaluator(entity.DefaultIndicatorConfigs())

	cases := []struct {
		name   string
		value  float64
		score  float64
		signal entity.Signal
	}{
		{"strong growth", 22, 0.75, entity.SignalBuy},
		{"buy boundary inclusive", 15, 0.75, entity.SignalBuy},
		{"modest growth", 7, 0, entity.SignalNeutral},
		{"sell boundary inclusive", 0, -0.75, entity.SignalSell},
		{"shrinking", -4, -0.75, entity.SignalSell},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := e.Evaluate(entity.IndicatorAnnualGrowthRate, &tc.value)
			assert.Equal(t, tc.score, result.Score)
			assert.Equal(t, tc.signal, result.Signal)
		})
	}
}

func TestEvaluator_BuyWinsOverContradictoryConfig(t *testing.T) {
	// An overlapping configuration where both conditions fire must resolve
	// to Buy.
	table := map[entity.Indicator]entity.IndicatorConfig{
		entity.IndicatorRSI: {Weight: 2.0, BuyThreshold: 50, SellThreshold: 40, BuyBelow: true, SellAbove: true},
	}
	e := NewEvaluator(table)

	result := e.Evaluate(entity.IndicatorRSI, utils.ToPointer(45.0))

	assert.Equal(t, entity.SignalBuy, result.Signal)
	assert.Equal(t, 2.0, result.Score)
}

func TestEvaluator_ValueCarriedThrough(t *testing.T) {
	e := NewEvaluator(entity.DefaultIndicatorConfigs())
	value := utils.ToPointer(55.0)

	result := e.Evaluate(entity.IndicatorRSI, value)

	assert.Equal(t, value, result.Value)
	assert.IsType(t, dto.IndicatorResult{}, result)
}
