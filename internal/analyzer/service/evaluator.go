package service

import (
	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/internal/entity"
)

// Evaluator maps raw indicator values to signed, weighted score contributions
// using a fixed configuration table.
type Evaluator struct {
	table map[entity.Indicator]entity.IndicatorConfig
}

// NewEvaluator creates an Evaluator over the given scoring table.
func NewEvaluator(table map[entity.Indicator]entity.IndicatorConfig) *Evaluator {
	return &Evaluator{table: table}
}

// Evaluate decides whether the value signals Buy, Sell or Neutral and returns
// the corresponding contribution. A nil value and an unconfigured indicator
// both contribute zero, under distinct labels.
//
// The buy condition is always checked before the sell condition; with a
// contradictory configuration where both fire, Buy wins. This ordering is a
// deliberate tie-break.
func (e *Evaluator) Evaluate(indicator entity.Indicator, value *float64) dto.IndicatorResult {
	if value == nil {
		return dto.IndicatorResult{Value: nil, Score: 0, Signal: entity.SignalNeutralNoData}
	}

	cfg, ok := e.table[indicator]
	if !ok {
		return dto.IndicatorResult{Value: value, Score: 0, Signal: entity.SignalNeutralUnknown}
	}

	v := *value

	buy := v >= cfg.BuyThreshold
	if cfg.BuyBelow {
		buy = v <= cfg.BuyThreshold
	}
	if buy {
		return dto.IndicatorResult{Value: value, Score: cfg.Weight, Signal: entity.SignalBuy}
	}

	sell := v <= cfg.SellThreshold
	if cfg.SellAbove {
		sell = v >= cfg.SellThreshold
	}
	if sell {
		return dto.IndicatorResult{Value: value, Score: -cfg.Weight, Signal: entity.SignalSell}
	}

	return dto.IndicatorResult{Value: value, Score: 0, Signal: entity.SignalNeutral}
}
