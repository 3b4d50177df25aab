package service

import (
	"context"
	"math"
	"sync"
	"time"

	"stock-whisperer/internal/analyzer/config"
	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/internal/analyzer/repository"
	"stock-whisperer/internal/entity"
	"stock-whisperer/pkg/logger"
	"stock-whisperer/pkg/utils"
)

// Macro series identifiers at the provider.
const (
	seriesIndexComposite   = "SP500"
	seriesBondYield10Y     = "DGS10"
	seriesInflationYoY     = "CPIYOY"
	seriesUnemploymentRate = "UNRATE"
	seriesConsumerSpending = "PCEMOM"
	seriesConsumerSent     = "UMCSENT"
	seriesFedFundsRate     = "FEDFUNDS"
	seriesVolatilityIndex  = "VIXCLS"
	seriesGDPGrowth        = "A191RL1Q225SBEA"
)

// MacroCacheService owns the process-lifetime cache of market-wide indicator
// values shared across all stock analyses.
type MacroCacheService interface {
	// UpdateExternalData refreshes the cache when it is stale or when force
	// is set. Concurrent callers during an in-flight refresh observe the
	// pre-refresh snapshot.
	UpdateExternalData(ctx context.Context, force bool)
	// Snapshot returns the current cached values.
	Snapshot() dto.MacroSnapshot
	// Get returns one cached value, nil when absent.
	Get(indicator entity.Indicator) *float64
}

type macroCacheService struct {
	cfg       *config.Config
	log       *logger.Logger
	macroRepo repository.MacroDataRepository

	mu          sync.RWMutex
	values      map[entity.Indicator]*float64
	lastUpdated time.Time
	refreshing  bool
}

// NewMacroCacheService creates an empty macro cache. The first analysis
// request populates it.
func NewMacroCacheService(cfg *config.Config, log *logger.Logger, macroRepo repository.MacroDataRepository) MacroCacheService {
	return &macroCacheService{
		cfg:       cfg,
		log:       log,
		macroRepo: macroRepo,
		values:    make(map[entity.Indicator]*float64),
	}
}

func (s *macroCacheService) refreshInterval() time.Duration {
	if s.cfg.Analyzer.MacroRefreshInterval > 0 {
		return s.cfg.Analyzer.MacroRefreshInterval
	}
	return 24 * time.Hour
}

func (s *macroCacheService) UpdateExternalData(ctx context.Context, force bool) {
	s.mu.Lock()
	if !force && !s.lastUpdated.IsZero() && time.Since(s.lastUpdated) < s.refreshInterval() {
		s.mu.Unlock()
		return
	}
	if s.refreshing {
		// A refresh is already in flight; this caller keeps the pre-refresh
		// snapshot.
		s.mu.Unlock()
		return
	}
	if !s.macroRepo.Enabled() {
		// No provider credentials configured; serve the default snapshot
		// without touching the network.
		if len(s.values) == 0 {
			s.values = defaultMacroValues()
			s.log.Info("Macro provider disabled, using default snapshot")
		}
		s.lastUpdated = time.Now()
		s.mu.Unlock()
		return
	}
	s.refreshing = true
	previous := s.values
	s.mu.Unlock()

	fresh := s.fetchAll(ctx, previous)

	s.mu.Lock()
	s.values = fresh
	s.lastUpdated = time.Now()
	s.refreshing = false
	s.mu.Unlock()
}

// fetchAll builds a complete replacement map. Each sub-fetch fails
// independently, carrying forward the previous value. When nothing could be
// fetched at all, the default snapshot is installed instead so downstream
// scoring never sees all-nil macro data indefinitely.
func (s *macroCacheService) fetchAll(ctx context.Context, previous map[entity.Indicator]*float64) (result map[entity.Indicator]*float64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Macro refresh panicked, installing default snapshot", logger.Field("panic", r))
			result = defaultMacroValues()
		}
	}()

	fresh := make(map[entity.Indicator]*float64, len(entity.MacroIndicators))
	fetched := 0

	latest := func(indicator entity.Indicator, seriesID string) {
		value, err := s.macroRepo.GetLatest(ctx, seriesID)
		if err != nil || value == nil {
			if err != nil {
				s.log.Warn("Failed to fetch macro series", logger.ErrorField(err), logger.StringField("series_id", seriesID))
			}
			fresh[indicator] = previous[indicator]
			return
		}
		fresh[indicator] = value
		fetched++
	}

	latest(entity.IndicatorBondYield10Y, seriesBondYield10Y)
	latest(entity.IndicatorInflationYoY, seriesInflationYoY)
	latest(entity.IndicatorUnemploymentRate, seriesUnemploymentRate)
	latest(entity.IndicatorConsumerSpendingMoM, seriesConsumerSpending)
	latest(entity.IndicatorConsumerSentiment, seriesConsumerSent)
	latest(entity.IndicatorFedFundsRate, seriesFedFundsRate)
	latest(entity.IndicatorVolatilityIndex, seriesVolatilityIndex)
	latest(entity.IndicatorGDPGrowth, seriesGDPGrowth)

	change, err := s.macroRepo.GetLatestChange(ctx, seriesIndexComposite)
	if err != nil || change == nil {
		if err != nil {
			s.log.Warn("Failed to fetch index composite change", logger.ErrorField(err))
		}
		fresh[entity.IndicatorIndexCompositeChange] = previous[entity.IndicatorIndexCompositeChange]
	} else {
		fresh[entity.IndicatorIndexCompositeChange] = change
		fetched++
	}

	// Market sentiment is derived from the volatility index rather than
	// fetched on its own.
	if vix := fresh[entity.IndicatorVolatilityIndex]; vix != nil {
		fresh[entity.IndicatorMarketSentiment] = utils.ToPointer(sentimentFromVIX(*vix))
	} else {
		fresh[entity.IndicatorMarketSentiment] = previous[entity.IndicatorMarketSentiment]
	}

	if fetched == 0 {
		s.log.Warn("Every macro fetch failed, installing default snapshot")
		return defaultMacroValues()
	}

	s.log.Info("Macro cache refreshed", logger.IntField("fetched", fetched))
	return fresh
}

func (s *macroCacheService) Snapshot() dto.MacroSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[entity.Indicator]*float64, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return dto.MacroSnapshot{Values: values, LastUpdated: s.lastUpdated}
}

func (s *macroCacheService) Get(indicator entity.Indicator) *float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[indicator]
}

// sentimentFromVIX recenters the volatility index onto a 0-100 sentiment
// scale: VIX 10 maps to 100, VIX 40 to 0.
func sentimentFromVIX(vix float64) float64 {
	sentiment := 100 - (vix-10)*(100.0/30.0)
	return math.Max(0, math.Min(100, sentiment))
}

// defaultMacroValues is the fixed snapshot installed when a refresh fails
// wholesale. Values approximate long-run historical levels.
func defaultMacroValues() map[entity.Indicator]*float64 {
	return map[entity.Indicator]*float64{
		entity.IndicatorMarketSentiment:      utils.ToPointer(70.0),
		entity.IndicatorIndexCompositeChange: utils.ToPointer(0.0),
		entity.IndicatorBondYield10Y:         utils.ToPointer(4.2),
		entity.IndicatorInflationYoY:         utils.ToPointer(3.2),
		entity.IndicatorUnemploymentRate:     utils.ToPointer(4.0),
		entity.IndicatorConsumerSpendingMoM:  utils.ToPointer(0.3),
		entity.IndicatorConsumerSentiment:    utils.ToPointer(78.0),
		entity.IndicatorFedFundsRate:         utils.ToPointer(4.5),
		entity.IndicatorVolatilityIndex:      utils.ToPointer(19.0),
		entity.IndicatorGDPGrowth:            utils.ToPointer(2.1),
	}
}
