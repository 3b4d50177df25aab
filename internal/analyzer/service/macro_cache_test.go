package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-whisperer/internal/analyzer/config"
	"stock-whisperer/internal/entity"
	"stock-whisperer/pkg/logger"
	"stock-whisperer/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMacroRepo struct {
	latestCalls int
	changeCalls int
	latest      map[string]*float64
	err         error
	disabled    bool
}

func (f *fakeMacroRepo) Enabled() bool { return !f.disabled }

func (f *fakeMacroRepo) GetLatest(_ context.Context, seriesID string) (*float64, error) {
	f.latestCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.latest[seriesID], nil
}

func (f *fakeMacroRepo) GetLatestChange(_ context.Context, _ string) (*float64, error) {
	f.changeCalls++
	if f.err != nil {
		return nil, f.err
	}
	return utils.ToPointer(0.8), nil
}

func newMacroCacheForTest(repo *fakeMacroRepo, interval time.Duration) MacroCacheService {
	cfg := &config.Config{}
	cfg.Analyzer.MacroRefreshInterval = interval
	return NewMacroCacheService(cfg, logger.NewNop(), repo)
}

func TestMacroCache_RefreshPopulatesAllIndicators(t *testing.T) {
	repo := &fakeMacroRepo{latest: map[string]*float64{
		"DGS10":           utils.ToPointer(3.8),
		"CPIYOY":          utils.ToPointer(2.9),
		"UNRATE":          utils.ToPointer(3.9),
		"PCEMOM":          utils.ToPointer(0.5),
		"UMCSENT":         utils.ToPointer(82.0),
		"FEDFUNDS":        utils.ToPointer(4.25),
		"VIXCLS":          utils.ToPointer(16.0),
		"A191RL1Q225SBEA": utils.ToPointer(2.4),
	}}
	cache := newMacroCacheForTest(repo, 24*time.Hour)

	cache.UpdateExternalData(context.Background(), false)

	snapshot := cache.Snapshot()
	assert.False(t, snapshot.LastUpdated.IsZero())
	for _, indicator := range entity.MacroIndicators {
		assert.NotNil(t, snapshot.Values[indicator], "indicator %s", indicator)
	}

	// Sentiment is derived from the volatility index, VIX 16 -> 80.
	sentiment := cache.Get(entity.IndicatorMarketSentiment)
	require.NotNil(t, sentiment)
	assert.InDelta(t, 80.0, *sentiment, 0.01)

	change := cache.Get(entity.IndicatorIndexCompositeChange)
	require.NotNil(t, change)
	assert.InDelta(t, 0.8, *change, 0.001)
}

func TestMacroCache_FreshCacheSkipsRefetch(t *testing.T) {
	repo := &fakeMacroRepo{latest: map[string]*float64{"VIXCLS": utils.ToPointer(20.0)}}
	cache := newMacroCacheForTest(repo, 24*time.Hour)

	cache.UpdateExternalData(context.Background(), false)
	callsAfterFirst := repo.latestCalls + repo.changeCalls

	cache.UpdateExternalData(context.Background(), false)
	cache.UpdateExternalData(context.Background(), false)

	assert.Equal(t, callsAfterFirst, repo.latestCalls+repo.changeCalls)
}

func TestMacroCache_ForceBypassesInterval(t *testing.T) {
	repo := &fakeMacroRepo{latest: map[string]*float64{"VIXCLS": utils.ToPointer(20.0)}}
	cache := newMacroCacheForTest(repo, 24*time.Hour)

	cache.UpdateExternalData(context.Background(), false)
	callsAfterFirst := repo.latestCalls + repo.changeCalls

	cache.UpdateExternalData(context.Background(), true)

	assert.Equal(t, 2*callsAfterFirst, repo.latestCalls+repo.changeCalls)
}

func TestMacroCache_TotalFailureInstallsDefaults(t *testing.T) {
	repo := &fakeMacroRepo{err: errors.New("provider down")}
	cache := newMacroCacheForTest(repo, 24*time.Hour)

	cache.UpdateExternalData(context.Background(), false)

	snapshot := cache.Snapshot()
	for _, indicator := range entity.MacroIndicators {
		assert.NotNil(t, snapshot.Values[indicator], "indicator %s", indicator)
	}

	sentiment := cache.Get(entity.IndicatorMarketSentiment)
	require.NotNil(t, sentiment)
	assert.Equal(t, 70.0, *sentiment)
}

func TestMacroCache_PartialFailureCarriesPreviousValue(t *testing.T) {
	repo := &fakeMacroRepo{latest: map[string]*float64{
		"VIXCLS": utils.ToPointer(18.0),
		"DGS10":  utils.ToPointer(4.1),
	}}
	cache := newMacroCacheForTest(repo, 24*time.Hour)

	cache.UpdateExternalData(context.Background(), false)
	firstYield := cache.Get(entity.IndicatorBondYield10Y)
	require.NotNil(t, firstYield)

	// Bond yield disappears on the next refresh; its cached value survives.
	delete(repo.latest, "DGS10")
	cache.UpdateExternalData(context.Background(), true)

	carried := cache.Get(entity.IndicatorBondYield10Y)
	require.NotNil(t, carried)
	assert.Equal(t, *firstYield, *carried)
}

func TestMacroCache_DisabledProviderNeverFetches(t *testing.T) {
	repo := &fakeMacroRepo{disabled: true, latest: map[string]*float64{"VIXCLS": utils.ToPointer(12.0)}}
	cache := newMacroCacheForTest(repo, 24*time.Hour)

	cache.UpdateExternalData(context.Background(), false)
	cache.UpdateExternalData(context.Background(), true)

	assert.Zero(t, repo.latestCalls)
	assert.Zero(t, repo.changeCalls)

	// The default snapshot stands in for live data.
	snapshot := cache.Snapshot()
	assert.False(t, snapshot.LastUpdated.IsZero())
	for _, indicator := range entity.MacroIndicators {
		assert.NotNil(t, snapshot.Values[indicator], "indicator %s", indicator)
	}
	sentiment := cache.Get(entity.IndicatorMarketSentiment)
	require.NotNil(t, sentiment)
	assert.Equal(t, 70.0, *sentiment)
}

func TestSentimentFromVIX(t *testing.T) {
	assert.InDelta(t, 100.0, sentimentFromVIX(10), 0.001)
	assert.InDelta(t, 50.0, sentimentFromVIX(25), 0.001)
	assert.InDelta(t, 0.0, sentimentFromVIX(40), 0.001)
	assert.Equal(t, 100.0, sentimentFromVIX(5))
	assert.Equal(t, 0.0, sentimentFromVIX(60))
}
