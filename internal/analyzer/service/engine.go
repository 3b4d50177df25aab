package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"stock-whisperer/internal/analyzer/config"
	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/internal/analyzer/repository"
	"stock-whisperer/internal/entity"
	"stock-whisperer/pkg/common"
	"stock-whisperer/pkg/logger"
	"stock-whisperer/pkg/telegram"

	"github.com/redis/go-redis/v9"
)

// RecommendationEngine derives a five-level recommendation for a stock from
// its configured indicators.
type RecommendationEngine interface {
	// Analyze resolves a snapshot for the ticker (live data first, local
	// fallback otherwise) and analyzes it. Returns repository.ErrNotFound
	// when no data source knows the ticker.
	Analyze(ctx context.Context, ticker string) (*dto.StockAnalysis, error)
	// AnalyzeSnapshot scores the given snapshot. Individual indicator
	// failures contribute zero; the analysis itself never fails.
	AnalyzeSnapshot(ctx context.Context, snapshot *dto.StockSnapshot) *dto.StockAnalysis
}

type recommendationEngine struct {
	cfg          *config.Config
	log          *logger.Logger
	evaluator    *Evaluator
	marketData   repository.MarketDataRepository
	newsRepo     repository.NewsRepository
	fallbackRepo repository.FallbackRepository
	macroCache   MacroCacheService
	analysisRepo repository.StockAnalysisRepository
	redisClient  *redis.Client
	notifier     telegram.Notifier
}

// NewRecommendationEngine creates the engine. analysisRepo, redisClient and
// notifier are optional; when nil the corresponding side effects are skipped.
func NewRecommendationEngine(
	cfg *config.Config,
	log *logger.Logger,
	marketData repository.MarketDataRepository,
	newsRepo repository.NewsRepository,
	fallbackRepo repository.FallbackRepository,
	macroCache MacroCacheService,
	analysisRepo repository.StockAnalysisRepository,
	redisClient *redis.Client,
	notifier telegram.Notifier,
) RecommendationEngine {
	return &recommendationEngine{
		cfg:          cfg,
		log:          log,
		evaluator:    NewEvaluator(cfg.IndicatorConfigs()),
		marketData:   marketData,
		newsRepo:     newsRepo,
		fallbackRepo: fallbackRepo,
		macroCache:   macroCache,
		analysisRepo: analysisRepo,
		redisClient:  redisClient,
		notifier:     notifier,
	}
}

func (e *recommendationEngine) Analyze(ctx context.Context, ticker string) (*dto.StockAnalysis, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, repository.ErrNotFound
	}

	snapshot := e.resolveSnapshot(ctx, ticker)
	if snapshot == nil {
		return nil, repository.ErrNotFound
	}

	analysis := e.AnalyzeSnapshot(ctx, snapshot)

	e.persist(ctx, analysis)
	e.publish(ctx, analysis)
	e.notify(analysis)

	return analysis, nil
}

// resolveSnapshot builds the analysis input: live bars take precedence for
// price and history, the local fallback dataset fills in everything else.
func (e *recommendationEngine) resolveSnapshot(ctx context.Context, ticker string) *dto.StockSnapshot {
	snapshot := e.fallbackRepo.Get(ticker)

	if !e.marketData.Enabled() {
		return snapshot
	}

	bars, err := e.marketData.GetDailyBars(ctx, ticker)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to fetch live bars, using fallback snapshot", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return snapshot
	}
	if len(bars) == 0 {
		return snapshot
	}

	history := make([]dto.PricePoint, 0, len(bars))
	for _, bar := range bars {
		history = append(history, dto.PricePoint{
			Date:   time.UnixMilli(bar.Timestamp).Format("2006-01-02"),
			Price:  bar.Close,
			Volume: bar.Volume,
		})
	}

	if snapshot == nil {
		snapshot = &dto.StockSnapshot{Ticker: ticker}
	}
	snapshot.Price = history[len(history)-1].Price
	snapshot.HistoricalPrices = history
	return snapshot
}

func (e *recommendationEngine) AnalyzeSnapshot(ctx context.Context, snapshot *dto.StockSnapshot) *dto.StockAnalysis {
	e.macroCache.UpdateExternalData(ctx, false)

	values := e.fetchTickerValues(ctx, snapshot)

	analysis := &dto.StockAnalysis{
		Ticker:     snapshot.Ticker,
		Price:      snapshot.Price,
		Results:    make(map[entity.Indicator]dto.IndicatorResult),
		Factors:    []dto.MetricScore{},
		AnalyzedAt: time.Now(),
	}

	evaluate := func(indicator entity.Indicator, value *float64, withFactor bool) {
		result := e.evaluator.Evaluate(indicator, value)
		analysis.Results[indicator] = result
		analysis.Score += result.Score

		if withFactor && value != nil {
			if factor, ok := factorForIndicator(indicator, *value); ok {
				analysis.Factors = append(analysis.Factors, factor)
			}
		}
	}

	for _, indicator := range entity.TickerIndicators {
		evaluate(indicator, values[indicator], true)
	}

	macro := e.macroCache.Snapshot()
	for _, indicator := range entity.MacroIndicators {
		evaluate(indicator, macro.Values[indicator], true)
	}

	analysis.Recommendation = entity.RecommendationForScore(analysis.Score)

	e.log.InfoContext(ctx, "Stock analysis completed",
		logger.StringField("ticker", snapshot.Ticker),
		logger.Float64Field("score", analysis.Score),
		logger.StringField("recommendation", string(analysis.Recommendation)),
		logger.IntField("factors", len(analysis.Factors)))

	return analysis
}

// fetchTickerValues launches the per-ticker indicator fetches concurrently.
// Every fetch absorbs its own failures and reports nil for no data; network
// calls serialize through the shared gateway.
func (e *recommendationEngine) fetchTickerValues(ctx context.Context, snapshot *dto.StockSnapshot) map[entity.Indicator]*float64 {
	fetchers := map[entity.Indicator]func(context.Context, *dto.StockSnapshot) *float64{
		entity.IndicatorRSI:                e.fetchRSI,
		entity.IndicatorPERatio:            e.fetchPERatio,
		entity.IndicatorMovingAverageCross: e.fetchMovingAverageCross,
		entity.IndicatorAnnualGrowthRate:   e.fetchAnnualGrowthRate,
		entity.IndicatorAnalystRatingRatio: e.fetchAnalystRatingRatio,
		entity.IndicatorAnalystPriceTarget: e.fetchAnalystPriceTarget,
		entity.IndicatorCEOStrength:        e.fetchCEOStrength,
		entity.IndicatorEarningsBeats:      e.fetchEarningsBeats,
		entity.IndicatorForwardGuidance:    e.fetchForwardGuidance,
		entity.IndicatorNewsSentiment:      e.fetchNewsSentiment,
	}

	values := make(map[entity.Indicator]*float64, len(fetchers))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for indicator, fetch := range fetchers {
		wg.Add(1)
		go func(indicator entity.Indicator, fetch func(context.Context, *dto.StockSnapshot) *float64) {
			defer wg.Done()
			value := fetch(ctx, snapshot)
			mu.Lock()
			values[indicator] = value
			mu.Unlock()
		}(indicator, fetch)
	}
	wg.Wait()
	return values
}

func (e *recommendationEngine) fetchRSI(ctx context.Context, snapshot *dto.StockSnapshot) *float64 {
	if e.marketData.Enabled() {
		value, err := e.marketData.GetTechnicalIndicator(ctx, snapshot.Ticker, "rsi", 14)
		if err != nil {
			e.log.WarnContext(ctx, "Live RSI fetch failed, computing locally", logger.ErrorField(err), logger.StringField("ticker", snapshot.Ticker))
		} else if value != nil {
			return value
		}
	}
	return computeRSI(closesFromHistory(snapshot.HistoricalPrices), 14)
}

func (e *recommendationEngine) fetchPERatio(ctx context.Context, snapshot *dto.StockSnapshot) *float64 {
	if snapshot.Price <= 0 {
		return nil
	}

	if e.marketData.Enabled() {
		reports, err := e.marketData.GetQuarterlyFinancials(ctx, snapshot.Ticker)
		if err != nil {
			e.log.WarnContext(ctx, "Financials fetch failed", logger.ErrorField(err), logger.StringField("ticker", snapshot.Ticker))
		} else if len(reports) >= 4 {
			var ttmEPS float64
			for _, report := range reports[:4] {
				ttmEPS += report.Financials.IncomeStatement.BasicEarningsPerShare.Value
			}
			if ttmEPS > 0 {
				pe := snapshot.Price / ttmEPS
				return &pe
			}
		}
	}

	if snapshot.RecentEarnings != nil && *snapshot.RecentEarnings > 0 {
		pe := snapshot.Price / *snapshot.RecentEarnings
		return &pe
	}
	return nil
}

func (e *recommendationEngine) fetchMovingAverageCross(ctx context.Context, snapshot *dto.StockSnapshot) *float64 {
	if e.marketData.Enabled() && snapshot.Price > 0 {
		shortMA, errShort := e.marketData.GetTechnicalIndicator(ctx, snapshot.Ticker, "sma", 50)
		longMA, errLong := e.marketData.GetTechnicalIndicator(ctx, snapshot.Ticker, "sma", 200)
		if errShort == nil && errLong == nil && shortMA != nil && longMA != nil {
			var value float64
			switch {
			case *shortMA > *longMA && snapshot.Price > *shortMA:
				value = 1
			case *shortMA > *longMA:
				value = 0.5
			case *shortMA < *longMA && snapshot.Price < *shortMA:
				value = -1
			case *shortMA < *longMA:
				value = -0.5
			}
			return &value
		}
	}
	return movingAverageCrossValue(closesFromHistory(snapshot.HistoricalPrices))
}

func (e *recommendationEngine) fetchAnnualGrowthRate(ctx context.Context, snapshot *dto.StockSnapshot) *float64 {
	if e.marketData.Enabled() {
		reports, err := e.marketData.GetQuarterlyFinancials(ctx, snapshot.Ticker)
		if err == nil && len(reports) >= 5 {
			latest := reports[0].Financials.IncomeStatement.Revenues.Value
			yearAgo := reports[4].Financials.IncomeStatement.Revenues.Value
			if yearAgo > 0 {
				growth := (latest/yearAgo - 1) * 100
				return &growth
			}
		}
	}
	if snapshot.GrowthRate != nil {
		return snapshot.GrowthRate
	}
	return annualizedGrowthFromHistory(snapshot.HistoricalPrices)
}

func (e *recommendationEngine) fetchAnalystRatingRatio(ctx context.Context, snapshot *dto.StockSnapshot) *float64 {
	if e.marketData.Enabled() {
		consensus, err := e.marketData.GetAnalystConsensus(ctx, snapshot.Ticker)
		if err != nil {
			e.log.WarnContext(ctx, "Analyst consensus fetch failed", logger.ErrorField(err), logger.StringField("ticker", snapshot.Ticker))
		} else if consensus != nil {
			if total := consensus.Buy + consensus.Hold + consensus.Sell; total > 0 {
				ratio := float64(consensus.Buy) / float64(total)
				return &ratio
			}
		}
	}
	if r := snapshot.AnalystRatings; r != nil {
		if total := r.Buy + r.Hold + r.Sell; total > 0 {
			ratio := float64(r.Buy) / float64(total)
			return &ratio
		}
	}
	return nil
}

// fetchAnalystPriceTarget returns the implied upside percent against the
// snapshot price, which must already be resolved.
func (e *recommendationEngine) fetchAnalystPriceTarget(ctx context.Context, snapshot *dto.StockSnapshot) *float64 {
	if !e.marketData.Enabled() || snapshot.Price <= 0 {
		return nil
	}
	consensus, err := e.marketData.GetAnalystConsensus(ctx, snapshot.Ticker)
	if err != nil || consensus == nil || consensus.PriceTarget <= 0 {
		return nil
	}
	upside := (consensus.PriceTarget/snapshot.Price - 1) * 100
	return &upside
}

func (e *recommendationEngine) fetchCEOStrength(_ context.Context, snapshot *dto.StockSnapshot) *float64 {
	return snapshot.CEORating
}

func (e *recommendationEngine) fetchEarningsBeats(_ context.Context, snapshot *dto.StockSnapshot) *float64 {
	if len(snapshot.EarningsHistory) == 0 {
		return nil
	}
	history := snapshot.EarningsHistory
	if len(history) > 4 {
		history = history[len(history)-4:]
	}
	var beats float64
	for _, q := range history {
		if q.ActualEPS >= q.EstimatedEPS {
			beats++
		}
	}
	return &beats
}

func (e *recommendationEngine) fetchForwardGuidance(_ context.Context, snapshot *dto.StockSnapshot) *float64 {
	return snapshot.Guidance
}

func (e *recommendationEngine) fetchNewsSentiment(ctx context.Context, snapshot *dto.StockSnapshot) *float64 {
	if len(e.cfg.News.Feeds) > 0 {
		sentiment, articles, err := e.newsRepo.GetSentiment(ctx, snapshot.Ticker, snapshot.Name)
		if err != nil {
			e.log.WarnContext(ctx, "News sentiment fetch failed", logger.ErrorField(err), logger.StringField("ticker", snapshot.Ticker))
		} else if sentiment != nil && articles > 0 {
			return sentiment
		}
	}

	if len(snapshot.RecentNews) == 0 {
		return nil
	}
	var total float64
	for _, item := range snapshot.RecentNews {
		total += item.Sentiment
	}
	avg := total / float64(len(snapshot.RecentNews))
	return &avg
}

// --- side effects after a completed analysis ---

func (e *recommendationEngine) persist(ctx context.Context, analysis *dto.StockAnalysis) {
	if e.analysisRepo == nil {
		return
	}

	resultsJSON, err := json.Marshal(analysis.Results)
	if err != nil {
		e.log.ErrorContext(ctx, "Failed to marshal analysis results", logger.ErrorField(err))
		return
	}
	factorsJSON, err := json.Marshal(analysis.Factors)
	if err != nil {
		e.log.ErrorContext(ctx, "Failed to marshal analysis factors", logger.ErrorField(err))
		return
	}

	keyFactors := make([]string, 0, len(analysis.Factors))
	for _, factor := range analysis.Factors {
		keyFactors = append(keyFactors, factor.Name)
	}

	record := &entity.StockAnalysis{
		Ticker:         analysis.Ticker,
		Price:          analysis.Price,
		Score:          analysis.Score,
		Recommendation: string(analysis.Recommendation),
		Results:        resultsJSON,
		Factors:        factorsJSON,
		KeyFactors:     keyFactors,
	}
	if err := e.analysisRepo.Create(ctx, record); err != nil {
		e.log.ErrorContext(ctx, "Failed to persist stock analysis", logger.ErrorField(err), logger.StringField("ticker", analysis.Ticker))
	}
}

func (e *recommendationEngine) publish(ctx context.Context, analysis *dto.StockAnalysis) {
	if e.redisClient == nil {
		return
	}

	payload, err := json.Marshal(dto.StreamDataAnalysisCompleted{
		Ticker:         analysis.Ticker,
		Score:          analysis.Score,
		Recommendation: string(analysis.Recommendation),
		AnalyzedAt:     analysis.AnalyzedAt,
	})
	if err != nil {
		e.log.ErrorContext(ctx, "Failed to marshal stream payload", logger.ErrorField(err))
		return
	}

	err = e.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamAnalysisCompleted,
		MaxLen: e.cfg.Redis.StreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
	if err != nil {
		e.log.ErrorContext(ctx, "Failed to publish analysis to stream", logger.ErrorField(err), logger.StringField("ticker", analysis.Ticker))
	}

	if ttl := e.cfg.Analyzer.ResultCacheTTL; ttl > 0 {
		if full, err := json.Marshal(analysis); err == nil {
			key := fmt.Sprintf(common.RedisKeyLatestAnalysis, analysis.Ticker)
			if err := e.redisClient.Set(ctx, key, full, ttl).Err(); err != nil {
				e.log.WarnContext(ctx, "Failed to cache latest analysis", logger.ErrorField(err), logger.StringField("ticker", analysis.Ticker))
			}
		}
	}
}

func (e *recommendationEngine) notify(analysis *dto.StockAnalysis) {
	if e.notifier == nil {
		return
	}
	if analysis.Recommendation != entity.RecommendationStrongBuy && analysis.Recommendation != entity.RecommendationStrongSell {
		return
	}

	msg := telegram.FormatAnalysisAlertMessage(analysis.Ticker, string(analysis.Recommendation), analysis.Score, analysis.Price)
	if err := e.notifier.SendMessage(msg); err != nil {
		e.log.Error("Failed to send analysis alert", logger.ErrorField(err), logger.StringField("ticker", analysis.Ticker))
	}
}
