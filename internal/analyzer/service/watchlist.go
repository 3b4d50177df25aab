package service

import (
	"context"
	"fmt"
	"strings"

	"stock-whisperer/internal/analyzer/config"
	"stock-whisperer/pkg/logger"
	"stock-whisperer/pkg/telegram"
	"stock-whisperer/pkg/utils"

	"github.com/robfig/cron/v3"
)

// WatchlistService periodically re-analyzes the configured watchlist and
// keeps the macro cache warm on a daily schedule.
type WatchlistService interface {
	Start(ctx context.Context) error
	Stop()
	RunOnce(ctx context.Context)
}

// NewWatchlistService creates the watchlist scheduler.
func NewWatchlistService(cfg *config.Config, log *logger.Logger, engine RecommendationEngine, macroCache MacroCacheService, notifier telegram.Notifier) WatchlistService {
	return &watchlistService{
		cfg:        cfg,
		log:        log,
		engine:     engine,
		macroCache: macroCache,
		notifier:   notifier,
		cron:       cron.New(),
	}
}

type watchlistService struct {
	cfg        *config.Config
	log        *logger.Logger
	engine     RecommendationEngine
	macroCache MacroCacheService
	notifier   telegram.Notifier
	cron       *cron.Cron
}

// Start registers the cron entries and launches the runner.
func (s *watchlistService) Start(ctx context.Context) error {
	if expr := s.cfg.Analyzer.WatchlistCron; expr != "" && len(s.cfg.Analyzer.Watchlist) > 0 {
		if _, err := s.cron.AddFunc(expr, func() {
			utils.GoSafe(func() { s.RunOnce(ctx) })
		}); err != nil {
			return err
		}
		s.log.Info("Watchlist schedule registered",
			logger.StringField("cron", expr),
			logger.IntField("tickers", len(s.cfg.Analyzer.Watchlist)))
	}

	if expr := s.cfg.Analyzer.MacroRefreshCron; expr != "" {
		if _, err := s.cron.AddFunc(expr, func() {
			utils.GoSafe(func() { s.macroCache.UpdateExternalData(ctx, true) })
		}); err != nil {
			return err
		}
		s.log.Info("Macro refresh schedule registered", logger.StringField("cron", expr))
	}

	s.cron.Start()
	return nil
}

// Stop halts the runner, waiting for in-flight jobs to finish.
func (s *watchlistService) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce analyzes every watchlist ticker and sends a Telegram summary.
func (s *watchlistService) RunOnce(ctx context.Context) {
	results := make(map[string]string, len(s.cfg.Analyzer.Watchlist))
	var failures []string

	for _, ticker := range s.cfg.Analyzer.Watchlist {
		select {
		case <-ctx.Done():
			s.log.Info("Watchlist run cancelled")
			return
		default:
		}

		analysis, err := s.engine.Analyze(ctx, ticker)
		if err != nil {
			s.log.Error("Watchlist analysis failed", logger.ErrorField(err), logger.StringField("ticker", ticker))
			failures = append(failures, ticker)
			continue
		}
		results[analysis.Ticker] = string(analysis.Recommendation)
	}

	s.log.Info("Watchlist run completed",
		logger.IntField("analyzed", len(results)),
		logger.IntField("failed", len(failures)))

	if s.notifier == nil || (len(results) == 0 && len(failures) == 0) {
		return
	}

	var msg string
	if len(results) == 0 {
		// Every ticker failed; escalate instead of sending an empty summary.
		msg = telegram.FormatErrorAlertMessage(utils.TimeNowET(), "watchlist run",
			fmt.Sprintf("all %d tickers failed: %s", len(failures), strings.Join(failures, ", ")))
	} else {
		msg = telegram.FormatWatchlistSummaryMessage(results, failures)
	}
	if err := s.notifier.SendMessage(msg); err != nil {
		s.log.Error("Failed to send watchlist summary", logger.ErrorField(err))
	}
}
