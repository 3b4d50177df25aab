package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-whisperer/internal/analyzer/config"
	delivery "stock-whisperer/internal/analyzer/delivery/http"
	"stock-whisperer/internal/analyzer/repository"
	"stock-whisperer/internal/analyzer/service"
	"stock-whisperer/pkg/gateway"
	"stock-whisperer/pkg/logger"
	"stock-whisperer/pkg/postgres"
	"stock-whisperer/pkg/redis"
	"stock-whisperer/pkg/telegram"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the stock analysis service",
	Run:   runServe,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Analyzes a single ticker and prints the result",
	Args:  cobra.ExactArgs(1),
	Run:   runAnalyze,
}

// deps holds the wired components shared between serve and analyze.
type deps struct {
	cfg          *config.Config
	log          *logger.Logger
	gw           *gateway.Gateway
	engine       service.RecommendationEngine
	macroCache   service.MacroCacheService
	analysisRepo repository.StockAnalysisRepository
	watchlist    service.WatchlistService
	db           *postgres.DB
	redisClient  *redis.Client
}

func buildDeps(requireStorage bool) *deps {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	d := &deps{cfg: cfg, log: appLogger}

	if requireStorage {
		postgresCfg := postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}
		db, err := postgres.NewDB(postgresCfg)
		if err != nil {
			appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
		}
		d.db = db
		d.analysisRepo = repository.NewStockAnalysisRepository(db.DB)

		redisCfg := redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}
		redisClient, err := redis.NewClient(redisCfg)
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		d.redisClient = redisClient
	}

	d.gw = gateway.New(gateway.Config{
		Quota:             cfg.Gateway.MaxRequestsPerWindow,
		Window:            cfg.Gateway.Window,
		InterRequestDelay: cfg.Gateway.InterRequestDelay,
		MaxRetries:        cfg.Gateway.MaxRetries,
		DefaultRetryAfter: cfg.Gateway.DefaultRetryAfter,
		InitialBackoff:    cfg.Gateway.InitialBackoff,
		MaxBackoff:        cfg.Gateway.MaxBackoff,
		RequestTimeout:    cfg.Gateway.RequestTimeout,
	}, appLogger)

	marketDataRepo := repository.NewMarketDataRepository(cfg, appLogger, d.gw)
	macroRepo := repository.NewMacroDataRepository(cfg, appLogger, d.gw)
	newsRepo := repository.NewNewsRepository(cfg, appLogger, d.gw)
	fallbackRepo := repository.NewFallbackRepository()

	d.macroCache = service.NewMacroCacheService(cfg, appLogger, macroRepo)

	var notifier telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Error("Failed to initialize Telegram notifier", logger.ErrorField(err))
			notifier = nil
		}
	}

	var redisRaw *goredis.Client
	if d.redisClient != nil {
		redisRaw = d.redisClient.Client
	}

	d.engine = service.NewRecommendationEngine(cfg, appLogger, marketDataRepo, newsRepo, fallbackRepo, d.macroCache, d.analysisRepo, redisRaw, notifier)
	d.watchlist = service.NewWatchlistService(cfg, appLogger, d.engine, d.macroCache, notifier)
	return d
}

func (d *deps) close() {
	d.gw.Stop()
	if d.db != nil {
		if sqlDB, err := d.db.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	_ = d.log.Sync()
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := buildDeps(true)
	defer d.close()

	d.log.Info("Starting Analysis Service", logger.StringField("name", d.cfg.App.Name))

	// Warm the macro cache before serving traffic.
	d.macroCache.UpdateExternalData(ctx, false)

	if err := d.watchlist.Start(ctx); err != nil {
		d.log.Fatal("Failed to start watchlist scheduler", logger.ErrorField(err))
	}
	defer d.watchlist.Stop()

	e := echo.New()
	e.HideBanner = true

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	analysisHandler := delivery.NewAnalysisHandler(d.engine, d.macroCache, d.analysisRepo, d.log)
	apiV1 := e.Group("/api/v1")
	analysisHandler.RegisterRoutes(apiV1)

	go func() {
		addr := fmt.Sprintf(":%d", d.cfg.API.Port)
		d.log.Info("HTTP server starting", logger.StringField("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			d.log.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	d.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		d.log.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	d.log.Info("Server exiting")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := buildDeps(false)
	defer d.close()

	analysis, err := d.engine.Analyze(ctx, args[0])
	if err != nil {
		d.log.Fatal("Analysis failed", logger.ErrorField(err), logger.StringField("ticker", args[0]))
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		d.log.Fatal("Failed to encode analysis", logger.ErrorField(err))
	}
	fmt.Println(string(out))
}

func main() {
	rootCmd := &cobra.Command{Use: "analysis-service"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, analyzeCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing analysis-service CLI: %s\n", err)
		os.Exit(1)
	}
}
