package config

import (
	"time"

	"stock-whisperer/internal/entity"
	"stock-whisperer/pkg/config"
)

// Gateway holds throttling and retry settings for the outbound request gateway.
type Gateway struct {
	MaxRequestsPerWindow int           `mapstructure:"max_requests_per_window"`
	Window               time.Duration `mapstructure:"window"`
	InterRequestDelay    time.Duration `mapstructure:"inter_request_delay"`
	MaxRetries           int           `mapstructure:"max_retries"`
	DefaultRetryAfter    time.Duration `mapstructure:"default_retry_after"`
	InitialBackoff       time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff           time.Duration `mapstructure:"max_backoff"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
}

// MarketData holds the configuration for the quotes/technical/reference provider.
type MarketData struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	BarDays  int           `mapstructure:"bar_days"`
}

// Macro holds the configuration for the macro series provider.
type Macro struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// News holds the configuration for the news sentiment pipeline.
type News struct {
	Feeds       []string      `mapstructure:"feeds"`
	MaxArticles int           `mapstructure:"max_articles"`
	MaxAge      time.Duration `mapstructure:"max_age"`
}

// Analyzer holds engine-level settings.
type Analyzer struct {
	MacroRefreshInterval time.Duration                     `mapstructure:"macro_refresh_interval"`
	Watchlist            []string                          `mapstructure:"watchlist"`
	WatchlistCron        string                            `mapstructure:"watchlist_cron"`
	MacroRefreshCron     string                            `mapstructure:"macro_refresh_cron"`
	ResultCacheTTL       time.Duration                     `mapstructure:"result_cache_ttl"`
	Indicators           map[string]entity.IndicatorConfig `mapstructure:"indicators"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the analysis service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	API        config.API      `mapstructure:"api"`
	Gateway    Gateway         `mapstructure:"gateway"`
	MarketData MarketData      `mapstructure:"market_data"`
	Macro      Macro           `mapstructure:"macro"`
	News       News            `mapstructure:"news"`
	Analyzer   Analyzer        `mapstructure:"analyzer"`
	Telegram   Telegram        `mapstructure:"telegram"`
}

// Load loads the analyzer configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IndicatorConfigs returns the canonical scoring table with any configured
// overrides applied. Unknown indicator names in the config are kept out of the
// table; the evaluator treats them through its unknown-indicator fallback.
func (c *Config) IndicatorConfigs() map[entity.Indicator]entity.IndicatorConfig {
	table := entity.DefaultIndicatorConfigs()
	for name, override := range c.Analyzer.Indicators {
		ind := entity.Indicator(name)
		if _, ok := table[ind]; ok {
			table[ind] = override
		}
	}
	return table
}
