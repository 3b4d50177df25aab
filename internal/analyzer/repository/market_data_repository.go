package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"stock-whisperer/internal/analyzer/config"
	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/pkg/gateway"
	"stock-whisperer/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

type marketDataRepository struct {
	cfg     *config.Config
	log     *logger.Logger
	gateway *gateway.Gateway
	cache   *gocache.Cache
}

// NewMarketDataRepository creates a repository over the quotes, technical and
// reference endpoints of the market data provider. All calls go through the
// shared gateway.
func NewMarketDataRepository(cfg *config.Config, log *logger.Logger, gw *gateway.Gateway) MarketDataRepository {
	ttl := cfg.MarketData.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &marketDataRepository{
		cfg:     cfg,
		log:     log,
		gateway: gw,
		cache:   gocache.New(ttl, 2*ttl),
	}
}

func (r *marketDataRepository) Enabled() bool {
	return r.cfg.MarketData.APIKey != ""
}

func (r *marketDataRepository) GetDailyBars(ctx context.Context, ticker string) ([]dto.AggBar, error) {
	cacheKey := "bars:" + ticker
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.([]dto.AggBar), nil
	}

	days := r.cfg.MarketData.BarDays
	if days <= 0 {
		days = 250
	}
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&apiKey=%s",
		r.cfg.MarketData.BaseURL, url.PathEscape(ticker),
		from.Format("2006-01-02"), to.Format("2006-01-02"),
		url.QueryEscape(r.cfg.MarketData.APIKey))

	body, err := r.fetch(ctx, endpoint)
	if err != nil || body == nil {
		return nil, err
	}

	var resp dto.AggsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		r.log.WarnContext(ctx, "Failed to decode aggregates response", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return nil, nil
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	r.cache.Set(cacheKey, resp.Results, gocache.DefaultExpiration)
	return resp.Results, nil
}

func (r *marketDataRepository) GetTechnicalIndicator(ctx context.Context, ticker, name string, window int) (*float64, error) {
	endpoint := fmt.Sprintf("%s/v1/indicators/%s/%s?timespan=day&window=%d&series_type=close&order=desc&limit=1&apiKey=%s",
		r.cfg.MarketData.BaseURL, url.PathEscape(name), url.PathEscape(ticker), window,
		url.QueryEscape(r.cfg.MarketData.APIKey))

	body, err := r.fetch(ctx, endpoint)
	if err != nil || body == nil {
		return nil, err
	}

	var resp dto.TechnicalResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		r.log.WarnContext(ctx, "Failed to decode technical indicator response", logger.ErrorField(err), logger.StringField("ticker", ticker), logger.StringField("indicator", name))
		return nil, nil
	}
	if len(resp.Results.Values) == 0 {
		return nil, nil
	}

	value := resp.Results.Values[0].Value
	return &value, nil
}

func (r *marketDataRepository) GetQuarterlyFinancials(ctx context.Context, ticker string) ([]dto.FinancialReport, error) {
	cacheKey := "financials:" + ticker
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.([]dto.FinancialReport), nil
	}

	endpoint := fmt.Sprintf("%s/vX/reference/financials?ticker=%s&timeframe=quarterly&order=desc&limit=8&apiKey=%s",
		r.cfg.MarketData.BaseURL, url.QueryEscape(ticker),
		url.QueryEscape(r.cfg.MarketData.APIKey))

	body, err := r.fetch(ctx, endpoint)
	if err != nil || body == nil {
		return nil, err
	}

	var resp dto.FinancialsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		r.log.WarnContext(ctx, "Failed to decode financials response", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return nil, nil
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	r.cache.Set(cacheKey, resp.Results, gocache.DefaultExpiration)
	return resp.Results, nil
}

func (r *marketDataRepository) GetAnalystConsensus(ctx context.Context, ticker string) (*AnalystConsensus, error) {
	endpoint := fmt.Sprintf("%s/v1/reference/ratings/%s?apiKey=%s",
		r.cfg.MarketData.BaseURL, url.PathEscape(ticker),
		url.QueryEscape(r.cfg.MarketData.APIKey))

	body, err := r.fetch(ctx, endpoint)
	if err != nil || body == nil {
		return nil, err
	}

	var resp dto.RatingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		r.log.WarnContext(ctx, "Failed to decode ratings response", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return nil, nil
	}

	return &AnalystConsensus{
		Buy:         resp.Results.Buy,
		Hold:        resp.Results.Hold,
		Sell:        resp.Results.Sell,
		PriceTarget: resp.Results.PriceTarget,
	}, nil
}

// fetch performs a throttled GET. A 404 is "no data", not an error.
func (r *marketDataRepository) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	body, err := r.gateway.Get(ctx, endpoint)
	if err != nil {
		var statusErr *gateway.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return body, nil
}
