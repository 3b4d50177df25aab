package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"stock-whisperer/internal/analyzer/config"
	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/pkg/gateway"
	"stock-whisperer/pkg/logger"
)

type macroDataRepository struct {
	cfg     *config.Config
	log     *logger.Logger
	gateway *gateway.Gateway
}

// NewMacroDataRepository creates a repository over the macro series provider.
func NewMacroDataRepository(cfg *config.Config, log *logger.Logger, gw *gateway.Gateway) MacroDataRepository {
	return &macroDataRepository{cfg: cfg, log: log, gateway: gw}
}

func (r *macroDataRepository) Enabled() bool {
	return r.cfg.Macro.APIKey != ""
}

// GetLatest returns the most recent observation of the named series, or nil
// when the series has no usable observations.
func (r *macroDataRepository) GetLatest(ctx context.Context, seriesID string) (*float64, error) {
	values, err := r.fetchObservations(ctx, seriesID, 1)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return &values[0], nil
}

// GetLatestChange returns the percent change between the two most recent
// observations of the named series.
func (r *macroDataRepository) GetLatestChange(ctx context.Context, seriesID string) (*float64, error) {
	values, err := r.fetchObservations(ctx, seriesID, 2)
	if err != nil || len(values) < 2 {
		return nil, err
	}
	if values[1] == 0 {
		return nil, nil
	}
	change := (values[0] - values[1]) / values[1] * 100
	return &change, nil
}

// fetchObservations returns up to count usable observations, most recent
// first. Missing periods reported as "." are skipped.
func (r *macroDataRepository) fetchObservations(ctx context.Context, seriesID string, count int) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/series/observations?series_id=%s&sort_order=desc&limit=%d&file_type=json&api_key=%s",
		r.cfg.Macro.BaseURL, url.QueryEscape(seriesID), count+5, url.QueryEscape(r.cfg.Macro.APIKey))

	body, err := r.gateway.Get(ctx, endpoint)
	if err != nil {
		var statusErr *gateway.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var resp dto.MacroSeriesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		r.log.WarnContext(ctx, "Failed to decode macro series response", logger.ErrorField(err), logger.StringField("series_id", seriesID))
		return nil, nil
	}

	values := make([]float64, 0, count)
	for _, obs := range resp.Observations {
		if len(values) >= count {
			break
		}
		if obs.Value == "" || obs.Value == "." {
			continue
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		values = append(values, value)
	}
	return values, nil
}
