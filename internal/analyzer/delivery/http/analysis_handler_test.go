package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/internal/analyzer/repository"
	"stock-whisperer/internal/entity"
	"stock-whisperer/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	analyses map[string]*dto.StockAnalysis
}

func (s *stubEngine) Analyze(_ context.Context, ticker string) (*dto.StockAnalysis, error) {
	analysis, ok := s.analyses[ticker]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return analysis, nil
}

func (s *stubEngine) AnalyzeSnapshot(_ context.Context, snapshot *dto.StockSnapshot) *dto.StockAnalysis {
	return s.analyses[snapshot.Ticker]
}

type stubMacroCache struct {
	updates int
	forced  int
}

func (s *stubMacroCache) UpdateExternalData(_ context.Context, force bool) {
	s.updates++
	if force {
		s.forced++
	}
}

func (s *stubMacroCache) Snapshot() dto.MacroSnapshot {
	return dto.MacroSnapshot{Values: map[entity.Indicator]*float64{}, LastUpdated: time.Now()}
}

func (s *stubMacroCache) Get(_ entity.Indicator) *float64 { return nil }

type stubAnalysisRepo struct {
	listed  []entity.StockAnalysis
	latest  *entity.StockAnalysis
	queried []string
}

func (s *stubAnalysisRepo) Create(_ context.Context, _ *entity.StockAnalysis) error { return nil }
func (s *stubAnalysisRepo) GetLatest(_ context.Context, ticker string) (*entity.StockAnalysis, error) {
	s.queried = append(s.queried, ticker)
	return s.latest, nil
}
func (s *stubAnalysisRepo) List(_ context.Context, ticker string, limit int) ([]entity.StockAnalysis, error) {
	s.queried = append(s.queried, ticker)
	if limit < len(s.listed) {
		return s.listed[:limit], nil
	}
	return s.listed, nil
}

func setupHandler(engine *stubEngine, macro *stubMacroCache, repo repository.StockAnalysisRepository) (*echo.Echo, *AnalysisHandler) {
	e := echo.New()
	h := NewAnalysisHandler(engine, macro, repo, logger.NewNop())
	h.RegisterRoutes(e.Group("/api/v1"))
	return e, h
}

func TestAnalyzeStock_OK(t *testing.T) {
	engine := &stubEngine{analyses: map[string]*dto.StockAnalysis{
		"AAPL": {Ticker: "AAPL", Score: 2.5, Recommendation: entity.RecommendationBuy},
	}}
	e, _ := setupHandler(engine, &stubMacroCache{}, &stubAnalysisRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL/analysis", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var analysis dto.StockAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, "AAPL", analysis.Ticker)
	assert.Equal(t, entity.RecommendationBuy, analysis.Recommendation)
}

func TestAnalyzeStock_UnknownTicker(t *testing.T) {
	e, _ := setupHandler(&stubEngine{analyses: map[string]*dto.StockAnalysis{}}, &stubMacroCache{}, &stubAnalysisRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/ZZZZ/analysis", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAnalysisHistory(t *testing.T) {
	repo := &stubAnalysisRepo{listed: []entity.StockAnalysis{
		{Ticker: "AAPL", Recommendation: "Buy"},
		{Ticker: "AAPL", Recommendation: "Hold"},
	}}
	e, _ := setupHandler(&stubEngine{}, &stubMacroCache{}, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL/history?limit=1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var analyses []entity.StockAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analyses))
	assert.Len(t, analyses, 1)
}

func TestGetLatestAnalysis(t *testing.T) {
	repo := &stubAnalysisRepo{latest: &entity.StockAnalysis{Ticker: "AAPL", Recommendation: "Buy"}}
	e, _ := setupHandler(&stubEngine{}, &stubMacroCache{}, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL/analysis/latest", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var analysis entity.StockAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, "AAPL", analysis.Ticker)
}

func TestGetLatestAnalysis_NoneRecorded(t *testing.T) {
	e, _ := setupHandler(&stubEngine{}, &stubMacroCache{}, &stubAnalysisRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL/analysis/latest", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryEndpoints_NormalizeTicker(t *testing.T) {
	repo := &stubAnalysisRepo{
		latest: &entity.StockAnalysis{Ticker: "AAPL", Recommendation: "Buy"},
		listed: []entity.StockAnalysis{{Ticker: "AAPL", Recommendation: "Buy"}},
	}
	e, _ := setupHandler(&stubEngine{}, &stubMacroCache{}, repo)

	// Analyses persist under the uppercased ticker; lookups match regardless
	// of the casing in the request path.
	for _, path := range []string{"/api/v1/stocks/aapl/analysis/latest", "/api/v1/stocks/aapl/history"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	require.Len(t, repo.queried, 2)
	assert.Equal(t, []string{"AAPL", "AAPL"}, repo.queried)
}

func TestGetAnalysisHistory_InvalidLimit(t *testing.T) {
	e, _ := setupHandler(&stubEngine{}, &stubMacroCache{}, &stubAnalysisRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL/history?limit=bogus", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAnalysisHistory_StorageNotConfigured(t *testing.T) {
	e, _ := setupHandler(&stubEngine{}, &stubMacroCache{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL/history", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefreshMacroData_Forces(t *testing.T) {
	macro := &stubMacroCache{}
	e, _ := setupHandler(&stubEngine{}, macro, &stubAnalysisRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/macro/refresh", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, macro.forced)
}

func TestGetMacroSnapshot_RefreshesLazily(t *testing.T) {
	macro := &stubMacroCache{}
	e, _ := setupHandler(&stubEngine{}, macro, &stubAnalysisRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/macro", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, macro.updates)
	assert.Equal(t, 0, macro.forced)
}
