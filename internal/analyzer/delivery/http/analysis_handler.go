package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"stock-whisperer/internal/analyzer/repository"
	"stock-whisperer/internal/analyzer/service"
	"stock-whisperer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler handles HTTP requests for stock analyses.
type AnalysisHandler struct {
	engine       service.RecommendationEngine
	macroCache   service.MacroCacheService
	analysisRepo repository.StockAnalysisRepository
	logger       *logger.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(engine service.RecommendationEngine, macroCache service.MacroCacheService, analysisRepo repository.StockAnalysisRepository, logger *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{engine: engine, macroCache: macroCache, analysisRepo: analysisRepo, logger: logger}
}

// RegisterRoutes registers the analysis routes to the Echo group.
func (h *AnalysisHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/stocks/:ticker/analysis", h.AnalyzeStock)
	g.GET("/stocks/:ticker/analysis/latest", h.GetLatestAnalysis)
	g.GET("/stocks/:ticker/history", h.GetAnalysisHistory)
	g.GET("/macro", h.GetMacroSnapshot)
	g.POST("/macro/refresh", h.RefreshMacroData)
}

// normalizeTicker matches the canonical form analyses are persisted under.
func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// AnalyzeStock runs a fresh analysis for the requested ticker.
func (h *AnalysisHandler) AnalyzeStock(c echo.Context) error {
	ticker := c.Param("ticker")

	analysis, err := h.engine.Analyze(c.Request().Context(), ticker)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Unknown ticker"})
		}
		h.logger.Error("Failed to analyze stock", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to analyze stock"})
	}

	return c.JSON(http.StatusOK, analysis)
}

// GetLatestAnalysis returns the most recent persisted analysis without
// running a new one.
func (h *AnalysisHandler) GetLatestAnalysis(c echo.Context) error {
	if h.analysisRepo == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "History storage is not configured"})
	}

	ticker := normalizeTicker(c.Param("ticker"))

	analysis, err := h.analysisRepo.GetLatest(c.Request().Context(), ticker)
	if err != nil {
		h.logger.Error("Failed to load latest analysis", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load latest analysis"})
	}
	if analysis == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No analysis recorded for ticker"})
	}

	return c.JSON(http.StatusOK, analysis)
}

// GetAnalysisHistory returns persisted analyses for the ticker, newest first.
func (h *AnalysisHandler) GetAnalysisHistory(c echo.Context) error {
	if h.analysisRepo == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "History storage is not configured"})
	}

	ticker := normalizeTicker(c.Param("ticker"))

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	analyses, err := h.analysisRepo.List(c.Request().Context(), ticker, limit)
	if err != nil {
		h.logger.Error("Failed to list analyses", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list analyses"})
	}

	return c.JSON(http.StatusOK, analyses)
}

// GetMacroSnapshot returns the cached market-wide indicator values.
func (h *AnalysisHandler) GetMacroSnapshot(c echo.Context) error {
	h.macroCache.UpdateExternalData(c.Request().Context(), false)
	return c.JSON(http.StatusOK, h.macroCache.Snapshot())
}

// RefreshMacroData forces a macro refresh regardless of the cache age.
func (h *AnalysisHandler) RefreshMacroData(c echo.Context) error {
	h.macroCache.UpdateExternalData(c.Request().Context(), true)
	return c.JSON(http.StatusOK, h.macroCache.Snapshot())
}
