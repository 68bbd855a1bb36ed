package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"kotvukai/internal/domain"
	custommiddleware "kotvukai/internal/middleware"
	"kotvukai/internal/utils"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	MarketHandler   *MarketHandler
	ChartHandler    *ChartHandler
	AnalysisHandler *AnalysisHandler
	ChatHandler     *ChatHandler
	SignalHandler   *SignalHandler
	PlanHandler     *PlanHandler
	HealthCheck     func(ctx context.Context) error
}

// skipPolling keeps high-frequency dashboard polling out of the request log
func skipPolling(c echo.Context) bool {
	if c.Request().Method != http.MethodGet {
		return false
	}
	path := c.Request().URL.Path
	switch {
	case path == "/health", path == "/api/chart", path == "/api/ticker24h":
		return true
	case strings.HasPrefix(path, "/api/ai/analyses"):
		return true
	}
	return false
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.RequestID())
	e.Use(custommiddleware.RequestLogger(skipPolling))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.Secure())

	e.GET("/health", func(c echo.Context) error {
		body := map[string]interface{}{
			"status":    "healthy",
			"service":   "kotvukai-api",
			"timestamp": utils.FormatDisplay(utils.Now()),
		}
		if config.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := config.HealthCheck(ctx); err != nil {
				body["status"] = "degraded"
				return ErrorResponse(c, http.StatusServiceUnavailable, "Storage unavailable", body)
			}
		}
		return SuccessResponse(c, body)
	})

	api := e.Group("/api")

	// Market data
	api.GET("/klines", config.MarketHandler.GetKlines)
	api.GET("/ticker24h", config.MarketHandler.GetTickers)
	api.GET("/fng", config.MarketHandler.GetFearGreed)
	api.GET("/symbols", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"symbols":    domain.SupportedSymbols,
			"timeframes": domain.SupportedTimeframes,
		})
	})

	// Chart
	chart := api.Group("/chart")
	{
		chart.GET("", config.ChartHandler.GetChart)
		chart.DELETE("", config.ChartHandler.Teardown)
		chart.PUT("/config", config.ChartHandler.Configure)
		chart.POST("/viewport", config.ChartHandler.Resize)
		chart.POST("/refresh", config.ChartHandler.Refresh)
	}

	// AI
	ai := api.Group("/ai")
	{
		ai.POST("/analyze", config.AnalysisHandler.Analyze)
		ai.POST("/analyze/:symbol/request", config.AnalysisHandler.RequestAnalysis)
		ai.GET("/analyses", config.AnalysisHandler.ListAnalyses)
		ai.DELETE("/analyses", config.AnalysisHandler.ResetAnalyses)
		ai.GET("/analyses/:symbol", config.AnalysisHandler.GetAnalysis)
		ai.POST("/chat", config.ChatHandler.Chat)
	}

	// Signals
	api.GET("/signals", config.SignalHandler.ListSignals)
	api.POST("/signals", config.SignalHandler.CreateSignal)

	api.GET("/plans", config.PlanHandler.ListPlans)
}
