package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain/repositories"
	"github.com/satriahrh/topicstream/internal/websocket"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, results repositories.ResultRepository, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:      "ok",
			Service:     "topicstream",
			Subscribers: hub.ClientCount(),
		})
	})

	// Latest transcript and related posts
	e.GET("/get_data", func(c echo.Context) error {
		return getData(c, results, logger)
	})

	v1 := e.Group("/api/v1")
	v1.GET("/latest", func(c echo.Context) error {
		return getData(c, results, logger)
	})
	v1.GET("/history", func(c echo.Context) error {
		return getHistory(c, results, logger)
	})

	// Live result push
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

func getData(c echo.Context, results repositories.ResultRepository, logger *zap.Logger) error {
	latest, err := results.Latest(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load latest result", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load latest result",
		})
	}

	return c.JSON(http.StatusOK, DataResponse{
		Transcript: latest.Transcript,
		Tweets:     latest.Tweets,
	})
}

func getHistory(c echo.Context, results repositories.ResultRepository, logger *zap.Logger) error {
	list, err := results.List(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load result history", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load result history",
		})
	}

	return c.JSON(http.StatusOK, HistoryResponse{
		Results: list,
		Count:   len(list),
	})
}
