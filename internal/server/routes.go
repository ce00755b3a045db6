package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inquest-labs/inquest/backend/internal/server/middleware"
	"github.com/inquest-labs/inquest/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route, reports the database and broker connections
	e.GET("/health", func(c echo.Context) error {
		ac := c.(*middleware.AppContext)
		if err := ac.App.DBConn.Ping(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "database unavailable")
		}
		if ac.App.Queue.IsClosed() {
			return c.String(http.StatusServiceUnavailable, "queue unavailable")
		}
		return c.String(http.StatusOK, "OK")
	})

	apiRoutes := e.Group("/api", middleware.IdentityMiddleware())

	// Case question answering
	apiRoutes.POST("/cases/:id/answer", routes.PostAnswerHandler)
}
