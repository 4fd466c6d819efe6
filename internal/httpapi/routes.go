package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *API) registerRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"ok":        true,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	v1 := e.Group("/v1")
	v1.Use(a.auth.Middleware)
	v1.POST("/blobs", a.handler.CreateBlob)
	v1.GET("/blobs/:id", a.handler.GetBlob)
}
