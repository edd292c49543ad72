package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is the plain liveness probe for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Root reports that the API is up and which environment it runs in.
func Root(env string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"message":     "ShopSathi API is running!",
			"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
			"environment": env,
		})
	}
}

// APIHealth: GET /api/health
func APIHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
