package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinepass/gateway/internal/analytics"
)

// AnalyticsHandler serves the daily revenue/bookings series maintained from
// pushed analytics events. Responses are cached upstream of this handler by
// the response-cache middleware.
type AnalyticsHandler struct {
	Recorder *analytics.Recorder
}

func NewAnalyticsHandler(rec *analytics.Recorder) *AnalyticsHandler {
	return &AnalyticsHandler{Recorder: rec}
}

// Daily returns every known day bucket sorted by date ascending.
func (h *AnalyticsHandler) Daily(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"days": h.Recorder.Snapshot()})
}
