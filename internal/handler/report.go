package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopsathi/shopsathi-api/internal/repository"
)

// ReportHandler serves the dashboard counters and the sales summary.
type ReportHandler struct {
	base
	Reports *repository.ReportRepo
	now     func() time.Time
}

func NewReportHandler(r *repository.ReportRepo, opts Options) *ReportHandler {
	return &ReportHandler{base: newBase(opts), Reports: r, now: time.Now}
}

// startOfDay is midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DashboardStats: GET /api/dashboard/stats.  "Today" is the server's local
// calendar day.
func (h *ReportHandler) DashboardStats(c echo.Context) error {
	scope, ctx, cancel := h.request(c)
	defer cancel()

	stats, err := h.Reports.DashboardStats(ctx, scope, startOfDay(h.now()))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// SalesSummary: GET /api/reports/sales-summary, top sellers by quantity.
func (h *ReportHandler) SalesSummary(c echo.Context) error {
	scope, ctx, cancel := h.request(c)
	defer cancel()

	rows, err := h.Reports.SalesSummary(ctx, scope)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
