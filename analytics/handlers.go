package analytics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler serves the admin stats API.
type Handler struct {
	store *Store
	log   *zap.Logger
	now   func() time.Time
}

// NewHandler returns a Handler reading from store.
func NewHandler(store *Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log, now: time.Now}
}

// StatsResponse is the JSON body of the stats endpoint.
type StatsResponse struct {
	Stats      *Stats `json:"stats"`
	Period     string `json:"period"`
	PeriodDays int    `json:"periodDays"`
	Hourly     bool   `json:"hourly"`
}

// GetStats returns stats for ?period= (today, week, month, year) and the
// optional ?document= id.
func (h *Handler) GetStats(c echo.Context) error {
	period, days, hourly := parsePeriod(c.QueryParam("period"))
	from, to := calcTimeRange(h.now().UTC(), days, hourly)

	stats, err := h.store.GetStats(c.Request().Context(), c.QueryParam("document"), from, to, hourly)
	if err != nil {
		h.log.Error("analytics stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if hourly {
		stats.DailyViews = fillHourlyData(stats.DailyViews, from)
	}
	return c.JSON(http.StatusOK, StatsResponse{
		Stats:      stats,
		Period:     period,
		PeriodDays: days,
		Hourly:     hourly,
	})
}

// RegisterRoutes mounts the stats API on an authenticated admin group.
func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/analytics/api/stats", h.GetStats)
}

func parsePeriod(period string) (string, int, bool) {
	switch period {
	case "today":
		return period, 1, true
	case "month":
		return period, 30, false
	case "year":
		return period, 365, false
	default:
		return "week", 7, false
	}
}

// calcTimeRange returns [from, to) for the period ending at now.
func calcTimeRange(now time.Time, days int, hourly bool) (time.Time, time.Time) {
	if hourly {
		return now.Truncate(time.Hour).Add(-23 * time.Hour), now.Add(time.Second)
	}
	from := now.AddDate(0, 0, -days).Truncate(24 * time.Hour)
	to := now.Add(24 * time.Hour).Truncate(24 * time.Hour)
	return from, to
}

// fillHourlyData returns all 24 hour buckets starting at from, zero-filled.
func fillHourlyData(sparse []DailyView, from time.Time) []DailyView {
	byHour := make(map[string]int, len(sparse))
	for _, v := range sparse {
		byHour[v.Date] = v.Views
	}
	out := make([]DailyView, 24)
	for i := range out {
		label := fmt.Sprintf("%02d:00", from.Add(time.Duration(i)*time.Hour).Hour())
		out[i] = DailyView{Date: label, Views: byHour[label]}
	}
	return out
}
