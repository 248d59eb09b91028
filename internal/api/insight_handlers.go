package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

// GetRecentInsights generates (or returns a cached) insight covering the
// trailing N calendar days.
func GetRecentInsights(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		if days > 30 {
			days = 30
		}

		ins, err := app.Insights().RecentInsight(c.Request.Context(), user.ID, days)
		if err != nil {
			HandleTypedError(c, app.Logger(), err)
			return
		}

		HandleSuccess(c, app.Logger(), ins, insightMeta(ins))
	}
}

// GetDailyInsights generates (or returns a cached) insight for one day.
func GetDailyInsights(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		date, err := time.ParseInLocation("2006-01-02", c.Param("date"), app.Insights().Location())
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}

		ins, err := app.Insights().DailyInsight(c.Request.Context(), user.ID, date)
		if err != nil {
			HandleTypedError(c, app.Logger(), err)
			return
		}

		HandleSuccess(c, app.Logger(), ins, insightMeta(ins))
	}
}

func insightMeta(ins *internal.Insight) map[string]any {
	return map[string]any{
		"fingerprint":   ins.Fingerprint,
		"model_version": ins.ModelVersion,
		"generated_at":  ins.GeneratedAt,
		"truncated":     ins.Truncated,
	}
}
