package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/service"
)

func PostSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var body service.SleepRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := service.ValidateSleepRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
			return
		}

		rec, err := service.CreateSleepRecord(c.Request.Context(), app.Metrics(), user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save sleep data")
			return
		}

		HandleCreated(c, app.Logger(), rec)
	}
}

func PostHeartRate(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var body service.HeartRateRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := service.ValidateHeartRateRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
			return
		}

		rec, err := service.CreateHeartRateRecord(c.Request.Context(), app.Metrics(), user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save heart rate data")
			return
		}

		HandleCreated(c, app.Logger(), rec)
	}
}

func PostWeight(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var body service.WeightRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := service.ValidateWeightRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
			return
		}

		rec, err := service.CreateWeightRecord(c.Request.Context(), app.Metrics(), user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save weight data")
			return
		}

		HandleCreated(c, app.Logger(), rec)
	}
}

// GetMetrics returns raw records of one type for the trailing N days.
func GetMetrics(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		metricType := internal.MetricType(c.Param("type"))
		if !metricType.Valid() {
			HandleError(c, app.Logger(), errors.New("unknown metric type"), http.StatusBadRequest, "Invalid metric type")
			return
		}

		days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		start, end := service.RecentWindow(days, time.Now())

		data, err := queryRange(c, app, user.ID, metricType, start, end)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch records")
			return
		}

		HandleSuccess(c, app.Logger(), data, map[string]any{"days": days})
	}
}

// GetDailySummary returns the raw records of every metric type for one day.
func GetDailySummary(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		date, err := time.ParseInLocation("2006-01-02", c.Param("date"), app.Insights().Location())
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		end := date.AddDate(0, 0, 1)

		out := map[string]any{"date": date.Format("2006-01-02")}
		for _, t := range internal.AllMetricTypes {
			data, err := queryRange(c, app, user.ID, t, date, end)
			if err != nil {
				HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch records")
				return
			}
			out[string(t)] = data
		}

		HandleSuccess(c, app.Logger(), out, nil)
	}
}

func queryRange(c *gin.Context, app App, userID string, t internal.MetricType, start, end time.Time) (any, error) {
	ctx := c.Request.Context()
	switch t {
	case internal.MetricSleep:
		return app.Metrics().QuerySleep(ctx, userID, start, end)
	case internal.MetricHeartRate:
		return app.Metrics().QueryHeartRate(ctx, userID, start, end)
	default:
		return app.Metrics().QueryWeight(ctx, userID, start, end)
	}
}
