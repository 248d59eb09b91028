package api

import "github.com/gin-gonic/gin"

// Register wires every route onto r. authMW runs before all data routes.
func Register(r *gin.Engine, app App, authMW gin.HandlerFunc) {
	r.Use(RequestIDMiddleware())

	v1 := r.Group("/api/v1", authMW)
	{
		v1.POST("/health-data/sleep", PostSleep(app))
		v1.POST("/health-data/heart-rate", PostHeartRate(app))
		v1.POST("/health-data/weight", PostWeight(app))
		v1.GET("/health-data/daily/:date", GetDailySummary(app))
		v1.GET("/health-data/:type", GetMetrics(app))

		v1.GET("/insights/recent", GetRecentInsights(app))
		v1.GET("/insights/daily/:date", GetDailyInsights(app))
	}
}
