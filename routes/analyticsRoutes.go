package routes

import (
	"github.com/gin-gonic/gin"
)

func AnalyticsRoutes(r *gin.Engine, h Handlers) {
	analytics := r.Group("/api/analytics", h.Authenticate)
	{
		analytics.GET("/summary", h.Analytics.GetSummary)
		analytics.GET("/trends", h.Analytics.GetTrends)
		analytics.GET("/leaderboard", h.Analytics.GetLeaderboard)
	}
}
