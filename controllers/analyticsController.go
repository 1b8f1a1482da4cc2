package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nivaran-be/services"
)

const defaultLeaderboardSize = 10

type AnalyticsController struct {
	Issues *services.IssueService
}

func (ac *AnalyticsController) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, ac.Issues.Summary())
}

func (ac *AnalyticsController) GetTrends(c *gin.Context) {
	c.JSON(http.StatusOK, ac.Issues.Trends())
}

// GetLeaderboard accepts an optional limit.
func (ac *AnalyticsController) GetLeaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, ac.Issues.Leaderboard(parseLimit(c, defaultLeaderboardSize)))
}
