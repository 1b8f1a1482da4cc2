package routes

import (
	"github.com/gin-gonic/gin"

	"nivaran-be/middlewares"
	"nivaran-be/models"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, h Handlers) {
	adminOnly := middlewares.RequireRole(models.RoleAdmin)
	staff := middlewares.RequireRole(models.RoleAdmin, models.RoleSupervisor)

	issue := r.Group("/api/issues", h.Authenticate)
	{
		issue.GET("", h.Issues.GetAllIssues)
		issue.POST("", h.ReportLimiter, h.Issues.CreateIssue)
		issue.GET("/stream", h.Issues.Stream)
		issue.POST("/regenerate", adminOnly, h.Issues.Regenerate)
		issue.GET("/:id", h.Issues.GetIssue)
		issue.POST("/:id/assign", adminOnly, h.Issues.AssignIssue)
		issue.PUT("/:id/status", staff, h.Issues.UpdateStatus)
		issue.POST("/:id/vote", h.Issues.ToggleVote)
		issue.PUT("/:id/location", staff, h.Issues.UpdateLocation)
	}
}
