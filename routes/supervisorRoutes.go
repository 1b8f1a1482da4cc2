package routes

import (
	"github.com/gin-gonic/gin"

	"nivaran-be/middlewares"
	"nivaran-be/models"
)

func SupervisorRoutes(r *gin.Engine, h Handlers) {
	sup := r.Group("/api/supervisor", h.Authenticate, middlewares.RequireRole(models.RoleSupervisor, models.RoleAdmin))
	{
		sup.GET("/issues", h.Supervisor.GetMyIssues)
		sup.GET("/dashboard", h.Supervisor.GetDashboard)
		sup.POST("/issues/:id/ack", h.Supervisor.Acknowledge)
		sup.POST("/issues/:id/images", h.Supervisor.UploadImage)
	}
}
