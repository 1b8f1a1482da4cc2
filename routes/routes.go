package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nivaran-be/controllers"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth       *controllers.AuthController
	Issues     *controllers.IssueController
	Supervisor *controllers.SupervisorController
	Analytics  *controllers.AnalyticsController
	// Images is nil when no image store is configured.
	Images *controllers.ImageController

	Authenticate  gin.HandlerFunc
	ReportLimiter gin.HandlerFunc
}

func Register(r *gin.Engine, h Handlers) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	AuthRoutes(r, h)
	IssueRoutes(r, h)
	SupervisorRoutes(r, h)
	AnalyticsRoutes(r, h)
	if h.Images != nil {
		r.GET("/api/images/:id", h.Authenticate, h.Images.GetImage)
	}
}
