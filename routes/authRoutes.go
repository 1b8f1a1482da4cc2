package routes

import (
	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, h Handlers) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", h.Auth.LoginUser)
		auth.POST("/logout", h.Auth.LogoutUser)
		auth.GET("/me", h.Authenticate, h.Auth.GetMe)
	}
}
