package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nivaran-be/logger"
	"nivaran-be/middlewares"
	"nivaran-be/models"
	authUtils "nivaran-be/utils"
)

var sessionNamespace = uuid.MustParse("9d4f6b1a-2c3e-4a5f-8b7d-1e0c3a9f5b26")

// AuthController issues demo sessions. There is no user database: any email
// with a long enough password signs in with the role it asks for.
type AuthController struct {
	Secret     string
	Production bool
	Domain     string
	Log        *logger.Logger
	now        func() time.Time
}

func (ac *AuthController) clock() time.Time {
	if ac.now != nil {
		return ac.now()
	}
	return time.Now()
}

// LoginUser handles user login
func (ac *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string      `json:"email" binding:"required,email"`
		Password string      `json:"password" binding:"required,min=6"`
		Name     string      `json:"name" binding:"max=50"`
		Role     models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	session := models.Session{
		ID:    uuid.NewSHA1(sessionNamespace, []byte(email)).String(),
		Name:  name,
		Email: email,
		Role:  input.Role,
	}

	token, err := authUtils.GenerateToken(ac.Secret, session, ac.clock())
	if err != nil {
		ac.Log.Error("error generating token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	// For production, don't set domain to allow cross-origin cookies
	domain := ac.Domain
	if ac.Production {
		domain = ""
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     authUtils.CookieName,
		Value:    token,
		MaxAge:   int(authUtils.TokenTTL.Seconds()),
		Path:     "/",
		Domain:   domain,
		Secure:   ac.Production,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	c.JSON(http.StatusOK, gin.H{
		"user":  session,
		"token": token,
	})
}

// GetMe returns the session carried by the token.
func (ac *AuthController) GetMe(c *gin.Context) {
	session, ok := middlewares.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// LogoutUser handles user logout by clearing the auth_token cookie
func (ac *AuthController) LogoutUser(c *gin.Context) {
	c.SetCookie(authUtils.CookieName, "", -1, "/", ac.Domain, ac.Production, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}
