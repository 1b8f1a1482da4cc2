package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"nivaran-be/logger"
	"nivaran-be/middlewares"
	"nivaran-be/services"
)

const (
	maxImageBytes   = 5 << 20
	demoAssignCount = 5
)

type SupervisorController struct {
	Issues     *services.IssueService
	Supervisor *services.SupervisorService
	Log        *logger.Logger
}

// GetMyIssues lists the caller's assigned issues with the usual filters. A
// supervisor with nothing assigned is given a few open issues first.
func (sc *SupervisorController) GetMyIssues(c *gin.Context) {
	session, _ := middlewares.CurrentSession(c)
	q, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := sc.Issues.EnsureAssigned(c.Request.Context(), session.Name, demoAssignCount); err != nil {
		respondError(c, sc.Log, err)
		return
	}
	q.Staff = session.Name
	c.JSON(http.StatusOK, sc.Issues.List(q))
}

func (sc *SupervisorController) GetDashboard(c *gin.Context) {
	session, _ := middlewares.CurrentSession(c)
	c.JSON(http.StatusOK, sc.Supervisor.Dashboard(session.Name))
}

func (sc *SupervisorController) Acknowledge(c *gin.Context) {
	session, _ := middlewares.CurrentSession(c)
	state, err := sc.Supervisor.Acknowledge(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		respondError(c, sc.Log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// UploadImage takes a multipart "image" file.
func (sc *SupervisorController) UploadImage(c *gin.Context) {
	session, _ := middlewares.CurrentSession(c)

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	if fh.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	state, err := sc.Supervisor.AddImage(c.Request.Context(), session, c.Param("id"), services.Upload{
		Name:        fh.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		respondError(c, sc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}
