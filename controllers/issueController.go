package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"nivaran-be/events"
	"nivaran-be/logger"
	"nivaran-be/middlewares"
	"nivaran-be/models"
	"nivaran-be/services"
)

type IssueController struct {
	Issues     *services.IssueService
	Supervisor *services.SupervisorService
	Bus        events.Bus
	Log        *logger.Logger
}

// GetAllIssues filters, sorts and paginates the snapshot.
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ic.Issues.List(q))
}

// GetIssue returns one issue with its supervisor state and location.
func (ic *IssueController) GetIssue(c *gin.Context) {
	detail, err := ic.Supervisor.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CreateIssue files a citizen report for the signed-in user.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	session, ok := middlewares.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title       string   `json:"title" binding:"required,max=200"`
		Description string   `json:"description" binding:"max=1000"`
		Category    string   `json:"category" binding:"required"`
		Latitude    *float64 `json:"latitude" binding:"required"`
		Longitude   *float64 `json:"longitude" binding:"required"`
		Address     string   `json:"address" binding:"max=200"`
		ImageURL    *string  `json:"imageUrl,omitempty"`
		Priority    int      `json:"priority,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := ic.Issues.Report(c.Request.Context(), services.ReportInput{
		Title:       input.Title,
		Description: input.Description,
		Category:    models.IssueCategory(input.Category),
		Latitude:    *input.Latitude,
		Longitude:   *input.Longitude,
		Address:     input.Address,
		ImageURL:    input.ImageURL,
		Priority:    models.Priority(input.Priority),
		Reporter:    models.Reporter{ID: session.ID, Name: session.Name},
	})
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (ic *IssueController) AssignIssue(c *gin.Context) {
	var input struct {
		StaffName string `json:"staffName" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := ic.Issues.Assign(c.Request.Context(), c.Param("id"), input.StaffName)
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (ic *IssueController) UpdateStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := ic.Issues.SetStatus(c.Request.Context(), c.Param("id"), models.IssueStatus(input.Status))
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// ToggleVote adds or removes the caller's upvote.
func (ic *IssueController) ToggleVote(c *gin.Context) {
	session, _ := middlewares.CurrentSession(c)
	issue, voted, err := ic.Issues.ToggleVote(c.Request.Context(), c.Param("id"), session.ID)
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"issue":        issue,
		"votes":        issue.Upvotes,
		"userHasVoted": voted,
	})
}

func (ic *IssueController) UpdateLocation(c *gin.Context) {
	var input struct {
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
		Address   *string  `json:"address"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc, err := ic.Issues.SetLocation(c.Request.Context(), c.Param("id"), *input.Latitude, *input.Longitude, input.Address)
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// Regenerate replaces the dataset with a fresh synthetic one.
func (ic *IssueController) Regenerate(c *gin.Context) {
	var input struct {
		Count int `json:"count" binding:"required,min=1,max=50000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := ic.Issues.Regenerate(c.Request.Context(), input.Count)
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated": input.Count, "issues": n})
}

// Stream pushes change events to the client as server-sent events until the
// client goes away.
func (ic *IssueController) Stream(c *gin.Context) {
	feed, cancel := ic.Bus.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case e, ok := <-feed:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Kind), e)
			return true
		}
	})
}
