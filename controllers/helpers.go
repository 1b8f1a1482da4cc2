package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nivaran-be/logger"
	"nivaran-be/models"
	"nivaran-be/query"
	"nivaran-be/services"
	"nivaran-be/store"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// respondError maps service errors onto HTTP statuses. Anything unexpected
// is logged and reported as a 500 without detail.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidReport),
		errors.Is(err, services.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

// parseListQuery reads q, category, status, priority, start, end, canonical,
// sort, dir, page and perPage.
func parseListQuery(c *gin.Context) (services.ListQuery, error) {
	q := services.ListQuery{
		Filter: query.Filter{
			OnlyCanonical: c.DefaultQuery("canonical", "true") != "false",
			Query:         c.Query("q"),
		},
		Sort: query.ParseSortKey(c.Query("sort")),
		Dir:  query.ParseSortDir(c.Query("dir")),
	}

	if v := c.Query("category"); v != "" && v != query.All {
		cat := models.IssueCategory(v)
		if !cat.Valid() {
			return q, fmt.Errorf("invalid category %q", v)
		}
		q.Filter.Category = cat
	}
	if v := c.Query("status"); v != "" && v != query.All {
		st := models.IssueStatus(v)
		if !st.Valid() {
			return q, fmt.Errorf("invalid status %q", v)
		}
		q.Filter.Status = st
	}
	if v := c.Query("priority"); v != "" && v != query.All {
		n, err := strconv.Atoi(v)
		if err != nil || !models.Priority(n).Valid() {
			return q, fmt.Errorf("invalid priority %q", v)
		}
		q.Filter.Priority = models.Priority(n)
	}

	var err error
	if q.Filter.Start, err = parseDate(c.Query("start")); err != nil {
		return q, fmt.Errorf("invalid start: %w", err)
	}
	if q.Filter.End, err = parseDate(c.Query("end")); err != nil {
		return q, fmt.Errorf("invalid end: %w", err)
	}

	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PerPage, _ = strconv.Atoi(c.DefaultQuery("perPage", strconv.Itoa(defaultPerPage)))
	if q.PerPage < 1 || q.PerPage > maxPerPage {
		q.PerPage = defaultPerPage
	}
	return q, nil
}

// parseDate accepts a calendar date (taken as UTC midnight) or an RFC 3339
// timestamp.
func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || n < 1 || n > maxPerPage {
		return def
	}
	return n
}
