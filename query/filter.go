// Package query derives views and summaries from an issue snapshot. Every
// function returns new slices and leaves its input as it was.
package query

import (
	"strings"
	"time"

	"nivaran-be/models"
)

// All is accepted wherever a category or status filter means "any".
const All = "All"

// Filter is a conjunction of optional conditions. The zero value matches
// every issue.
type Filter struct {
	OnlyCanonical bool
	Query         string
	Category      models.IssueCategory
	Status        models.IssueStatus
	Priority      models.Priority
	Start         *time.Time
	// End includes the whole day it falls on.
	End *time.Time
}

// FilterIssues keeps the issues matching f, in input order.
func FilterIssues(list []models.Issue, f Filter) []models.Issue {
	q := strings.ToLower(f.Query)
	var endBound time.Time
	if f.End != nil {
		endBound = f.End.AddDate(0, 0, 1)
	}

	out := make([]models.Issue, 0, len(list))
	for _, i := range list {
		if f.OnlyCanonical && i.DuplicateOf != nil {
			continue
		}
		if q != "" {
			haystack := strings.ToLower(i.Title + " " + i.Description + " " + i.Address)
			if !strings.Contains(haystack, q) {
				continue
			}
		}
		if f.Category != "" && f.Category != All && i.Category != f.Category {
			continue
		}
		if f.Status != "" && f.Status != All && i.Status != f.Status {
			continue
		}
		if f.Priority != 0 && i.Priority != f.Priority {
			continue
		}
		if f.Start != nil && i.CreatedAt.Before(*f.Start) {
			continue
		}
		if f.End != nil && i.CreatedAt.After(endBound) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// AssignedTo keeps the issues assigned to the named staff member.
func AssignedTo(list []models.Issue, staffName string) []models.Issue {
	out := make([]models.Issue, 0)
	for _, i := range list {
		if i.AssignedTo(staffName) {
			out = append(out, i)
		}
	}
	return out
}
