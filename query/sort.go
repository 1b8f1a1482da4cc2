package query

import (
	"sort"

	"nivaran-be/models"
)

type SortKey string

const (
	SortByCreatedAt SortKey = "createdAt"
	SortByPriority  SortKey = "priority"
	SortByUpvotes   SortKey = "upvotes"
	SortByStatus    SortKey = "status"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// ParseSortKey maps unknown keys to createdAt.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortByPriority, SortByUpvotes, SortByStatus:
		return SortKey(s)
	}
	return SortByCreatedAt
}

// ParseSortDir maps anything but "asc" to descending.
func ParseSortDir(s string) SortDir {
	if SortDir(s) == Asc {
		return Asc
	}
	return Desc
}

// SortIssues returns a stably sorted copy of list. Status sorts by its label.
func SortIssues(list []models.Issue, key SortKey, dir SortDir) []models.Issue {
	out := make([]models.Issue, len(list))
	copy(out, list)

	cmp := compareBy(key)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if dir == Asc {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compareBy(key SortKey) func(a, b models.Issue) int {
	switch key {
	case SortByPriority:
		return func(a, b models.Issue) int { return compareInt(int(a.Priority), int(b.Priority)) }
	case SortByUpvotes:
		return func(a, b models.Issue) int { return compareInt(a.Upvotes, b.Upvotes) }
	case SortByStatus:
		return func(a, b models.Issue) int { return compareString(string(a.Status), string(b.Status)) }
	default:
		return func(a, b models.Issue) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
