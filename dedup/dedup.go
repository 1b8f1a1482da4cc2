// Package dedup merges near-duplicate citizen reports into canonical issues.
//
// Reports are visited in creation order. Each one is compared against the
// first member of nearby clusters, found through a coarse lat/lon grid, and
// joins the first cluster it matches on distance, category, text and time.
// Membership is anchored to that first member, so two members of one cluster
// are not necessarily similar to each other.
package dedup

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"nivaran-be/models"
)

// groupNamespace seeds the name-based cluster ids.
var groupNamespace = uuid.MustParse("6f1c2a4e-9b7d-4c1e-8f3a-2d5b7e9c0a14")

// Group is one duplicate cluster. Members are copies of the input issues in
// the order they joined, with GroupID and DuplicateOf filled in.
type Group struct {
	ID        string
	Members   []models.Issue
	Canonical int
}

// Reference is the member every later arrival was compared against.
func (g Group) Reference() models.Issue {
	return g.Members[0]
}

// Merged returns the canonical member carrying the cluster's total upvotes
// and latest update time.
func (g Group) Merged() models.Issue {
	out := g.Members[g.Canonical]
	total := 0
	for _, m := range g.Members {
		total += m.Upvotes
		if m.UpdatedAt.After(out.UpdatedAt) {
			out.UpdatedAt = m.UpdatedAt
		}
	}
	out.Upvotes = total
	return out
}

// Deduplicate clusters issues and returns one merged canonical issue per
// cluster, in cluster creation order. A nil opts uses DefaultOptions.
func Deduplicate(issues []models.Issue, opts *Options) []models.Issue {
	groups := Cluster(issues, opts)
	merged := make([]models.Issue, 0, len(groups))
	for _, g := range groups {
		merged = append(merged, g.Merged())
	}
	return merged
}

// Members flattens groups back into every annotated member, canonical or not.
func Members(groups []Group) []models.Issue {
	var out []models.Issue
	for _, g := range groups {
		out = append(out, g.Members...)
	}
	return out
}

// Cluster assigns every issue to a duplicate group. The input slice is left
// untouched.
func Cluster(issues []models.Issue, opts *Options) []Group {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}

	sorted := make([]models.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var groups []Group
	index := gridIndex{}

	for _, issue := range sorted {
		candidates := index.candidates(issue.Latitude, issue.Longitude)
		if len(candidates) == 0 {
			candidates = make([]int, len(groups))
			for i := range groups {
				candidates[i] = i
			}
		}

		placed := false
		for _, idx := range candidates {
			ref := groups[idx].Reference()
			if !matches(issue, ref, o) {
				continue
			}
			groups[idx].Members = append(groups[idx].Members, issue)
			index.register(cellKey(ref.Latitude, ref.Longitude), idx)
			placed = true
			break
		}

		if !placed {
			idx := len(groups)
			groups = append(groups, Group{
				ID:      groupID(issue, idx),
				Members: []models.Issue{issue},
			})
			index.register(cellKey(issue.Latitude, issue.Longitude), idx)
		}
	}

	for i := range groups {
		annotate(&groups[i])
	}
	return groups
}

// FindDuplicate returns the index of the first canonical issue in existing
// that a new report duplicates. Non-canonical entries are skipped.
func FindDuplicate(report models.Issue, existing []models.Issue, opts *Options) (int, bool) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	for i, ref := range existing {
		if !ref.IsCanonical() || ref.ID == report.ID {
			continue
		}
		if matches(report, ref, o) {
			return i, true
		}
	}
	return -1, false
}

// matches applies the four duplicate conditions against a cluster reference.
func matches(issue, ref models.Issue, o Options) bool {
	if issue.Category != ref.Category {
		return false
	}
	gap := math.Abs(float64(issue.CreatedAt.Sub(ref.CreatedAt))) / float64(time.Hour)
	if gap > o.TimeWindowHours {
		return false
	}
	dist := HaversineKm(
		Point{Lat: issue.Latitude, Lon: issue.Longitude},
		Point{Lat: ref.Latitude, Lon: ref.Longitude},
	)
	if dist > o.MaxDistanceKm {
		return false
	}
	return TextSimilarity(issue.Title+" "+issue.Description, ref.Title+" "+ref.Description) >= o.TextSimilarityThreshold
}

// annotate picks the canonical member and stamps cluster fields on every member.
func annotate(g *Group) {
	order := make([]int, len(g.Members))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		x, y := g.Members[order[a]], g.Members[order[b]]
		if x.Priority != y.Priority {
			return x.Priority < y.Priority
		}
		if x.Upvotes != y.Upvotes {
			return x.Upvotes > y.Upvotes
		}
		return x.CreatedAt.After(y.CreatedAt)
	})
	g.Canonical = order[0]

	canonicalID := g.Members[g.Canonical].ID
	for i := range g.Members {
		g.Members[i].GroupID = g.ID
		if i == g.Canonical {
			g.Members[i].DuplicateOf = nil
			continue
		}
		id := canonicalID
		g.Members[i].DuplicateOf = &id
	}
}

func groupID(ref models.Issue, idx int) string {
	return uuid.NewSHA1(groupNamespace, []byte(fmt.Sprintf("%s/%d", ref.ID, idx))).String()
}
