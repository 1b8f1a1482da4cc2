package query

import (
	"fmt"
	"sort"

	"nivaran-be/models"
)

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CategoryCount struct {
	Name  models.IssueCategory `json:"name"`
	Count int                  `json:"count"`
}

type MonthPoint struct {
	Month    string `json:"month"`
	Reported int    `json:"reported"`
	Resolved int    `json:"resolved"`
}

type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

type WeekCount struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

type CitizenRank struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Upvotes int    `json:"upvotes"`
}

type WardRank struct {
	Ward  string `json:"ward"`
	Open  int    `json:"open"`
	Total int    `json:"total"`
}

// CountByDay buckets issues by UTC creation date, oldest first.
func CountByDay(list []models.Issue) []DayCount {
	counts := map[string]int{}
	for _, i := range list {
		counts[i.CreatedAt.UTC().Format("2006-01-02")]++
	}
	out := make([]DayCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DayCount{Date: d, Count: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date < out[b].Date })
	return out
}

// CountByCategory counts issues per category in first-seen order.
func CountByCategory(list []models.Issue) []CategoryCount {
	pos := map[models.IssueCategory]int{}
	var out []CategoryCount
	for _, i := range list {
		idx, ok := pos[i.Category]
		if !ok {
			idx = len(out)
			pos[i.Category] = idx
			out = append(out, CategoryCount{Name: i.Category})
		}
		out[idx].Count++
	}
	return out
}

// Recent returns the n newest issues.
func Recent(list []models.Issue, n int) []models.Issue {
	return head(SortIssues(list, SortByCreatedAt, Desc), n)
}

// MonthlyTrend counts reported and resolved issues per creation month.
func MonthlyTrend(list []models.Issue) []MonthPoint {
	byMonth := map[string]*MonthPoint{}
	for _, i := range list {
		k := i.CreatedAt.UTC().Format("2006-01")
		p, ok := byMonth[k]
		if !ok {
			p = &MonthPoint{Month: k}
			byMonth[k] = p
		}
		p.Reported++
		if i.Status == models.Resolved {
			p.Resolved++
		}
	}
	out := make([]MonthPoint, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Month < out[b].Month })
	return out
}

// PriorityDistribution always reports High, Medium and Low, in that order.
func PriorityDistribution(list []models.Issue) []PriorityCount {
	counts := map[models.Priority]int{}
	for _, i := range list {
		counts[i.Priority]++
	}
	out := make([]PriorityCount, 0, 3)
	for _, p := range []models.Priority{models.High, models.Medium, models.Low} {
		out = append(out, PriorityCount{Priority: p.String(), Count: counts[p]})
	}
	return out
}

// WeeklyReports counts issues per ISO week, oldest first.
func WeeklyReports(list []models.Issue) []WeekCount {
	counts := map[string]int{}
	for _, i := range list {
		y, w := i.CreatedAt.UTC().ISOWeek()
		counts[fmt.Sprintf("%d-W%02d", y, w)]++
	}
	out := make([]WeekCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, WeekCount{Week: k, Count: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Week < out[b].Week })
	return out
}

// TopCitizens ranks reporters by issues filed, then by upvotes received.
func TopCitizens(list []models.Issue, n int) []CitizenRank {
	pos := map[string]int{}
	var out []CitizenRank
	for _, i := range list {
		idx, ok := pos[i.Reporter.ID]
		if !ok {
			idx = len(out)
			pos[i.Reporter.ID] = idx
			out = append(out, CitizenRank{ID: i.Reporter.ID, Name: i.Reporter.Name})
		}
		out[idx].Count++
		out[idx].Upvotes += i.Upvotes
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Upvotes > out[b].Upvotes
	})
	return head(out, n)
}

// TopWards ranks wards by unresolved issues.
func TopWards(list []models.Issue, n int) []WardRank {
	pos := map[string]int{}
	var out []WardRank
	for _, i := range list {
		key := i.WardKey()
		idx, ok := pos[key]
		if !ok {
			idx = len(out)
			pos[key] = idx
			out = append(out, WardRank{Ward: key})
		}
		out[idx].Total++
		if i.Status != models.Resolved {
			out[idx].Open++
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Open > out[b].Open })
	return head(out, n)
}

func head[T any](items []T, n int) []T {
	if n >= 0 && n < len(items) {
		return items[:n]
	}
	return items
}
