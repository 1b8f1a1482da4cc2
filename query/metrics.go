package query

import (
	"math"
	"time"

	"nivaran-be/models"
)

// Metrics summarizes an issue list for the dashboard header.
type Metrics struct {
	Total              int                        `json:"total"`
	CountsByStatus     map[models.IssueStatus]int `json:"countsByStatus"`
	AvgResolutionHours int                        `json:"avgResolutionHours"`
}

// ComputeMetrics counts issues per status and averages updatedAt-createdAt
// over resolved issues, rounded to whole hours.
func ComputeMetrics(list []models.Issue) Metrics {
	m := Metrics{
		Total:          len(list),
		CountsByStatus: make(map[models.IssueStatus]int, len(models.Statuses)),
	}
	for _, s := range models.Statuses {
		m.CountsByStatus[s] = 0
	}

	var resolved int
	var sum float64
	for _, i := range list {
		if _, ok := m.CountsByStatus[i.Status]; ok {
			m.CountsByStatus[i.Status]++
		}
		if i.Status == models.Resolved {
			resolved++
			sum += hoursBetween(i.CreatedAt, i.UpdatedAt)
		}
	}
	if resolved > 0 {
		hours := sum / float64(resolved)
		m.AvgResolutionHours = int(math.Floor(hours + 0.5))
	}
	return m
}

// hoursBetween avoids time.Time.Sub, which saturates for spans beyond
// roughly 292 years such as a zero createdAt.
func hoursBetween(from, to time.Time) float64 {
	secs := float64(to.Unix() - from.Unix())
	nanos := float64(to.Nanosecond() - from.Nanosecond())
	return secs/3600 + nanos/float64(time.Hour)
}
