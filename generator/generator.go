// Package generator produces reproducible synthetic civic issues, including
// deliberately injected near-duplicates, for demos and tests.
package generator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"nivaran-be/models"
)

const (
	DefaultSeed = 42

	baseLat = 28.6139
	baseLon = 77.2090

	reporterPool    = 200
	maxAgeDays      = 60
	spreadDegrees   = 0.15
	jitterDegrees   = 0.0015
	duplicateChance = 0.15
	imageChance     = 0.7
	placeholderURL  = "/placeholder.svg"
)

var idNamespace = uuid.MustParse("3b9e7c52-0d4a-4f6b-a1c8-5e2f9d7b4a63")

var titles = map[models.IssueCategory][]string{
	models.Garbage:      {"Overflowing garbage bin", "Uncollected waste pile", "Littered street corner"},
	models.Pothole:      {"Large pothole on road", "Broken asphalt patch", "Deep road cavity"},
	models.Streetlight:  {"Streetlight not working", "Flickering light pole", "Dark stretch at night"},
	models.Water:        {"Water leakage from pipe", "Burst pipeline flooding", "No water supply"},
	models.Sewage:       {"Open manhole hazard", "Sewage overflow", "Blocked sewer line"},
	models.Encroachment: {"Illegal roadside stall", "Footpath encroachment", "Unauthorized parking"},
}

// Generator draws issues from a seeded sequence relative to a fixed anchor
// time. Two generators built with the same seed and anchor emit identical
// datasets.
type Generator struct {
	seed   int64
	anchor time.Time
	rand   *lcg
	seq    int
}

func New(seed int64, anchor time.Time) *Generator {
	return &Generator{seed: seed, anchor: anchor, rand: newLCG(seed)}
}

// GenerateIssues builds count base issues anchored at the start of the
// current UTC day, so calls made on the same day agree.
func GenerateIssues(count int, seed int64) []models.Issue {
	return New(seed, Today()).Generate(count)
}

// Today is the default anchor: midnight UTC of the current day.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// Generate emits count base issues, each followed by any near-duplicates
// injected for it. The result is in generation order, not sorted.
func (g *Generator) Generate(count int) []models.Issue {
	if count < 0 {
		count = 0
	}
	issues := make([]models.Issue, 0, count+count/4)
	for i := 0; i < count; i++ {
		issue := g.baseIssue()
		issues = append(issues, issue)

		if g.rand.Float() < duplicateChance {
			n := 1 + g.rand.Intn(2)
			for j := 0; j < n; j++ {
				issues = append(issues, g.nearDuplicate(issue))
			}
		}
	}
	return issues
}

func (g *Generator) baseIssue() models.Issue {
	r := g.rand

	category := models.Categories[r.Intn(len(models.Categories))]
	reporterIdx := r.Intn(reporterPool)
	daysAgo := r.Intn(maxAgeDays)
	hour := r.Intn(24)
	day := g.anchor.AddDate(0, 0, -daysAgo)
	created := time.Date(day.Year(), day.Month(), day.Day(), hour,
		day.Minute(), day.Second(), day.Nanosecond(), day.Location())

	statusRand := r.Float()
	status := models.Resolved
	switch {
	case statusRand < 0.55:
		status = models.Pending
	case statusRand < 0.85:
		status = models.InProgress
	}

	priority := models.Priority(1 + r.Intn(3))
	upvotes := r.Intn(120)
	dLat := (r.Float() - 0.5) * spreadDegrees
	dLon := (r.Float() - 0.5) * spreadDegrees

	options := titles[category]
	title := options[r.Intn(len(options))]

	var image *string
	if r.Float() < imageChance {
		url := placeholderURL
		image = &url
	}

	ward := fmt.Sprintf("Ward %d", 1+r.Intn(60))
	zone := fmt.Sprintf("Zone %d", 1+r.Intn(12))
	updated := created.AddDate(0, 0, r.Intn(10))

	return models.Issue{
		ID:          g.nextID(),
		Title:       title,
		Description: title + ". Please resolve at the earliest.",
		Category:    category,
		ImageURL:    image,
		Latitude:    baseLat + dLat,
		Longitude:   baseLon + dLon,
		Address:     ward + ", " + zone,
		Ward:        ward,
		Zone:        zone,
		CreatedAt:   created,
		UpdatedAt:   updated,
		Upvotes:     upvotes,
		Priority:    priority,
		Status:      status,
		Reporter: models.Reporter{
			ID:   fmt.Sprintf("r%d", reporterIdx),
			Name: fmt.Sprintf("Citizen %d", reporterIdx+1),
		},
	}
}

// nearDuplicate copies base with a small positional jitter, fewer upvotes and
// a creation time up to a day later.
func (g *Generator) nearDuplicate(base models.Issue) models.Issue {
	r := g.rand

	dup := base
	dup.ID = g.nextID()
	dup.Latitude = base.Latitude + (r.Float()-0.5)*jitterDegrees
	dup.Longitude = base.Longitude + (r.Float()-0.5)*jitterDegrees
	dup.Upvotes = int(float64(base.Upvotes) * (0.5 + r.Float()*0.6))
	dup.CreatedAt = base.CreatedAt.AddDate(0, 0, r.Intn(2))
	dup.UpdatedAt = base.CreatedAt.AddDate(0, 0, r.Intn(3))
	if dup.UpdatedAt.Before(dup.CreatedAt) {
		dup.UpdatedAt = dup.CreatedAt
	}
	dup.Assignment = models.Assignment{}
	return dup
}

func (g *Generator) nextID() string {
	g.seq++
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%d/%d", g.seed, g.seq))).String()
}
