package generator

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nivaran-be/dedup"
	"nivaran-be/models"
)

var anchor = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestLCGSequence(t *testing.T) {
	r := newLCG(42)
	assert.InDelta(t, 206659.0/233280, r.Float(), 1e-12)
	assert.InDelta(t, 190736.0/233280, r.Float(), 1e-12)
	assert.InDelta(t, 223713.0/233280, r.Float(), 1e-12)
}

func TestLCGNormalizesSeed(t *testing.T) {
	assert.Equal(t, newLCG(42).Float(), newLCG(42+lcgModulus).Float())
	assert.Equal(t, newLCG(lcgModulus-1).Float(), newLCG(-1).Float())
}

func TestFirstIssueForDefaultSeed(t *testing.T) {
	issues := New(DefaultSeed, anchor).Generate(1)
	require.NotEmpty(t, issues)
	first := issues[0]

	assert.Equal(t, models.Encroachment, first.Category)
	assert.Equal(t, models.Reporter{ID: "r163", Name: "Citizen 164"}, first.Reporter)
	assert.Equal(t, time.Date(2025, 4, 5, 18, 0, 0, 0, time.UTC), first.CreatedAt)
	assert.Equal(t, first.CreatedAt.AddDate(0, 0, 9), first.UpdatedAt)
	assert.Equal(t, models.InProgress, first.Status)
	assert.Equal(t, models.Low, first.Priority)
	assert.Equal(t, 71, first.Upvotes)
	assert.Equal(t, "Unauthorized parking", first.Title)
	assert.Equal(t, "Unauthorized parking. Please resolve at the earliest.", first.Description)
	assert.Nil(t, first.ImageURL)
	assert.Equal(t, "Ward 20, Zone 9", first.Address)
	assert.Equal(t, "Ward 20", first.Ward)
	assert.Equal(t, "Zone 9", first.Zone)
	assert.Len(t, issues, 1)
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := GenerateIssues(100, 7)
	b := GenerateIssues(100, 7)
	assert.Equal(t, a, b)

	c := New(7, anchor).Generate(100)
	d := New(7, anchor).Generate(100)
	assert.Equal(t, c, d)
}

func TestGenerateDiffersBySeed(t *testing.T) {
	a := New(1, anchor).Generate(20)
	b := New(2, anchor).Generate(20)
	assert.NotEqual(t, a[0].ID, b[0].ID)
}

func TestGenerateZeroAndNegativeCount(t *testing.T) {
	assert.Empty(t, New(DefaultSeed, anchor).Generate(0))
	assert.Empty(t, New(DefaultSeed, anchor).Generate(-5))
}

func TestGeneratedIssuesAreWellFormed(t *testing.T) {
	issues := New(DefaultSeed, anchor).Generate(1000)
	require.GreaterOrEqual(t, len(issues), 1000)

	address := regexp.MustCompile(`^Ward \d+, Zone \d+$`)
	ids := make(map[string]struct{}, len(issues))
	for _, i := range issues {
		_, dup := ids[i.ID]
		require.False(t, dup, "duplicate id %s", i.ID)
		ids[i.ID] = struct{}{}

		assert.True(t, i.Category.Valid())
		assert.True(t, i.Status.Valid())
		assert.True(t, i.Priority.Valid())
		assert.GreaterOrEqual(t, i.Upvotes, 0)
		assert.Less(t, i.Upvotes, 120)
		assert.Regexp(t, address, i.Address)
		assert.InDelta(t, baseLat, i.Latitude, spreadDegrees/2+jitterDegrees)
		assert.InDelta(t, baseLon, i.Longitude, spreadDegrees/2+jitterDegrees)
		assert.False(t, i.UpdatedAt.Before(i.CreatedAt))
		assert.False(t, i.CreatedAt.Before(anchor.AddDate(0, 0, -maxAgeDays)))
		assert.False(t, i.Assignment.Assigned())
		assert.Nil(t, i.DuplicateOf)
		assert.Empty(t, i.GroupID)
	}
}

func TestGenerateInjectsNearDuplicates(t *testing.T) {
	issues := New(DefaultSeed, anchor).Generate(1000)

	// Roughly 15% of base issues get one or two siblings.
	extra := len(issues) - 1000
	assert.Greater(t, extra, 100)
	assert.Less(t, extra, 400)

	siblings := 0
	base := issues[0]
	for _, cur := range issues[1:] {
		if cur.Title != base.Title || cur.Reporter != base.Reporter || cur.Address != base.Address {
			base = cur
			continue
		}
		siblings++
		assert.Equal(t, base.Category, cur.Category)
		assert.InDelta(t, base.Latitude, cur.Latitude, jitterDegrees/2)
		assert.InDelta(t, base.Longitude, cur.Longitude, jitterDegrees/2)
		assert.LessOrEqual(t, cur.Upvotes, base.Upvotes*11/10+1)
		assert.False(t, cur.CreatedAt.Before(base.CreatedAt))
		assert.LessOrEqual(t, cur.CreatedAt.Sub(base.CreatedAt), 24*time.Hour)
	}
	assert.Positive(t, siblings)
}

func TestGeneratedDuplicatesCollapse(t *testing.T) {
	issues := New(DefaultSeed, anchor).Generate(500)
	merged := dedup.Deduplicate(issues, nil)

	assert.Less(t, len(merged), len(issues))
	assert.GreaterOrEqual(t, len(merged), 400)
}
