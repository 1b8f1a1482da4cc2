package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nivaran-be/models"
)

var testTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestMemoryIssues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	issues, err := m.LoadIssues(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.NoError(t, m.SaveIssues(ctx, []models.Issue{{ID: "a", Title: "one"}, {ID: "b", Title: "two"}}))
	require.NoError(t, m.SaveIssue(ctx, models.Issue{ID: "a", Title: "updated"}))
	require.NoError(t, m.SaveIssue(ctx, models.Issue{ID: "c", Title: "three"}))

	issues, err = m.LoadIssues(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 3)
	assert.Equal(t, "updated", issues[0].Title)
	assert.Equal(t, "c", issues[2].ID)

	// Returned slices are copies.
	issues[0].Title = "mutated"
	again, _ := m.LoadIssues(ctx)
	assert.Equal(t, "updated", again[0].Title)
}

func TestMemoryToggleVote(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	voted, err := m.ToggleVote(ctx, "i1", "u1", testTime)
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = m.ToggleVote(ctx, "i1", "u2", testTime)
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = m.ToggleVote(ctx, "i1", "u1", testTime)
	require.NoError(t, err)
	assert.False(t, voted)

	assert.Len(t, m.export().Votes, 1)
}

func TestMemorySupervisorState(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s, err := m.SupervisorState(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "i1", s.IssueID)
	assert.False(t, s.Acknowledged())

	s, err = m.Acknowledge(ctx, "i1", testTime)
	require.NoError(t, err)
	assert.True(t, s.Acknowledged())

	later := testTime.Add(time.Hour)
	_, err = m.Acknowledge(ctx, "i1", later)
	require.NoError(t, err)

	_, err = m.AddImage(ctx, "i1", "data:image/png;base64,AAA")
	require.NoError(t, err)
	s, err = m.AddImage(ctx, "i1", "/api/images/abc")
	require.NoError(t, err)

	assert.Equal(t, later, *s.AcknowledgedAt)
	assert.Equal(t, []string{"data:image/png;base64,AAA", "/api/images/abc"}, s.Images)
}

func TestMemoryLocation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Location(ctx, "i1")
	assert.ErrorIs(t, err, ErrNotFound)

	addr := "Ward 3, Zone 1"
	loc := models.Location{Latitude: 28.6, Longitude: 77.2, Address: &addr, UpdatedAt: testTime}
	require.NoError(t, m.UpsertLocation(ctx, "i1", loc))

	got, err := m.Location(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, loc, got)
}

func TestMemoryExportRestore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveIssues(ctx, []models.Issue{{ID: "a"}}))
	_, _ = m.ToggleVote(ctx, "a", "u2", testTime)
	_, _ = m.ToggleVote(ctx, "a", "u1", testTime)
	_, _ = m.Acknowledge(ctx, "a", testTime)

	s := m.export()
	assert.Equal(t, "u1", s.Votes[0].User)

	other := NewMemory()
	other.restore(s)
	assert.Equal(t, s, other.export())

	voted, _ := other.ToggleVote(ctx, "a", "u1", testTime)
	assert.False(t, voted)
}

func TestMemoryResetState(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveIssues(ctx, []models.Issue{{ID: "a"}}))
	_, _ = m.ToggleVote(ctx, "a", "u1", testTime)
	_, _ = m.Acknowledge(ctx, "a", testTime)
	require.NoError(t, m.UpsertLocation(ctx, "a", models.Location{Latitude: 1, Longitude: 2}))

	require.NoError(t, m.ResetState(ctx))

	issues, _ := m.LoadIssues(ctx)
	assert.Len(t, issues, 1, "issues are not side state")

	s, err := m.SupervisorState(ctx, "a")
	require.NoError(t, err)
	assert.False(t, s.Acknowledged())

	_, err = m.Location(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	voted, err := m.ToggleVote(ctx, "a", "u1", testTime)
	require.NoError(t, err)
	assert.True(t, voted)
}
