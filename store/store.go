// Package store persists the issue snapshot and the per-issue side state
// (votes, supervisor progress, corrected locations) that the services layer
// keeps alongside it.
package store

import (
	"context"
	"errors"
	"io"
	"time"

	"nivaran-be/models"
)

var ErrNotFound = errors.New("not found")

// Store is the persistence surface used by the services package.
type Store interface {
	// LoadIssues returns the saved snapshot, empty when nothing was saved.
	LoadIssues(ctx context.Context) ([]models.Issue, error)
	// SaveIssues replaces the whole snapshot.
	SaveIssues(ctx context.Context, issues []models.Issue) error
	// SaveIssue inserts or replaces one issue by id.
	SaveIssue(ctx context.Context, issue models.Issue) error

	// ToggleVote adds the user's vote when absent and removes it when
	// present. It reports whether the vote exists afterwards.
	ToggleVote(ctx context.Context, issueID, userID string, at time.Time) (bool, error)

	// SupervisorState never fails with ErrNotFound; an untouched issue has
	// the zero state.
	SupervisorState(ctx context.Context, issueID string) (models.SupervisorState, error)
	Acknowledge(ctx context.Context, issueID string, at time.Time) (models.SupervisorState, error)
	AddImage(ctx context.Context, issueID, url string) (models.SupervisorState, error)

	Location(ctx context.Context, issueID string) (models.Location, error)
	UpsertLocation(ctx context.Context, issueID string, loc models.Location) error

	// ResetState drops votes, supervisor progress and corrected locations.
	// It runs whenever the snapshot is replaced wholesale.
	ResetState(ctx context.Context) error

	Close(ctx context.Context) error
}

// ImageStore keeps uploaded evidence photos and hands back a URL for them.
type ImageStore interface {
	UploadImage(ctx context.Context, a models.Attachment, r io.Reader) (string, error)
	OpenImage(ctx context.Context, id string) (io.ReadCloser, models.Attachment, error)
}
