package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"nivaran-be/logger"
	"nivaran-be/models"
)

// File is a Memory store that rewrites a JSON document after every change.
// It is the default when no MongoDB is configured.
type File struct {
	*Memory
	path string
	log  *logger.Logger

	writeMu sync.Mutex
}

// OpenFile loads path if it exists. A file that cannot be decoded is moved
// aside to path+".corrupt" and the store starts empty.
func OpenFile(path string, log *logger.Logger) (*File, error) {
	f := &File{Memory: NewMemory(), path: path, log: log.With("store", "file", "path", path)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		f.log.Warn("discarding unreadable data file", "error", err)
		if rerr := os.Rename(path, path+".corrupt"); rerr != nil {
			return nil, fmt.Errorf("move corrupt data file: %w", rerr)
		}
		return f, nil
	}
	f.restore(s)
	f.log.Info("loaded data file", "issues", len(s.Issues))
	return f, nil
}

func (f *File) SaveIssues(ctx context.Context, issues []models.Issue) error {
	if err := f.Memory.SaveIssues(ctx, issues); err != nil {
		return err
	}
	return f.flush()
}

func (f *File) SaveIssue(ctx context.Context, issue models.Issue) error {
	if err := f.Memory.SaveIssue(ctx, issue); err != nil {
		return err
	}
	return f.flush()
}

func (f *File) ToggleVote(ctx context.Context, issueID, userID string, at time.Time) (bool, error) {
	voted, err := f.Memory.ToggleVote(ctx, issueID, userID, at)
	if err != nil {
		return false, err
	}
	return voted, f.flush()
}

func (f *File) Acknowledge(ctx context.Context, issueID string, at time.Time) (models.SupervisorState, error) {
	s, err := f.Memory.Acknowledge(ctx, issueID, at)
	if err != nil {
		return s, err
	}
	return s, f.flush()
}

func (f *File) AddImage(ctx context.Context, issueID, url string) (models.SupervisorState, error) {
	s, err := f.Memory.AddImage(ctx, issueID, url)
	if err != nil {
		return s, err
	}
	return s, f.flush()
}

func (f *File) UpsertLocation(ctx context.Context, issueID string, loc models.Location) error {
	if err := f.Memory.UpsertLocation(ctx, issueID, loc); err != nil {
		return err
	}
	return f.flush()
}

func (f *File) ResetState(ctx context.Context) error {
	if err := f.Memory.ResetState(ctx); err != nil {
		return err
	}
	return f.flush()
}

func (f *File) Close(context.Context) error {
	return f.flush()
}

// flush writes to a temp file in the same directory and renames it over the
// target so readers never see a partial document.
func (f *File) flush() error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	raw, err := json.Marshal(f.export())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
