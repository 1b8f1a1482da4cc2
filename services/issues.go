// Package services holds the live issue workspace and the supervisor
// workflows that act on it. Every mutation is persisted through a store and
// announced on the event bus.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nivaran-be/dedup"
	"nivaran-be/events"
	"nivaran-be/generator"
	"nivaran-be/logger"
	"nivaran-be/models"
	"nivaran-be/query"
	"nivaran-be/store"
)

var (
	ErrNotFound      = errors.New("issue not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidReport = errors.New("invalid report")
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxRegenerate     = 50000
)

type IssueConfig struct {
	Dedup     dedup.Options
	Seed      int64
	SeedCount int
}

// IssueService owns the current deduplicated snapshot.
type IssueService struct {
	store store.Store
	bus   events.Bus
	log   *logger.Logger
	cfg   IssueConfig
	now   func() time.Time

	mu     sync.RWMutex
	issues []models.Issue
}

func NewIssueService(st store.Store, bus events.Bus, log *logger.Logger, cfg IssueConfig) *IssueService {
	return &IssueService{
		store: st,
		bus:   bus,
		log:   log.With("service", "IssueService"),
		cfg:   cfg,
		now:   time.Now,
	}
}

// Load restores the saved snapshot, seeding a synthetic one when the store
// is empty.
func (s *IssueService) Load(ctx context.Context) error {
	issues, err := s.store.LoadIssues(ctx)
	if err != nil {
		return fmt.Errorf("load issues: %w", err)
	}
	if len(issues) > 0 {
		s.mu.Lock()
		s.issues = issues
		s.mu.Unlock()
		s.log.Info("issues loaded", "count", len(issues))
		return nil
	}

	n, err := s.Regenerate(ctx, s.cfg.SeedCount)
	if err != nil {
		return err
	}
	s.log.Info("seeded synthetic issues", "generated", s.cfg.SeedCount, "canonical", n)
	return nil
}

// Regenerate replaces the snapshot with count freshly generated reports,
// deduplicated. It returns the size of the new snapshot.
func (s *IssueService) Regenerate(ctx context.Context, count int) (int, error) {
	if count < 0 || count > maxRegenerate {
		return 0, fmt.Errorf("%w: count must be between 0 and %d", ErrInvalidReport, maxRegenerate)
	}
	anchor := s.now().UTC().Truncate(24 * time.Hour)
	raw := generator.New(s.cfg.Seed, anchor).Generate(count)
	merged := dedup.Deduplicate(raw, &s.cfg.Dedup)

	if err := s.replace(ctx, merged); err != nil {
		return 0, err
	}
	s.publish(ctx, events.Event{Kind: events.IssuesReplaced, Data: map[string]int{"count": len(merged)}})
	return len(merged), nil
}

// replace saves a new snapshot and swaps it in while holding the write lock,
// so no other write lands between the save and the swap. Votes, supervisor
// progress and corrected locations belong to the old snapshot and are dropped.
func (s *IssueService) replace(ctx context.Context, issues []models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveIssues(ctx, issues); err != nil {
		return fmt.Errorf("save issues: %w", err)
	}
	s.issues = issues
	if err := s.store.ResetState(ctx); err != nil {
		return fmt.Errorf("reset issue state: %w", err)
	}
	return nil
}

// Snapshot returns a copy of every issue, duplicates included.
func (s *IssueService) Snapshot() []models.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// Canonical returns the issues that represent their cluster.
func (s *IssueService) Canonical() []models.Issue {
	return query.FilterIssues(s.Snapshot(), query.Filter{OnlyCanonical: true})
}

func (s *IssueService) Get(id string) (models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Issue{}, ErrNotFound
	}
	return s.issues[i], nil
}

type ListQuery struct {
	Filter  query.Filter
	Sort    query.SortKey
	Dir     query.SortDir
	Page    int
	PerPage int
	// Staff limits results to issues assigned to this staff member.
	Staff string
}

func (s *IssueService) List(q ListQuery) query.Page[models.Issue] {
	list := s.Snapshot()
	if q.Staff != "" {
		list = query.AssignedTo(list, q.Staff)
	}
	list = query.FilterIssues(list, q.Filter)
	list = query.SortIssues(list, q.Sort, q.Dir)
	return query.Paginate(list, q.Page, q.PerPage)
}

func (s *IssueService) Metrics() query.Metrics {
	return query.ComputeMetrics(s.Canonical())
}

// Assign hands an issue to a staff member. Pending issues move to In
// Progress; other statuses are kept.
func (s *IssueService) Assign(ctx context.Context, id, staffName string) (models.Issue, error) {
	staffName = strings.TrimSpace(staffName)
	if staffName == "" {
		return models.Issue{}, fmt.Errorf("%w: staff name required", ErrInvalidReport)
	}
	return s.update(ctx, id, func(issue *models.Issue, now time.Time) {
		slug := models.StaffSlug(staffName)
		name := staffName
		issue.Assignment = models.Assignment{StaffID: &slug, StaffName: &name, AssignedAt: &now}
		if issue.Status == models.Pending {
			issue.Status = models.InProgress
		}
	})
}

func (s *IssueService) SetStatus(ctx context.Context, id string, status models.IssueStatus) (models.Issue, error) {
	if !status.Valid() {
		return models.Issue{}, ErrInvalidStatus
	}
	return s.update(ctx, id, func(issue *models.Issue, now time.Time) {
		issue.Status = status
		issue.UpdatedAt = now
	})
}

type ReportInput struct {
	Title       string
	Description string
	Category    models.IssueCategory
	Latitude    float64
	Longitude   float64
	Address     string
	ImageURL    *string
	Priority    models.Priority
	Reporter    models.Reporter
}

func (in ReportInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title required", ErrInvalidReport)
	case len(in.Title) > maxTitleLen:
		return fmt.Errorf("%w: title longer than %d", ErrInvalidReport, maxTitleLen)
	case len(in.Description) > maxDescriptionLen:
		return fmt.Errorf("%w: description longer than %d", ErrInvalidReport, maxDescriptionLen)
	case !in.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidReport, in.Category)
	case in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180:
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidReport)
	case in.Priority != 0 && !in.Priority.Valid():
		return fmt.Errorf("%w: unknown priority %d", ErrInvalidReport, in.Priority)
	}
	return nil
}

// Report files a citizen report. When it duplicates an existing canonical
// issue it joins that cluster and the canonical issue is touched; otherwise
// it starts a cluster of its own.
func (s *IssueService) Report(ctx context.Context, in ReportInput) (models.Issue, error) {
	if err := in.validate(); err != nil {
		return models.Issue{}, err
	}
	now := s.now()
	priority := in.Priority
	if priority == 0 {
		priority = models.Medium
	}
	ward, zone := models.ParseAddress(in.Address)
	issue := models.Issue{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		Ward:        ward,
		Zone:        zone,
		CreatedAt:   now,
		UpdatedAt:   now,
		Priority:    priority,
		Status:      models.Pending,
		Reporter:    in.Reporter,
	}
	issue.GroupID = issue.ID

	s.mu.Lock()
	idx, dup := dedup.FindDuplicate(issue, s.issues, &s.cfg.Dedup)
	if dup {
		id := s.issues[idx].ID
		issue.DuplicateOf = &id
		issue.GroupID = s.issues[idx].GroupID
	}
	if err := s.store.SaveIssue(ctx, issue); err != nil {
		s.mu.Unlock()
		return models.Issue{}, fmt.Errorf("save report: %w", err)
	}
	s.issues = append(s.issues, issue)

	// The report is already stored; a failed touch only leaves the
	// canonical issue's updatedAt behind.
	var touched *models.Issue
	if dup {
		canonical := s.issues[idx]
		canonical.UpdatedAt = now
		if err := s.store.SaveIssue(ctx, canonical); err != nil {
			s.log.Warn("touch canonical issue failed", "issueId", canonical.ID, "error", err)
		} else {
			s.issues[idx] = canonical
			touched = &canonical
		}
	}
	s.mu.Unlock()

	s.publish(ctx, events.Event{Kind: events.IssueCreated, IssueID: issue.ID, Data: issue})
	if touched != nil {
		s.publish(ctx, events.Event{Kind: events.IssueUpdated, IssueID: touched.ID, Data: *touched})
	}
	return issue, nil
}

// ToggleVote flips the user's upvote on an issue and reports whether the
// user now has a vote on it.
func (s *IssueService) ToggleVote(ctx context.Context, id, userID string) (models.Issue, bool, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Issue{}, false, ErrNotFound
	}
	at := s.now()
	voted, err := s.store.ToggleVote(ctx, id, userID, at)
	if err != nil {
		s.mu.Unlock()
		return models.Issue{}, false, fmt.Errorf("toggle vote: %w", err)
	}
	issue, err := s.applyLocked(ctx, i, func(issue *models.Issue, _ time.Time) {
		if voted {
			issue.Upvotes++
		} else if issue.Upvotes > 0 {
			issue.Upvotes--
		}
	})
	if err != nil {
		if _, rerr := s.store.ToggleVote(ctx, id, userID, at); rerr != nil {
			s.log.Error("revert vote failed", "issueId", id, "userId", userID, "error", rerr)
		}
		s.mu.Unlock()
		return models.Issue{}, false, err
	}
	s.mu.Unlock()

	s.publish(ctx, events.Event{Kind: events.IssueUpdated, IssueID: id, Data: issue})
	return issue, voted, nil
}

// Location returns the corrected position of an issue, falling back to the
// coordinates it was filed with.
func (s *IssueService) Location(ctx context.Context, id string) (models.Location, error) {
	issue, err := s.Get(id)
	if err != nil {
		return models.Location{}, err
	}
	loc, err := s.store.Location(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		addr := issue.Address
		return models.Location{
			Latitude:  issue.Latitude,
			Longitude: issue.Longitude,
			Address:   &addr,
			UpdatedAt: issue.UpdatedAt,
		}, nil
	}
	if err != nil {
		return models.Location{}, fmt.Errorf("load location: %w", err)
	}
	return loc, nil
}

func (s *IssueService) SetLocation(ctx context.Context, id string, lat, lon float64, address *string) (models.Location, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return models.Location{}, fmt.Errorf("%w: coordinates out of range", ErrInvalidReport)
	}
	s.mu.Lock()
	if s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return models.Location{}, ErrNotFound
	}
	loc := models.Location{Latitude: lat, Longitude: lon, Address: address, UpdatedAt: s.now()}
	if err := s.store.UpsertLocation(ctx, id, loc); err != nil {
		s.mu.Unlock()
		return models.Location{}, fmt.Errorf("save location: %w", err)
	}
	s.mu.Unlock()
	s.publish(ctx, events.Event{Kind: events.IssueUpdated, IssueID: id, Data: loc})
	return loc, nil
}

// EnsureAssigned gives a staff member with no assignments the n most recent
// unassigned canonical issues, so a fresh demo account has work to show.
func (s *IssueService) EnsureAssigned(ctx context.Context, staffName string, n int) ([]models.Issue, error) {
	snapshot := s.Snapshot()
	if mine := query.AssignedTo(snapshot, staffName); len(mine) > 0 {
		return mine, nil
	}

	var open []models.Issue
	for _, issue := range snapshot {
		if issue.IsCanonical() && !issue.Assignment.Assigned() && issue.Status != models.Resolved {
			open = append(open, issue)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].CreatedAt.After(open[j].CreatedAt)
	})
	if n < 0 {
		n = 0
	}
	if n < len(open) {
		open = open[:n]
	}

	assigned := make([]models.Issue, 0, len(open))
	for _, issue := range open {
		updated, err := s.Assign(ctx, issue.ID, staffName)
		if err != nil {
			return assigned, err
		}
		assigned = append(assigned, updated)
	}
	return assigned, nil
}

// update applies fn to one issue under the write lock, persists it and
// publishes the change.
func (s *IssueService) update(ctx context.Context, id string, fn func(issue *models.Issue, now time.Time)) (models.Issue, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Issue{}, ErrNotFound
	}
	issue, err := s.applyLocked(ctx, i, fn)
	s.mu.Unlock()
	if err != nil {
		return models.Issue{}, err
	}

	s.publish(ctx, events.Event{Kind: events.IssueUpdated, IssueID: id, Data: issue})
	return issue, nil
}

// applyLocked persists fn's change to s.issues[i]. The caller holds s.mu.
func (s *IssueService) applyLocked(ctx context.Context, i int, fn func(issue *models.Issue, now time.Time)) (models.Issue, error) {
	issue := s.issues[i]
	fn(&issue, s.now())
	if err := s.store.SaveIssue(ctx, issue); err != nil {
		return models.Issue{}, fmt.Errorf("save issue %s: %w", issue.ID, err)
	}
	s.issues[i] = issue
	return issue, nil
}

func (s *IssueService) indexLocked(id string) int {
	for i := range s.issues {
		if s.issues[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *IssueService) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warn("publish event failed", "kind", e.Kind, "error", err)
	}
}
