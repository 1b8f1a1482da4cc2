package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"nivaran-be/models"
)

// Memory keeps everything in process. It backs tests and the file store.
type Memory struct {
	mu         sync.RWMutex
	issues     []models.Issue
	votes      map[string]map[string]time.Time
	supervisor map[string]models.SupervisorState
	locations  map[string]models.Location
}

func NewMemory() *Memory {
	return &Memory{
		votes:      map[string]map[string]time.Time{},
		supervisor: map[string]models.SupervisorState{},
		locations:  map[string]models.Location{},
	}
}

func (m *Memory) LoadIssues(_ context.Context) ([]models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Issue, len(m.issues))
	copy(out, m.issues)
	return out, nil
}

func (m *Memory) SaveIssues(_ context.Context, issues []models.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues = make([]models.Issue, len(issues))
	copy(m.issues, issues)
	return nil
}

func (m *Memory) SaveIssue(_ context.Context, issue models.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.issues {
		if m.issues[i].ID == issue.ID {
			m.issues[i] = issue
			return nil
		}
	}
	m.issues = append(m.issues, issue)
	return nil
}

func (m *Memory) ToggleVote(_ context.Context, issueID, userID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := m.votes[issueID]
	if users == nil {
		users = map[string]time.Time{}
		m.votes[issueID] = users
	}
	if _, ok := users[userID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(m.votes, issueID)
		}
		return false, nil
	}
	users[userID] = at
	return true, nil
}

func (m *Memory) SupervisorState(_ context.Context, issueID string) (models.SupervisorState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked(issueID), nil
}

func (m *Memory) Acknowledge(_ context.Context, issueID string, at time.Time) (models.SupervisorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stateLocked(issueID)
	s.AcknowledgedAt = &at
	m.supervisor[issueID] = s
	return s, nil
}

func (m *Memory) AddImage(_ context.Context, issueID, url string) (models.SupervisorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stateLocked(issueID)
	s.Images = append(append([]string(nil), s.Images...), url)
	m.supervisor[issueID] = s
	return s, nil
}

func (m *Memory) stateLocked(issueID string) models.SupervisorState {
	s, ok := m.supervisor[issueID]
	if !ok {
		return models.SupervisorState{IssueID: issueID}
	}
	return s
}

func (m *Memory) Location(_ context.Context, issueID string) (models.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[issueID]
	if !ok {
		return models.Location{}, ErrNotFound
	}
	return loc, nil
}

func (m *Memory) UpsertLocation(_ context.Context, issueID string, loc models.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[issueID] = loc
	return nil
}

func (m *Memory) ResetState(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes = map[string]map[string]time.Time{}
	m.supervisor = map[string]models.SupervisorState{}
	m.locations = map[string]models.Location{}
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }

// snapshot is the serialized form shared by the file store.
type snapshot struct {
	Issues     []models.Issue                    `json:"issues"`
	Votes      []models.Vote                     `json:"votes"`
	Supervisor map[string]models.SupervisorState `json:"supervisor"`
	Locations  map[string]models.Location        `json:"locations"`
}

func (m *Memory) export() snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := snapshot{
		Issues:     append([]models.Issue(nil), m.issues...),
		Supervisor: make(map[string]models.SupervisorState, len(m.supervisor)),
		Locations:  make(map[string]models.Location, len(m.locations)),
	}
	for issue, users := range m.votes {
		for user, at := range users {
			s.Votes = append(s.Votes, models.Vote{Issue: issue, User: user, CreatedAt: at})
		}
	}
	sort.Slice(s.Votes, func(i, j int) bool {
		if s.Votes[i].Issue != s.Votes[j].Issue {
			return s.Votes[i].Issue < s.Votes[j].Issue
		}
		return s.Votes[i].User < s.Votes[j].User
	})
	for k, v := range m.supervisor {
		s.Supervisor[k] = v
	}
	for k, v := range m.locations {
		s.Locations[k] = v
	}
	return s
}

func (m *Memory) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.issues = s.Issues
	m.votes = map[string]map[string]time.Time{}
	for _, v := range s.Votes {
		if m.votes[v.Issue] == nil {
			m.votes[v.Issue] = map[string]time.Time{}
		}
		m.votes[v.Issue][v.User] = v.CreatedAt
	}
	m.supervisor = map[string]models.SupervisorState{}
	for k, v := range s.Supervisor {
		v.IssueID = k
		m.supervisor[k] = v
	}
	m.locations = map[string]models.Location{}
	for k, v := range s.Locations {
		m.locations[k] = v
	}
}
