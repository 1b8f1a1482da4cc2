package models

import (
	"regexp"
	"strings"
	"time"
)

// IssueCategory enum
type IssueCategory string

const (
	Garbage      IssueCategory = "Garbage"
	Pothole      IssueCategory = "Pothole"
	Streetlight  IssueCategory = "Streetlight"
	Water        IssueCategory = "Water"
	Sewage       IssueCategory = "Sewage"
	Encroachment IssueCategory = "Encroachment"
)

// Categories lists every category in display order.
var Categories = []IssueCategory{Garbage, Pothole, Streetlight, Water, Sewage, Encroachment}

// Valid reports whether c is one of the fixed categories.
func (c IssueCategory) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "Pending"
	InProgress IssueStatus = "In Progress"
	Resolved   IssueStatus = "Resolved"
)

// Statuses lists every status in workflow order.
var Statuses = []IssueStatus{Pending, InProgress, Resolved}

func (s IssueStatus) Valid() bool {
	switch s {
	case Pending, InProgress, Resolved:
		return true
	}
	return false
}

// Priority is ordinal: lower value means more urgent.
type Priority int

const (
	High   Priority = 1
	Medium Priority = 2
	Low    Priority = 3
)

func (p Priority) Valid() bool {
	return p >= High && p <= Low
}

func (p Priority) String() string {
	switch p {
	case High:
		return "High"
	case Medium:
		return "Medium"
	case Low:
		return "Low"
	}
	return "Unknown"
}

// Assignment binds an issue to a staff member. The zero value is the
// unassigned state and serializes as three nulls.
type Assignment struct {
	StaffID    *string    `bson:"staffId" json:"staffId"`
	StaffName  *string    `bson:"staffName" json:"staffName"`
	AssignedAt *time.Time `bson:"assignedAt" json:"assignedAt"`
}

func (a Assignment) Assigned() bool {
	return a.StaffID != nil || a.StaffName != nil
}

// Reporter is the citizen who filed the issue.
type Reporter struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID          string        `bson:"_id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Category    IssueCategory `bson:"category" json:"category"`
	ImageURL    *string       `bson:"imageUrl" json:"imageUrl"`
	Latitude    float64       `bson:"latitude" json:"latitude"`
	Longitude   float64       `bson:"longitude" json:"longitude"`
	Address     string        `bson:"address" json:"address"`
	Ward        string        `bson:"ward,omitempty" json:"ward,omitempty"`
	Zone        string        `bson:"zone,omitempty" json:"zone,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
	Upvotes     int           `bson:"upvotes" json:"upvotes"`
	Priority    Priority      `bson:"priority" json:"priority"`
	Status      IssueStatus   `bson:"status" json:"status"`
	Assignment  Assignment    `bson:"assignment" json:"assignment"`
	Reporter    Reporter      `bson:"reporter" json:"reporter"`
	DuplicateOf *string       `bson:"duplicateOf" json:"duplicateOf"`
	GroupID     string        `bson:"groupId" json:"groupId"`
}

// IsCanonical reports whether the issue is the representative of its cluster.
func (i Issue) IsCanonical() bool {
	return i.DuplicateOf == nil
}

// WardKey returns the ward label used for ward-level aggregation. Addresses
// without a structured ward fall back to the text before the first comma,
// which is "Ward N" for "Ward N, Zone M" addresses.
func (i Issue) WardKey() string {
	if i.Ward != "" {
		return i.Ward
	}
	return strings.Split(i.Address, ",")[0]
}

// AssignedTo reports whether the issue is assigned to the named staff member,
// matching either the slug id or the display name.
func (i Issue) AssignedTo(staffName string) bool {
	slug := StaffSlug(staffName)
	if i.Assignment.StaffID != nil && *i.Assignment.StaffID == slug {
		return true
	}
	return i.Assignment.StaffName != nil && *i.Assignment.StaffName == staffName
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// StaffSlug lower-cases a staff name and replaces whitespace runs with "-".
func StaffSlug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}

// ParseAddress splits a "Ward N, Zone M" address into its parts. Parts that
// are missing come back empty.
func ParseAddress(address string) (ward, zone string) {
	parts := strings.SplitN(address, ",", 2)
	ward = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		zone = strings.TrimSpace(parts[1])
	}
	return ward, zone
}
