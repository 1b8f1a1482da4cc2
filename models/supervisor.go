package models

import "time"

// SupervisorState is the field supervisor's working state for one issue.
type SupervisorState struct {
	IssueID        string     `bson:"_id" json:"issueId"`
	AcknowledgedAt *time.Time `bson:"acknowledgedAt,omitempty" json:"acknowledgedAt,omitempty"`
	Images         []string   `bson:"images,omitempty" json:"images,omitempty"`
}

func (s SupervisorState) Acknowledged() bool {
	return s.AcknowledgedAt != nil
}

// Attachment records an evidence photo uploaded against an issue.
type Attachment struct {
	IssueID     string    `bson:"issueId" json:"issueId"`
	URL         string    `bson:"url" json:"url"`
	Name        string    `bson:"name" json:"name"`
	ContentType string    `bson:"contentType" json:"contentType"`
	UploadedAt  time.Time `bson:"uploadedAt" json:"uploadedAt"`
	By          Reporter  `bson:"by" json:"by"`
}

// Location is the authoritative position of an issue when it has been
// corrected after filing.
type Location struct {
	Latitude  float64   `bson:"latitude" json:"latitude"`
	Longitude float64   `bson:"longitude" json:"longitude"`
	Address   *string   `bson:"address" json:"address"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
