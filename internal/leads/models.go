// Package leads holds the domain types shared by the lead capture pipeline.
package leads

import (
	"time"

	"github.com/google/uuid"
)

// TrackedVideo is a registered video whose comments are scanned for keywords.
// The pipeline only reads it; registration happens through the video API.
type TrackedVideo struct {
	ID            uuid.UUID
	SourceURL     string
	Keywords      []string
	Active        bool
	LastCheckedAt *time.Time
	CreatedAt     time.Time
}

// Comment is a provider comment after field mapping. It is never stored as-is.
type Comment struct {
	ExternalID    string
	Author        string
	Text          string
	VideoID       uuid.UUID
	CreatedAt     *time.Time
	Likes         int64
	SchemaVersion string
}

// Lead marks a matched comment as ticketed. At most one Lead exists per ExternalID.
type Lead struct {
	ID              uuid.UUID `json:"id"`
	ExternalID      string    `json:"external_id"`
	VideoID         uuid.UUID `json:"video_id"`
	Author          string    `json:"author"`
	CommentText     string    `json:"comment_text"`
	MatchedKeywords []string  `json:"matched_keywords"`
	TicketID        string    `json:"ticket_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunFailed    RunStatus = "FAILED"
)

// Terminal reports whether the provider will not change the status again.
func (s RunStatus) Terminal() bool {
	return s == RunSucceeded || s == RunFailed
}

// ScrapeRun is the provider's view of one scrape job for a single video.
type ScrapeRun struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	DatasetID string    `json:"dataset_id"`
}
