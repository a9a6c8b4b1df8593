// Package model defines shared data structures for the jobradar pipeline.
package model

import (
	"fmt"
	"time"
)

// Candidate is a single discovered posting, pre-dedup and pre-approval.
// Produced by a source connector, filtered by the fingerprint cache and
// annotated by the quality scorer before it reaches the approval workflow.
type Candidate struct {
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	Source       string    `json:"source"`
	Company      string    `json:"company,omitempty"`
	Location     string    `json:"location,omitempty"`
	Description  string    `json:"description,omitempty"`
	DiscoveredAt time.Time `json:"discoveredAt"`
	QualityScore int       `json:"qualityScore"`
}

// SearchTask is one (keyword, region) cell of the expanded search matrix.
// Tasks are derived on every matrix request and never persisted.
type SearchTask struct {
	ID       string
	Keyword  string
	Region   string
	Schedule string
	Priority int
}

// FilterSpec enumerates every recognized candidate filter option.
// Zero values mean "unconstrained".
type FilterSpec struct {
	MinSalary int
	Location  string
	Seniority string
}

// ReviewStatus values mirror the review_items status column.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// ParseReviewStatus converts a raw string to a ReviewStatus, returning an
// error for unknown values.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	st := ReviewStatus(s)
	switch st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown review status %q", s)
}

// ReviewItem is a persisted, status-tracked posting awaiting or past an
// approval decision. Link is unique across all items; a second arrival with
// the same link is a no-op at the store.
type ReviewItem struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Company         string       `json:"company,omitempty"`
	Location        string       `json:"location,omitempty"`
	Source          string       `json:"source"`
	Link            string       `json:"link"`
	QualityScore    int          `json:"qualityScore"`
	Status          ReviewStatus `json:"status"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
	DiscoveredAt    time.Time    `json:"discoveredAt"`
	ReviewedAt      *time.Time   `json:"reviewedAt,omitempty"`
	ReviewedBy      string       `json:"reviewedBy,omitempty"`
	AutoApproved    bool         `json:"autoApproved"`
}

// TaskFailure records a single search task that failed inside a batch.
type TaskFailure struct {
	TaskID string
	Err    error
}

// BatchResult aggregates the candidates collected across one scheduled
// firing, annotated with per-task outcomes. Never persisted.
type BatchResult struct {
	Candidates []Candidate
	Failures   []TaskFailure
	Duplicates int
	Blocked    int
}
