// Package store persists review items and search run history.
package store

import (
	"context"
	"errors"
	"time"

	"jobradar/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// StatusCounts aggregates review items by status.
type StatusCounts struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Approved     int `json:"approved"`
	Rejected     int `json:"rejected"`
	AutoApproved int `json:"autoApproved"`
}

// SearchRun is one task execution recorded for run history.
type SearchRun struct {
	Keyword     string
	Region      string
	Source      string
	JobsFound   int
	Status      string // "completed" or "failed"
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// RecordStore is the persistence boundary for the approval workflow and the
// scheduler's run history.
type RecordStore interface {
	// InsertIfAbsent stores the item unless one with the same link already
	// exists. Returns true when a row was inserted.
	InsertIfAbsent(ctx context.Context, item model.ReviewItem) (bool, error)

	// TransitionFromPending atomically moves the item out of pending.
	// Returns false (no error) when the item is missing or not pending.
	TransitionFromPending(ctx context.Context, id string, to model.ReviewStatus,
		reviewer, reason string, at time.Time) (bool, error)

	// ListPending returns pending items ordered by quality score descending,
	// then discovery time descending.
	ListPending(ctx context.Context, limit int) ([]model.ReviewItem, error)

	// ListApproved returns approved items, most recently reviewed first.
	ListApproved(ctx context.Context, limit int) ([]model.ReviewItem, error)

	Counts(ctx context.Context) (StatusCounts, error)

	RecordSearchRun(ctx context.Context, run SearchRun) error
}
