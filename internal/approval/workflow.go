// Package approval contains the review state machine for discovered
// postings.
//
// Valid status graph:
//
//	pending ──► approved
//	    │
//	    └─────► rejected
//
// approved and rejected are terminal states.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"jobradar/internal/model"
	"jobradar/internal/store"
)

// AutoApprovalThreshold is the quality score at or above which a new posting
// skips manual review.
const AutoApprovalThreshold = 7

// systemReviewer is recorded on auto-approved items.
const systemReviewer = "system"

// IngestResult summarizes one batch of ingested candidates.
type IngestResult struct {
	Added        int `json:"added"`
	AutoApproved int `json:"autoApproved"`
	Pending      int `json:"pending"`
}

// Stats is the review queue summary exposed over the admin API.
type Stats struct {
	store.StatusCounts
	ApprovalRate float64 `json:"approvalRate"`
}

// Workflow drives review items through the pending/approved/rejected state
// machine. It is transport-agnostic.
type Workflow struct {
	store     store.RecordStore
	threshold int
	now       func() time.Time
}

// New returns a Workflow using the default auto-approval threshold.
func New(st store.RecordStore) *Workflow {
	return &Workflow{
		store:     st,
		threshold: AutoApprovalThreshold,
		now:       time.Now,
	}
}

// Ingest stores each candidate as a review item, skipping any whose link is
// already known. Candidates at or above the threshold are approved on the
// spot with the system reviewer.
func (w *Workflow) Ingest(ctx context.Context, candidates []model.Candidate) (IngestResult, error) {
	var res IngestResult

	for _, c := range candidates {
		now := w.now()
		item := model.ReviewItem{
			ID:           uuid.NewString(),
			Title:        c.Title,
			Company:      c.Company,
			Location:     c.Location,
			Source:       c.Source,
			Link:         c.Link,
			QualityScore: c.QualityScore,
			Status:       model.StatusPending,
			DiscoveredAt: c.DiscoveredAt,
		}
		if item.DiscoveredAt.IsZero() {
			item.DiscoveredAt = now
		}

		auto := c.QualityScore >= w.threshold
		if auto {
			item.Status = model.StatusApproved
			item.ReviewedBy = systemReviewer
			item.ReviewedAt = &now
			item.AutoApproved = true
		}

		inserted, err := w.store.InsertIfAbsent(ctx, item)
		if err != nil {
			return res, fmt.Errorf("ingest %q: %w", c.Link, err)
		}
		if !inserted {
			continue
		}

		res.Added++
		if auto {
			res.AutoApproved++
			slog.Info("auto-approved posting", "title", c.Title, "score", c.QualityScore)
		} else {
			res.Pending++
		}
	}

	return res, nil
}

// Decide applies one manual decision. Only pending items move; decisions on
// already-reviewed or unknown items are silently skipped and reported as
// false. The reason is kept for rejections only.
func (w *Workflow) Decide(ctx context.Context, id, outcome, reviewer, reason string) (bool, error) {
	status, err := model.ParseReviewStatus(outcome)
	if err != nil || status == model.StatusPending {
		return false, fmt.Errorf("invalid decision outcome %q", outcome)
	}
	if status != model.StatusRejected {
		reason = ""
	}

	moved, err := w.store.TransitionFromPending(ctx, id, status, reviewer, reason, w.now())
	if err != nil {
		return false, fmt.Errorf("decide %s: %w", id, err)
	}
	if !moved {
		slog.Warn("decision skipped, item not pending", "id", id, "outcome", outcome)
	}
	return moved, nil
}

// DecideBatch applies the same outcome to many items, returning how many
// actually transitioned.
func (w *Workflow) DecideBatch(ctx context.Context, ids []string, outcome, reviewer, reason string) (int, error) {
	moved := 0
	for _, id := range ids {
		ok, err := w.Decide(ctx, id, outcome, reviewer, reason)
		if err != nil {
			return moved, err
		}
		if ok {
			moved++
		}
	}
	return moved, nil
}

// ListPending returns the review queue, best candidates first.
func (w *Workflow) ListPending(ctx context.Context, limit int) ([]model.ReviewItem, error) {
	return w.store.ListPending(ctx, limit)
}

// ApprovedForPublish returns approved items, most recently reviewed first.
func (w *Workflow) ApprovedForPublish(ctx context.Context, limit int) ([]model.ReviewItem, error) {
	return w.store.ListApproved(ctx, limit)
}

// QueueStats computes the current review statistics. The approval rate is
// approved/total as a percentage, rounded to two decimals, and zero when
// no items exist.
func (w *Workflow) QueueStats(ctx context.Context) (Stats, error) {
	counts, err := w.store.Counts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}

	s := Stats{StatusCounts: counts}
	if counts.Total > 0 {
		rate := float64(counts.Approved) / float64(counts.Total) * 100
		s.ApprovalRate = math.Round(rate*100) / 100
	}
	return s, nil
}
