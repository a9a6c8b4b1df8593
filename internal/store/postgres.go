package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobradar/internal/model"
)

// schema is applied at startup. Idempotent so restarts are safe.
const schema = `
CREATE TABLE IF NOT EXISTS review_items (
    id               TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    company          TEXT NOT NULL DEFAULT '',
    location         TEXT NOT NULL DEFAULT '',
    source           TEXT NOT NULL DEFAULT '',
    link             TEXT NOT NULL UNIQUE,
    quality_score    INT  NOT NULL DEFAULT 0,
    status           TEXT NOT NULL DEFAULT 'pending',
    rejection_reason TEXT NOT NULL DEFAULT '',
    discovered_at    TIMESTAMPTZ NOT NULL,
    reviewed_at      TIMESTAMPTZ,
    reviewed_by      TEXT NOT NULL DEFAULT '',
    auto_approved    BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_review_items_status
    ON review_items (status, quality_score DESC, discovered_at DESC);

CREATE TABLE IF NOT EXISTS search_runs (
    id           BIGSERIAL PRIMARY KEY,
    keyword      TEXT NOT NULL,
    region       TEXT NOT NULL,
    source       TEXT NOT NULL DEFAULT '',
    jobs_found   INT  NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    error        TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStore is the pgx-backed RecordStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertIfAbsent(ctx context.Context, item model.ReviewItem) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO review_items
		     (id, title, company, location, source, link, quality_score,
		      status, rejection_reason, discovered_at, reviewed_at, reviewed_by, auto_approved)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		 WHERE NOT EXISTS (
		   SELECT 1 FROM review_items WHERE link = $6
		 )`,
		item.ID, item.Title, item.Company, item.Location, item.Source, item.Link,
		item.QualityScore, string(item.Status), item.RejectionReason,
		item.DiscoveredAt, item.ReviewedAt, item.ReviewedBy, item.AutoApproved,
	)
	if err != nil {
		return false, fmt.Errorf("insert review item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) TransitionFromPending(ctx context.Context, id string, to model.ReviewStatus,
	reviewer, reason string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE review_items
		 SET status = $2, reviewed_by = $3, rejection_reason = $4, reviewed_at = $5
		 WHERE id = $1 AND status = 'pending'`,
		id, string(to), reviewer, reason, at,
	)
	if err != nil {
		return false, fmt.Errorf("transition review item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListPending(ctx context.Context, limit int) ([]model.ReviewItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, company, location, source, link, quality_score,
		        status, rejection_reason, discovered_at, reviewed_at, reviewed_by, auto_approved
		 FROM review_items
		 WHERE status = 'pending'
		 ORDER BY quality_score DESC, discovered_at DESC
		 LIMIT $1`,
		nullableLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *PostgresStore) ListApproved(ctx context.Context, limit int) ([]model.ReviewItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, company, location, source, link, quality_score,
		        status, rejection_reason, discovered_at, reviewed_at, reviewed_by, auto_approved
		 FROM review_items
		 WHERE status = 'approved'
		 ORDER BY reviewed_at DESC NULLS LAST
		 LIMIT $1`,
		nullableLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query approved: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *PostgresStore) Counts(ctx context.Context) (StatusCounts, error) {
	var c StatusCounts
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'pending'),
		        COUNT(*) FILTER (WHERE status = 'approved'),
		        COUNT(*) FILTER (WHERE status = 'rejected'),
		        COUNT(*) FILTER (WHERE status = 'approved' AND auto_approved)
		 FROM review_items`,
	).Scan(&c.Total, &c.Pending, &c.Approved, &c.Rejected, &c.AutoApproved)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("count review items: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) RecordSearchRun(ctx context.Context, run SearchRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_runs
		     (keyword, region, source, jobs_found, status, error, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.Keyword, run.Region, run.Source, run.JobsFound, run.Status, run.Error,
		run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert search run: %w", err)
	}
	return nil
}

func scanItems(rows pgx.Rows) ([]model.ReviewItem, error) {
	var items []model.ReviewItem
	for rows.Next() {
		var item model.ReviewItem
		var status string
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Company, &item.Location, &item.Source,
			&item.Link, &item.QualityScore, &status, &item.RejectionReason,
			&item.DiscoveredAt, &item.ReviewedAt, &item.ReviewedBy, &item.AutoApproved,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		item.Status = model.ReviewStatus(status)
		items = append(items, item)
	}
	return items, rows.Err()
}

// nullableLimit turns a non-positive limit into NULL so LIMIT is a no-op.
func nullableLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
