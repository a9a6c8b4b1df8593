package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"jobradar/internal/model"
)

// MemoryStore is a mutex-guarded in-memory RecordStore, used in tests and
// when no database is configured.
type MemoryStore struct {
	mu     sync.Mutex
	byLink map[string]string // link -> id
	byID   map[string]model.ReviewItem
	runs   []SearchRun
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byLink: make(map[string]string),
		byID:   make(map[string]model.ReviewItem),
	}
}

func (m *MemoryStore) InsertIfAbsent(_ context.Context, item model.ReviewItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byLink[item.Link]; exists {
		return false, nil
	}
	m.byLink[item.Link] = item.ID
	m.byID[item.ID] = item
	return true, nil
}

func (m *MemoryStore) TransitionFromPending(_ context.Context, id string, to model.ReviewStatus,
	reviewer, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.byID[id]
	if !ok || item.Status != model.StatusPending {
		return false, nil
	}

	item.Status = to
	item.ReviewedBy = reviewer
	item.RejectionReason = reason
	item.ReviewedAt = &at
	m.byID[id] = item
	return true, nil
}

func (m *MemoryStore) ListPending(_ context.Context, limit int) ([]model.ReviewItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []model.ReviewItem
	for _, item := range m.byID {
		if item.Status == model.StatusPending {
			pending = append(pending, item)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].QualityScore != pending[j].QualityScore {
			return pending[i].QualityScore > pending[j].QualityScore
		}
		return pending[i].DiscoveredAt.After(pending[j].DiscoveredAt)
	})
	return clip(pending, limit), nil
}

func (m *MemoryStore) ListApproved(_ context.Context, limit int) ([]model.ReviewItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var approved []model.ReviewItem
	for _, item := range m.byID {
		if item.Status == model.StatusApproved {
			approved = append(approved, item)
		}
	}
	sort.SliceStable(approved, func(i, j int) bool {
		ti, tj := approved[i].ReviewedAt, approved[j].ReviewedAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.After(*tj)
	})
	return clip(approved, limit), nil
}

func (m *MemoryStore) Counts(_ context.Context) (StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var c StatusCounts
	for _, item := range m.byID {
		c.Total++
		switch item.Status {
		case model.StatusPending:
			c.Pending++
		case model.StatusApproved:
			c.Approved++
			if item.AutoApproved {
				c.AutoApproved++
			}
		case model.StatusRejected:
			c.Rejected++
		}
	}
	return c, nil
}

func (m *MemoryStore) RecordSearchRun(_ context.Context, run SearchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// SearchRuns returns a copy of all recorded runs, oldest first.
func (m *MemoryStore) SearchRuns() []SearchRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SearchRun, len(m.runs))
	copy(out, m.runs)
	return out
}

// Get looks up a single item by ID.
func (m *MemoryStore) Get(id string) (model.ReviewItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.byID[id]
	if !ok {
		return model.ReviewItem{}, ErrNotFound
	}
	return item, nil
}

func clip(items []model.ReviewItem, limit int) []model.ReviewItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
