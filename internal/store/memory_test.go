package store_test

import (
	"context"
	"testing"
	"time"

	"jobradar/internal/model"
	"jobradar/internal/store"
)

func item(id, link string, score int, discovered time.Time) model.ReviewItem {
	return model.ReviewItem{
		ID:           id,
		Title:        "Posting " + id,
		Link:         link,
		Status:       model.StatusPending,
		QualityScore: score,
		DiscoveredAt: discovered,
	}
}

func TestInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	now := time.Now()

	inserted, err := m.InsertIfAbsent(ctx, item("a", "https://x/1", 5, now))
	if err != nil || !inserted {
		t.Fatalf("first insert = (%v, %v), want (true, nil)", inserted, err)
	}

	// Same link, different ID: silently skipped.
	inserted, err = m.InsertIfAbsent(ctx, item("b", "https://x/1", 9, now))
	if err != nil || inserted {
		t.Fatalf("duplicate insert = (%v, %v), want (false, nil)", inserted, err)
	}

	counts, err := m.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Total != 1 || counts.Pending != 1 {
		t.Errorf("counts = %+v, want total 1 pending 1", counts)
	}
}

func TestTransitionFromPending(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	now := time.Now()

	if _, err := m.InsertIfAbsent(ctx, item("a", "https://x/1", 5, now)); err != nil {
		t.Fatal(err)
	}

	moved, err := m.TransitionFromPending(ctx, "a", model.StatusRejected, "alice", "spam", now)
	if err != nil || !moved {
		t.Fatalf("transition = (%v, %v), want (true, nil)", moved, err)
	}

	// Terminal state: a second transition is refused without error.
	moved, err = m.TransitionFromPending(ctx, "a", model.StatusApproved, "bob", "", now)
	if err != nil || moved {
		t.Fatalf("re-transition = (%v, %v), want (false, nil)", moved, err)
	}

	// Unknown ID behaves the same.
	moved, err = m.TransitionFromPending(ctx, "ghost", model.StatusApproved, "bob", "", now)
	if err != nil || moved {
		t.Fatalf("unknown-id transition = (%v, %v), want (false, nil)", moved, err)
	}

	got, err := m.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusRejected || got.ReviewedBy != "alice" || got.RejectionReason != "spam" {
		t.Errorf("item after transition = %+v", got)
	}
}

func TestListPendingOrder(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	m.InsertIfAbsent(ctx, item("old-high", "https://x/1", 8, base))
	m.InsertIfAbsent(ctx, item("new-high", "https://x/2", 8, base.Add(time.Hour)))
	m.InsertIfAbsent(ctx, item("low", "https://x/3", 2, base.Add(2*time.Hour)))

	pending, err := m.ListPending(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"new-high", "old-high", "low"}
	if len(pending) != len(want) {
		t.Fatalf("got %d pending, want %d", len(pending), len(want))
	}
	for i, id := range want {
		if pending[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, pending[i].ID, id)
		}
	}

	limited, err := m.ListPending(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit 2 returned %d items", len(limited))
	}
}
