package cache

import (
	"testing"
	"time"
)

func TestRegisterThenDuplicate(t *testing.T) {
	c := New()

	if c.IsDuplicate("Go Developer", "https://example.com/jobs/1") {
		t.Fatal("fresh cache reported a duplicate")
	}

	c.Register("Go Developer", "https://example.com/jobs/1")

	if !c.IsDuplicate("Go Developer", "https://example.com/jobs/1") {
		t.Error("registered posting not reported as duplicate")
	}
	// Title casing must not matter.
	if !c.IsDuplicate("go developer", "https://example.com/jobs/1") {
		t.Error("case-changed title not reported as duplicate")
	}
	// A different link is a different posting.
	if c.IsDuplicate("Go Developer", "https://example.com/jobs/2") {
		t.Error("different link reported as duplicate")
	}
}

func TestExpiryIsLazy(t *testing.T) {
	c := New()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Register("Backend Engineer", "https://example.com/jobs/7")

	clock = clock.Add(24*time.Hour - time.Second)
	if !c.IsDuplicate("Backend Engineer", "https://example.com/jobs/7") {
		t.Fatal("posting expired before TTL elapsed")
	}

	// Exactly at the TTL boundary the entry counts as expired.
	clock = clock.Add(time.Second)
	if c.IsDuplicate("Backend Engineer", "https://example.com/jobs/7") {
		t.Fatal("posting still duplicate at the TTL boundary")
	}

	// The expired entry is deleted on check.
	if cached, _ := c.Stats(); cached != 0 {
		t.Errorf("expected 0 cached entries after lazy expiry, got %d", cached)
	}

	// Re-registering restarts the TTL.
	c.Register("Backend Engineer", "https://example.com/jobs/7")
	clock = clock.Add(time.Hour)
	if !c.IsDuplicate("Backend Engineer", "https://example.com/jobs/7") {
		t.Error("re-registered posting not reported as duplicate")
	}
}

func TestBlocklist(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		title   string
		company string
		want    bool
	}{
		{"clean posting", "Go Developer", "Acme", false},
		{"default term in title", "MLM Sales Lead", "Acme", true},
		{"default term in company", "Sales Rep", "Pyramid Corp", true},
		{"case-insensitive", "UNPAID INTERNSHIP opportunity", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsBlocked(tt.title, tt.company); got != tt.want {
				t.Errorf("IsBlocked(%q, %q) = %v, want %v", tt.title, tt.company, got, tt.want)
			}
		})
	}
}

func TestBlockAddsTerm(t *testing.T) {
	c := New()

	if c.IsBlocked("Crypto Evangelist", "MoonCoin") {
		t.Fatal("term blocked before being added")
	}

	c.Block("CRYPTO")
	if !c.IsBlocked("Crypto Evangelist", "MoonCoin") {
		t.Error("added term not matched")
	}

	// Idempotent add must not grow the list.
	_, before := c.Stats()
	c.Block("crypto")
	if _, after := c.Stats(); after != before {
		t.Errorf("blocklist grew from %d to %d on duplicate add", before, after)
	}
}
