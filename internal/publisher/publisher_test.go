package publisher_test

import (
	"context"
	"errors"
	"testing"

	"jobradar/internal/model"
	"jobradar/internal/publisher"
)

type fakeCatalog struct {
	created  []publisher.PostingRecord
	approved []string
	failOn   map[string]bool
	nextID   int
}

func (f *fakeCatalog) Create(_ context.Context, rec publisher.PostingRecord) (string, error) {
	if f.failOn[rec.Title] {
		return "", errors.New("catalog down")
	}
	f.nextID++
	f.created = append(f.created, rec)
	return rec.Title, nil
}

func (f *fakeCatalog) Approve(_ context.Context, id string) error {
	f.approved = append(f.approved, id)
	return nil
}

func TestPublishEmptyInput(t *testing.T) {
	p := publisher.New(&fakeCatalog{})

	res := p.Publish(context.Background(), nil, true)
	if res.Status != "no_jobs" || res.Sent != 0 || res.Failed != 0 {
		t.Errorf("result = %+v, want no_jobs", res)
	}
}

func TestPublishPartialFailure(t *testing.T) {
	cat := &fakeCatalog{failOn: map[string]bool{"Broken": true}}
	p := publisher.New(cat)

	items := []model.ReviewItem{
		{Title: "Works", Link: "https://x/1"},
		{Title: "Broken", Link: "https://x/2"},
		{Title: "Also Works", Link: "https://x/3"},
	}

	res := p.Publish(context.Background(), items, true)

	if res.Status != "completed" {
		t.Errorf("status = %q, want completed", res.Status)
	}
	if res.Sent != 2 || res.Failed != 1 {
		t.Errorf("sent/failed = %d/%d, want 2/1", res.Sent, res.Failed)
	}
	if len(res.FailedTitles) != 1 || res.FailedTitles[0] != "Broken" {
		t.Errorf("failedTitles = %v", res.FailedTitles)
	}
	if len(cat.approved) != 2 {
		t.Errorf("approved %d postings, want 2", len(cat.approved))
	}
}

func TestPublishWithoutAutoApprove(t *testing.T) {
	cat := &fakeCatalog{}
	p := publisher.New(cat)

	res := p.Publish(context.Background(), []model.ReviewItem{{Title: "Role"}}, false)
	if res.Sent != 1 || len(cat.approved) != 0 {
		t.Errorf("sent = %d approved = %d, want 1 and 0", res.Sent, len(cat.approved))
	}
	// All-failed input is still "completed", distinct from empty input.
	cat2 := &fakeCatalog{failOn: map[string]bool{"Role": true}}
	res2 := publisher.New(cat2).Publish(context.Background(), []model.ReviewItem{{Title: "Role"}}, false)
	if res2.Status != "completed" || res2.Failed != 1 {
		t.Errorf("all-failed result = %+v", res2)
	}
}

func TestWorkTypeFor(t *testing.T) {
	tests := []struct {
		title, location, want string
	}{
		{"Remote Go Developer", "", "REMOTE"},
		{"Go Developer", "Home Office", "REMOTE"},
		{"Go Developer hybrid", "Berlin", "HYBRID"},
		{"Remote-friendly hybrid role", "", "REMOTE"}, // first rule wins
		{"Go Developer", "Berlin", "ON_SITE"},
	}
	for _, tt := range tests {
		if got := publisher.WorkTypeFor(tt.title, tt.location); got != tt.want {
			t.Errorf("WorkTypeFor(%q, %q) = %q, want %q", tt.title, tt.location, got, tt.want)
		}
	}
}

func TestContractTypeFor(t *testing.T) {
	tests := []struct {
		title, want string
	}{
		{"Engineering Intern", "INTERNSHIP"},
		{"Freelance Designer", "FREELANCE"},
		{"Go Developer", "CLT"},
	}
	for _, tt := range tests {
		if got := publisher.ContractTypeFor(tt.title); got != tt.want {
			t.Errorf("ContractTypeFor(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSeniorityFor(t *testing.T) {
	tests := []struct {
		title, want string
	}{
		{"Junior Developer", "JUNIOR"},
		{"Sr Backend Engineer", "SENIOR"},
		{"Mid-level Engineer", "MID_LEVEL"},
		{"Junior to Senior Developer", "JUNIOR"}, // first rule wins
		{"Backend Engineer", "MID_LEVEL"},        // default
	}
	for _, tt := range tests {
		if got := publisher.SeniorityFor(tt.title); got != tt.want {
			t.Errorf("SeniorityFor(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestBuildRecord(t *testing.T) {
	rec := publisher.BuildRecord(model.ReviewItem{
		Title:        "Senior Golang Developer",
		Company:      "Acme",
		Location:     "Remote",
		Source:       "board",
		Link:         "https://x/1",
		QualityScore: 8,
	})

	if rec.WorkType != "REMOTE" || rec.Seniority != "SENIOR" || rec.ContractType != "CLT" {
		t.Errorf("inferred fields = %s/%s/%s", rec.WorkType, rec.ContractType, rec.Seniority)
	}
	if rec.SourceURL != "https://x/1" {
		t.Errorf("sourceURL = %q", rec.SourceURL)
	}
	if rec.Requirements == "" || rec.Description == "" {
		t.Error("record missing generated text")
	}
}
