// Package publisher transforms approved review items into catalog postings
// and pushes them to the external catalog service.
package publisher

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"jobradar/internal/model"
	"jobradar/internal/telemetry"
)

// PostingRecord is the canonical catalog representation of a posting.
type PostingRecord struct {
	Title        string `json:"title"`
	Company      string `json:"company"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Benefits     string `json:"benefits"`
	WorkType     string `json:"work_type"`
	ContractType string `json:"contract_type"`
	Seniority    string `json:"seniority"`
	SourceURL    string `json:"source_url"`
}

// CatalogClient is the boundary to the external catalog service.
type CatalogClient interface {
	Create(ctx context.Context, rec PostingRecord) (string, error)
	Approve(ctx context.Context, id string) error
}

// Result summarizes one publish run. Status is "no_jobs" when the input was
// empty and "completed" otherwise, even if every item failed.
type Result struct {
	Status       string   `json:"status"`
	Sent         int      `json:"sent"`
	Failed       int      `json:"failed"`
	FailedTitles []string `json:"failedTitles,omitempty"`
}

// inference rules are ordered; the first matching marker wins, so a posting
// titled "Senior" that also mentions "junior" resolves by rule position.
var workTypeRules = []struct {
	markers []string
	value   string
}{
	{[]string{"remote", "home office"}, "REMOTE"},
	{[]string{"hybrid"}, "HYBRID"},
}

var contractTypeRules = []struct {
	markers []string
	value   string
}{
	{[]string{"intern", "internship", "trainee"}, "INTERNSHIP"},
	{[]string{"freelance", "contractor"}, "FREELANCE"},
}

var seniorityRules = []struct {
	markers []string
	value   string
}{
	{[]string{"junior", "jr"}, "JUNIOR"},
	{[]string{"senior", "sr"}, "SENIOR"},
	{[]string{"mid", "pleno"}, "MID_LEVEL"},
}

// WorkTypeFor infers the work type from title and location text. Defaults
// to ON_SITE.
func WorkTypeFor(title, location string) string {
	return matchRules(workTypeRules, title+" "+location, "ON_SITE")
}

// ContractTypeFor infers the contract type from the title. Defaults to CLT.
func ContractTypeFor(title string) string {
	return matchRules(contractTypeRules, title, "CLT")
}

// SeniorityFor infers the seniority level from the title. Defaults to
// MID_LEVEL.
func SeniorityFor(title string) string {
	return matchRules(seniorityRules, title, "MID_LEVEL")
}

func matchRules(rules []struct {
	markers []string
	value   string
}, text, fallback string) string {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, marker := range rule.markers {
			if strings.Contains(lower, marker) {
				return rule.value
			}
		}
	}
	return fallback
}

// requirementsFor builds a short requirements blurb keyed off the title.
func requirementsFor(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "go") || strings.Contains(lower, "golang"):
		return "Experience with Go, relational databases and HTTP APIs."
	case strings.Contains(lower, "data"):
		return "Experience with data pipelines, SQL and a scripting language."
	case strings.Contains(lower, "frontend"):
		return "Experience with modern JavaScript frameworks and CSS."
	default:
		return "Relevant professional experience for the role."
	}
}

// Publisher drives publishing of approved items.
type Publisher struct {
	client CatalogClient
}

// New returns a Publisher over the given catalog client.
func New(client CatalogClient) *Publisher {
	return &Publisher{client: client}
}

// BuildRecord converts one review item into its canonical catalog record.
func BuildRecord(item model.ReviewItem) PostingRecord {
	return PostingRecord{
		Title:    item.Title,
		Company:  item.Company,
		Location: item.Location,
		Description: fmt.Sprintf("%s at %s. Discovered via %s with quality score %d.",
			item.Title, orUnknown(item.Company), item.Source, item.QualityScore),
		Requirements: requirementsFor(item.Title),
		Benefits:     "See posting for details.",
		WorkType:     WorkTypeFor(item.Title, item.Location),
		ContractType: ContractTypeFor(item.Title),
		Seniority:    SeniorityFor(item.Title),
		SourceURL:    item.Link,
	}
}

// Publish creates one catalog posting per item, optionally approving each
// right after creation. One failed item never stops the rest; an approve
// failure after a successful create still counts the item as sent.
func (p *Publisher) Publish(ctx context.Context, items []model.ReviewItem, autoApprove bool) Result {
	if len(items) == 0 {
		return Result{Status: "no_jobs"}
	}

	res := Result{Status: "completed"}
	for _, item := range items {
		id, err := p.client.Create(ctx, BuildRecord(item))
		if err != nil {
			log.Printf("[publisher] Create failed for %q: %v — continuing", item.Title, err)
			telemetry.PublishFailures.Inc()
			res.Failed++
			res.FailedTitles = append(res.FailedTitles, item.Title)
			continue
		}

		if autoApprove {
			if err := p.client.Approve(ctx, id); err != nil {
				slog.Warn("catalog approve failed", "id", id, "title", item.Title, "err", err)
			}
		}

		telemetry.PublishedTotal.Inc()
		res.Sent++
	}

	return res
}

func orUnknown(s string) string {
	if s == "" {
		return "an unnamed company"
	}
	return s
}
