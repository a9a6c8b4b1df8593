// Package quality scores discovered postings and applies filter rules so
// that only relevant candidates reach review.
package quality

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"jobradar/internal/model"
)

// Keyword tiers. A tier contributes once per posting regardless of how often
// a keyword repeats.
var (
	highKeywords = []string{
		"remote", "home office", "flexible hours", "stock options", "equity",
	}
	mediumKeywords = []string{
		"hybrid", "health insurance", "learning budget", "annual bonus",
	}
	lowKeywords = []string{
		"on-site only", "fast-paced", "wear many hats",
	}
)

// knownEmployers get a flat bonus when the company field matches.
var knownEmployers = []string{
	"google", "microsoft", "amazon", "nubank", "stone", "ifood",
}

const (
	highWeight     = 3
	mediumWeight   = 2
	lowWeight      = -1
	employerWeight = 5
)

// Salary patterns, tried in order. First match wins.
var salaryPatterns = []struct {
	re         *regexp.Regexp
	multiplier int
}{
	{regexp.MustCompile(`(?i)(?:r\$|\$|€|£)\s*(\d[\d.,]*)`), 1},
	{regexp.MustCompile(`(?i)\b(\d+)\s*k\b`), 1000},
	{regexp.MustCompile(`(?i)salary[^0-9]*(\d[\d.,]*)`), 1},
	{regexp.MustCompile(`(?i)up to[^0-9]*(\d[\d.,]*)`), 1},
}

// seniorityBands map text markers to a band's minimum salary, used as a
// fallback estimate when no explicit figure is present. Order matters: the
// first matching band wins.
var seniorityBands = []struct {
	marker  string
	minimum int
}{
	{"junior", 2000},
	{"mid", 4000},
	{"senior", 8000},
	{"specialist", 10000},
}

// blockedCompanies is the scorer's own rejection list, checked during
// filtering. It is separate from the dedup cache blocklist.
var blockedCompanies = []string{
	"staffing hut", "bulkhire",
}

// Scorer evaluates posting quality. Zero value is not usable; construct
// with NewScorer.
type Scorer struct{}

// NewScorer returns a Scorer with the built-in keyword tiers.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the quality score for a posting. Each keyword tier counts
// once per matched keyword, a known employer adds a flat bonus, and the
// result never drops below zero.
func (s *Scorer) Score(title, description, company string) int {
	text := strings.ToLower(title + " " + description)

	score := 0
	for _, kw := range highKeywords {
		if strings.Contains(text, kw) {
			score += highWeight
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(text, kw) {
			score += mediumWeight
		}
	}
	for _, kw := range lowKeywords {
		if strings.Contains(text, kw) {
			score += lowWeight
		}
	}

	companyLower := strings.ToLower(company)
	for _, emp := range knownEmployers {
		if strings.Contains(companyLower, emp) {
			score += employerWeight
			break
		}
	}

	if score < 0 {
		score = 0
	}
	return score
}

// ExtractSalary pulls a monthly salary figure out of a posting. Both the
// explicit patterns and the seniority-band fallback scan the combined
// title + description text, so a figure stated in the title counts too.
// ok is false when neither stage yields a number.
func (s *Scorer) ExtractSalary(title, description string) (int, bool) {
	combined := title + " " + description

	for _, p := range salaryPatterns {
		m := p.re.FindStringSubmatch(combined)
		if m == nil {
			continue
		}
		raw := strings.NewReplacer(".", "", ",", "").Replace(m[1])
		n, err := strconv.Atoi(raw)
		if err != nil || n == 0 {
			continue
		}
		return n * p.multiplier, true
	}

	combinedLower := strings.ToLower(combined)
	for _, band := range seniorityBands {
		if strings.Contains(combinedLower, band.marker) {
			return band.minimum, true
		}
	}

	return 0, false
}

// Passes applies a FilterSpec to a candidate. Zero-value fields are
// unconstrained. A posting with no extractable salary passes the
// minimum-salary check rather than being discarded on missing data.
func (s *Scorer) Passes(c model.Candidate, spec model.FilterSpec) bool {
	companyLower := strings.ToLower(c.Company)
	for _, blocked := range blockedCompanies {
		if companyLower != "" && strings.Contains(companyLower, blocked) {
			return false
		}
	}

	if spec.MinSalary > 0 {
		if salary, ok := s.ExtractSalary(c.Title, c.Description); ok && salary < spec.MinSalary {
			return false
		}
	}

	// A "remote" location filter is unconstrained: remote work needs no
	// particular posting location.
	if spec.Location != "" && !strings.EqualFold(spec.Location, "remote") {
		if !strings.Contains(strings.ToLower(c.Location), strings.ToLower(spec.Location)) {
			return false
		}
	}

	if spec.Seniority != "" {
		if !strings.Contains(strings.ToLower(c.Title), strings.ToLower(spec.Seniority)) {
			return false
		}
	}

	return true
}

// Rank sorts candidates by quality score, highest first. The sort is stable
// so equal-score candidates keep their discovery order.
func Rank(candidates []model.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].QualityScore > candidates[j].QualityScore
	})
}

// FilterAndRank scores every candidate, drops the ones that fail the filter
// spec, and returns the survivors ranked by score.
func (s *Scorer) FilterAndRank(candidates []model.Candidate, spec model.FilterSpec) []model.Candidate {
	kept := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.QualityScore = s.Score(c.Title, c.Description, c.Company)
		if !s.Passes(c, spec) {
			continue
		}
		kept = append(kept, c)
	}
	Rank(kept)
	return kept
}
