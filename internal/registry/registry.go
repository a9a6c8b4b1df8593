// Package registry manages search profiles and expands them into the
// concrete search matrix the scheduler executes.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"jobradar/internal/model"
)

// ConfigurationError reports an invalid profile submitted to the registry.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// cronParser accepts standard five-field cron expressions.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// SearchProfile groups keywords and regions under one schedule and priority.
type SearchProfile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Regions  []string `json:"regions"`
	Schedule string   `json:"schedule"`
	Priority int      `json:"priority"`
	Active   bool     `json:"active"`
}

// RegionCoverage summarizes how much search activity targets one region.
type RegionCoverage struct {
	Region      string `json:"region"`
	Keywords    int    `json:"keywordCount"`
	PrioritySum int    `json:"prioritySum"`
}

// Registry holds the profile list. Profiles are append-only; deactivation
// flips Active instead of removing.
type Registry struct {
	mu       sync.Mutex
	profiles []SearchProfile
}

// New returns a Registry seeded with the default search profiles.
func New() *Registry {
	r := &Registry{}
	r.profiles = []SearchProfile{
		{
			ID:       "profile_1",
			Name:     "engineering core",
			Keywords: []string{"backend developer", "golang developer"},
			Regions:  []string{"remote", "berlin"},
			Schedule: "0 */4 * * *",
			Priority: 5,
			Active:   true,
		},
		{
			ID:       "profile_2",
			Name:     "data roles",
			Keywords: []string{"data engineer"},
			Regions:  []string{"remote", "amsterdam"},
			Schedule: "0 8 * * *",
			Priority: 3,
			Active:   true,
		},
		{
			ID:       "profile_3",
			Name:     "entry level sweep",
			Keywords: []string{"junior developer"},
			Regions:  []string{"remote"},
			Schedule: "0 12 * * 1",
			Priority: 1,
			Active:   false,
		},
	}
	return r
}

// AddProfile validates and appends a profile, returning its assigned ID.
// Validation happens synchronously so a broken schedule never reaches the
// scheduler.
func (r *Registry) AddProfile(p SearchProfile) (string, error) {
	if len(p.Keywords) == 0 {
		return "", &ConfigurationError{Msg: "profile needs at least one keyword"}
	}
	if len(p.Regions) == 0 {
		return "", &ConfigurationError{Msg: "profile needs at least one region"}
	}
	if p.Priority == 0 {
		p.Priority = 3
	}
	if p.Priority < 1 || p.Priority > 5 {
		return "", &ConfigurationError{Msg: fmt.Sprintf("priority %d out of range 1-5", p.Priority)}
	}
	if _, err := cronParser.Parse(p.Schedule); err != nil {
		return "", &ConfigurationError{Msg: fmt.Sprintf("invalid schedule %q: %v", p.Schedule, err)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = fmt.Sprintf("profile_%d", len(r.profiles)+1)
	r.profiles = append(r.profiles, p)
	return p.ID, nil
}

// SetActive flips a profile's active flag. Unknown IDs are reported.
func (r *Registry) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.profiles {
		if r.profiles[i].ID == id {
			r.profiles[i].Active = active
			return nil
		}
	}
	return fmt.Errorf("unknown profile %q", id)
}

// Profiles returns a copy of every registered profile, active or not.
func (r *Registry) Profiles() []SearchProfile {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SearchProfile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Expand produces one SearchTask per (keyword × region) pair of every active
// profile, ordered by priority descending. The sort is stable, so tasks of
// equal priority keep profile registration order.
func (r *Registry) Expand() []model.SearchTask {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tasks []model.SearchTask
	for _, p := range r.profiles {
		if !p.Active {
			continue
		}
		for _, kw := range p.Keywords {
			for _, region := range p.Regions {
				tasks = append(tasks, model.SearchTask{
					ID:       taskID(kw, region),
					Keyword:  kw,
					Region:   region,
					Schedule: p.Schedule,
					Priority: p.Priority,
				})
			}
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority > tasks[j].Priority
	})
	return tasks
}

// HighPriority returns the expanded tasks with priority 4 or higher.
func (r *Registry) HighPriority() []model.SearchTask {
	all := r.Expand()
	high := make([]model.SearchTask, 0, len(all))
	for _, t := range all {
		if t.Priority >= 4 {
			high = append(high, t)
		}
	}
	return high
}

// RegionalSummary recomputes coverage per region over all profiles,
// including inactive ones.
func (r *Registry) RegionalSummary() []RegionCoverage {
	r.mu.Lock()
	defer r.mu.Unlock()

	byRegion := make(map[string]*RegionCoverage)
	var order []string
	for _, p := range r.profiles {
		for _, region := range p.Regions {
			cov, ok := byRegion[region]
			if !ok {
				cov = &RegionCoverage{Region: region}
				byRegion[region] = cov
				order = append(order, region)
			}
			cov.Keywords += len(p.Keywords)
			cov.PrioritySum += p.Priority
		}
	}

	out := make([]RegionCoverage, 0, len(order))
	for _, region := range order {
		out = append(out, *byRegion[region])
	}
	return out
}

func taskID(keyword, region string) string {
	return strings.ReplaceAll(keyword+"_"+region, " ", "_")
}
