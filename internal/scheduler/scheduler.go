// Package scheduler wires up the cron triggers that periodically execute
// the expanded search matrix, fans tasks out with bounded concurrency, and
// pushes results into dedup, scoring, notification and review.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"jobradar/internal/approval"
	"jobradar/internal/cache"
	"jobradar/internal/model"
	"jobradar/internal/quality"
	"jobradar/internal/registry"
	"jobradar/internal/store"
	"jobradar/internal/telemetry"
)

const (
	// DefaultCooldown separates the high-priority tier from the rest of a
	// batch so the tiers never compete for connector capacity.
	DefaultCooldown = 30 * time.Second

	// DefaultConcurrency bounds how many searches run at once inside a tier.
	DefaultConcurrency = 10

	// DefaultTaskTimeout bounds one connector call.
	DefaultTaskTimeout = 60 * time.Second

	// DefaultNotifyTopN is how many top-scored candidates per tier go to the
	// notifier.
	DefaultNotifyTopN = 10

	highPriorityFloor = 4
)

// SourceConnector searches one external source for a (keyword, region) pair.
type SourceConnector interface {
	Search(ctx context.Context, keyword, region string, spec model.FilterSpec) ([]model.Candidate, error)
}

// Notifier delivers a digest of top candidates. Delivery failures never
// affect the batch outcome.
type Notifier interface {
	Notify(ctx context.Context, candidates []model.Candidate, label string) error
}

// Ingestor receives the surviving candidates of a tier.
type Ingestor interface {
	Ingest(ctx context.Context, candidates []model.Candidate) (approval.IngestResult, error)
}

// RunRecorder persists per-task run history. Optional.
type RunRecorder interface {
	RecordSearchRun(ctx context.Context, run store.SearchRun) error
}

// Deps carries the scheduler's collaborators.
type Deps struct {
	Registry  *registry.Registry
	Connector SourceConnector
	Cache     *cache.Cache
	Scorer    *quality.Scorer
	Notifier  Notifier
	Workflow  Ingestor
	Recorder  RunRecorder // may be nil
}

// Options tunes batch execution. Zero values fall back to the defaults.
type Options struct {
	Cooldown    time.Duration
	TaskTimeout time.Duration
	Concurrency int
	NotifyTopN  int
	Filter      model.FilterSpec
}

func (o *Options) fill() {
	if o.Cooldown == 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.TaskTimeout <= 0 {
		o.TaskTimeout = DefaultTaskTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.NotifyTopN <= 0 {
		o.NotifyTopN = DefaultNotifyTopN
	}
}

// Firing describes one upcoming trigger for introspection.
type Firing struct {
	TriggerID string    `json:"triggerId"`
	Schedule  string    `json:"schedule"`
	Tasks     int       `json:"tasks"`
	NextRun   time.Time `json:"nextRun"`
}

// Batch is the scheduling engine. Configure builds one cron trigger per
// distinct schedule string; ExecuteBatch runs a task group tier by tier.
type Batch struct {
	ctx  context.Context // process lifecycle, governs every trigger firing
	deps Deps

	mu      sync.Mutex
	entries map[string]cron.EntryID // schedule -> cron entry
	tasks   map[string][]model.SearchTask
	running map[string]bool // per-group overlap guard for direct runs

	cron *cron.Cron
	opts Options
}

// New creates a Batch scheduler. ctx is the process lifecycle context; cron
// firings run under it, never under the context of whoever happened to call
// Configure. The cron instance is not started; call Start after Configure.
func New(ctx context.Context, deps Deps, opts Options) *Batch {
	opts.fill()
	return &Batch{
		ctx:     ctx,
		deps:    deps,
		entries: make(map[string]cron.EntryID),
		tasks:   make(map[string][]model.SearchTask),
		running: make(map[string]bool),
		cron:    cron.New(cron.WithLogger(cron.DiscardLogger)),
		opts:    opts,
	}
}

// Configure expands the registry and rebuilds the trigger set, one cron
// entry per distinct schedule string. Calling it again replaces the
// previous triggers rather than stacking new ones.
func (b *Batch) Configure() error {
	groups := groupBySchedule(b.deps.Registry.Expand())

	b.mu.Lock()
	defer b.mu.Unlock()

	for schedule, id := range b.entries {
		b.cron.Remove(id)
		delete(b.entries, schedule)
		delete(b.tasks, schedule)
	}

	for schedule, tasks := range groups {
		schedule, tasks := schedule, tasks
		job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(
			cron.FuncJob(func() { b.RunGroup(b.ctx, schedule, tasks) }),
		)
		id, err := b.cron.AddJob(schedule, job)
		if err != nil {
			return fmt.Errorf("cron.AddJob(%q): %w", schedule, err)
		}
		b.entries[schedule] = id
		b.tasks[schedule] = tasks
		log.Printf("[scheduler] Trigger %s registered — schedule %q, %d task(s)",
			triggerID(schedule), schedule, len(tasks))
	}

	return nil
}

// Start begins firing the configured triggers.
func (b *Batch) Start() {
	b.cron.Start()
	log.Printf("[scheduler] Cron started — %d trigger(s)", len(b.entries))
}

// Stop shuts down the cron loop. Jobs already running finish on their own.
func (b *Batch) Stop() {
	b.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// RunGroup executes one schedule group. If the same group is still running
// from an earlier firing, the call is skipped and false is returned.
func (b *Batch) RunGroup(ctx context.Context, schedule string, tasks []model.SearchTask) bool {
	b.mu.Lock()
	if b.running[schedule] {
		b.mu.Unlock()
		log.Printf("[scheduler] Group %s still running — skipping firing", triggerID(schedule))
		return false
	}
	b.running[schedule] = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running[schedule] = false
		b.mu.Unlock()
	}()

	b.ExecuteBatch(ctx, tasks)
	return true
}

// RunHighPriority executes the high-priority slice of the matrix once,
// outside any cron schedule. Used at startup so the feed is populated
// without waiting for the first tick.
func (b *Batch) RunHighPriority(ctx context.Context) {
	tasks := b.deps.Registry.HighPriority()
	if len(tasks) == 0 {
		log.Println("[scheduler] No high-priority tasks — skipping startup batch")
		return
	}
	log.Printf("[scheduler] Startup batch — %d high-priority task(s)", len(tasks))
	b.ExecuteBatch(ctx, tasks)
}

// ExecuteBatch runs the high tier, waits out the cooldown, then runs the
// normal tier. The cooldown is skipped when either tier is empty.
func (b *Batch) ExecuteBatch(ctx context.Context, tasks []model.SearchTask) model.BatchResult {
	var high, normal []model.SearchTask
	for _, t := range tasks {
		if t.Priority >= highPriorityFloor {
			high = append(high, t)
		} else {
			normal = append(normal, t)
		}
	}

	var result model.BatchResult
	if len(high) > 0 {
		merge(&result, b.runTier(ctx, "high", high))
	}

	if len(high) > 0 && len(normal) > 0 {
		select {
		case <-time.After(b.opts.Cooldown):
		case <-ctx.Done():
			return result
		}
	}

	if len(normal) > 0 {
		merge(&result, b.runTier(ctx, "normal", normal))
	}

	log.Printf("[scheduler] Batch done — candidates=%d failures=%d duplicates=%d blocked=%d",
		len(result.Candidates), len(result.Failures), result.Duplicates, result.Blocked)
	return result
}

type taskOutcome struct {
	task       model.SearchTask
	candidates []model.Candidate
	err        error
	startedAt  time.Time
	doneAt     time.Time
}

// runTier fans the tier's tasks out over a bounded worker set, then filters,
// scores and forwards the aggregate. A failed task never aborts its
// siblings.
func (b *Batch) runTier(ctx context.Context, tier string, tasks []model.SearchTask) model.BatchResult {
	outcomes := make(chan taskOutcome, len(tasks))
	sem := make(chan struct{}, b.opts.Concurrency)
	var wg sync.WaitGroup

	for _, task := range tasks {
		wg.Add(1)
		go func(task model.SearchTask) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			taskCtx, cancel := context.WithTimeout(ctx, b.opts.TaskTimeout)
			defer cancel()

			started := time.Now()
			candidates, err := b.deps.Connector.Search(taskCtx, task.Keyword, task.Region, b.opts.Filter)
			outcomes <- taskOutcome{
				task:       task,
				candidates: candidates,
				err:        err,
				startedAt:  started,
				doneAt:     time.Now(),
			}
		}(task)
	}

	wg.Wait()
	close(outcomes)

	var result model.BatchResult
	for out := range outcomes {
		b.recordRun(ctx, out)

		if out.err != nil {
			log.Printf("[scheduler] Task %s failed: %v — continuing", out.task.ID, out.err)
			telemetry.TaskFailures.Inc()
			result.Failures = append(result.Failures, model.TaskFailure{TaskID: out.task.ID, Err: out.err})
			continue
		}

		for _, c := range out.candidates {
			if b.deps.Cache.IsDuplicate(c.Title, c.Link) {
				result.Duplicates++
				telemetry.DuplicatesTotal.Inc()
				continue
			}
			if b.deps.Cache.IsBlocked(c.Title, c.Company) {
				result.Blocked++
				telemetry.BlockedTotal.Inc()
				continue
			}

			c.QualityScore = b.deps.Scorer.Score(c.Title, c.Description, c.Company)
			if !b.deps.Scorer.Passes(c, b.opts.Filter) {
				continue
			}

			b.deps.Cache.Register(c.Title, c.Link)
			telemetry.DiscoveredTotal.Inc()
			result.Candidates = append(result.Candidates, c)
		}
	}

	quality.Rank(result.Candidates)
	b.dispatch(ctx, tier, result.Candidates)
	return result
}

// dispatch sends the tier's best candidates to the notifier and everything
// to the approval workflow. Both are non-fatal.
func (b *Batch) dispatch(ctx context.Context, tier string, candidates []model.Candidate) {
	if len(candidates) == 0 {
		return
	}

	top := candidates
	if len(top) > b.opts.NotifyTopN {
		top = top[:b.opts.NotifyTopN]
	}
	if b.deps.Notifier != nil {
		if err := b.deps.Notifier.Notify(ctx, top, tier); err != nil {
			slog.Warn("notify failed", "tier", tier, "err", err)
		}
	}

	res, err := b.deps.Workflow.Ingest(ctx, candidates)
	if err != nil {
		slog.Warn("ingest failed", "tier", tier, "err", err)
		return
	}
	telemetry.AutoApprovals.Add(float64(res.AutoApproved))
	log.Printf("[scheduler] Tier %s ingested — added=%d auto=%d pending=%d",
		tier, res.Added, res.AutoApproved, res.Pending)
}

func (b *Batch) recordRun(ctx context.Context, out taskOutcome) {
	if b.deps.Recorder == nil {
		return
	}

	run := store.SearchRun{
		Keyword:     out.task.Keyword,
		Region:      out.task.Region,
		Source:      "connector",
		JobsFound:   len(out.candidates),
		Status:      "completed",
		StartedAt:   out.startedAt,
		CompletedAt: out.doneAt,
	}
	if out.err != nil {
		run.Status = "failed"
		run.Error = out.err.Error()
		run.JobsFound = 0
	}
	if err := b.deps.Recorder.RecordSearchRun(ctx, run); err != nil {
		slog.Warn("record search run failed", "task", out.task.ID, "err", err)
	}
}

// NextFirings reports the upcoming run of every configured trigger, soonest
// first. Before Start the next run is derived from the schedule directly.
func (b *Batch) NextFirings(now time.Time) []Firing {
	b.mu.Lock()
	defer b.mu.Unlock()

	firings := make([]Firing, 0, len(b.entries))
	for schedule, id := range b.entries {
		entry := b.cron.Entry(id)
		next := entry.Next
		if next.IsZero() && entry.Schedule != nil {
			next = entry.Schedule.Next(now)
		}
		firings = append(firings, Firing{
			TriggerID: triggerID(schedule),
			Schedule:  schedule,
			Tasks:     len(b.tasks[schedule]),
			NextRun:   next,
		})
	}

	sort.Slice(firings, func(i, j int) bool {
		return firings[i].NextRun.Before(firings[j].NextRun)
	})
	return firings
}

func groupBySchedule(tasks []model.SearchTask) map[string][]model.SearchTask {
	groups := make(map[string][]model.SearchTask)
	for _, t := range tasks {
		groups[t.Schedule] = append(groups[t.Schedule], t)
	}
	return groups
}

// triggerID derives a stable identifier from a schedule string.
func triggerID(schedule string) string {
	s := strings.ReplaceAll(schedule, " ", "_")
	s = strings.ReplaceAll(s, "*", "x")
	return "auto_search_" + s
}

func merge(dst *model.BatchResult, src model.BatchResult) {
	dst.Candidates = append(dst.Candidates, src.Candidates...)
	dst.Failures = append(dst.Failures, src.Failures...)
	dst.Duplicates += src.Duplicates
	dst.Blocked += src.Blocked
}
