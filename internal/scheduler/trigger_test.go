package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"jobradar/internal/approval"
	"jobradar/internal/cache"
	"jobradar/internal/model"
	"jobradar/internal/quality"
	"jobradar/internal/registry"
)

// ctxConnector records the state of the context it is invoked with.
type ctxConnector struct {
	mu      sync.Mutex
	ctxErrs []error
}

func (c *ctxConnector) Search(ctx context.Context, keyword, region string, _ model.FilterSpec) ([]model.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctxErrs = append(c.ctxErrs, ctx.Err())
	return []model.Candidate{{Title: "Role", Link: "https://x/" + keyword + "/" + region}}, nil
}

type nullIngestor struct{}

func (nullIngestor) Ingest(context.Context, []model.Candidate) (approval.IngestResult, error) {
	return approval.IngestResult{}, nil
}

func TestTriggersOutliveConfigureCaller(t *testing.T) {
	conn := &ctxConnector{}
	b := New(context.Background(), Deps{
		Registry:  registry.New(),
		Connector: conn,
		Cache:     cache.New(),
		Scorer:    quality.NewScorer(),
		Workflow:  nullIngestor{},
	}, Options{Cooldown: time.Millisecond})

	// A runtime profile add reconfigures from inside an HTTP handler; the
	// handler's request context is long gone by the time a trigger fires.
	if _, err := b.deps.Registry.AddProfile(registry.SearchProfile{
		Keywords: []string{"late addition"},
		Regions:  []string{"remote"},
		Schedule: "0 6 * * *",
		Priority: 2,
		Active:   true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := b.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	// Fire every registered trigger the way cron would.
	b.mu.Lock()
	ids := make([]string, 0, len(b.entries))
	for schedule := range b.entries {
		ids = append(ids, schedule)
	}
	b.mu.Unlock()
	if len(ids) == 0 {
		t.Fatal("no triggers registered")
	}
	for _, schedule := range ids {
		b.mu.Lock()
		entry := b.cron.Entry(b.entries[schedule])
		b.mu.Unlock()
		entry.WrappedJob.Run()
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.ctxErrs) == 0 {
		t.Fatal("connector never invoked")
	}
	for _, err := range conn.ctxErrs {
		if err != nil {
			t.Fatalf("trigger fired with dead context: %v", err)
		}
	}
}
