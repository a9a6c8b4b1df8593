package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobradar/internal/api"
	"jobradar/internal/approval"
	"jobradar/internal/cache"
	"jobradar/internal/model"
	"jobradar/internal/quality"
	"jobradar/internal/registry"
	"jobradar/internal/scheduler"
	"jobradar/internal/store"
)

type noopConnector struct{}

func (noopConnector) Search(context.Context, string, string, model.FilterSpec) ([]model.Candidate, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *approval.Workflow) {
	t.Helper()
	reg := registry.New()
	wf := approval.New(store.NewMemoryStore())
	batch := scheduler.New(context.Background(), scheduler.Deps{
		Registry:  reg,
		Connector: noopConnector{},
		Cache:     cache.New(),
		Scorer:    quality.NewScorer(),
		Workflow:  wf,
	}, scheduler.Options{Cooldown: time.Millisecond})
	return api.NewServer(reg, batch, wf, nil).Router(), wf
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDecideEndpoint(t *testing.T) {
	router, wf := newTestRouter(t)

	if _, err := wf.Ingest(context.Background(), []model.Candidate{
		{Title: "Role", Link: "https://x/1", QualityScore: 3},
	}); err != nil {
		t.Fatal(err)
	}
	pending, _ := wf.ListPending(context.Background(), 0)

	body := `{"ids":["` + pending[0].ID + `"],"outcome":"approved","reviewer":"alice"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reviews/decide", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["decided"] != 1 || resp["skipped"] != 0 {
		t.Errorf("response = %v", resp)
	}
}

func TestAddProfileValidationStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"keywords":["dev"],"regions":["remote"],"schedule":"not a cron","priority":3,"active":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/profiles/", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	good := `{"keywords":["dev"],"regions":["remote"],"schedule":"0 9 * * *","priority":3,"active":true}`
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/profiles/", strings.NewReader(good)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestPublishWithoutCatalog(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/publish", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
