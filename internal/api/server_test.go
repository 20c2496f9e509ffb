package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/jobs"
	"github.com/AnshulAlgoS/AtenFlux/internal/observability"
	"github.com/AnshulAlgoS/AtenFlux/internal/storage"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeRunner struct {
	jobs      map[string]*types.DiscoveryJob
	submitted []string
	quota     int
}

func (f *fakeRunner) Submit(_ context.Context, outlet string, maxAuthors int) (string, error) {
	if strings.TrimSpace(outlet) == "" {
		return "", types.ErrInvalidOutlet
	}
	id := fmt.Sprintf("job-%d", len(f.submitted)+1)
	f.submitted = append(f.submitted, outlet)
	f.quota = maxAuthors
	f.jobs[id] = &types.DiscoveryJob{ID: id, Outlet: outlet, Quota: maxAuthors, Status: types.JobStatusStarted}
	return id, nil
}

func (f *fakeRunner) Status(_ context.Context, id string) (*types.DiscoveryJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, types.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeRunner) Cancel(_ context.Context, id string) error {
	job, ok := f.jobs[id]
	if !ok {
		return types.ErrJobNotFound
	}
	if job.Status.Terminal() {
		return jobs.ErrTerminal
	}
	return nil
}

func (f *fakeRunner) RunQuick(_ context.Context, outlet string, maxAuthors int) (*jobs.Result, error) {
	if outlet == "Nowhere Gazette" {
		return nil, &types.StageError{Stage: "resolve", Err: types.ErrResolution}
	}
	f.quota = maxAuthors
	site, _ := types.NewResolvedSite("https://www.exampletimes.in", types.DetectedBySearch, 100)
	return &jobs.Result{
		Site:         site,
		AuthorsFound: 1,
		AuthorsSaved: 1,
		Profiles:     []*types.AuthorProfile{{Name: "Asha Verma", ProfileURL: site.BaseURL + "/author/asha-verma"}},
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeRunner, *storage.MemoryStore) {
	t.Helper()
	runner := &fakeRunner{jobs: make(map[string]*types.DiscoveryJob)}
	store := storage.NewMemoryStore()
	metrics := observability.NewMetrics(testLogger)
	metrics.Inc(observability.Submitted)
	s := NewServer(config.DefaultConfig(), runner, store, metrics, testLogger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, runner, store
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, config.Version, body["version"])
	assert.Equal(t, "memory", body["storage"])
}

func TestCreateAndGetJob(t *testing.T) {
	ts, runner, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/jobs", `{"outlet":"Example Times","maxAuthors":7}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	id, _ := body["jobId"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, 7, runner.quota)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/jobs/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Example Times", body["outlet"])
	assert.Equal(t, "started", body["status"])
}

func TestCreateJobValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/jobs", `{"outlet":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/jobs", `{"outlet":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, types.ErrInvalidOutlet.Error(), body["error"])
}

func TestGetUnknownJob(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelJob(t *testing.T) {
	ts, runner, _ := newTestServer(t)
	runner.jobs["running"] = &types.DiscoveryJob{ID: "running", Status: types.JobStatusRunning}
	runner.jobs["done"] = &types.DiscoveryJob{ID: "done", Status: types.JobStatusCompleted}

	resp, _ := do(t, http.MethodDelete, ts.URL+"/api/jobs/running", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/jobs/done", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuickDiscover(t *testing.T) {
	ts, runner, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/discover/quick", `{"outlet":"Example Times","maxAuthors":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, runner.quota)
	assert.EqualValues(t, 1, body["authorsFound"])
	site, _ := body["site"].(map[string]any)
	assert.Equal(t, "https://www.exampletimes.in", site["baseUrl"])

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/discover/quick", `{"outlet":"Nowhere Gazette"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestListProfiles(t *testing.T) {
	ts, _, store := newTestServer(t)
	ctx := context.Background()
	for i, n := range []int{2, 9, 5} {
		p := &types.AuthorProfile{
			Name:       fmt.Sprintf("Author Number%c", 'A'+i),
			ProfileURL: fmt.Sprintf("https://www.exampletimes.in/author/%d", i),
			Outlet:     "Example Times",
			Role:       "Journalist",
		}
		p.SetArticles(make([]types.Article, n))
		for j := range p.Articles {
			p.Articles[j] = types.Article{Title: "t", URL: fmt.Sprintf("https://www.exampletimes.in/a/%d/%d", i, j)}
		}
		require.NoError(t, store.UpsertProfile(ctx, p))
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, store.UpsertProfile(ctx, &types.AuthorProfile{
		Name: "Other Person", ProfileURL: "https://other.in/author/x", Outlet: "Other Daily",
	}))

	resp, body := do(t, http.MethodGet, ts.URL+"/api/profiles?outlet=Example+Times&sort=articles&limit=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["total"])
	profiles, _ := body["profiles"].([]any)
	require.Len(t, profiles, 2)
	first, _ := profiles[0].(map[string]any)
	assert.EqualValues(t, 9, first["totalArticles"])

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/profiles?sort=popular", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, ts.URL+"/api/profiles?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "atenflux_jobs_submitted_total 1")
}
