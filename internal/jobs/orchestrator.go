package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/names"
	"github.com/AnshulAlgoS/AtenFlux/internal/observability"
	"github.com/AnshulAlgoS/AtenFlux/internal/storage"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// SiteResolver finds an outlet's website.
type SiteResolver interface {
	Resolve(ctx context.Context, outlet string) (*types.ResolvedSite, error)
}

// AuthorDiscoverer finds author candidates on a site.
type AuthorDiscoverer interface {
	Discover(ctx context.Context, site *types.ResolvedSite, outlet string, quota int) ([]types.AuthorCandidate, error)
}

// ProfileExtractor builds a profile for one candidate. It must not fail.
type ProfileExtractor interface {
	Extract(ctx context.Context, c types.AuthorCandidate, site *types.ResolvedSite) *types.AuthorProfile
}

// Enricher sets keywords, topics and influence on a profile.
type Enricher interface {
	Apply(p *types.AuthorProfile)
}

// Pipeline is the set of stages a job runs.
type Pipeline struct {
	Resolver   SiteResolver
	Discoverer AuthorDiscoverer
	Profiles   ProfileExtractor
	Enricher   Enricher
	Store      storage.ProfileStore
}

// Result is the outcome of one pipeline run.
type Result struct {
	Site         *types.ResolvedSite    `json:"site"`
	AuthorsFound int                    `json:"authorsFound"`
	AuthorsSaved int                    `json:"authorsSaved"`
	Profiles     []*types.AuthorProfile `json:"profiles"`
}

// progressFunc reports pipeline progress in percent.
type progressFunc func(pct int, msg string)

// Orchestrator runs discovery jobs in the background. Each job's record is
// written only by the goroutine running it.
type Orchestrator struct {
	pipe    Pipeline
	jobs    Store
	cfg     config.JobsConfig
	metrics *observability.Metrics
	logger  *slog.Logger

	sem     chan struct{}
	base    context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	cancels map[string]context.CancelCauseFunc
}

// New creates an Orchestrator. metrics may be nil.
func New(pipe Pipeline, store Store, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Orchestrator {
	base, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		pipe:    pipe,
		jobs:    store,
		cfg:     cfg.Jobs,
		metrics: metrics,
		logger:  logger.With("component", "orchestrator"),
		sem:     make(chan struct{}, cfg.Jobs.MaxConcurrentJobs),
		base:    base,
		stop:    stop,
		cancels: make(map[string]context.CancelCauseFunc),
	}
}

// clampQuota bounds a requested author count to [1, limit].
func clampQuota(n, limit int) int {
	if n < 1 || n > limit {
		return limit
	}
	return n
}

// Submit records a new job as started and runs it in the background. The
// job ID is returned immediately.
func (o *Orchestrator) Submit(ctx context.Context, outlet string, maxAuthors int) (string, error) {
	outlet = names.Collapse(outlet)
	if outlet == "" {
		return "", types.ErrInvalidOutlet
	}

	job := &types.DiscoveryJob{
		ID:        uuid.NewString(),
		Outlet:    outlet,
		Quota:     clampQuota(maxAuthors, o.cfg.MaxAuthors),
		Status:    types.JobStatusStarted,
		Message:   "Job started",
		StartedAt: time.Now().UTC(),
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	o.metrics.Inc(observability.Submitted)

	jobCtx, cancel := context.WithCancelCause(o.base)
	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(jobCtx, job)

	o.logger.Info("job submitted", "job_id", job.ID, "outlet", outlet, "quota", job.Quota)
	return job.ID, nil
}

// Status returns the current job record.
func (o *Orchestrator) Status(ctx context.Context, id string) (*types.DiscoveryJob, error) {
	return o.jobs.Get(ctx, id)
}

// Cancel stops a queued or running job. The job ends as failed with the
// message "Job cancelled".
func (o *Orchestrator) Cancel(ctx context.Context, id string) error {
	o.mu.Lock()
	cancel, ok := o.cancels[id]
	o.mu.Unlock()
	if ok {
		cancel(types.ErrJobCancelled)
		o.logger.Info("job cancel requested", "job_id", id)
		return nil
	}
	job, err := o.jobs.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return ErrTerminal
	}
	return types.ErrJobNotFound
}

// RunQuick runs the pipeline synchronously with the quota clamped to
// QuickMaxAuthors.
func (o *Orchestrator) RunQuick(ctx context.Context, outlet string, maxAuthors int) (*Result, error) {
	outlet = names.Collapse(outlet)
	if outlet == "" {
		return nil, types.ErrInvalidOutlet
	}
	quota := clampQuota(maxAuthors, o.cfg.QuickMaxAuthors)
	logger := o.logger.With("outlet", outlet, "mode", "quick")
	return o.execute(ctx, outlet, quota, logger, func(pct int, msg string) {
		logger.Debug("progress", "pct", pct, "message", msg)
	})
}

// Shutdown cancels every job and waits for their goroutines, or for ctx.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.stop()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every submitted job has finished.
func (o *Orchestrator) Wait() { o.wg.Wait() }

func (o *Orchestrator) run(ctx context.Context, job *types.DiscoveryJob) {
	logger := o.logger.With("job_id", job.ID, "outlet", job.Outlet)
	defer o.wg.Done()
	defer func() {
		o.mu.Lock()
		if cancel, ok := o.cancels[job.ID]; ok {
			cancel(nil)
			delete(o.cancels, job.ID)
		}
		o.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "panic", r, "stack", string(debug.Stack()))
			o.finish(job, fmt.Errorf("internal error: %v", r), nil, logger)
		}
	}()

	select {
	case o.sem <- struct{}{}:
		defer func() { <-o.sem }()
	case <-ctx.Done():
		o.finish(job, o.cause(ctx), nil, logger)
		return
	}

	o.metrics.Running(1)
	defer o.metrics.Running(-1)

	res, err := o.execute(ctx, job.Outlet, job.Quota, logger, func(pct int, msg string) {
		job.Status = types.JobStatusRunning
		job.ProgressPct = pct
		job.Message = msg
		o.save(job, logger)
	})
	if err == nil && ctx.Err() != nil {
		err = o.cause(ctx)
	}
	o.finish(job, err, res, logger)
}

// cause maps a done job context to the error recorded on the job.
func (o *Orchestrator) cause(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), types.ErrJobCancelled) || errors.Is(ctx.Err(), context.Canceled) {
		return types.ErrJobCancelled
	}
	return ctx.Err()
}

// finish moves the job into its terminal state and schedules its removal.
func (o *Orchestrator) finish(job *types.DiscoveryJob, err error, res *Result, logger *slog.Logger) {
	if job.Status.Terminal() {
		return
	}
	completedAt := time.Now().UTC()
	job.CompletedAt = &completedAt
	if res != nil {
		job.AuthorsFound = res.AuthorsFound
		job.AuthorsSaved = res.AuthorsSaved
		if res.Site != nil {
			job.Website = res.Site.BaseURL
		}
	}

	var stage *types.StageError
	switch {
	case err == nil:
		job.Status = types.JobStatusCompleted
		job.ProgressPct = 100
		job.Message = fmt.Sprintf("Discovered %d authors, saved %d", job.AuthorsFound, job.AuthorsSaved)
		o.metrics.Inc(observability.Completed)
		logger.Info("job completed", "authors_found", job.AuthorsFound, "authors_saved", job.AuthorsSaved)
	case errors.Is(err, types.ErrJobCancelled), errors.Is(err, context.Canceled):
		job.Status = types.JobStatusFailed
		job.Message = "Job cancelled"
		job.Error = types.ErrJobCancelled.Error()
		o.metrics.Inc(observability.Cancelled)
		o.metrics.Inc(observability.Failed)
		logger.Warn("job cancelled")
	case errors.As(err, &stage) && stage.Stage == "resolve":
		job.Status = types.JobStatusFailed
		job.Message = fmt.Sprintf("Website detection failed for %q", job.Outlet)
		job.Error = err.Error()
		o.metrics.Inc(observability.Failed)
		logger.Error("job failed", "stage", stage.Stage, "error", err)
	case errors.As(err, &stage) && stage.Stage == "discover":
		job.Status = types.JobStatusFailed
		job.Message = "No authors found on " + job.Website
		job.Error = err.Error()
		o.metrics.Inc(observability.Failed)
		logger.Error("job failed", "stage", stage.Stage, "error", err)
	default:
		job.Status = types.JobStatusFailed
		job.Message = "Job failed: " + err.Error()
		job.Error = err.Error()
		o.metrics.Inc(observability.Failed)
		logger.Error("job failed", "error", err)
	}

	o.save(job, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.jobs.Expire(ctx, job.ID, completedAt.Add(o.cfg.Retention)); err != nil {
		logger.Warn("job expiry not scheduled", "error", err)
	}
}

// save writes the job record. Store writes use a fresh context so a
// cancelled job can still record its final state.
func (o *Orchestrator) save(job *types.DiscoveryJob, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.jobs.Update(ctx, job); err != nil {
		logger.Warn("job update failed", "status", job.Status, "error", err)
	}
}

// execute runs resolve, discover, then batched extraction and persistence.
func (o *Orchestrator) execute(ctx context.Context, outlet string, quota int, logger *slog.Logger, progress progressFunc) (*Result, error) {
	res := &Result{Profiles: []*types.AuthorProfile{}}

	progress(10, "Detecting website")
	site, err := o.pipe.Resolver.Resolve(ctx, outlet)
	if err != nil {
		if ctx.Err() != nil {
			return res, o.cause(ctx)
		}
		return res, &types.StageError{Stage: "resolve", Err: err}
	}
	res.Site = site
	o.metrics.Inc(observability.Resolved)
	progress(20, "Website found: "+site.BaseURL)

	progress(30, "Discovering authors")
	candidates, err := o.pipe.Discoverer.Discover(ctx, site, outlet, quota)
	if err != nil {
		if ctx.Err() != nil {
			return res, o.cause(ctx)
		}
		return res, &types.StageError{Stage: "discover", Err: err}
	}
	if len(candidates) > quota {
		candidates = candidates[:quota]
	}
	res.AuthorsFound = len(candidates)
	o.metrics.Add(observability.Discovered, len(candidates))
	progress(40, fmt.Sprintf("Found %d authors", len(candidates)))

	if err := o.extractAll(ctx, outlet, site, candidates, res, logger, progress); err != nil {
		return res, err
	}
	return res, nil
}

// extractAll processes candidates in batches of BatchSize with a pause
// between batches. Workers only build profiles; results are enriched-and-
// saved here, one at a time, in candidate order.
func (o *Orchestrator) extractAll(ctx context.Context, outlet string, site *types.ResolvedSite, candidates []types.AuthorCandidate, res *Result, logger *slog.Logger, progress progressFunc) error {
	total := len(candidates)
	for start := 0; start < total; start += o.cfg.BatchSize {
		if start > 0 && o.cfg.BatchDelay > 0 {
			select {
			case <-time.After(o.cfg.BatchDelay):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			return o.cause(ctx)
		}

		batch := candidates[start:min(start+o.cfg.BatchSize, total)]
		profiles := make([]*types.AuthorProfile, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, c := range batch {
			g.Go(func() error {
				profiles[i] = o.pipe.Profiles.Extract(gctx, c, site)
				return nil
			})
		}
		_ = g.Wait()

		for _, p := range profiles {
			if p == nil {
				continue
			}
			p.Outlet = outlet
			o.pipe.Enricher.Apply(p)
			o.metrics.Inc(observability.Extracted)
			res.Profiles = append(res.Profiles, p)

			if err := o.pipe.Store.UpsertProfile(ctx, p); err != nil {
				o.metrics.Inc(observability.SaveFailure)
				logger.Warn("profile save failed", "name", p.Name, "url", p.ProfileURL, "error", err)
				continue
			}
			res.AuthorsSaved++
			o.metrics.Inc(observability.Saved)
		}

		done := start + len(batch)
		progress(40+50*done/total, fmt.Sprintf("Processed %d/%d authors", done, total))
	}
	return nil
}
