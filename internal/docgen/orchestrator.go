package docgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/docforgehq/docforge/internal/model"
)

// Generator is the minimal contract of the external text-generation service.
// GenerateBatch should return one string per prompt but may return fewer
// (upstream truncation); both calls may fail with an error exposing an HTTP
// status via HTTPStatus().
type Generator interface {
	GenerateBatch(ctx context.Context, prompts []string, params map[string]any) ([]string, error)
	GenerateSingle(ctx context.Context, prompt string, params map[string]any) (string, error)
}

// statusCoder is implemented by upstream errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// UpstreamState is the client signal describing the generation endpoint's
// observed health during a run.
type UpstreamState string

const (
	// UpstreamOK: every upstream call succeeded.
	UpstreamOK UpstreamState = "ok"
	// UpstreamBooting: a 5xx was observed; transient, retry later.
	UpstreamBooting UpstreamState = "booting"
	// UpstreamPaused: a 4xx was observed; needs operator attention.
	UpstreamPaused UpstreamState = "paused"
)

// rank orders states so a run carries the worst one it observed.
func (s UpstreamState) rank() int {
	switch s {
	case UpstreamPaused:
		return 2
	case UpstreamBooting:
		return 1
	default:
		return 0
	}
}

// UpstreamError reports a run where no item produced any output. It
// carries the worst upstream state observed so callers can tell a booting
// endpoint from a paused one.
type UpstreamError struct {
	State UpstreamState
	Items int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: generation produced no output for any of %d items (upstream %s)",
		ErrUpstreamUnavailable, e.Items, e.State)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstreamUnavailable }

func classifyUpstreamErr(err error) UpstreamState {
	var sc statusCoder
	if errors.As(err, &sc) {
		if code := sc.HTTPStatus(); code >= 400 && code < 500 {
			return UpstreamPaused
		}
	}
	return UpstreamBooting
}

// Config bounds the orchestrator's fan-out. Values are clamped at
// construction, not at call sites.
type Config struct {
	// BatchSize is the default number of prompts per upstream call,
	// clamped to [1, 64]. Callers may override per request within the
	// same bounds.
	BatchSize int
	// Concurrency caps in-flight upstream calls regardless of batch
	// count, clamped to [1, 32].
	Concurrency int
	// FallbackDelay paces single-prompt retries so recovering endpoints
	// are not hammered.
	FallbackDelay time.Duration
}

const (
	DefaultBatchSize     = 16
	DefaultConcurrency   = 6
	defaultFallbackDelay = 500 * time.Millisecond

	maxBatchSize   = 64
	maxConcurrency = 32
)

func clamp(v, lo, hi, def int) int {
	if v == 0 {
		v = def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GenerateOptions are the per-request knobs of a generation run.
type GenerateOptions struct {
	// BatchSize overrides the configured default when non-zero.
	BatchSize int
	// Params are forwarded verbatim to the generation endpoint.
	Params map[string]any
	// CreatedBy is recorded on the persisted revision.
	CreatedBy string
}

// GenerationOutcome is the result of one completed generation run.
type GenerationOutcome struct {
	RevisionID     string                  `json:"revision_id"`
	ProjectID      string                  `json:"project_id"`
	Format         string                  `json:"format"`
	TotalItems     int                     `json:"total_items"`
	Results        []model.DocstringResult `json:"results"`
	IncludedFiles  []string                `json:"included_files"`
	ExcludedFiles  []string                `json:"excluded_files"`
	GenerationSecs float64                 `json:"generation_time_seconds"`
	Upstream       UpstreamState           `json:"-"`
}

// Orchestrator runs the full generation pipeline: plan, batched upstream
// fan-out with per-item fallback, cleanup, and revision persistence.
type Orchestrator struct {
	planner   *Planner
	gen       Generator
	persister *Persister
	limiter   *rate.Limiter
	cfg       Config
	logger    *slog.Logger
}

// NewOrchestrator wires an Orchestrator. Zero config fields fall back to
// defaults; out-of-range values are clamped here once.
func NewOrchestrator(planner *Planner, gen Generator, persister *Persister, cfg Config, logger *slog.Logger) *Orchestrator {
	cfg.BatchSize = clamp(cfg.BatchSize, 1, maxBatchSize, DefaultBatchSize)
	cfg.Concurrency = clamp(cfg.Concurrency, 1, maxConcurrency, DefaultConcurrency)
	if cfg.FallbackDelay <= 0 {
		cfg.FallbackDelay = defaultFallbackDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		planner:   planner,
		gen:       gen,
		persister: persister,
		limiter:   rate.NewLimiter(rate.Every(cfg.FallbackDelay), 1),
		cfg:       cfg,
		logger:    logger,
	}
}

// Generate computes the plan, generates a docstring per item, and persists
// the outcome as a new revision. Batch failures and undercounts are recovered
// per item; only a run where every output stays empty fails outright.
func (o *Orchestrator) Generate(ctx context.Context, projectID string, opts GenerateOptions) (*GenerationOutcome, error) {
	start := time.Now()

	plan, prefs, err := o.planner.plan(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if plan.TotalItems == 0 {
		return nil, invalidArgf("nothing to generate for project %s", projectID)
	}

	prompts := make([]string, len(plan.Items))
	for i, it := range plan.Items {
		prompts[i] = BuildPrompt(it)
	}

	batchSize := o.cfg.BatchSize
	if opts.BatchSize != 0 {
		batchSize = clamp(opts.BatchSize, 1, maxBatchSize, o.cfg.BatchSize)
	}

	// Outputs are merged by index so result order always matches item
	// order, whatever order the batches complete in.
	outputs := make([]string, len(prompts))
	tracker := &stateTracker{state: UpstreamOK}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for startIdx := 0; startIdx < len(prompts); startIdx += batchSize {
		lo, hi := startIdx, min(startIdx+batchSize, len(prompts))
		g.Go(func() error {
			out, err := o.gen.GenerateBatch(gctx, prompts[lo:hi], opts.Params)
			if err != nil {
				// Not fatal: every slot of this batch goes through
				// the per-item fallback below.
				tracker.observe(classifyUpstreamErr(err))
				o.logger.Warn("batch generation failed",
					"project_id", projectID, "batch_start", lo, "batch_len", hi-lo, "error", err)
				return nil
			}
			for i := 0; i < hi-lo && i < len(out); i++ {
				outputs[lo+i] = out[i]
			}
			if len(out) < hi-lo {
				tracker.observe(UpstreamBooting)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch fan-out: %w", err)
	}

	// Per-item fallback for every empty slot, paced by the limiter.
	for i := range outputs {
		if outputs[i] != "" {
			continue
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fallback pacing: %w", err)
		}
		out, err := o.gen.GenerateSingle(ctx, prompts[i], opts.Params)
		if err != nil {
			tracker.observe(classifyUpstreamErr(err))
			o.logger.Warn("fallback generation failed",
				"project_id", projectID, "item", plan.Items[i].Name, "error", err)
			continue
		}
		outputs[i] = out
	}

	if allEmpty(outputs) {
		return nil, &UpstreamError{State: tracker.get(), Items: len(outputs)}
	}

	results := make([]model.DocstringResult, len(plan.Items))
	for i, it := range plan.Items {
		results[i] = model.DocstringResult{
			Name:               it.Name,
			Type:               it.Type,
			File:               it.File,
			ParentClass:        it.ParentClass,
			OriginalCode:       it.Code,
			GeneratedDocstring: CleanDocstring(outputs[i]),
		}
	}

	elapsed := time.Since(start).Seconds()
	revisionID, err := o.persister.Persist(ctx, PersistRequest{
		ProjectID:      projectID,
		Format:         plan.Format,
		Results:        results,
		IncludedFiles:  plan.IncludedFiles,
		ExcludedFiles:  plan.ExcludedFiles,
		GenerationSecs: elapsed,
		Preferences:    prefs,
		CreatedBy:      opts.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("persist revision: %w", err)
	}

	return &GenerationOutcome{
		RevisionID:     revisionID,
		ProjectID:      projectID,
		Format:         plan.Format,
		TotalItems:     len(results),
		Results:        results,
		IncludedFiles:  plan.IncludedFiles,
		ExcludedFiles:  plan.ExcludedFiles,
		GenerationSecs: elapsed,
		Upstream:       tracker.get(),
	}, nil
}

func allEmpty(outputs []string) bool {
	for _, o := range outputs {
		if o != "" {
			return false
		}
	}
	return true
}

// stateTracker keeps the worst upstream classification observed by
// concurrent batch calls.
type stateTracker struct {
	mu    sync.Mutex
	state UpstreamState
}

func (t *stateTracker) observe(s UpstreamState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s.rank() > t.state.rank() {
		t.state = s
	}
}

func (t *stateTracker) get() UpstreamState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
