package docgen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docforgehq/docforge/internal/model"
)

func newTestOrchestrator(store *fakeStore, gen Generator, cfg Config) *Orchestrator {
	if cfg.FallbackDelay == 0 {
		cfg.FallbackDelay = time.Millisecond
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	planner := NewPlanner(store, store, store)
	persister := NewPersister(store, store, logger)
	return NewOrchestrator(planner, gen, persister, cfg, logger)
}

func seedManyFunctions(store *fakeStore, n int) {
	store.projects[testProjectID] = &model.Project{ID: testProjectID}
	fns := make([]model.Symbol, n)
	for i := range fns {
		fns[i] = model.Symbol{Name: fmt.Sprintf("fn%03d", i), Code: "def f(): ..."}
	}
	store.files[testProjectID] = []model.SourceFile{{ID: "f1", ProjectID: testProjectID, Filename: "a.py", Functions: fns}}
}

func TestGenerateHappyPath(t *testing.T) {
	store := newFakeStore()
	store.seedProject(testProjectID)
	gen := &fakeGenerator{}

	o := newTestOrchestrator(store, gen, Config{BatchSize: 3})
	out, err := o.Generate(context.Background(), testProjectID, GenerateOptions{CreatedBy: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, out.TotalItems, len(out.Results))
	assert.Equal(t, UpstreamOK, out.Upstream)
	assert.NotEmpty(t, out.RevisionID)
	for _, r := range out.Results {
		assert.NotEmpty(t, r.GeneratedDocstring)
		assert.NotEmpty(t, r.OriginalCode)
	}

	require.Len(t, store.revisions, 1)
	rev := store.revisions[0]
	assert.Equal(t, out.RevisionID, rev.RevisionID)
	assert.Equal(t, "user-1", rev.CreatedBy)
	assert.Len(t, rev.Results, out.TotalItems)
	assert.NotNil(t, rev.Preferences)
	assert.Equal(t, model.StatusCompleted, store.projects[testProjectID].Status)
}

func TestGenerateOrderPreservedAcrossBatches(t *testing.T) {
	store := newFakeStore()
	seedManyFunctions(store, 20)

	// Batches complete in shuffled order: later batches answer faster.
	var calls int
	var mu sync.Mutex
	gen := &fakeGenerator{}
	gen.batchFn = func(prompts []string) ([]string, error) {
		mu.Lock()
		calls++
		delay := time.Duration(30-calls) * time.Millisecond
		mu.Unlock()
		time.Sleep(delay)
		out := make([]string, len(prompts))
		for i, p := range prompts {
			out[i] = "doc:" + firstLine(p)
		}
		return out, nil
	}

	o := newTestOrchestrator(store, gen, Config{BatchSize: 4, Concurrency: 8})
	out, err := o.Generate(context.Background(), testProjectID, GenerateOptions{})
	require.NoError(t, err)

	require.Len(t, out.Results, 20)
	for i, r := range out.Results {
		assert.Equal(t, fmt.Sprintf("fn%03d", i), r.Name)
		assert.Contains(t, r.GeneratedDocstring, fmt.Sprintf("fn%03d", i))
	}
}

func TestGenerateUndercountTriggersFallback(t *testing.T) {
	store := newFakeStore()
	seedManyFunctions(store, 3)

	gen := &fakeGenerator{}
	gen.batchFn = func(prompts []string) ([]string, error) {
		if len(prompts) > 1 {
			return []string{"only one"}, nil // shorter than requested
		}
		return []string{"single ok"}, nil
	}

	o := newTestOrchestrator(store, gen, Config{BatchSize: 3})
	out, err := o.Generate(context.Background(), testProjectID, GenerateOptions{})
	require.NoError(t, err)

	require.Len(t, out.Results, 3)
	assert.Equal(t, "only one", out.Results[0].GeneratedDocstring)
	assert.Equal(t, "single doc for FUNCTION: fn001", out.Results[1].GeneratedDocstring)
	assert.Equal(t, "single doc for FUNCTION: fn002", out.Results[2].GeneratedDocstring)
	assert.Len(t, gen.singleCalls, 2)
	assert.Equal(t, UpstreamBooting, out.Upstream)
}

func TestGenerateFailedBatchRecoveredPerItem(t *testing.T) {
	store := newFakeStore()
	seedManyFunctions(store, 4)

	gen := &fakeGenerator{}
	gen.batchFn = func(prompts []string) ([]string, error) {
		if strings.Contains(prompts[0], "fn000") {
			return nil, &upstreamError{code: 503}
		}
		out := make([]string, len(prompts))
		for i := range prompts {
			out[i] = "batch ok"
		}
		return out, nil
	}

	o := newTestOrchestrator(store, gen, Config{BatchSize: 2})
	out, err := o.Generate(context.Background(), testProjectID, GenerateOptions{})
	require.NoError(t, err)

	assert.Len(t, gen.singleCalls, 2)
	for _, r := range out.Results {
		assert.NotEmpty(t, r.GeneratedDocstring)
	}
	assert.Equal(t, UpstreamBooting, out.Upstream)
}

func TestGenerateFailedFallbackLeavesEmptyString(t *testing.T) {
	store := newFakeStore()
	seedManyFunctions(store, 2)

	gen := &fakeGenerator{}
	gen.batchFn = func(prompts []string) ([]string, error) {
		return []string{"ok"}, nil // second slot always missing
	}
	gen.singleFn = func(prompt string) (string, error) {
		return "", &upstreamError{code: 500}
	}

	o := newTestOrchestrator(store, gen, Config{BatchSize: 2})
	out, err := o.Generate(context.Background(), testProjectID, GenerateOptions{})
	require.NoError(t, err)

	require.Len(t, out.Results, 2)
	assert.Equal(t, "ok", out.Results[0].GeneratedDocstring)
	assert.Equal(t, "", out.Results[1].GeneratedDocstring)
}

func TestGenerateTotalFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.seedProject(testProjectID)

	gen := &fakeGenerator{}
	gen.batchFn = func(prompts []string) ([]string, error) {
		return nil, &upstreamError{code: 503}
	}
	gen.singleFn = func(prompt string) (string, error) {
		return "", &upstreamError{code: 503}
	}

	o := newTestOrchestrator(store, gen, Config{BatchSize: 4})
	_, err := o.Generate(context.Background(), testProjectID, GenerateOptions{})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Empty(t, store.revisions, "no revision may be persisted on total failure")

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, UpstreamBooting, upErr.State)
}

func TestGenerateClassifiesClientErrorsAsPaused(t *testing.T) {
	store := newFakeStore()
	seedManyFunctions(store, 2)

	gen := &fakeGenerator{}
	gen.batchFn = func(prompts []string) ([]string, error) {
		return nil, &upstreamError{code: 401}
	}
	// Fallback succeeds so the run itself completes.
	gen.singleFn = func(prompt string) (string, error) {
		return "recovered", nil
	}

	o := newTestOrchestrator(store, gen, Config{BatchSize: 2})
	out, err := o.Generate(context.Background(), testProjectID, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, UpstreamPaused, out.Upstream)
}

func TestGenerateNothingToGenerate(t *testing.T) {
	store := newFakeStore()
	store.projects[testProjectID] = &model.Project{ID: testProjectID}
	store.files[testProjectID] = []model.SourceFile{
		{ID: "f1", Filename: "x.py", Functions: []model.Symbol{{Name: "f", Code: "def f(): ..."}}},
	}
	store.prefs[testProjectID] = &model.Preferences{
		ProjectID:        testProjectID,
		Format:           "HTML",
		PerFileExclusion: []model.PerFileExclusion{{Filename: "x.py", ExcludeFuncs: []string{"f"}}},
	}

	o := newTestOrchestrator(store, &fakeGenerator{}, Config{})
	_, err := o.Generate(context.Background(), testProjectID, GenerateOptions{})
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "nothing to generate")
}

func TestGenerateBoundsInFlightCalls(t *testing.T) {
	store := newFakeStore()
	seedManyFunctions(store, 32)

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	gen := &fakeGenerator{}
	gen.batchFn = func(prompts []string) ([]string, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		out := make([]string, len(prompts))
		for i := range out {
			out[i] = "d"
		}
		return out, nil
	}

	o := newTestOrchestrator(store, gen, Config{BatchSize: 2, Concurrency: 3})
	_, err := o.Generate(context.Background(), testProjectID, GenerateOptions{})
	require.NoError(t, err)
	assert.LessOrEqual(t, maxInFlight, 3)
	assert.Len(t, gen.batchCalls, 16)
}

// driftingPrefs hands out the stored preferences once, then a mutated
// document on every later call, like a concurrent preference PATCH landing
// while generation is running.
type driftingPrefs struct {
	*fakeStore
	mu    sync.Mutex
	calls int
}

func (d *driftingPrefs) GetOrCreatePreferences(ctx context.Context, projectID string) (*model.Preferences, error) {
	d.mu.Lock()
	d.calls++
	first := d.calls == 1
	d.mu.Unlock()
	if first {
		return d.fakeStore.GetOrCreatePreferences(ctx, projectID)
	}
	return &model.Preferences{
		ProjectID: projectID,
		Format:    "PDF",
		DirectoryExclusion: model.DirectoryExclusion{
			ExcludeDirs: []string{"everything"},
		},
	}, nil
}

func TestGeneratePersistsPlanTimePreferences(t *testing.T) {
	store := newFakeStore()
	store.seedProject(testProjectID)
	prefs := &driftingPrefs{fakeStore: store}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	planner := NewPlanner(store, store, prefs)
	persister := NewPersister(store, store, logger)
	o := NewOrchestrator(planner, &fakeGenerator{}, persister, Config{FallbackDelay: time.Millisecond}, logger)

	out, err := o.Generate(context.Background(), testProjectID, GenerateOptions{})
	require.NoError(t, err)

	// The revision must snapshot the preferences the plan was computed
	// from, not whatever the store holds after generation.
	require.Len(t, store.revisions, 1)
	rev := store.revisions[0]
	require.NotNil(t, rev.Preferences)
	assert.Equal(t, "HTML", rev.Preferences.Format)
	assert.Empty(t, rev.Preferences.DirectoryExclusion.ExcludeDirs)
	assert.Equal(t, out.Format, rev.Preferences.Format)
}

func TestNewOrchestratorClampsConfig(t *testing.T) {
	store := newFakeStore()
	o := newTestOrchestrator(store, &fakeGenerator{}, Config{BatchSize: 1000, Concurrency: -4})
	assert.Equal(t, maxBatchSize, o.cfg.BatchSize)
	assert.Equal(t, 1, o.cfg.Concurrency)

	o = newTestOrchestrator(store, &fakeGenerator{}, Config{})
	assert.Equal(t, DefaultBatchSize, o.cfg.BatchSize)
	assert.Equal(t, DefaultConcurrency, o.cfg.Concurrency)
}
