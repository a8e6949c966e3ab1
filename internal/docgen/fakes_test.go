package docgen

import (
	"context"
	"fmt"
	"sync"

	"github.com/docforgehq/docforge/internal/model"
)

// ---------- fake stores ----------

type fakeStore struct {
	mu        sync.Mutex
	projects  map[string]*model.Project
	files     map[string][]model.SourceFile // project id -> files
	prefs     map[string]*model.Preferences
	revisions []*model.DocumentationRevision

	statusErr   error
	revisionErr error
	statusCalls []model.ProjectStatus
	processed   map[string][2]any // file id -> {fns, classes}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:  make(map[string]*model.Project),
		files:     make(map[string][]model.SourceFile),
		prefs:     make(map[string]*model.Preferences),
		processed: make(map[string][2]any),
	}
}

func (s *fakeStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	if len(projectID) != 24 {
		return nil, invalidArgf("invalid project id %q", projectID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, notFoundf("project %s not found", projectID)
	}
	return p, nil
}

func (s *fakeStore) SetProjectStatus(ctx context.Context, projectID string, status model.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return s.statusErr
	}
	s.statusCalls = append(s.statusCalls, status)
	if p, ok := s.projects[projectID]; ok {
		p.Status = status
	}
	return nil
}

func (s *fakeStore) ListFiles(ctx context.Context, projectID string) ([]model.SourceFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[projectID], nil
}

func (s *fakeStore) SetProcessed(ctx context.Context, fileID string, fns []model.Symbol, classes []model.ClassSymbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[fileID] = [2]any{fns, classes}
	for pid, files := range s.files {
		for i := range files {
			if files[i].ID == fileID {
				files[i].ProcessedFunctions = fns
				files[i].ProcessedClasses = classes
				s.files[pid] = files
			}
		}
	}
	return nil
}

func (s *fakeStore) GetOrCreatePreferences(ctx context.Context, projectID string) (*model.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.prefs[projectID]; ok {
		return p, nil
	}
	p := model.DefaultPreferences(projectID)
	s.prefs[projectID] = p
	return p, nil
}

func (s *fakeStore) InsertRevision(ctx context.Context, rev *model.DocumentationRevision) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revisionErr != nil {
		return "", s.revisionErr
	}
	s.revisions = append(s.revisions, rev)
	return rev.RevisionID, nil
}

// seedProject installs a project with one parsed file matching the shape the
// exclusion tests exercise: two functions, two classes with two methods each.
func (s *fakeStore) seedProject(projectID string) {
	s.projects[projectID] = &model.Project{ID: projectID, Name: "proj", Status: model.StatusEmpty}
	s.files[projectID] = []model.SourceFile{
		{
			ID:        "f1",
			ProjectID: projectID,
			Filename:  "main.py",
			Functions: []model.Symbol{
				{Name: "main_fn", Code: "def main_fn():\n    pass"},
				{Name: "helper_fn", Code: "def helper_fn():\n    pass"},
			},
			Classes: []model.ClassSymbol{
				{
					Name: "MainClass",
					Code: "class MainClass: ...",
					Methods: []model.Symbol{
						{Name: "run", Code: "def run(self):\n    pass"},
						{Name: "skip_method", Code: "def skip_method(self):\n    pass"},
					},
				},
				{
					Name: "HelperClass",
					Code: "class HelperClass: ...",
					Methods: []model.Symbol{
						{Name: "assist", Code: "def assist(self):\n    pass"},
						{Name: "skip_method", Code: "def skip_method(self):\n    pass"},
					},
				},
			},
		},
	}
}

// ---------- fake generator ----------

type fakeGenerator struct {
	mu          sync.Mutex
	batchFn     func(prompts []string) ([]string, error)
	singleFn    func(prompt string) (string, error)
	batchCalls  [][]string
	singleCalls []string
}

func (g *fakeGenerator) GenerateBatch(ctx context.Context, prompts []string, params map[string]any) ([]string, error) {
	g.mu.Lock()
	g.batchCalls = append(g.batchCalls, prompts)
	g.mu.Unlock()
	if g.batchFn != nil {
		return g.batchFn(prompts)
	}
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = "doc for " + firstLine(p)
	}
	return out, nil
}

func (g *fakeGenerator) GenerateSingle(ctx context.Context, prompt string, params map[string]any) (string, error) {
	g.mu.Lock()
	g.singleCalls = append(g.singleCalls, prompt)
	g.mu.Unlock()
	if g.singleFn != nil {
		return g.singleFn(prompt)
	}
	return "single doc for " + firstLine(prompt), nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

// upstreamError mimics the inference client's typed status error.
type upstreamError struct {
	code int
}

func (e *upstreamError) Error() string   { return fmt.Sprintf("upstream status %d", e.code) }
func (e *upstreamError) HTTPStatus() int { return e.code }
