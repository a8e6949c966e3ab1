// Package api is the HTTP surface of the documentation service: chi routes,
// JWT auth, and handlers translating between the REST contract and the
// generation pipeline.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docforgehq/docforge/internal/api/apierr"
	"github.com/docforgehq/docforge/internal/auth"
	"github.com/docforgehq/docforge/internal/docgen"
	"github.com/docforgehq/docforge/internal/ghimport"
	"github.com/docforgehq/docforge/internal/model"
	"github.com/docforgehq/docforge/internal/pyparse"
)

// Upload limits, enforced per request.
const (
	MaxFilesPerUpload = 100
	MaxItemsPerUpload = 500
	maxUploadBytes    = 64 << 20
)

// ProjectStore is the project persistence the handlers need.
type ProjectStore interface {
	CreateProject(ctx context.Context, userID, name, description string, tags []string) (*model.Project, error)
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	UpdateProject(ctx context.Context, projectID string, name, description *string, tags []string) (*model.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
	SetProjectStatus(ctx context.Context, projectID string, status model.ProjectStatus) error
}

// FileStore is the source file persistence the handlers need.
type FileStore interface {
	UpsertFile(ctx context.Context, projectID, filename string, functions []model.Symbol, classes []model.ClassSymbol) (*model.SourceFile, error)
	ListFiles(ctx context.Context, projectID string) ([]model.SourceFile, error)
	GetFile(ctx context.Context, fileID string) (*model.SourceFile, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// PreferenceStore is the preferences persistence the handlers need.
type PreferenceStore interface {
	GetOrCreatePreferences(ctx context.Context, projectID string) (*model.Preferences, error)
	UpdatePreferences(ctx context.Context, projectID string, format *string, dir *model.DirectoryExclusion, perFile []model.PerFileExclusion) (*model.Preferences, error)
	DeletePreferences(ctx context.Context, projectID string) error
}

// RevisionStore is the revision persistence the handlers need.
type RevisionStore interface {
	ListRevisions(ctx context.Context, projectID string) ([]model.DocumentationRevision, error)
	GetRevision(ctx context.Context, projectID, revisionID string) (*model.DocumentationRevision, error)
	PatchRevision(ctx context.Context, projectID, revisionID string, title, filename, description *string) (*model.DocumentationRevision, error)
	DeleteRevision(ctx context.Context, projectID, revisionID string) error
}

// UserStore is the account persistence the handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByProvider(ctx context.Context, provider, providerID string) (*model.User, error)
	SetGithubToken(ctx context.Context, username, encryptedToken string) error
}

// Planner computes documentation plans.
type Planner interface {
	Plan(ctx context.Context, projectID string) (*model.DocumentationPlan, error)
}

// GenerationRunner runs the full generation pipeline.
type GenerationRunner interface {
	Generate(ctx context.Context, projectID string, opts docgen.GenerateOptions) (*docgen.GenerationOutcome, error)
}

// PreferenceApplier runs the preferences-apply pass over a project's files.
type PreferenceApplier interface {
	Apply(ctx context.Context, projectID string) error
}

// RepoDownloader fetches a GitHub repository archive.
type RepoDownloader interface {
	DownloadZipball(ctx context.Context, fullName, ref string) ([]byte, string, error)
}

// DownloadFunc builds a RepoDownloader bound to one user's access token.
type DownloadFunc func(ctx context.Context, token string) RepoDownloader

// OAuthLogin completes GitHub's OAuth code flow.
type OAuthLogin interface {
	Login(ctx context.Context, code string) (string, *ghimport.Identity, error)
}

// Handlers carries every dependency of the HTTP layer.
type Handlers struct {
	projects  ProjectStore
	files     FileStore
	prefs     PreferenceStore
	revisions RevisionStore
	users     UserStore
	planner   Planner
	generator GenerationRunner
	applier   PreferenceApplier
	parser    *pyparse.Parser
	tokens    *auth.TokenIssuer
	secrets   *auth.SecretBox
	download  DownloadFunc
	oauth     OAuthLogin
	logger    *slog.Logger
}

// HandlerConfig bundles the dependencies for NewHandlers.
type HandlerConfig struct {
	Projects  ProjectStore
	Files     FileStore
	Prefs     PreferenceStore
	Revisions RevisionStore
	Users     UserStore
	Planner   Planner
	Generator GenerationRunner
	Applier   PreferenceApplier
	Parser    *pyparse.Parser
	Tokens    *auth.TokenIssuer
	Secrets   *auth.SecretBox
	Download  DownloadFunc
	OAuth     OAuthLogin
	Logger    *slog.Logger
}

// NewHandlers wires the HTTP handlers.
func NewHandlers(cfg HandlerConfig) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		projects:  cfg.Projects,
		files:     cfg.Files,
		prefs:     cfg.Prefs,
		revisions: cfg.Revisions,
		users:     cfg.Users,
		planner:   cfg.Planner,
		generator: cfg.Generator,
		applier:   cfg.Applier,
		parser:    cfg.Parser,
		tokens:    cfg.Tokens,
		secrets:   cfg.Secrets,
		download:  cfg.Download,
		oauth:     cfg.OAuth,
		logger:    logger,
	}
}

// Routes mounts every endpoint on a fresh router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/github", h.githubLogin)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(h.tokens))

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", h.createProject)
			r.Get("/", h.listProjects)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", h.getProject)
				r.Patch("/", h.updateProject)
				r.Delete("/", h.deleteProject)
				r.Post("/apply-preferences", h.applyPreferences)

				r.Route("/files", func(r chi.Router) {
					r.Post("/", h.uploadFile)
					r.Post("/batch", h.uploadFiles)
					r.Post("/upload-zip", h.uploadZip)
					r.Get("/all", h.listFiles)
					r.Get("/{fileID}", h.getFile)
					r.Delete("/{fileID}", h.deleteFile)
				})

				r.Route("/preferences", func(r chi.Router) {
					r.Get("/", h.getPreferences)
					r.Patch("/", h.updatePreferences)
					r.Delete("/", h.deletePreferences)
				})

				r.Route("/documentation", func(r chi.Router) {
					r.Get("/plan", h.getPlan)
					r.Post("/generate", h.generate)
					r.Get("/revisions", h.listRevisions)
					r.Get("/revisions/{revisionID}", h.getRevision)
					r.Get("/revisions/{revisionID}/render", h.renderRevision)
					r.Patch("/revisions/{revisionID}", h.patchRevision)
					r.Delete("/revisions/{revisionID}", h.deleteRevision)
				})
			})
		})

		r.Route("/github", func(r chi.Router) {
			r.Post("/token", h.storeGithubToken)
			r.Post("/import", h.importRepo)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apierr.ValidationError(w, "malformed request body")
		return false
	}
	return true
}

// refreshProjectStatus re-derives and stores the project status. Failures
// are logged, never surfaced: status is a convenience field.
func (h *Handlers) refreshProjectStatus(ctx context.Context, projectID string) {
	files, err := h.files.ListFiles(ctx, projectID)
	if err == nil {
		err = h.projects.SetProjectStatus(ctx, projectID, model.DeriveProjectStatus(files))
	}
	if err != nil {
		h.logger.Warn("project status refresh failed", "project_id", projectID, "error", err)
	}
}

// requireProject resolves the project or writes the mapped error.
func (h *Handlers) requireProject(w http.ResponseWriter, r *http.Request) (*model.Project, bool) {
	project, err := h.projects.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		apierr.FromError(w, err)
		return nil, false
	}
	return project, true
}

// countItems totals documentable symbols the way upload limits count them:
// functions plus classes plus methods.
func countItems(functions []model.Symbol, classes []model.ClassSymbol) int {
	n := len(functions) + len(classes)
	for _, c := range classes {
		n += len(c.Methods)
	}
	return n
}
