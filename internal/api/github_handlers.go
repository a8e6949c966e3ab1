package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/docforgehq/docforge/internal/api/apierr"
	"github.com/docforgehq/docforge/internal/docgen"
	"github.com/docforgehq/docforge/internal/ghimport"
	"github.com/docforgehq/docforge/internal/model"
	"github.com/docforgehq/docforge/internal/store"
)

type githubTokenRequest struct {
	Token string `json:"token"`
}

type githubLoginRequest struct {
	Code string `json:"code"`
}

// githubLogin completes the OAuth code flow: it exchanges the code, finds or
// provisions the account behind the GitHub identity, stores the (encrypted)
// access token on it, and issues a session token.
func (h *Handlers) githubLogin(w http.ResponseWriter, r *http.Request) {
	var req githubLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		apierr.ValidationError(w, "code is required")
		return
	}
	if h.oauth == nil {
		apierr.InternalError(w, "github login is not configured")
		return
	}

	accessToken, identity, err := h.oauth.Login(r.Context(), req.Code)
	if errors.Is(err, ghimport.ErrOAuthNotConfigured) {
		apierr.InternalError(w, "github login is not configured")
		return
	}
	if err != nil {
		h.logger.Warn("github login failed", "error", err)
		apierr.Unauthorized(w, "github login failed")
		return
	}

	enc, err := h.secrets.Encrypt(accessToken)
	if err != nil {
		h.logger.Error("token encryption failed", "error", err)
		apierr.InternalError(w, "could not log in")
		return
	}

	user, err := h.users.GetUserByProvider(r.Context(), "github", identity.ProviderID)
	switch {
	case err == nil:
		// Returning user: refresh the stored access token.
		if err := h.users.SetGithubToken(r.Context(), user.Username, enc); err != nil {
			h.logger.Error("github token update failed", "user", user.Username, "error", err)
			apierr.InternalError(w, "could not log in")
			return
		}
	case errors.Is(err, docgen.ErrNotFound):
		user, err = h.createGithubUser(r.Context(), identity, enc)
		if err != nil {
			h.logger.Error("github user provisioning failed", "login", identity.Login, "error", err)
			apierr.InternalError(w, "could not log in")
			return
		}
	default:
		h.logger.Error("user lookup failed", "error", err)
		apierr.InternalError(w, "could not log in")
		return
	}

	token, err := h.tokens.Issue(user.Username, user.IsAdmin)
	if err != nil {
		h.logger.Error("token signing failed", "error", err)
		apierr.InternalError(w, "could not log in")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// createGithubUser provisions an account for a first-time GitHub login,
// suffixing the username until it is free.
func (h *Handlers) createGithubUser(ctx context.Context, identity *ghimport.Identity, encToken string) (*model.User, error) {
	email := identity.Email
	if email == "" {
		email = identity.Login + "@users.noreply.github.com"
	}
	username := identity.Login
	for i := 1; ; i++ {
		user, err := h.users.CreateUser(ctx, &model.User{
			Username:       username,
			Email:          email,
			AuthProvider:   "github",
			ProviderID:     identity.ProviderID,
			GithubTokenEnc: encToken,
		})
		if errors.Is(err, store.ErrUsernameTaken) {
			username = fmt.Sprintf("%s-%d", identity.Login, i)
			continue
		}
		return user, err
	}
}

type githubImportRequest struct {
	RepoFullName string   `json:"repo_full_name"`
	Ref          string   `json:"ref"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

// storeGithubToken encrypts a personal access token and stores it on the
// current user's account for later repository imports.
func (h *Handlers) storeGithubToken(w http.ResponseWriter, r *http.Request) {
	var req githubTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		apierr.ValidationError(w, "token is required")
		return
	}

	encrypted, err := h.secrets.Encrypt(req.Token)
	if err != nil {
		h.logger.Error("token encryption failed", "error", err)
		apierr.InternalError(w, "could not store token")
		return
	}

	claims := CurrentUser(r.Context())
	if err := h.users.SetGithubToken(r.Context(), claims.Username, encrypted); err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "github token stored"})
}

// importRepo downloads a repository archive with the caller's stored token
// and creates a project populated from its Python files.
func (h *Handlers) importRepo(w http.ResponseWriter, r *http.Request) {
	var req githubImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RepoFullName == "" {
		apierr.ValidationError(w, "repo_full_name is required")
		return
	}

	claims := CurrentUser(r.Context())
	user, err := h.users.GetUserByUsername(r.Context(), claims.Username)
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	if user.GithubTokenEnc == "" {
		apierr.ValidationError(w, "no github token on file, store one first")
		return
	}
	token, err := h.secrets.Decrypt(user.GithubTokenEnc)
	if err != nil {
		h.logger.Error("token decryption failed", "username", claims.Username, "error", err)
		apierr.InternalError(w, "stored github token is unreadable, store it again")
		return
	}

	data, ref, err := h.download(r.Context(), token).DownloadZipball(r.Context(), req.RepoFullName, req.Ref)
	if err != nil {
		if errors.Is(err, ghimport.ErrBadRepoName) {
			apierr.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("repository download failed", "repo", req.RepoFullName, "error", err)
		apierr.FromError(w, err)
		return
	}

	name := req.Name
	if name == "" {
		name = req.RepoFullName
	}
	description := req.Description
	if description == "" {
		description = "Imported from github.com/" + req.RepoFullName + "@" + ref
	}
	project, err := h.projects.CreateProject(r.Context(), claims.Username, name, description, req.Tags)
	if err != nil {
		apierr.FromError(w, err)
		return
	}

	uploaded, err := h.storeZip(r.Context(), project.ID, data)
	if err != nil {
		// The project was created but could not be populated. Leave it
		// in place so the caller can retry with a direct upload.
		h.logger.Warn("imported archive could not be ingested", "project_id", project.ID, "error", err)
		apierr.FromError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"project":  project,
		"ref":      ref,
		"imported": uploaded,
	})
}
