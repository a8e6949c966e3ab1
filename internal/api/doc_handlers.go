package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docforgehq/docforge/internal/api/apierr"
	"github.com/docforgehq/docforge/internal/docgen"
	"github.com/docforgehq/docforge/internal/render"
)

// upstreamStateHeader tells clients whether a failed or degraded run hit a
// booting endpoint (retry soon) or a paused one (back off).
const upstreamStateHeader = "X-Upstream-State"

type generateRequest struct {
	BatchSize int            `json:"batch_size"`
	Params    map[string]any `json:"params"`
}

type patchRevisionRequest struct {
	Title       *string `json:"title"`
	Filename    *string `json:"filename"`
	Description *string `json:"description"`
}

func (h *Handlers) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planner.Plan(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	// Plans are recomputed from live preferences on every call; a cached
	// plan could disagree with what generate would do next.
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	claims := CurrentUser(r.Context())
	outcome, err := h.generator.Generate(r.Context(), chi.URLParam(r, "projectID"), docgen.GenerateOptions{
		BatchSize: req.BatchSize,
		Params:    req.Params,
		CreatedBy: claims.Username,
	})
	if err != nil {
		var upErr *docgen.UpstreamError
		if errors.As(err, &upErr) {
			w.Header().Set(upstreamStateHeader, string(upErr.State))
		}
		apierr.FromError(w, err)
		return
	}

	w.Header().Set(upstreamStateHeader, string(outcome.Upstream))
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handlers) listRevisions(w http.ResponseWriter, r *http.Request) {
	revisions, err := h.revisions.ListRevisions(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_id": chi.URLParam(r, "projectID"),
		"revisions":  revisions,
	})
}

func (h *Handlers) getRevision(w http.ResponseWriter, r *http.Request) {
	rev, err := h.revisions.GetRevision(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "revisionID"))
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *Handlers) renderRevision(w http.ResponseWriter, r *http.Request) {
	rev, err := h.revisions.GetRevision(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "revisionID"))
	if err != nil {
		apierr.FromError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = rev.Format
	}
	switch strings.ToLower(format) {
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(render.Markdown(rev.ProjectID, rev.Results, rev.CreatedAt)))
	case "html", "":
		page, err := render.HTML(rev.ProjectID, rev.Results, rev.CreatedAt)
		if err != nil {
			h.logger.Error("html rendering failed", "revision_id", rev.RevisionID, "error", err)
			apierr.InternalError(w, "could not render revision")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	case "pdf":
		doc, err := render.PDF(rev.ProjectID, rev.Results, rev.CreatedAt)
		if err != nil {
			h.logger.Error("pdf rendering failed", "revision_id", rev.RevisionID, "error", err)
			apierr.InternalError(w, "could not render revision")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(doc)
	default:
		apierr.ValidationError(w, "unknown format, want markdown, html, or pdf")
	}
}

func (h *Handlers) patchRevision(w http.ResponseWriter, r *http.Request) {
	var req patchRevisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rev, err := h.revisions.PatchRevision(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "revisionID"),
		req.Title, req.Filename, req.Description)
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *Handlers) deleteRevision(w http.ResponseWriter, r *http.Request) {
	err := h.revisions.DeleteRevision(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "revisionID"))
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "revision deleted"})
}
