package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docforgehq/docforge/internal/api/apierr"
)

type createProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type updateProjectRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

func (h *Handlers) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		apierr.ValidationError(w, "project name is required")
		return
	}

	claims := CurrentUser(r.Context())
	project, err := h.projects.CreateProject(r.Context(), claims.Username, req.Name, req.Description, req.Tags)
	if err != nil {
		h.logger.Error("project creation failed", "error", err)
		apierr.InternalError(w, "could not create project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *Handlers) listProjects(w http.ResponseWriter, r *http.Request) {
	claims := CurrentUser(r.Context())
	projects, err := h.projects.ListProjects(r.Context(), claims.Username)
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handlers) getProject(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handlers) updateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := h.projects.UpdateProject(r.Context(), chi.URLParam(r, "projectID"),
		req.Name, req.Description, req.Tags)
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handlers) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.DeleteProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "project deleted"})
}

func (h *Handlers) applyPreferences(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if err := h.applier.Apply(r.Context(), projectID); err != nil {
		apierr.FromError(w, err)
		return
	}
	project, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}
