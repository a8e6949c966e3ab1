package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docforgehq/docforge/internal/api/apierr"
	"github.com/docforgehq/docforge/internal/model"
)

type updatePreferencesRequest struct {
	Format             *string                   `json:"format"`
	DirectoryExclusion *model.DirectoryExclusion `json:"directory_exclusion"`
	PerFileExclusion   []model.PerFileExclusion  `json:"per_file_exclusion"`
}

func (h *Handlers) getPreferences(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireProject(w, r); !ok {
		return
	}
	prefs, err := h.prefs.GetOrCreatePreferences(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handlers) updatePreferences(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireProject(w, r); !ok {
		return
	}
	var req updatePreferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	prefs, err := h.prefs.UpdatePreferences(r.Context(), chi.URLParam(r, "projectID"),
		req.Format, req.DirectoryExclusion, req.PerFileExclusion)
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handlers) deletePreferences(w http.ResponseWriter, r *http.Request) {
	if err := h.prefs.DeletePreferences(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "preferences deleted"})
}
