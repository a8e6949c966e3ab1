package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docforgehq/docforge/internal/api/apierr"
	"github.com/docforgehq/docforge/internal/docgen"
	"github.com/docforgehq/docforge/internal/pyparse"
)

type uploadedFile struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

func (h *Handlers) uploadFile(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProject(w, r)
	if !ok {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		apierr.ValidationError(w, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	parsed, err := h.parseUpload(header.Filename, file)
	if err != nil {
		apierr.ValidationError(w, err.Error())
		return
	}
	if n := countItems(parsed.Functions, parsed.Classes); n > MaxItemsPerUpload {
		apierr.ValidationError(w, fmt.Sprintf("upload rejected: total items (%d) exceed limit of %d", n, MaxItemsPerUpload))
		return
	}

	stored, err := h.files.UpsertFile(r.Context(), project.ID, parsed.Filename, parsed.Functions, parsed.Classes)
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	h.refreshProjectStatus(r.Context(), project.ID)
	writeJSON(w, http.StatusCreated, uploadedFile{FileID: stored.ID, Filename: stored.Filename})
}

func (h *Handlers) uploadFiles(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProject(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apierr.ValidationError(w, "malformed multipart request")
		return
	}
	headers := r.MultipartForm.File["files"]

	var pyHeaders []*multipart.FileHeader
	for _, header := range headers {
		if strings.HasSuffix(header.Filename, ".py") {
			pyHeaders = append(pyHeaders, header)
		}
	}
	if len(pyHeaders) > MaxFilesPerUpload {
		apierr.ValidationError(w, fmt.Sprintf("upload rejected: maximum %d files per upload", MaxFilesPerUpload))
		return
	}

	parsed := make([]pyparse.ParsedFile, 0, len(pyHeaders))
	totalItems := 0
	for _, header := range pyHeaders {
		file, err := header.Open()
		if err != nil {
			apierr.ValidationError(w, fmt.Sprintf("cannot read %s", header.Filename))
			return
		}
		p, err := h.parseUpload(header.Filename, file)
		file.Close()
		if err != nil {
			apierr.ValidationError(w, err.Error())
			return
		}
		totalItems += countItems(p.Functions, p.Classes)
		parsed = append(parsed, *p)
	}
	if totalItems > MaxItemsPerUpload {
		apierr.ValidationError(w, fmt.Sprintf("upload rejected: total items (%d) exceed limit of %d", totalItems, MaxItemsPerUpload))
		return
	}

	uploaded := make([]uploadedFile, 0, len(parsed))
	for _, p := range parsed {
		stored, err := h.files.UpsertFile(r.Context(), project.ID, p.Filename, p.Functions, p.Classes)
		if err != nil {
			apierr.FromError(w, err)
			return
		}
		uploaded = append(uploaded, uploadedFile{FileID: stored.ID, Filename: stored.Filename})
	}
	h.refreshProjectStatus(r.Context(), project.ID)
	writeJSON(w, http.StatusCreated, uploaded)
}

func (h *Handlers) uploadZip(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProject(w, r)
	if !ok {
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		apierr.ValidationError(w, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		apierr.ValidationError(w, "cannot read archive")
		return
	}
	if err := h.ingestZip(w, r, project.ID, data); err != nil {
		return
	}
}

// ingestZip parses an archive and stores its files under the project. It
// writes the response (success or error) and returns non-nil if anything
// was written as an error.
func (h *Handlers) ingestZip(w http.ResponseWriter, r *http.Request, projectID string, data []byte) error {
	uploaded, err := h.storeZip(r.Context(), projectID, data)
	if err != nil {
		apierr.FromError(w, err)
		return err
	}
	writeJSON(w, http.StatusCreated, uploaded)
	return nil
}

// storeZip extracts an archive and upserts its Python files. Rejections
// wrap docgen.ErrInvalidArgument so callers can map them to 400.
func (h *Handlers) storeZip(ctx context.Context, projectID string, data []byte) ([]uploadedFile, error) {
	extracted, err := h.parser.ExtractZip(data)
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid zip archive", docgen.ErrInvalidArgument)
	}
	if len(extracted) > MaxFilesPerUpload {
		return nil, fmt.Errorf("%w: upload rejected, maximum %d files per upload", docgen.ErrInvalidArgument, MaxFilesPerUpload)
	}
	totalItems := 0
	for _, f := range extracted {
		totalItems += countItems(f.Functions, f.Classes)
	}
	if totalItems > MaxItemsPerUpload {
		return nil, fmt.Errorf("%w: upload rejected, total items (%d) exceed limit of %d", docgen.ErrInvalidArgument, totalItems, MaxItemsPerUpload)
	}

	uploaded := make([]uploadedFile, 0, len(extracted))
	for _, f := range extracted {
		stored, err := h.files.UpsertFile(ctx, projectID, docgen.NormalizePath(f.Filename), f.Functions, f.Classes)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, uploadedFile{FileID: stored.ID, Filename: stored.Filename})
	}
	h.refreshProjectStatus(ctx, projectID)
	return uploaded, nil
}

func (h *Handlers) parseUpload(filename string, file io.Reader) (*pyparse.ParsedFile, error) {
	if !strings.HasSuffix(filename, ".py") {
		return nil, fmt.Errorf("only .py files are accepted, got %q", filename)
	}
	source, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("cannot read %s", filename)
	}
	functions, classes, err := h.parser.ParseSource(source)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s", filename)
	}
	return &pyparse.ParsedFile{
		Filename:  docgen.NormalizePath(filename),
		Functions: functions,
		Classes:   classes,
	}, nil
}

func (h *Handlers) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.ListFiles(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *Handlers) getFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.files.GetFile(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		apierr.FromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (h *Handlers) deleteFile(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if err := h.files.DeleteFile(r.Context(), chi.URLParam(r, "fileID")); err != nil {
		apierr.FromError(w, err)
		return
	}
	h.refreshProjectStatus(r.Context(), projectID)
	writeJSON(w, http.StatusOK, map[string]string{"detail": "file deleted"})
}
