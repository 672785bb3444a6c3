package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/storage"
)

// UploadHandler ingests a resume document
// @Summary Upload a resume
// @Description Upload a resume file (PDF, DOC/DOCX, RTF, ODT, TXT or image). Pass analyze=true to run the analysis pipeline synchronously.
// @Tags resumes
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Resume file"
// @Param analyze query bool false "Analyze immediately"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /resumes/upload [post]
func (a *API) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		a.writeError(w, http.StatusBadRequest, "file too large or invalid (max 10MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		a.writeError(w, http.StatusBadRequest, "file too large or invalid (max 10MB)")
		return
	}

	if !extract.Supported(header.Filename) {
		a.writeError(w, http.StatusBadRequest, "unsupported file type (PDF, DOC, DOCX, RTF, ODT, TXT, PNG, JPG, TIFF)")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	fileID := uuid.NewString()
	if err := a.blobs.Store(fileID, data); err != nil {
		a.logger.Error("store upload", zap.Error(err))
		a.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	doc := &storage.Document{
		ID:         uuid.NewString(),
		FileID:     fileID,
		Filename:   header.Filename,
		UploadedAt: time.Now().UTC(),
		Status:     storage.StatusPending,
		Tags:       []string{},
	}
	if err := a.store.Create(r.Context(), doc); err != nil {
		a.logger.Error("create document", zap.Error(err))
		a.writeError(w, http.StatusInternalServerError, "failed to create document record")
		return
	}

	a.logger.Info("resume uploaded",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("bytes", len(data)))

	response := map[string]interface{}{
		"document_id": doc.ID,
		"file_id":     doc.FileID,
		"filename":    doc.Filename,
		"status":      doc.Status,
	}

	if r.URL.Query().Get("analyze") == "true" {
		outcome, err := a.runner.Analyze(r.Context(), doc.ID)
		if err != nil {
			a.logger.Error("analyze after upload", zap.Error(err))
			a.writeError(w, http.StatusInternalServerError, "analysis infrastructure failure")
			return
		}
		response["outcome"] = outcome
		response["status"] = outcome.Status
	}

	a.writeJSON(w, http.StatusOK, response)
}

// ListHandler lists stored resumes
// @Summary List resumes
// @Description List document records newest first, including failed documents with their error reason
// @Tags resumes
// @Produce json
// @Param page query int false "Page (1-indexed)"
// @Param page_size query int false "Page size"
// @Success 200 {object} search.Result
// @Router /resumes [get]
func (a *API) ListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := pageQuery(r)
	result, err := a.engine.Search(r.Context(), q)
	if err != nil {
		a.logger.Error("list documents", zap.Error(err))
		a.writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

// GetHandler fetches one resume record
// @Summary Get a resume
// @Description Fetch a single document record by id
// @Tags resumes
// @Produce json
// @Param id query string true "Document id"
// @Success 200 {object} storage.Document
// @Failure 404 {object} map[string]string
// @Router /resumes/get [get]
func (a *API) GetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		a.writeError(w, http.StatusBadRequest, "missing id parameter")
		return
	}

	doc, err := a.store.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		a.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		a.logger.Error("get document", zap.Error(err))
		a.writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.Analysis == nil {
		doc.Analysis = &storage.AnalysisSummary{}
	}
	a.writeJSON(w, http.StatusOK, doc)
}
