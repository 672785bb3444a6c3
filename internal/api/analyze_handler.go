package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type analyzeRequest struct {
	IDs []string `json:"ids"`
}

// AnalyzeHandler runs the analysis pipeline
// @Summary Analyze resumes
// @Description Run the analysis pipeline over one or more documents. Documents are processed concurrently and fail independently; the response maps each id to its outcome.
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body analyzeRequest true "Document ids"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /analyze [post]
func (a *API) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analyzeRequest
	if id := r.URL.Query().Get("id"); id != "" {
		req.IDs = []string{id}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		a.writeError(w, http.StatusBadRequest, "no document ids provided")
		return
	}

	outcomes, err := a.runner.AnalyzeMany(r.Context(), req.IDs)
	if err != nil {
		// Store-level failure; per-document errors live in the outcomes.
		a.logger.Error("batch analysis failed", zap.Error(err))
		a.writeError(w, http.StatusInternalServerError, "analysis infrastructure failure")
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcomes": outcomes,
	})
}
