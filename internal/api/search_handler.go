package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"resume-analyzer/internal/search"
)

// SearchHandler searches stored candidate records
// @Summary Search candidates
// @Description Search analyzed resumes by free text, required tags (AND semantics) and demographic range filters
// @Tags search
// @Accept json
// @Produce json
// @Param query body search.Query true "Search query"
// @Success 200 {object} search.Result
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /search [post]
func (a *API) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var q search.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := a.engine.Search(r.Context(), q)
	if err != nil {
		a.logger.Error("search failed", zap.Error(err))
		a.writeError(w, http.StatusInternalServerError, "search error")
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

// pageQuery builds a bare paging query from URL parameters.
func pageQuery(r *http.Request) search.Query {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	return search.Query{Page: page, PageSize: pageSize}
}
