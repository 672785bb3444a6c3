package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"resume-analyzer/internal/pipeline"
	"resume-analyzer/internal/search"
	"resume-analyzer/internal/storage"
)

const maxUploadSize = 10 << 20 // 10MB

type API struct {
	store  storage.Store
	blobs  *storage.ArtifactStore
	runner *pipeline.Runner
	engine *search.Engine
	logger *zap.Logger
}

func NewAPI(store storage.Store, blobs *storage.ArtifactStore, runner *pipeline.Runner, engine *search.Engine, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		store:  store,
		blobs:  blobs,
		runner: runner,
		engine: engine,
		logger: logger,
	}
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("encode response", zap.Error(err))
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, map[string]string{"error": msg})
}
