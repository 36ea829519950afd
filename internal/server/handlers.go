package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/codeflow/sentinel/internal/diff"
	"github.com/codeflow/sentinel/internal/models"
	"github.com/codeflow/sentinel/pkg/utils"
)

// contextRequest carries either raw diff text or an already-parsed file list.
type contextRequest struct {
	Diff  string               `json:"diff,omitempty"`
	Files []models.ChangedFile `json:"files,omitempty"`
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	files := req.Files
	if len(files) == 0 && req.Diff != "" {
		files = diff.Parse(req.Diff)
	}
	if len(files) == 0 {
		s.respondError(w, http.StatusBadRequest, "no changed files in request")
		return
	}
	bundle := s.synthesizer.Synthesize(r.Context(), files)
	s.logger.Debug("context request served",
		zap.String("query", utils.Truncate(bundle.QueryText, 120)),
		zap.Int("chunks", bundle.ContextChunksUsed),
	)
	s.respondJSON(w, http.StatusOK, bundle)
}

type ingestRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	files, chunks, err := s.retriever.IngestDirectory(r.Context(), req.Path, &s.cfg.Ingest)
	if err != nil {
		s.logger.Error("ingestion failed", zap.String("path", req.Path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"files": files, "chunks": chunks})
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results := s.retriever.Retrieve(r.Context(), req.Query, req.TopK)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   req.Query,
		"results": results,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.patterns == nil {
		s.respondError(w, http.StatusServiceUnavailable, "pattern store not configured")
		return
	}
	var fb models.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil || fb.FilePath == "" {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.patterns.RecordFeedback(r.Context(), &fb); err != nil {
		s.logger.Error("record feedback failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"index": s.retriever.Stats(),
		"config": map[string]interface{}{
			"embedding_dimensions": s.cfg.Embedding.Dimensions,
			"chunk_size":           s.cfg.Retrieval.ChunkSize,
			"chunk_overlap":        s.cfg.Retrieval.ChunkOverlap,
			"min_score":            s.cfg.Retrieval.MinScore,
			"index_dir":            s.cfg.Storage.IndexDir,
		},
	}
	if s.patterns != nil {
		if stats, err := s.patterns.Stats(r.Context()); err == nil {
			resp["patterns"] = stats
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
