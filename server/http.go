package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/specboard/specboard/generation"
	"github.com/specboard/specboard/projectapi"
	"github.com/specboard/specboard/realtime"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// handleGetAPISpec serves the latest stored snapshot. A project without a
// snapshot yet gets an empty, shape-valid document.
func (s *Server) handleGetAPISpec(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectID")
	if err := realtime.CheckProjectID(projectID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, _, err := s.snapshots.Load(r.Context(), projectID)
	if err != nil {
		s.logger.Error("Failed to load snapshot", "project_id", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}

	writeJSON(w, http.StatusOK, &doc)
}

// generateRequest is the body of the generation endpoint.
type generateRequest struct {
	Instruction string `json:"instruction"`
}

// handleGenerate runs the generation pipeline and returns the normalized
// document. Validation failures map to 422, provider failures to 502, parse
// failures to 502 with a distinct message; the stored snapshot is only
// replaced on success.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeError(w, http.StatusNotImplemented, "generation is not configured")
		return
	}

	projectID := r.PathValue("projectID")
	if err := realtime.CheckProjectID(projectID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var req generateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	doc, err := s.generator.Generate(r.Context(), projectID, req.Instruction)
	if err != nil {
		switch {
		case projectapi.IsValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case generation.IsParseError(err):
			s.logger.Warn("Generation parse failure", "project_id", projectID, "error", err)
			writeError(w, http.StatusBadGateway, "generation response could not be parsed")
		default:
			s.logger.Error("Generation failed", "project_id", projectID, "error", err)
			writeError(w, http.StatusBadGateway, "generation service failed")
		}
		return
	}

	if err := s.snapshots.Save(r.Context(), projectID, doc); err != nil {
		s.logger.Error("Failed to persist generated snapshot", "project_id", projectID, "error", err)
	}

	// Fan the result out like a manual edit so every open view converges.
	if data, err := json.Marshal(&doc); err == nil {
		if err := s.transport.Publish(realtime.UpdatesSubject(projectID), data); err != nil {
			s.logger.Warn("Failed to broadcast generated snapshot", "project_id", projectID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, &doc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing useful to do.
		_ = err
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
