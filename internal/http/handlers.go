package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"conciliador/internal/amqp"
	"conciliador/internal/log"
	"conciliador/internal/pipeline"
	"conciliador/internal/storage"
)

type runRequestBody struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	CreatedBy     string `json:"created_by"`
}

type failedRunResponse struct {
	OK             bool    `json:"ok"`
	RunID          string  `json:"run_id,omitempty"`
	Error          string  `json:"error"`
	ElapsedSeconds float64 `json:"tiempo_seg"`
}

type runRecordResponse struct {
	ID            string          `json:"id"`
	SpreadsheetID string          `json:"spreadsheet_id"`
	CreatedBy     string          `json:"created_by"`
	StartedAt     string          `json:"started_at"`
	FinishedAt    *string         `json:"finished_at"`
	OK            bool            `json:"ok"`
	Result        json.RawMessage `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "procesar-pagos"})
}

// parseRunRequest decodes the body and fills the default spreadsheet.
func (s *Server) parseRunRequest(r *http.Request) (pipeline.Request, error) {
	var body runRequestBody
	if err := decodeJSON(r, &body); err != nil {
		return pipeline.Request{}, errors.New("invalid JSON body")
	}
	req := pipeline.Request{
		SpreadsheetID: sanitizeInput(body.SpreadsheetID),
		CreatedBy:     sanitizeInput(body.CreatedBy),
	}
	if req.SpreadsheetID == "" {
		req.SpreadsheetID = strings.TrimSpace(s.deps.DefaultSpreadsheetID)
	}
	if req.SpreadsheetID == "" {
		return pipeline.Request{}, pipeline.ErrMissingSpreadsheet
	}
	return req, nil
}

func (s *Server) handleProcesarPagos(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRunRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.deps.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "runner not configured")
		return
	}

	res, err := s.deps.Runner.Run(r.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrMissingSpreadsheet) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusInternalServerError, failedRunResponse{
			OK: false, RunID: res.RunID, Error: err.Error(), ElapsedSeconds: res.ElapsedSeconds,
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProcesarPagosAsync(w http.ResponseWriter, r *http.Request) {
	if s.deps.Publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "async processing not configured")
		return
	}
	req, err := s.parseRunRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CreatedBy == "" {
		req.CreatedBy = "unknown"
	}

	runID := uuid.NewString()
	if s.deps.Recorder != nil {
		pending := storage.Run{ID: runID, SpreadsheetID: req.SpreadsheetID, CreatedBy: req.CreatedBy, StartedAt: time.Now()}
		if err := s.deps.Recorder.CreateRun(r.Context(), pending); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to record pending run",
				log.FieldRunID, runID, log.FieldError, err)
		}
	}
	msg := amqp.NewRunRequestMessage(runID, req.SpreadsheetID, req.CreatedBy)
	if err := s.deps.Publisher.PublishRunRequest(r.Context(), msg); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to enqueue run",
			log.FieldRunID, runID, log.FieldError, err)
		if s.deps.Recorder != nil {
			_ = s.deps.Recorder.FinishRun(r.Context(), runID, false, "{}", "could not enqueue run")
		}
		writeError(w, http.StatusServiceUnavailable, "could not enqueue run")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"ok":         true,
		"run_id":     runID,
		"status_url": "/runs/" + runID,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run log not configured")
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.deps.Runs.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load run",
			log.FieldRunID, id, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	writeJSON(w, http.StatusOK, toRunRecord(run))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.snapshot())
}

func toRunRecord(run *storage.Run) runRecordResponse {
	out := runRecordResponse{
		ID:            run.ID,
		SpreadsheetID: run.SpreadsheetID,
		CreatedBy:     run.CreatedBy,
		StartedAt:     run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		OK:            run.OK,
		Error:         run.Error,
	}
	if run.FinishedAt != nil {
		f := run.FinishedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		out.FinishedAt = &f
	}
	if run.ResultJSON != "" && json.Valid([]byte(run.ResultJSON)) {
		out.Result = json.RawMessage(run.ResultJSON)
	}
	return out
}
