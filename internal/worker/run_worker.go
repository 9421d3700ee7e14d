package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"conciliador/internal/amqp"
	"conciliador/internal/pipeline"
	"conciliador/internal/storage"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.RunResult, error)
}

// RunStore is the part of the run log the worker maintains.
type RunStore interface {
	ListRecentRuns(ctx context.Context, limit int) ([]storage.Run, error)
	FinishRun(ctx context.Context, id string, ok bool, resultJSON, errText string) error
}

// RunWorker executes run requests received from AMQP
type RunWorker struct {
	runner     Runner
	runs       RunStore
	staleAfter time.Duration
	now        func() time.Time
}

func NewRunWorker(runner Runner, runs RunStore, staleAfter time.Duration) *RunWorker {
	return &RunWorker{runner: runner, runs: runs, staleAfter: staleAfter, now: time.Now}
}

// HandleRunRequest processes a single run request message from AMQP.
// Invalid requests are dropped; storage failures are returned so the
// message is redelivered.
func (w *RunWorker) HandleRunRequest(ctx context.Context, msg *amqp.RunRequestMessage) error {
	slog.InfoContext(ctx, "Processing run request",
		"run_id", msg.RunID,
		"spreadsheet_id", msg.SpreadsheetID,
		"created_by", msg.CreatedBy)

	res, err := w.runner.Run(ctx, pipeline.Request{
		RunID:         msg.RunID,
		SpreadsheetID: msg.SpreadsheetID,
		CreatedBy:     msg.CreatedBy,
	})
	if errors.Is(err, pipeline.ErrMissingSpreadsheet) {
		slog.WarnContext(ctx, "Dropping run request", "run_id", msg.RunID, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", res.RunID, err)
	}

	slog.InfoContext(ctx, "Run request completed",
		"run_id", res.RunID,
		"pagos_cargados", res.Loaded,
		"honorarios", res.Honorariums,
		"cuotas_actualizadas", res.InstallmentsUpdated)
	return nil
}

// StartupRunCheck closes runs left unfinished by a previous process, e.g.
// a worker killed mid-run. Only runs older than staleAfter are touched.
func (w *RunWorker) StartupRunCheck(ctx context.Context) error {
	if w.runs == nil {
		return nil
	}
	runs, err := w.runs.ListRecentRuns(ctx, 100)
	if err != nil {
		return fmt.Errorf("list runs for startup check: %w", err)
	}

	closed := 0
	cutoff := w.now().Add(-w.staleAfter)
	for _, r := range runs {
		if r.FinishedAt != nil || r.StartedAt.After(cutoff) {
			continue
		}
		if err := w.runs.FinishRun(ctx, r.ID, false, "{}", "abandoned"); err != nil {
			slog.ErrorContext(ctx, "Failed to close abandoned run", "run_id", r.ID, "error", err)
			continue
		}
		closed++
	}

	if closed > 0 {
		slog.InfoContext(ctx, "Closed abandoned runs on startup", "count", closed)
	} else {
		slog.InfoContext(ctx, "No abandoned runs found on startup")
	}
	return nil
}
