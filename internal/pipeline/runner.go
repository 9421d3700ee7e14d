package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"conciliador/internal/installments"
	"conciliador/internal/log"
	"conciliador/internal/sheets"
	"conciliador/internal/storage"
)

type (
	// Request asks for one full run against a spreadsheet.
	Request struct {
		RunID         string `json:"run_id,omitempty"`
		SpreadsheetID string `json:"spreadsheet_id"`
		CreatedBy     string `json:"created_by,omitempty"`
	}

	// RunResult is the aggregate response of a run.
	RunResult struct {
		OK                  bool    `json:"ok"`
		RunID               string  `json:"run_id"`
		Loaded              int     `json:"pagos_cargados"`
		Duplicates          int     `json:"duplicados"`
		LoadErrors          int     `json:"errores_carga"`
		Honorariums         int     `json:"honorarios"`
		InstallmentsUpdated int     `json:"cuotas_actualizadas"`
		ElapsedSeconds      float64 `json:"tiempo_seg"`
		ErrorDetail         *string `json:"errores"`
		Error               string  `json:"error,omitempty"`
	}

	// StoreFactory opens the tabular store of one spreadsheet.
	StoreFactory func(ctx context.Context, spreadsheetID string) (sheets.Store, error)

	// RunLog records runs. Failures are logged, never returned to the caller.
	RunLog interface {
		CreateRun(ctx context.Context, run storage.Run) error
		FinishRun(ctx context.Context, id string, ok bool, resultJSON, errText string) error
	}

	Runner struct {
		stores   StoreFactory
		calendar BusinessDays
		runs     RunLog
		opts     []Option
		logger   *log.Logger
		now      func() time.Time
	}
)

// ErrMissingSpreadsheet is returned for requests without a spreadsheet id.
var ErrMissingSpreadsheet = errors.New("spreadsheet_id requerido")

// NewRunner wires the collaborators shared by every run. runs may be nil.
func NewRunner(stores StoreFactory, cal BusinessDays, runs RunLog, logger *log.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	r := &Runner{stores: stores, calendar: cal, runs: runs, logger: logger, now: time.Now}
	r.opts = append([]Option{WithLogger(logger)}, opts...)
	return r
}

// WithClock sets the clock used for elapsed time and the current period.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes ingestion, honorariums, installment recomputation and the
// history copy, in that order. The first storage failure aborts the run.
func (r *Runner) Run(ctx context.Context, req Request) (RunResult, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.CreatedBy == "" {
		req.CreatedBy = "unknown"
	}
	started := r.now()
	res := RunResult{RunID: req.RunID}
	logger := r.logger.WithComponent(log.ComponentPipeline).WithFields(
		log.NewFields().WithRunID(req.RunID))

	if req.SpreadsheetID == "" {
		res.Error = ErrMissingSpreadsheet.Error()
		return res, ErrMissingSpreadsheet
	}
	logger = logger.With(log.FieldSpreadsheet, req.SpreadsheetID)
	ctx = log.IntoContext(ctx, logger)

	if r.runs != nil {
		err := r.runs.CreateRun(ctx, storage.Run{
			ID: req.RunID, SpreadsheetID: req.SpreadsheetID, CreatedBy: req.CreatedBy, StartedAt: started,
		})
		if err != nil {
			logger.WarnContext(ctx, "Failed to record run start", log.FieldError, err)
		}
	}

	logger.InfoContext(ctx, "Run started", "created_by", req.CreatedBy)
	err := r.run(ctx, req, &res, logger)
	res.ElapsedSeconds = math.Round(r.now().Sub(started).Seconds()*100) / 100
	if err != nil {
		res.OK = false
		res.Error = err.Error()
		logger.ErrorContext(ctx, "Run failed", log.FieldError, err, "elapsed_s", res.ElapsedSeconds)
	} else {
		res.OK = true
		logger.InfoContext(ctx, "Run finished", "elapsed_s", res.ElapsedSeconds)
	}
	r.finish(ctx, res, logger)
	return res, err
}

func (r *Runner) run(ctx context.Context, req Request, res *RunResult, logger *log.Logger) error {
	store, err := r.stores(ctx, req.SpreadsheetID)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	opts := append(append([]Option(nil), r.opts...), WithClock(r.now))
	p := New(store, r.calendar, opts...)

	book, err := p.LoadContracts(ctx)
	if err != nil {
		return err
	}
	receipts, err := p.ReadReceipts(ctx)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Step started", log.FieldStep, "cargar_pagos")
	ing, err := p.Ingest(ctx, book, receipts)
	res.Loaded, res.Duplicates, res.LoadErrors = ing.Loaded, ing.Duplicates, ing.Errors
	if ing.Errors > 0 {
		detail := fmt.Sprintf("%d filas con error", ing.Errors)
		res.ErrorDetail = &detail
	}
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Step started", log.FieldStep, "honorarios")
	hon, err := p.Honorariums(ctx, receipts)
	res.Honorariums = hon.Processed
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Step started", log.FieldStep, "cuotas_concepto")
	acc, err := installments.New(store, logger).Run(ctx, book, p.CurrentPeriod())
	res.InstallmentsUpdated = acc.Updated
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Step started", log.FieldStep, "historico")
	return p.CopyHistory(ctx)
}

func (r *Runner) finish(ctx context.Context, res RunResult, logger *log.Logger) {
	if r.runs == nil {
		return
	}
	body, err := json.Marshal(res)
	if err != nil {
		logger.WarnContext(ctx, "Failed to encode run result", log.FieldError, err)
		return
	}
	if err := r.runs.FinishRun(ctx, res.RunID, res.OK, string(body), res.Error); err != nil {
		logger.WarnContext(ctx, "Failed to record run result", log.FieldError, err)
	}
}
