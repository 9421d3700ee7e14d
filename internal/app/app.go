// Package app wires the configuration into the collaborators shared by the
// server and the worker binaries.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"conciliador/internal/calendar"
	"conciliador/internal/channel"
	"conciliador/internal/config"
	"conciliador/internal/log"
	"conciliador/internal/pipeline"
	"conciliador/internal/sheets"
	gsheet "conciliador/internal/sheets/google"
	"conciliador/internal/sheets/memory"
	"conciliador/internal/storage"
)

// holidayCacheTTL makes the server retry a failed holiday source twice a day.
const holidayCacheTTL = 12 * time.Hour

// App holds the long-lived dependencies of a process.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Repo     *storage.SQLiteRepository
	Calendar *calendar.Service
	Runner   *pipeline.Runner
}

// NewLogger builds the process logger from the config and installs it as
// the slog default.
func NewLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// New opens the SQLite repository and builds the calendar and the runner.
// The caller owns Close.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLiteDBPath, err)
	}

	var remote calendar.Source
	if cfg.HolidayAPIURL != "" {
		remote = calendar.NewNagerSource(cfg.HolidayAPIURL, cfg.HolidayCountry, cfg.HolidayTimeout)
	}
	cal := calendar.New(remote,
		calendar.WithLocalStore(repo),
		calendar.WithCacheTTL(holidayCacheTTL),
		calendar.WithLogger(logger.WithComponent(log.ComponentCalendar).Logger))

	stores, err := NewStoreFactory(ctx, cfg, logger)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	runner := pipeline.NewRunner(stores, cal, repo, logger,
		pipeline.WithSheets(pipeline.Sheets{
			Raw:       cfg.RawSheetName,
			Contracts: cfg.ContractsSheetName,
			History:   cfg.HistorySheetName,
		}),
		pipeline.WithDestinations(Destinations(cfg)))

	return &App{Config: cfg, Logger: logger, Repo: repo, Calendar: cal, Runner: runner}, nil
}

// Destinations converts the configured destination groups for the resolver.
func Destinations(cfg *config.Config) []channel.Destination {
	var out []channel.Destination
	for _, d := range cfg.Destinations() {
		out = append(out, channel.Destination{Name: d.Name, Patterns: d.Patterns})
	}
	return out
}

func (a *App) Close() error {
	return a.Repo.Close()
}

// NewStoreFactory returns the spreadsheet opener for the configured backend.
// The memory backend keeps one store per spreadsheet id for the life of the
// process.
func NewStoreFactory(ctx context.Context, cfg *config.Config, logger *log.Logger) (pipeline.StoreFactory, error) {
	switch cfg.DataBackend {
	case "memory":
		var (
			mu     sync.Mutex
			stores = map[string]*memory.Store{}
		)
		logger.Info("Initialized memory backend")
		return func(_ context.Context, id string) (sheets.Store, error) {
			mu.Lock()
			defer mu.Unlock()
			s, ok := stores[id]
			if !ok {
				s = memory.New()
				stores[id] = s
			}
			return s, nil
		}, nil
	case "sheets":
		svc, err := gsheet.NewServiceFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("google sheets: %w", err)
		}
		logger.Info("Initialized Google Sheets backend")
		return func(_ context.Context, id string) (sheets.Store, error) {
			return gsheet.New(svc, id), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
