package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/fortuna/hoopsdb/internal/store"
)

// RunStore is the persistence used by HistoryReporter.
type RunStore interface {
	CreateRun(ctx context.Context, dataDir string, filesTotal int) (*store.LoadRun, error)
	AppendEvent(ctx context.Context, runID int64, eventType, table, filePath, message string, rows *int) error
	CompleteRun(ctx context.Context, run *store.LoadRun) error
}

// HistoryReporter records each run and its per-file outcomes in load_runs.
// Bookkeeping failures are logged and never abort the load.
type HistoryReporter struct {
	ctx     context.Context
	repo    RunStore
	dataDir string
	logger  *log.Logger

	run *store.LoadRun
}

// NewHistoryReporter constructs a HistoryReporter for a load of dataDir.
func NewHistoryReporter(ctx context.Context, repo RunStore, dataDir string, logger *log.Logger) *HistoryReporter {
	if logger == nil {
		logger = log.New(log.Writer(), "[loader] ", log.LstdFlags)
	}
	return &HistoryReporter{ctx: ctx, repo: repo, dataDir: dataDir, logger: logger}
}

// RunID returns the id of the recorded run, or zero before OnRunStart.
func (h *HistoryReporter) RunID() int64 {
	if h.run == nil {
		return 0
	}
	return h.run.RunID
}

func (h *HistoryReporter) OnRunStart(manifest Manifest) {
	run, err := h.repo.CreateRun(h.ctx, h.dataDir, len(manifest))
	if err != nil {
		h.logger.Printf("Warning: could not record load run: %v", err)
		return
	}
	h.run = run
}

func (h *HistoryReporter) OnFileStart(Entry, int, int) {}

func (h *HistoryReporter) OnRecordSkipped(entry Entry, err error) {
	h.event("skipped", entry, err.Error(), nil)
}

func (h *HistoryReporter) OnFileLoaded(result FileResult) {
	msg := fmt.Sprintf("%d inserted, %d updated, %d existing, %d duplicates, %d skipped",
		result.Inserted, result.Updated, result.Existing, result.Duplicates, result.Skipped)
	rows := result.Inserted + result.Updated
	h.event("loaded", result.Entry, msg, &rows)
}

func (h *HistoryReporter) OnFileError(entry Entry, err error) {
	h.event("error", entry, err.Error(), nil)
}

func (h *HistoryReporter) OnRunComplete(summary *RunSummary) {
	if h.run == nil {
		return
	}

	h.run.FilesFailed = len(summary.Failed)
	h.run.RowsInserted = summary.Inserted()
	h.run.RowsUpdated = summary.Updated()
	h.run.Status = runStatus(summary)
	if n := len(summary.Failed); n > 0 {
		last := summary.Failed[n-1]
		h.run.LastError = sql.NullString{String: fmt.Sprintf("%s: %v", last.Entry.Path, last.Err), Valid: true}
	}

	h.complete()
}

func (h *HistoryReporter) OnRunError(err error) {
	if h.run == nil {
		return
	}
	h.run.Status = store.LoadRunFailed
	h.run.LastError = sql.NullString{String: err.Error(), Valid: true}
	h.complete()
}

func (h *HistoryReporter) complete() {
	if err := h.repo.CompleteRun(h.ctx, h.run); err != nil {
		h.logger.Printf("Warning: could not complete load run %d: %v", h.run.RunID, err)
	}
}

func (h *HistoryReporter) event(eventType string, entry Entry, message string, rows *int) {
	if h.run == nil {
		return
	}
	if err := h.repo.AppendEvent(h.ctx, h.run.RunID, eventType, entry.Table, entry.Path, message, rows); err != nil {
		h.logger.Printf("Warning: could not record %s event for %s: %v", eventType, entry.Path, err)
	}
}

func runStatus(summary *RunSummary) store.LoadRunStatus {
	switch {
	case len(summary.Failed) == 0:
		return store.LoadRunCompleted
	case len(summary.Loaded) == 0:
		return store.LoadRunFailed
	default:
		return store.LoadRunPartial
	}
}
