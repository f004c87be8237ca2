package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/hoopsdb/internal/store"
)

// LoadRunRepository persists loader runs and their per-file events.
type LoadRunRepository struct {
	db *store.Database
}

// NewLoadRunRepository constructs a LoadRunRepository.
func NewLoadRunRepository(db *store.Database) *LoadRunRepository {
	return &LoadRunRepository{db: db}
}

// CreateRun inserts a running load_runs row and returns it.
func (r *LoadRunRepository) CreateRun(ctx context.Context, dataDir string, filesTotal int) (*store.LoadRun, error) {
	query := `
		INSERT INTO load_runs (data_dir, status, files_total)
		VALUES ($1, $2, $3)
		RETURNING run_id, data_dir, status, files_total, files_failed,
			rows_inserted, rows_updated, last_error, started_at, completed_at
	`

	row := r.db.DB().QueryRowContext(ctx, query, dataDir, string(store.LoadRunRunning), filesTotal)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("create load run: %w", err)
	}
	return run, nil
}

// AppendEvent stores a log entry for a run. rows is optional.
func (r *LoadRunRepository) AppendEvent(ctx context.Context, runID int64, eventType, table, filePath, message string, rows *int) error {
	query := `
		INSERT INTO load_run_events (run_id, event_type, table_name, file_path, message, rows)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var rowsVal interface{}
	if rows != nil {
		rowsVal = *rows
	}

	if _, err := r.db.DB().ExecContext(ctx, query, runID, eventType, nullString(table), nullString(filePath), nullString(message), rowsVal); err != nil {
		return fmt.Errorf("insert load run event: %w", err)
	}
	return nil
}

// CompleteRun stores the final counters and status of a run.
func (r *LoadRunRepository) CompleteRun(ctx context.Context, run *store.LoadRun) error {
	query := `
		UPDATE load_runs
		SET status = $2,
			files_failed = $3,
			rows_inserted = $4,
			rows_updated = $5,
			last_error = $6,
			completed_at = NOW()
		WHERE run_id = $1
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		run.RunID, string(run.Status), run.FilesFailed, run.RowsInserted, run.RowsUpdated, run.LastError,
	)
	if err != nil {
		return fmt.Errorf("complete load run: %w", err)
	}
	return nil
}

// ListRecentRuns returns the most recent runs, newest first.
func (r *LoadRunRepository) ListRecentRuns(ctx context.Context, limit int) ([]*store.LoadRun, error) {
	query := `
		SELECT run_id, data_dir, status, files_total, files_failed,
			rows_inserted, rows_updated, last_error, started_at, completed_at
		FROM load_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent load runs: %w", err)
	}
	defer rows.Close()

	var runs []*store.LoadRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning load run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ListEvents returns the events of one run in insertion order.
func (r *LoadRunRepository) ListEvents(ctx context.Context, runID int64) ([]*store.LoadRunEvent, error) {
	query := `
		SELECT event_id, run_id, event_type, table_name, file_path, message, rows, created_at
		FROM load_run_events
		WHERE run_id = $1
		ORDER BY event_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list load run events: %w", err)
	}
	defer rows.Close()

	var events []*store.LoadRunEvent
	for rows.Next() {
		ev := &store.LoadRunEvent{}
		if err := rows.Scan(&ev.EventID, &ev.RunID, &ev.EventType, &ev.TableName,
			&ev.FilePath, &ev.Message, &ev.Rows, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning load run event: %w", err)
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

func scanRun(scanner interface {
	Scan(dest ...interface{}) error
}) (*store.LoadRun, error) {
	run := &store.LoadRun{}
	err := scanner.Scan(
		&run.RunID,
		&run.DataDir,
		&run.Status,
		&run.FilesTotal,
		&run.FilesFailed,
		&run.RowsInserted,
		&run.RowsUpdated,
		&run.LastError,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
