package store

import (
	"database/sql"
	"time"
)

// Team is one row of the static franchise reference table
type Team struct {
	TeamID string `json:"team_id" db:"team_id"`
	Name   string `json:"name" db:"name"`
}

// LoadRunStatus represents the lifecycle state of a loader run.
type LoadRunStatus string

const (
	LoadRunRunning   LoadRunStatus = "running"
	LoadRunCompleted LoadRunStatus = "completed"
	LoadRunPartial   LoadRunStatus = "partial"
	LoadRunFailed    LoadRunStatus = "failed"
)

// LoadRun records one invocation of the loader
type LoadRun struct {
	RunID        int64          `json:"run_id" db:"run_id"`
	DataDir      string         `json:"data_dir" db:"data_dir"`
	Status       LoadRunStatus  `json:"status" db:"status"`
	FilesTotal   int            `json:"files_total" db:"files_total"`
	FilesFailed  int            `json:"files_failed" db:"files_failed"`
	RowsInserted int            `json:"rows_inserted" db:"rows_inserted"`
	RowsUpdated  int            `json:"rows_updated" db:"rows_updated"`
	LastError    sql.NullString `json:"last_error,omitempty" db:"last_error"`
	StartedAt    time.Time      `json:"started_at" db:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at,omitempty" db:"completed_at"`
}

// LoadRunEvent is a per-file log entry attached to a LoadRun
type LoadRunEvent struct {
	EventID   int64          `json:"event_id" db:"event_id"`
	RunID     int64          `json:"run_id" db:"run_id"`
	EventType string         `json:"event_type" db:"event_type"`
	TableName sql.NullString `json:"table_name,omitempty" db:"table_name"`
	FilePath  sql.NullString `json:"file_path,omitempty" db:"file_path"`
	Message   sql.NullString `json:"message,omitempty" db:"message"`
	Rows      sql.NullInt32  `json:"rows,omitempty" db:"rows"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// TableCount is the row count of one warehouse table
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// WarehouseTables lists the loader-populated tables in foreign-key order.
var WarehouseTables = []string{
	"teams",
	"players",
	"players_info",
	"stats_per_game",
	"stats_per_minute",
	"stats_per_poss",
	"stats_totals",
	"twitter_details",
}
