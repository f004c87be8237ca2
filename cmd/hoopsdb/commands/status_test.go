package commands

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/hoopsdb/internal/cache"
	"github.com/fortuna/hoopsdb/internal/store"
)

var runColumns = []string{
	"run_id", "data_dir", "status", "files_total", "files_failed",
	"rows_inserted", "rows_updated", "last_error", "started_at", "completed_at",
}

func newMockDatabase(t *testing.T) (*store.Database, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.Wrap(db), mock
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *cache.RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { rc.Close() })
	return mr, rc
}

func expectCounts(mock sqlmock.Sqlmock) {
	for _, table := range store.WarehouseTables {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "` + table + `"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	}
}

func TestWriteStatus_RunEvents(t *testing.T) {
	db, mock := newMockDatabase(t)
	_, rc := newTestRedis(t)
	started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectPing()
	expectCounts(mock)
	mock.ExpectQuery(regexp.QuoteMeta("FROM load_runs")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow(int64(7), "/data", "partial", 2, 1, 2, 0, "column order mismatch", started, started.Add(time.Minute)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM load_run_events")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "run_id", "event_type", "table_name", "file_path", "message", "rows", "created_at"}).
			AddRow(int64(1), int64(7), "loaded", "players", "/data/players.csv", "2 inserted", int64(2), started).
			AddRow(int64(2), int64(7), "error", "stats_per_game", "/data/sample_2021_per_game.csv", "column order mismatch", nil, started))

	var out bytes.Buffer
	err := writeStatus(context.Background(), &out, db, rc, statusOptions{runs: 5, runID: 7})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "PostgreSQL")
	assert.Regexp(t, `Redis\s+│ ok \(`, text)
	assert.Contains(t, text, "stats_per_poss")
	assert.Contains(t, text, "players.csv")
	assert.Contains(t, text, "sample_2021_per_game.csv")
	assert.Contains(t, text, "column order mismatch")
	assert.NotContains(t, text, "/data/players.csv")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteStatus_RedisDown(t *testing.T) {
	db, mock := newMockDatabase(t)
	mr, rc := newTestRedis(t)
	mr.Close()

	mock.ExpectPing()
	expectCounts(mock)
	mock.ExpectQuery(regexp.QuoteMeta("FROM load_runs")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(runColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT team_id, name")).
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "name"}).AddRow("TOT", "Total"))

	var out bytes.Buffer
	err := writeStatus(context.Background(), &out, db, rc, statusOptions{runs: 5, teams: true})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "unreachable")
	assert.Contains(t, text, "Total")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteStatus_WithoutRedis(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectPing()
	expectCounts(mock)
	mock.ExpectQuery(regexp.QuoteMeta("FROM load_runs")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(runColumns))

	var out bytes.Buffer
	require.NoError(t, writeStatus(context.Background(), &out, db, nil, statusOptions{runs: 1}))
	assert.Contains(t, out.String(), "not connected")
	require.NoError(t, mock.ExpectationsWereMet())
}
