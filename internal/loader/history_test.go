package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/hoopsdb/internal/store"
)

type fakeRunStore struct {
	created   int
	events    []string
	completed *store.LoadRun
	createErr error
}

func (f *fakeRunStore) CreateRun(_ context.Context, dataDir string, filesTotal int) (*store.LoadRun, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	return &store.LoadRun{RunID: 7, DataDir: dataDir, FilesTotal: filesTotal, Status: store.LoadRunRunning}, nil
}

func (f *fakeRunStore) AppendEvent(_ context.Context, runID int64, eventType, table, _, _ string, _ *int) error {
	f.events = append(f.events, eventType+":"+table)
	return nil
}

func (f *fakeRunStore) CompleteRun(_ context.Context, run *store.LoadRun) error {
	cpy := *run
	f.completed = &cpy
	return nil
}

func TestHistoryReporter_PartialRun(t *testing.T) {
	repo := &fakeRunStore{}
	h := NewHistoryReporter(context.Background(), repo, "/data", discardLogger())

	players := Entry{Table: "players", Path: "/data/players.csv"}
	stats := Entry{Table: "stats_totals", Season: 2021, Path: "/data/sample_2021_total.csv"}

	h.OnRunStart(Manifest{players, stats})
	assert.Equal(t, int64(7), h.RunID())

	h.OnFileLoaded(FileResult{Entry: players, Inserted: 3})
	h.OnRecordSkipped(stats, errors.New("bad cell"))
	h.OnFileError(stats, errors.New("fk violation"))

	summary := &RunSummary{
		Loaded: []FileResult{{Entry: players, Inserted: 3}},
		Failed: []FileFailure{{Entry: stats, Err: errors.New("fk violation")}},
	}
	h.OnRunComplete(summary)

	assert.Equal(t, []string{"loaded:players", "skipped:stats_totals", "error:stats_totals"}, repo.events)
	require.NotNil(t, repo.completed)
	assert.Equal(t, store.LoadRunPartial, repo.completed.Status)
	assert.Equal(t, 1, repo.completed.FilesFailed)
	assert.Equal(t, 3, repo.completed.RowsInserted)
	assert.Contains(t, repo.completed.LastError.String, "fk violation")
}

func TestHistoryReporter_RunError(t *testing.T) {
	repo := &fakeRunStore{}
	h := NewHistoryReporter(context.Background(), repo, "/data", discardLogger())

	h.OnRunStart(nil)
	h.OnRunError(errors.New("seeding teams: connection refused"))

	require.NotNil(t, repo.completed)
	assert.Equal(t, store.LoadRunFailed, repo.completed.Status)
	assert.True(t, repo.completed.LastError.Valid)
}

func TestHistoryReporter_CreateFailureIsTolerated(t *testing.T) {
	repo := &fakeRunStore{createErr: errors.New("no such table")}
	h := NewHistoryReporter(context.Background(), repo, "/data", discardLogger())

	h.OnRunStart(nil)
	h.OnFileLoaded(FileResult{Entry: Entry{Table: "players"}})
	h.OnRunComplete(&RunSummary{})

	assert.Zero(t, h.RunID())
	assert.Empty(t, repo.events)
	assert.Nil(t, repo.completed)
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, store.LoadRunCompleted, runStatus(&RunSummary{}))
	assert.Equal(t, store.LoadRunFailed, runStatus(&RunSummary{Failed: []FileFailure{{}}}))
	assert.Equal(t, store.LoadRunPartial, runStatus(&RunSummary{Loaded: []FileResult{{}}, Failed: []FileFailure{{}}}))
}
