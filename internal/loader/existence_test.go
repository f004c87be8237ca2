package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchExisting_SingleQuery(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT "player_id", "season" FROM "stats_per_game"`).
		WillReturnRows(sqlmock.NewRows([]string{"player_id", "season"}).
			AddRow("p001", int64(2021)).
			AddRow("p002", int64(2020)))

	keys, err := FetchExisting(context.Background(), db, "stats_per_game", []string{"player_id", "season"})
	require.NoError(t, err)

	assert.Len(t, keys, 2)
	assert.True(t, keys.Has("p001", 2021))
	assert.True(t, keys.Has("p002", 2020))
	assert.False(t, keys.Has("p002", 2021))
	assert.False(t, keys.Has("p001"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchExisting_EmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT "player_id" FROM "players"`).
		WillReturnRows(sqlmock.NewRows([]string{"player_id"}))

	keys, err := FetchExisting(context.Background(), db, "players", []string{"player_id"})
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFetchExisting_QueryFailureIsReturned(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("relation does not exist")
	mock.ExpectQuery(`SELECT "player_id" FROM "players"`).WillReturnError(boom)

	keys, err := FetchExisting(context.Background(), db, "players", []string{"player_id"})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, keys)
}

func TestFetchExisting_NoKeyColumns(t *testing.T) {
	_, err := FetchExisting(context.Background(), nil, "players", nil)
	assert.Error(t, err)
}

func TestKeySet_NullAndNumberForms(t *testing.T) {
	keys := make(KeySet)
	keys.Add("p001", nil)

	assert.True(t, keys.Has("p001", nil))
	assert.False(t, keys.Has("p001", ""))

	keys.Add("p002", 2021)
	assert.True(t, keys.Has("p002", "2021"))
	assert.True(t, keys.Has("p002", int64(2021)))
	assert.True(t, keys.Has("p002", 2021.0))
}
