package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
)

func newMockedSQLiteStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db), mockDB
}

func TestSQLiteStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store, mockDB := newMockedSQLiteStore(t)
		mockDB.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv_entries WHERE key = ?")).
			WithArgs("k").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`"v"`)))

		v, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte(`"v"`), v)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Missing key", func(t *testing.T) {
		store, mockDB := newMockedSQLiteStore(t)
		mockDB.ExpectQuery("SELECT value FROM kv_entries").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestSQLiteStore_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store, mockDB := newMockedSQLiteStore(t)
		mockDB.ExpectExec("INSERT INTO kv_entries").
			WithArgs("k", []byte("v"), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, store.Set(ctx, "k", []byte("v")))
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Disk full is a quota refusal", func(t *testing.T) {
		store, mockDB := newMockedSQLiteStore(t)
		mockDB.ExpectExec("INSERT INTO kv_entries").
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrFull})

		err := store.Set(ctx, "k", []byte("v"))
		assert.ErrorIs(t, err, app_errors.ErrQuotaExceeded)
	})

	t.Run("Other failures are not quota", func(t *testing.T) {
		store, mockDB := newMockedSQLiteStore(t)
		mockDB.ExpectExec("INSERT INTO kv_entries").
			WillReturnError(errors.New("db error"))

		err := store.Set(ctx, "k", []byte("v"))
		require.Error(t, err)
		assert.False(t, IsQuotaExceeded(err))
	})
}

func TestSQLiteStore_Keys(t *testing.T) {
	store, mockDB := newMockedSQLiteStore(t)
	mockDB.ExpectQuery("SELECT key FROM kv_entries").
		WithArgs(len("w:s1:"), "w:s1:").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("w:s1:a").AddRow("w:s1:b"))

	keys, err := store.Keys(context.Background(), "w:s1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"w:s1:a", "w:s1:b"}, keys)
	require.NoError(t, mockDB.ExpectationsWereMet())
}
