package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	key := []byte("forecast/epoch/1")
	require.NoError(t, db.Put(key, []byte("record")))

	value, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("record"), value)

	ok, err := db.Has(key)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.Delete(key))
	ok, err = db.Has(key)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = db.Get(key)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemDBMissingKey(t *testing.T) {
	db := NewMemDB()
	_, err := db.Get([]byte("absent"))
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is a no-op.
	require.NoError(t, db.Delete([]byte("absent")))
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	value := []byte{1, 2, 3}
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 9

	stored, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, stored)

	stored[1] = 9
	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, again)
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	value, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)

	ok, err := db.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	require.ErrorIs(t, err, ErrNotFound)
}
