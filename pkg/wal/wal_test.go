package wal

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Seq    int    `json:"seq"`
	Amount string `json:"amount"`
}

func TestWriteFlushReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := NewWAL(path)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, w.Write(record{Seq: i, Amount: "100"}))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	// Reopen and replay, as recovery does.
	w, err = NewWAL(path)
	require.NoError(t, err)
	defer w.Close()

	var got []record
	err = w.ReadAll(func(jsonRaw []byte) error {
		var r record
		if err := json.Unmarshal(jsonRaw, &r); err != nil {
			return err
		}
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, i+1, r.Seq)
	}
}

func TestReadAllEmptyJournal(t *testing.T) {
	w, err := NewWAL(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	defer w.Close()

	calls := 0
	require.NoError(t, w.ReadAll(func([]byte) error {
		calls++
		return nil
	}))
	assert.Zero(t, calls)
}

func TestWritesAppendAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := NewWAL(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(record{Seq: 1}))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	w, err = NewWAL(path)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Write(record{Seq: 2}))
	require.NoError(t, w.Flush())

	count := 0
	require.NoError(t, w.ReadAll(func([]byte) error {
		count++
		return nil
	}))
	assert.Equal(t, 2, count)
}
