// Package wal provides the append-only JSON-lines journal backing the
// in-memory vault. Every committed operation is encoded as one JSON
// document; on startup the journal is replayed to rebuild state.
package wal

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

const (
	// rw-r--r-- owner read/write, everyone else read-only
	fileModeJournal fs.FileMode = 0644
)

type WAL struct {
	file *os.File
	mu   sync.Mutex
}

// NewWAL opens or creates the journal file.
// O_APPEND keeps every write at the end of the file, O_CREATE creates it
// on first run, O_RDWR allows the recovery read pass.
func NewWAL(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, fileModeJournal)
	if err != nil {
		return nil, err
	}
	return &WAL{file: file}, nil
}

// Write appends one record without forcing it to disk. Pair with Flush.
func (w *WAL) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return json.NewEncoder(w.file).Encode(v)
}

// Flush forces buffered records to stable storage.
func (w *WAL) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	return w.file.Close()
}

// ReadAll streams every record to callback as raw JSON, oldest first.
// Streaming keeps recovery memory-bounded regardless of journal size.
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if err := callback(raw); err != nil {
			return err
		}
	}
	return nil
}
