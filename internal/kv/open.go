package kv

import (
	"fmt"
	"io"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend          string
	Dir              string // Directory for the file backend, parent of the sqlite database
	Quota            int64  // Bytes, 0 for unlimited (memory and file backends)
	CompressionLevel int    // Zstd level for the file backend, 0 disables compression
}

// DatabaseFile is the name of the sqlite database inside Config.Dir.
const DatabaseFile = "mordoo.db"

// Open returns the store described by cfg together with a closer that
// releases it.
func Open(cfg Config) (Store, io.Closer, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(cfg.Quota), nopCloser{}, nil
	case BackendFile:
		s, err := OpenFileStore(cfg.Dir, cfg.Quota, cfg.CompressionLevel)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case BackendSQLite:
		s, err := OpenSQLStore(filepath.Join(cfg.Dir, DatabaseFile))
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Location returns the filesystem path a store lives at, or "" for
// stores without one.
func Location(s Store) string {
	switch st := s.(type) {
	case *FileStore:
		return st.Path()
	case *SQLStore:
		return st.Path()
	default:
		return ""
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
