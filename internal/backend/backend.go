// Package backend selects and opens the key-value persistence backend.
package backend

import (
	"fmt"

	"pocket/internal/kv"
	"pocket/internal/log"
)

// Type represents the persistence backend kind.
type Type string

const (
	Memory Type = "memory"
	File   Type = "file"
	SQLite Type = "sqlite"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known
func (t Type) IsValid() bool {
	switch t {
	case Memory, File, SQLite:
		return true
	default:
		return false
	}
}

// Config holds what each backend needs to open.
type Config struct {
	Type         Type
	DataDir      string
	SQLiteDBPath string
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the opened store and its cleanup function.
type Result struct {
	Store   kv.Store
	Cleanup CleanupFunc
}

// Open builds the configured backend.
func Open(cfg Config, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentKV)

	switch cfg.Type {
	case Memory:
		logger.Info("Initialized memory backend", log.FieldBackend, cfg.Type.String())
		return &Result{Store: kv.NewMemoryStore(), Cleanup: func() error { return nil }}, nil

	case File:
		store, err := kv.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initialize file backend: %w", err)
		}
		logger.Info("Initialized file backend",
			log.FieldBackend, cfg.Type.String(), "dir", cfg.DataDir)
		return &Result{Store: store, Cleanup: func() error { return nil }}, nil

	case SQLite:
		store, err := kv.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized sqlite backend",
			log.FieldBackend, cfg.Type.String(), "db_path", cfg.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil

	default:
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}
}
