// Package backend selects and constructs the persistence backend from
// configuration.
package backend

import (
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Type names a persistence backend.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// IsValid reports whether t names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLiteBackend, MemoryBackend}
}

// Open constructs the repository named by the configuration.
func Open(cfg *config.Config, logger *log.Logger) (storage.Repository, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Using SQLite backend", "path", cfg.SQLiteDBPath)
		return repo, nil

	case MemoryBackend:
		logger.Warn("Using in-memory backend; data is lost on restart")
		return storage.NewMemoryRepository(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}
