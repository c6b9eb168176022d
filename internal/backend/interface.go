// Package backend selects and opens the key-value substrate the ledger is
// persisted to.
package backend

import (
	"context"

	"spesometro/internal/storage"
)

// CleanupFunc releases whatever the substrate holds open.
type CleanupFunc func() error

// Result carries the opened substrate and its cleanup.
type Result struct {
	KV      storage.KeyValue
	Type    Type
	Cleanup CleanupFunc
}

// Factory opens a substrate from configuration.
type Factory interface {
	Open(ctx context.Context, config Config) (*Result, error)
}

// Config holds what the factory needs for each substrate.
type Config struct {
	Type Type

	// File and memory
	DataDir string

	// SQLite
	SQLiteDBPath string

	// Redis
	RedisURL    string
	RedisPrefix string
}

// Type names a substrate.
type Type string

const (
	MemoryBackend Type = "memory"
	FileBackend   Type = "file"
	SQLiteBackend Type = "sqlite"
	RedisBackend  Type = "redis"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the type names a known substrate.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, FileBackend, SQLiteBackend, RedisBackend:
		return true
	default:
		return false
	}
}
