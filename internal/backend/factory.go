package backend

import (
	"context"
	"fmt"
	"log/slog"

	applog "spesometro/internal/log"
	"spesometro/internal/storage"
	"spesometro/internal/storage/file"
	"spesometro/internal/storage/memory"
	"spesometro/internal/storage/redis"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// Open implements Factory.Open
func (f *DefaultFactory) Open(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.openMemory(config), nil
	case FileBackend:
		return f.openFile(config)
	case SQLiteBackend:
		return f.openSQLite(config)
	case RedisBackend:
		return f.openRedis(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) openMemory(config Config) *Result {
	var kv *memory.Store
	if config.DataDir != "" {
		kv = memory.NewFromDir(config.DataDir)
	} else {
		kv = memory.New()
	}
	f.logger.Info("Memory backend initialized", applog.FieldBackend, MemoryBackend, "seed_dir", config.DataDir)
	return &Result{KV: kv, Type: MemoryBackend, Cleanup: noop}
}

func (f *DefaultFactory) openFile(config Config) (*Result, error) {
	kv, err := file.New(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file backend: %w", err)
	}
	f.logger.Info("File backend initialized", applog.FieldBackend, FileBackend, "dir", kv.Dir())
	return &Result{KV: kv, Type: FileBackend, Cleanup: noop}, nil
}

func (f *DefaultFactory) openSQLite(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("SQLite backend initialized", applog.FieldBackend, SQLiteBackend, "path", config.SQLiteDBPath)
	return &Result{
		KV:   repo,
		Type: SQLiteBackend,
		Cleanup: func() error {
			f.logger.Info("Closing SQLite repository")
			return repo.Close()
		},
	}, nil
}

func (f *DefaultFactory) openRedis(ctx context.Context, config Config) (*Result, error) {
	kv, err := redis.New(ctx, config.RedisURL, config.RedisPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis backend: %w", err)
	}
	f.logger.Info("Redis backend initialized", applog.FieldBackend, RedisBackend, "prefix", config.RedisPrefix)
	return &Result{
		KV:   kv,
		Type: RedisBackend,
		Cleanup: func() error {
			f.logger.Info("Closing Redis client")
			return kv.Close()
		},
	}, nil
}

func noop() error { return nil }
