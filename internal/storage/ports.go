// Package storage defines the key-value substrate the ledger persists to and
// its SQLite implementation. Other substrates live in the memory, file and
// redis subpackages.
package storage

import (
	"context"
	"errors"
)

// KeyValue is the persistence substrate: synchronous text values addressed by
// key. Get reports ok=false for an absent key rather than an error.
type KeyValue interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

var ErrEmptyKey = errors.New("empty key")
