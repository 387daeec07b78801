// Package kv is the persistence namespace shared by the event store and the
// aggregator: a flat mapping of string keys to text values.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

type Entry struct {
	Key   string
	Value string
}

// Storage is the capability handed to the event store and the aggregator.
// Implementations must be safe for concurrent use, but callers doing
// read-modify-write get no atomicity across calls.
type Storage interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Set replaces the whole value of key in one write.
	Set(ctx context.Context, key, value string) error
	// GetAllKeys returns every key in ascending order.
	GetAllKeys(ctx context.Context) ([]string, error)
	// MultiGet returns the entries for keys in the requested order; absent
	// keys are left out.
	MultiGet(ctx context.Context, keys []string) ([]Entry, error)
	Delete(ctx context.Context, key string) error
	// Clear wipes the whole namespace.
	Clear(ctx context.Context) error
}
