// Package kv is the string-keyed persistence layer the trackers write to.
//
// A Store behaves like browser local storage: values are opaque strings,
// keys share one flat namespace, and callers partition that namespace by
// prefix. Backends exist for process memory, Redis and Postgres.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been set or was removed.
var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys lists every key starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
