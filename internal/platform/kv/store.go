// Package kv stores whole serialised values under string keys.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrMissing indicates that no value is stored under the key.
	ErrMissing = errors.New("kv: key missing")
	// ErrCorrupt indicates that a stored value could not be decoded.
	ErrCorrupt = errors.New("kv: value corrupt")
)

// Entry is a single key/value pair written by SetMulti.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the slot store contract shared by every backend. Values are
// replaced whole; SetMulti applies all entries or none.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetMulti(ctx context.Context, entries ...Entry) error
}

// Set writes a single value.
func Set(ctx context.Context, s Store, key string, value []byte) error {
	return s.SetMulti(ctx, Entry{Key: key, Value: value})
}

type prefixed struct {
	next   Store
	prefix string
}

// WithPrefix namespaces every key with prefix, so several deployments can
// share one Redis database or table.
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixed{next: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *prefixed) SetMulti(ctx context.Context, entries ...Entry) error {
	scoped := make([]Entry, len(entries))
	for i, e := range entries {
		scoped[i] = Entry{Key: p.prefix + e.Key, Value: e.Value}
	}
	return p.next.SetMulti(ctx, scoped...)
}
