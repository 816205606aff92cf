// Package kv is the small key-value layer behind the sample catalog and the
// run registry. Keys are paths of string segments (e.g. {"runs", "demo",
// "r-1"}) that encode to "runs/demo/r-1".
//
// Two backends are provided: Badger for on-disk persistence and Memory for
// tests and one-shot CLI invocations.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments in the encoded form.
const Separator = '/'

// Key is a hierarchical key. Segments must not contain Separator.
type Key []string

// String returns the encoded key.
func (k Key) String() string {
	return strings.Join(k, string(Separator))
}

// Entry is a key-value pair yielded by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// SetIfAbsent stores value only when key does not exist yet. It reports
	// whether the value was stored.
	SetIfAbsent(ctx context.Context, key Key, value []byte) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// List yields entries below prefix in lexicographic key order. An empty
	// prefix lists everything.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	Close() error
}

func encode(k Key) []byte {
	return []byte(k.String())
}

func decode(b []byte) Key {
	return Key(strings.Split(string(b), string(Separator)))
}

// scanPrefix returns the byte prefix matching every key strictly below p, so
// that "runs/a" does not match "runs/ab".
func scanPrefix(p Key) []byte {
	if len(p) == 0 {
		return nil
	}
	return append(encode(p), Separator)
}
