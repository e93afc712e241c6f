/*
Package persist saves and loads namespace maps as immutable,
content-addressed snapshots.

A snapshot's name is the URL-safe base64 of the BLAKE2b-256 hash of
its encoding, so saving the same map twice yields the same name and
stores it once. Snapshots can be stored in anything that implements
Persist: memory (NewInMemoryStore), a directory (package file) or an
S3 bucket (package s3).

	snaps, _ := persist.NewSnapshots(persist.Config{StoreWith: persist.NewInMemoryStore()})
	name, _ := snaps.Save(ctx, ns)
	ns2, _ := snaps.Load(ctx, name)
*/
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by the in-memory store for a name that was
// never stored.
var ErrNotFound = errors.New("not found")

// Persist is the interface for storing and loading serialized
// snapshots. The content stored under a name is never modified.
type Persist interface {
	// Store makes the given bytes accessible by the given name.
	Store(context.Context, string, []byte) error
	// Load retrieves the previously-stored bytes by the given name.
	Load(context.Context, string) ([]byte, error)
}

type inMemoryStore struct {
	entries map[string][]byte
	l       sync.Mutex
}

// NewInMemoryStore provides a Persist that keeps snapshots in a map,
// usually for testing.
func NewInMemoryStore() Persist {
	return &inMemoryStore{}
}

func (ims *inMemoryStore) Store(ctx context.Context, name string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ims.l.Lock()
	if ims.entries == nil {
		ims.entries = map[string][]byte{}
	}
	ims.entries[name] = append([]byte(nil), value...)
	ims.l.Unlock()
	return nil
}

func (ims *inMemoryStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ims.l.Lock()
	value, ok := ims.entries[name]
	ims.l.Unlock()
	if !ok {
		return nil, fmt.Errorf("in-memory snapshot %s: %w", name, ErrNotFound)
	}
	return append([]byte(nil), value...), nil
}
