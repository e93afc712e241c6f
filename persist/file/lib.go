// Package file stores snapshots as files in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName means a name would escape the directory.
var ErrInvalidName = errors.New("invalid snapshot name")

// Persist implements the persist.Persist interface for storing and
// loading snapshots from files.
type Persist struct {
	basepath string
}

func (p Persist) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return filepath.Join(p.basepath, name), nil
}

// Load loads the bytes persisted in the named file.
func (p Persist) Load(ctx context.Context, name string) ([]byte, error) {
	path, err := p.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Store persists the given bytes in a file of the given name, if it
// doesn't exist already.
func (p Persist) Store(ctx context.Context, name string, bytes []byte) error {
	path, err := p.path(name)
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return os.WriteFile(path, bytes, 0o644)
	}
	return err
}

// NewPersistForPath returns a Persist that loads and stores snapshots
// as files in the directory at the given path.
//
//	p := NewPersistForPath("/var/db/namespaces")
//	blob, err := p.Load(ctx, "Wm3uE1Qq9a8pGJ2yQ2xk8b0d5V1nYyQp2Q8mJ6m6b0c")
func NewPersistForPath(path string) Persist {
	return Persist{path}
}
