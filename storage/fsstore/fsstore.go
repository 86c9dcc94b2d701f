// Package fsstore is a directory-backed storage.Store.
//
// A store path names a directory; certificate paths inside the store map to
// files under it. The backend is offline and read-only: it never creates or
// mutates files.
package fsstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cargohold.io/cargohold/storage"
)

// Opener opens directory-backed stores.
type Opener struct{}

func (Opener) Open(path string) (storage.Store, error) {
	if path == "" {
		return nil, storage.ErrNotFound
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, storage.ErrNotFound
	}
	return &Store{root: path}, nil
}

// Store is one open directory container. Files resolved from it stay open
// until Close releases them all.
type Store struct {
	root string

	mu     sync.Mutex
	open   []*os.File
	closed bool
}

func (s *Store) Resolve(path string) (storage.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	rel := filepath.FromSlash(strings.TrimPrefix(path, "/"))
	full := filepath.Join(s.root, rel)

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, storage.ErrNotFound
	}

	s.open = append(s.open, f)
	return &file{f: f, size: uint64(info.Size())}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var firstErr error
	for _, f := range s.open {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.open = nil
	return firstErr
}

type file struct {
	f    *os.File
	size uint64
}

func (f *file) Size() uint64 { return f.size }

func (f *file) ReadAt(p []byte, off int64) (int, error) { return f.f.ReadAt(p, off) }
