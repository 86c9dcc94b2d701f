// Package memstore is a map-backed storage.Store used by tests and examples.
//
// It is deterministic, offline, and records open/close activity so tests can
// assert the engine's open-work-close discipline.
package memstore

import (
	"io"
	"sync"

	"cargohold.io/cargohold/storage"
)

// Opener hands out stores from an in-memory registry of containers keyed by
// store path.
type Opener struct {
	mu     sync.Mutex
	stores map[string]*Store

	// Err, when set, makes every Open call fail with it.
	Err error

	opens int
}

// NewOpener registers a single container under path holding files.
func NewOpener(path string, files map[string][]byte) *Opener {
	o := &Opener{stores: make(map[string]*Store)}
	o.stores[path] = &Store{files: files, declared: make(map[string]uint64)}
	return o
}

// Store returns the registered container for path, or nil.
func (o *Opener) Store(path string) *Store {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stores[path]
}

// Opens reports how many successful Open calls were made.
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

func (o *Opener) Open(path string) (storage.Store, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return nil, o.Err
	}
	st, ok := o.stores[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	st.mu.Lock()
	st.closed = false
	st.mu.Unlock()
	o.opens++
	return st, nil
}

// Store is one in-memory container.
type Store struct {
	mu       sync.Mutex
	files    map[string][]byte
	declared map[string]uint64
	closed   bool
	closes   int
}

// SetDeclaredSize overrides the size Resolve reports for path without
// changing the stored bytes. Declaring more bytes than stored forces short
// reads downstream.
func (s *Store) SetDeclaredSize(path string, size uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declared[path] = size
}

// Closed reports whether the container is currently closed.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Closes reports how many Close calls were made.
func (s *Store) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *Store) Resolve(path string) (storage.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrClosed
	}
	data, ok := s.files[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	size := uint64(len(data))
	if d, ok := s.declared[path]; ok {
		size = d
	}
	return &file{data: data, size: size}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.closes++
	return nil
}

type file struct {
	data []byte
	size uint64
}

func (f *file) Size() uint64 { return f.size }

func (f *file) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
