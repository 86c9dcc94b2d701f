// Package badgerstore is a Badger-backed storage.Store.
//
// A store path names a Badger database directory; certificate paths are
// plain keys. Values are copied out of the transaction, so resolved files
// remain readable until the store is closed.
package badgerstore

import (
	"errors"
	"io"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"cargohold.io/cargohold/storage"
)

// Opener opens Badger-backed stores.
type Opener struct {
	// Options, when set, customizes the Badger options for a database path.
	Options func(path string) badger.Options
}

func (o Opener) Open(path string) (storage.Store, error) {
	if path == "" {
		return nil, storage.ErrNotFound
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if o.Options != nil {
		opts = o.Options(path)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Store is one open Badger database.
type Store struct {
	mu     sync.Mutex
	db     *badger.DB
	closed bool
}

func (s *Store) Resolve(path string) (storage.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &file{data: data}, nil
}

// Put stores data under path. It exists so tooling and tests can populate a
// store; the resolution engine itself never writes.
func (s *Store) Put(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), data)
	})
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type file struct {
	data []byte
}

func (f *file) Size() uint64 { return uint64(len(f.data)) }

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
