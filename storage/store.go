// Package storage defines the certificate store contract consumed by the
// certificate resolution engine.
//
// A Store is a named container of readable paths. The engine opens a store,
// resolves certificate paths inside it, and closes it again before the next
// unrelated operation; backends only need to honor that open/resolve/close
// lifecycle.
package storage

// Opener opens a named store container.
type Opener interface {
	Open(path string) (Store, error)
}

// Store resolves paths within an open container to readable files.
//
// Contract:
//   - Resolve MUST return ErrNotFound (or an error wrapping it) when the
//     path is absent.
//   - Files returned by Resolve are only valid until Close.
//   - Close MUST release every resource held by the container; resolving
//     after Close returns ErrClosed.
type Store interface {
	Resolve(path string) (File, error)
	Close() error
}

// File is a resolved byte stream with a declared length.
//
// Size reports the length the container declares for the path; ReadAt
// follows the io.ReaderAt contract. A store may declare more bytes than it
// can serve — callers treat the resulting short read as an I/O failure.
type File interface {
	Size() uint64
	ReadAt(p []byte, off int64) (int, error)
}
