// Package testkit provides a conformance suite for storage.Store backends.
package testkit

import (
	"bytes"
	"testing"

	"cargohold.io/cargohold/storage"
)

// NewStore constructs a fresh, open store for a test, populated with files.
// The returned store MUST be isolated from other tests; testkit closes it.
type NewStore func(t *testing.T, files map[string][]byte) storage.Store

// RunStoreConformance exercises the storage.Store contract against a backend.
func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("ResolveRoundTrip", func(t *testing.T) {
		want := []byte("signed certificate bytes")
		st := newStore(t, map[string][]byte{"/certificate/CA00000003": want})
		defer st.Close()

		f, err := st.Resolve("/certificate/CA00000003")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if f.Size() != uint64(len(want)) {
			t.Fatalf("Size: got %d want %d", f.Size(), len(want))
		}
		got := make([]byte, f.Size())
		if n, err := f.ReadAt(got, 0); n != len(got) {
			t.Fatalf("ReadAt: got %d bytes, err=%v", n, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("ReadAt bytes mismatch")
		}
	})

	t.Run("ResolveWindow", func(t *testing.T) {
		st := newStore(t, map[string][]byte{"/certificate/XS00000020": []byte("0123456789")})
		defer st.Close()

		f, err := st.Resolve("/certificate/XS00000020")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		got := make([]byte, 4)
		if n, err := f.ReadAt(got, 3); n != 4 {
			t.Fatalf("ReadAt window: got %d bytes, err=%v", n, err)
		}
		if string(got) != "3456" {
			t.Fatalf("ReadAt window: got %q want %q", got, "3456")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		st := newStore(t, map[string][]byte{"/certificate/CA00000003": []byte("x")})
		defer st.Close()

		_, err := st.Resolve("/certificate/NOPE")
		if !storage.IsNotFound(err) {
			t.Fatalf("Resolve missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("ResolveAfterClose", func(t *testing.T) {
		st := newStore(t, map[string][]byte{"/certificate/CA00000003": []byte("x")})
		if err := st.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if _, err := st.Resolve("/certificate/CA00000003"); err == nil {
			t.Fatalf("Resolve after Close should fail")
		}
		// Close must be idempotent.
		if err := st.Close(); err != nil {
			t.Fatalf("second Close failed: %v", err)
		}
	})
}
