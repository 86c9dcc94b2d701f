package fsstore

import (
	"os"
	"path/filepath"
	"testing"

	"cargohold.io/cargohold/storage"
	"cargohold.io/cargohold/storage/testkit"
)

func newStore(t *testing.T, files map[string][]byte) storage.Store {
	t.Helper()
	root := t.TempDir()
	for p, data := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(full, data, 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	st, err := Opener{}.Open(root)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return st
}

func TestFsstoreConformance(t *testing.T) {
	testkit.RunStoreConformance(t, newStore)
}

func TestOpenMissingDirectory(t *testing.T) {
	if _, err := (Opener{}).Open(filepath.Join(t.TempDir(), "nope")); !storage.IsNotFound(err) {
		t.Fatalf("Open missing dir: got err=%v want ErrNotFound", err)
	}
}

func TestResolveDirectoryIsNotFound(t *testing.T) {
	st := newStore(t, map[string][]byte{"/certificate/CA00000003": []byte("x")})
	defer st.Close()

	if _, err := st.Resolve("/certificate"); !storage.IsNotFound(err) {
		t.Fatalf("Resolve directory: got err=%v want ErrNotFound", err)
	}
}
