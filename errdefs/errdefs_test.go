package errdefs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(KindInvalidFormat, "pfs.Open", "invalid magic word")
	if KindOf(err) != KindInvalidFormat {
		t.Fatalf("KindOf: got %q want %q", KindOf(err), KindInvalidFormat)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("KindOf(plain) should be empty")
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	cause := errors.New("disk gone")
	err := Wrap(KindIO, "cert.RetrieveByName", "certificate read failed", cause)
	wrapped := fmt.Errorf("outer: %w", err)

	if !IsKind(wrapped, KindIO) {
		t.Fatalf("IsKind should see through fmt wrapping")
	}
	if IsKind(wrapped, KindNotFound) {
		t.Fatalf("IsKind matched the wrong kind")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("cause should be reachable via errors.Is")
	}
}

func TestErrorString(t *testing.T) {
	err := New(KindInvalidArgument, "pfs.ReadEntryData", "read window out of bounds")
	want := "pfs.ReadEntryData: read window out of bounds"
	if err.Error() != want {
		t.Fatalf("Error(): got %q want %q", err.Error(), want)
	}
}
