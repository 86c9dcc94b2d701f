package cert

import (
	"bytes"
	"errors"
	"testing"

	"cargohold.io/cargohold/errdefs"
)

// fakePartition maps entry names to byte extents of a flat medium.
type fakePartition struct {
	medium  []byte
	entries map[string][2]uint64 // name -> offset, size
	readErr error
}

func (p *fakePartition) Lookup(name string) (uint64, uint64, error) {
	e, ok := p.entries[name]
	if !ok {
		return 0, 0, errors.New("no such entry")
	}
	return e[0], e[1], nil
}

func (p *fakePartition) ReadAt(b []byte, off uint64) error {
	if p.readErr != nil {
		return p.readErr
	}
	if off > uint64(len(p.medium)) || uint64(len(b)) > uint64(len(p.medium))-off {
		return errors.New("read out of medium bounds")
	}
	copy(b, p.medium[off:])
	return nil
}

func TestRightsIDFilename(t *testing.T) {
	id := RightsID{0x01, 0x00, 0x2B, 0x30, 0x02, 0x8F, 0x60, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}
	want := "01002b30028f6000" + "0000000000000000" + ".cert"
	if got := id.Filename(); got != want {
		t.Fatalf("Filename: got %q want %q", got, want)
	}
}

func TestDirectChainLookup(t *testing.T) {
	want := bytes.Repeat([]byte{0xAB}, MinSignedCertSize*2)
	medium := append(make([]byte, 0x100), want...)

	var id RightsID
	part := &fakePartition{
		medium:  medium,
		entries: map[string][2]uint64{id.Filename(): {0x100, uint64(len(want))}},
	}

	raw, err := RetrieveRawChainFromHashPartition(part, id)
	if err != nil {
		t.Fatalf("direct lookup failed: %v", err)
	}
	if !bytes.Equal(raw, want) {
		t.Fatalf("direct lookup bytes mismatch")
	}
}

func TestDirectChainLookupMissing(t *testing.T) {
	part := &fakePartition{entries: map[string][2]uint64{}}
	var id RightsID
	if _, err := RetrieveRawChainFromHashPartition(part, id); !errdefs.IsKind(err, errdefs.KindNotFound) {
		t.Fatalf("missing entry: got err=%v want NotFound", err)
	}
}

func TestDirectChainLookupTooSmall(t *testing.T) {
	var id RightsID
	part := &fakePartition{
		medium:  make([]byte, MinSignedCertSize),
		entries: map[string][2]uint64{id.Filename(): {0, MinSignedCertSize - 1}},
	}
	if _, err := RetrieveRawChainFromHashPartition(part, id); !errdefs.IsKind(err, errdefs.KindInvalidFormat) {
		t.Fatalf("undersized entry: got err=%v want InvalidFormat", err)
	}
}

func TestDirectChainLookupReadFailure(t *testing.T) {
	var id RightsID
	part := &fakePartition{
		medium:  make([]byte, MinSignedCertSize),
		entries: map[string][2]uint64{id.Filename(): {0, MinSignedCertSize}},
		readErr: errors.New("medium ejected"),
	}
	if _, err := RetrieveRawChainFromHashPartition(part, id); !errdefs.IsKind(err, errdefs.KindIO) {
		t.Fatalf("read failure: got err=%v want IO", err)
	}
}

func TestDirectChainLookupNilPartition(t *testing.T) {
	var id RightsID
	if _, err := RetrieveRawChainFromHashPartition(nil, id); !errdefs.IsKind(err, errdefs.KindInvalidArgument) {
		t.Fatalf("nil partition: got err=%v want InvalidArgument", err)
	}
}
