package cert

import (
	"bytes"
	"errors"
	"testing"

	"cargohold.io/cargohold/errdefs"
	"cargohold.io/cargohold/storage/memstore"
)

const testStorePath = "save:/sys/cert"

// newTestSession builds a session over a memstore holding the named
// certificates under the default base path.
func newTestSession(t *testing.T, names ...string) (*Session, *memstore.Opener, map[string][]byte) {
	t.Helper()

	files := make(map[string][]byte)
	raw := make(map[string][]byte)
	for _, name := range names {
		data := buildCert(t, sigTypeRsa2048Sha256, pubKeyTypeRsa2048, "Root", name)
		files["/certificate/"+name] = data
		raw[name] = data
	}
	opener := memstore.NewOpener(testStorePath, files)
	return NewSession(opener, testStorePath), opener, raw
}

func TestRetrieveByName(t *testing.T) {
	s, opener, raw := newTestSession(t, "CA00000003")

	c, err := s.RetrieveByName("CA00000003")
	if err != nil {
		t.Fatalf("RetrieveByName failed: %v", err)
	}
	if c.Name != "CA00000003" {
		t.Fatalf("Name: got %q", c.Name)
	}
	if c.Type != TypeSigRsa2048PubKeyRsa2048 {
		t.Fatalf("Type: got %v", c.Type)
	}
	if !bytes.Equal(c.Data, raw["CA00000003"]) {
		t.Fatalf("Data does not match store bytes")
	}
	if !opener.Store(testStorePath).Closed() {
		t.Fatalf("store left open after operation")
	}
}

func TestRetrieveByNameEmpty(t *testing.T) {
	s, opener, _ := newTestSession(t, "CA00000003")
	if _, err := s.RetrieveByName(""); !errdefs.IsKind(err, errdefs.KindInvalidArgument) {
		t.Fatalf("empty name: got err=%v want InvalidArgument", err)
	}
	if opener.Opens() != 0 {
		t.Fatalf("store opened for an invalid argument")
	}
}

func TestRetrieveByNameMissing(t *testing.T) {
	s, opener, _ := newTestSession(t, "CA00000003")
	if _, err := s.RetrieveByName("XS00000020"); !errdefs.IsKind(err, errdefs.KindNotFound) {
		t.Fatalf("missing cert: got err=%v want NotFound", err)
	}
	if !opener.Store(testStorePath).Closed() {
		t.Fatalf("store left open after failure")
	}
}

func TestRetrieveByNameSizeBounds(t *testing.T) {
	files := map[string][]byte{
		"/certificate/TINY": make([]byte, MinSignedCertSize-1),
		"/certificate/HUGE": make([]byte, MaxSignedCertSize+1),
	}
	s := NewSession(memstore.NewOpener(testStorePath, files), testStorePath)

	for _, name := range []string{"TINY", "HUGE"} {
		if _, err := s.RetrieveByName(name); !errdefs.IsKind(err, errdefs.KindInvalidFormat) {
			t.Fatalf("%s: got err=%v want InvalidFormat", name, err)
		}
	}
}

func TestRetrieveByNameShortRead(t *testing.T) {
	s, opener, _ := newTestSession(t, "CA00000003")
	opener.Store(testStorePath).SetDeclaredSize("/certificate/CA00000003", MinSignedCertSize+8)

	if _, err := s.RetrieveByName("CA00000003"); !errdefs.IsKind(err, errdefs.KindIO) {
		t.Fatalf("short read: got err=%v want IO", err)
	}
}

func TestRetrieveByNameUnclassifiable(t *testing.T) {
	files := map[string][]byte{"/certificate/JUNK": make([]byte, MinSignedCertSize)}
	s := NewSession(memstore.NewOpener(testStorePath, files), testStorePath)

	if _, err := s.RetrieveByName("JUNK"); !errdefs.IsKind(err, errdefs.KindInvalidFormat) {
		t.Fatalf("unclassifiable cert: got err=%v want InvalidFormat", err)
	}
}

func TestRetrieveByNameStoreOpenFailure(t *testing.T) {
	opener := memstore.NewOpener(testStorePath, nil)
	opener.Err = errors.New("savefile busy")
	s := NewSession(opener, testStorePath)

	if _, err := s.RetrieveByName("CA00000003"); !errdefs.IsKind(err, errdefs.KindIO) {
		t.Fatalf("open failure: got err=%v want IO", err)
	}
}

func TestRetrieveChainOrder(t *testing.T) {
	s, opener, _ := newTestSession(t, "CA00000003", "XS00000020")

	chain, err := s.RetrieveChainBySignatureIssuer("Root-CA00000003-XS00000020")
	if err != nil {
		t.Fatalf("chain retrieval failed: %v", err)
	}
	if chain.Len() != 2 {
		t.Fatalf("chain length: got %d want 2", chain.Len())
	}
	if chain.Certificates[0].Name != "CA00000003" || chain.Certificates[1].Name != "XS00000020" {
		t.Fatalf("chain order: got [%s %s]", chain.Certificates[0].Name, chain.Certificates[1].Name)
	}
	if opener.Opens() != 1 {
		t.Fatalf("store opened %d times for one chain operation", opener.Opens())
	}
	if !opener.Store(testStorePath).Closed() {
		t.Fatalf("store left open after chain operation")
	}
}

func TestRetrieveChainAllOrNothing(t *testing.T) {
	s, opener, _ := newTestSession(t, "CA00000003") // XS00000020 missing

	chain, err := s.RetrieveChainBySignatureIssuer("Root-CA00000003-XS00000020")
	if !errdefs.IsKind(err, errdefs.KindNotFound) {
		t.Fatalf("missing leaf: got err=%v want NotFound", err)
	}
	if chain.Len() != 0 {
		t.Fatalf("partial chain escaped the engine: %d certificates", chain.Len())
	}
	if !opener.Store(testStorePath).Closed() {
		t.Fatalf("store left open after chain failure")
	}
}

func TestRetrieveChainIssuerValidation(t *testing.T) {
	s, _, _ := newTestSession(t, "CA00000003")

	for _, issuer := range []string{"", "Root-", "Root", "CA00000003-XS00000020", "root-CA00000003"} {
		if _, err := s.RetrieveChainBySignatureIssuer(issuer); !errdefs.IsKind(err, errdefs.KindInvalidArgument) {
			t.Fatalf("issuer %q: got err=%v want InvalidArgument", issuer, err)
		}
	}
}

func TestTokenCountMatchesChainLength(t *testing.T) {
	s, _, _ := newTestSession(t, "A", "B", "C")

	chain, err := s.RetrieveChainBySignatureIssuer("Root-A-B-C")
	if err != nil {
		t.Fatalf("chain retrieval failed: %v", err)
	}
	if chain.Len() != 3 {
		t.Fatalf("token count: got chain length %d want 3", chain.Len())
	}
}

func TestGenerateRawChainRoundTrip(t *testing.T) {
	s, _, raw := newTestSession(t, "CA00000003", "XS00000020")

	out, err := s.GenerateRawChain("Root-CA00000003-XS00000020")
	if err != nil {
		t.Fatalf("GenerateRawChain failed: %v", err)
	}

	wantLen := len(raw["CA00000003"]) + len(raw["XS00000020"])
	if len(out) != wantLen {
		t.Fatalf("raw chain length: got %d want %d", len(out), wantLen)
	}

	// Splitting the output by the original per-certificate sizes must
	// recover each certificate's bytes exactly.
	first := out[:len(raw["CA00000003"])]
	second := out[len(raw["CA00000003"]):]
	if !bytes.Equal(first, raw["CA00000003"]) || !bytes.Equal(second, raw["XS00000020"]) {
		t.Fatalf("raw chain does not round-trip to member certificates")
	}
}

func TestGenerateRawChainPropagatesFailure(t *testing.T) {
	s, _, _ := newTestSession(t, "CA00000003")

	if _, err := s.GenerateRawChain("Root-CA00000003-XS00000020"); !errdefs.IsKind(err, errdefs.KindNotFound) {
		t.Fatalf("raw chain with missing member: got err=%v want NotFound", err)
	}
}

func TestChainFingerprintMatchesSerialized(t *testing.T) {
	s, _, _ := newTestSession(t, "CA00000003", "XS00000020")

	chain, err := s.RetrieveChainBySignatureIssuer("Root-CA00000003-XS00000020")
	if err != nil {
		t.Fatalf("chain retrieval failed: %v", err)
	}
	if chain.RawSize() != uint64(len(chain.Serialize())) {
		t.Fatalf("RawSize disagrees with Serialize length")
	}
	if chain.Fingerprint() == "" {
		t.Fatalf("chain fingerprint empty")
	}
}
