package cert

import (
	"io"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"cargohold.io/cargohold/errdefs"
	"cargohold.io/cargohold/storage"
)

// DefaultStorageBasePath is the directory inside the certificate store under
// which certificates are stored by name.
const DefaultStorageBasePath = "/certificate/"

// rootIssuerPrefix is the fixed root token every signature issuer string
// starts with.
const rootIssuerPrefix = "Root-"

// issuerDelimiter separates certificate names inside an issuer string.
const issuerDelimiter = "-"

// Session is the certificate resolution engine.
//
// One mutex serializes every operation: the store is opened at the start of
// each public call and closed again before the lock is released, so at most
// one certificate or chain operation runs at a time and the store is never
// left open between unrelated calls.
type Session struct {
	opener    storage.Opener
	storePath string
	basePath  string
	log       zerolog.Logger

	mu    sync.Mutex
	store storage.Store
}

// Option configures a Session.
type Option func(*Session)

// WithLogger routes the session's diagnostics to l. The default discards
// them.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithStorageBasePath overrides DefaultStorageBasePath.
func WithStorageBasePath(p string) Option {
	return func(s *Session) { s.basePath = p }
}

// NewSession creates a resolution engine over the store container at
// storePath, opened through opener on demand.
func NewSession(opener storage.Opener, storePath string, opts ...Option) *Session {
	s := &Session{
		opener:    opener,
		storePath: storePath,
		basePath:  DefaultStorageBasePath,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RetrieveByName fetches and classifies the certificate stored under name.
func (s *Session) RetrieveByName(name string) (Certificate, error) {
	const op = "cert.RetrieveByName"

	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return Certificate{}, errdefs.New(errdefs.KindInvalidArgument, op, "empty certificate name")
	}
	if err := s.openStore(op); err != nil {
		return Certificate{}, err
	}
	defer s.closeStore()

	return s.retrieveLocked(op, name)
}

// RetrieveChainBySignatureIssuer resolves every certificate named by issuer,
// in issuer token order. The chain is all-or-nothing: any single failure
// returns an error and no certificates.
func (s *Session) RetrieveChainBySignatureIssuer(issuer string) (Chain, error) {
	const op = "cert.RetrieveChainBySignatureIssuer"

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := splitIssuer(op, issuer)
	if err != nil {
		return Chain{}, err
	}
	if err := s.openStore(op); err != nil {
		return Chain{}, err
	}
	defer s.closeStore()

	certs := make([]Certificate, 0, len(names))
	for _, name := range names {
		c, err := s.retrieveLocked(op, name)
		if err != nil {
			s.log.Warn().Str("issuer", issuer).Str("name", name).Err(err).
				Msg("certificate chain retrieval aborted")
			return Chain{}, err
		}
		certs = append(certs, c)
	}

	s.log.Debug().Str("issuer", issuer).Int("count", len(certs)).
		Msg("certificate chain retrieved")
	return Chain{Certificates: certs}, nil
}

// GenerateRawChain resolves the chain for issuer and serializes it into one
// contiguous buffer, certificates back-to-back in chain order.
func (s *Session) GenerateRawChain(issuer string) ([]byte, error) {
	chain, err := s.RetrieveChainBySignatureIssuer(issuer)
	if err != nil {
		return nil, err
	}
	return chain.Serialize(), nil
}

// retrieveLocked requires s.mu held and s.store open.
func (s *Session) retrieveLocked(op, name string) (Certificate, error) {
	certPath := path.Join(s.basePath, name)

	f, err := s.store.Resolve(certPath)
	if err != nil {
		if storage.IsNotFound(err) {
			return Certificate{}, errdefs.Wrap(errdefs.KindNotFound, op, "certificate "+name+" not present in store", err)
		}
		return Certificate{}, errdefs.Wrap(errdefs.KindIO, op, "resolving certificate "+name, err)
	}

	size := f.Size()
	if size < MinSignedCertSize || size > MaxSignedCertSize {
		return Certificate{}, errdefs.New(errdefs.KindInvalidFormat, op, "certificate "+name+" has out-of-range size")
	}

	data := make([]byte, size)
	n, err := f.ReadAt(data, 0)
	if n != len(data) {
		return Certificate{}, errdefs.Wrap(errdefs.KindIO, op, "short read for certificate "+name, err)
	}
	if err != nil && err != io.EOF {
		return Certificate{}, errdefs.Wrap(errdefs.KindIO, op, "reading certificate "+name, err)
	}

	t := Classify(data)
	if t == TypeNone {
		return Certificate{}, errdefs.New(errdefs.KindInvalidFormat, op, "certificate "+name+" is not a valid signed certificate")
	}

	s.log.Debug().Str("name", name).Stringer("type", t).Uint64("size", size).
		Msg("certificate retrieved")
	return Certificate{Name: name, Type: t, Data: data}, nil
}

func (s *Session) openStore(op string) error {
	if s.store != nil {
		return nil
	}
	st, err := s.opener.Open(s.storePath)
	if err != nil {
		s.log.Warn().Str("store", s.storePath).Err(err).Msg("certificate store open failed")
		return errdefs.Wrap(errdefs.KindIO, op, "opening certificate store", err)
	}
	s.store = st
	return nil
}

func (s *Session) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn().Str("store", s.storePath).Err(err).Msg("certificate store close failed")
	}
	s.store = nil
}

// splitIssuer validates the root prefix and splits the remainder into
// ordered, non-empty name tokens. The same split backs both token counting
// and retrieval, so the two always observe identical boundaries.
func splitIssuer(op, issuer string) ([]string, error) {
	if len(issuer) <= len(rootIssuerPrefix) || !strings.HasPrefix(issuer, rootIssuerPrefix) {
		return nil, errdefs.New(errdefs.KindInvalidArgument, op, "signature issuer must start with "+rootIssuerPrefix)
	}
	var names []string
	for _, tok := range strings.Split(issuer[len(rootIssuerPrefix):], issuerDelimiter) {
		if tok != "" {
			names = append(names, tok)
		}
	}
	if len(names) == 0 {
		return nil, errdefs.New(errdefs.KindInvalidArgument, op, "signature issuer names no certificates")
	}
	return names, nil
}
