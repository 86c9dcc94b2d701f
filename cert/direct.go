package cert

import (
	"encoding/hex"

	"cargohold.io/cargohold/errdefs"
)

// RightsID is the fixed-length binary identifier a pre-serialized chain is
// filed under on a hashed read-only partition.
type RightsID [16]byte

// Filename derives the partition entry name for the rights ID: the
// identifier hex-encoded to fixed width with the chain suffix appended.
func (id RightsID) Filename() string {
	return hex.EncodeToString(id[:]) + ".cert"
}

// HashPartition is the read-only hashed-filesystem collaborator the direct
// chain lookup path resolves entries through.
type HashPartition interface {
	// Lookup resolves an entry name to its offset and size within the
	// backing medium. Absent entries return an error satisfying
	// storage-level not-found semantics or any other error.
	Lookup(name string) (offset, size uint64, err error)

	// ReadAt fills p with raw bytes starting at the absolute medium offset
	// off.
	ReadAt(p []byte, off uint64) error
}

// RetrieveRawChainFromHashPartition resolves a pre-serialized certificate
// chain directly from a hashed read-only partition, bypassing the store
// engine. The result has the same byte layout as Session.GenerateRawChain
// output and needs no further parsing.
func RetrieveRawChainFromHashPartition(part HashPartition, id RightsID) ([]byte, error) {
	const op = "cert.RetrieveRawChainFromHashPartition"

	if part == nil {
		return nil, errdefs.New(errdefs.KindInvalidArgument, op, "nil hash partition")
	}

	name := id.Filename()
	offset, size, err := part.Lookup(name)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindNotFound, op, "no chain entry "+name+" in hash partition", err)
	}
	if size < MinSignedCertSize {
		return nil, errdefs.New(errdefs.KindInvalidFormat, op, "chain entry "+name+" is too small")
	}

	raw := make([]byte, size)
	if err := part.ReadAt(raw, offset); err != nil {
		return nil, errdefs.Wrap(errdefs.KindIO, op, "reading chain entry "+name, err)
	}
	return raw, nil
}
