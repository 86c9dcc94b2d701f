// Package cidutil derives content identifiers for certificate material.
//
// Certificates and serialized chains are identified by a CIDv1 over their
// raw bytes ("raw" multicodec, sha2-256 multihash). The identifier is stable
// across stores, so logs and dedup can refer to content instead of paths.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// RawSHA256 returns a CIDv1 (raw + sha2-256) derived from data.
func RawSHA256(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// RawSHA256String returns the string form of RawSHA256.
func RawSHA256String(data []byte) string {
	id, err := RawSHA256(data)
	if err != nil {
		// multihash.Sum only errors for invalid codecs; with SHA2_256 and
		// default length this is unreachable.
		return ""
	}
	return id.String()
}
