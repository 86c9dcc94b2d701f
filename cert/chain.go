package cert

import "cargohold.io/cargohold/cidutil"

// Chain is an ordered certificate sequence, leaf-to-root order as named by
// the signature issuer string. A Chain returned by the engine is always
// fully populated; partial chains never escape it.
type Chain struct {
	Certificates []Certificate
}

// Len returns the number of certificates in the chain.
func (c Chain) Len() int { return len(c.Certificates) }

// RawSize returns the total byte length of the serialized chain.
func (c Chain) RawSize() uint64 {
	var total uint64
	for _, crt := range c.Certificates {
		total += crt.Size()
	}
	return total
}

// Serialize concatenates the chain's certificates into one contiguous
// buffer, back-to-back in chain order.
func (c Chain) Serialize() []byte {
	out := make([]byte, 0, c.RawSize())
	for _, crt := range c.Certificates {
		out = append(out, crt.Data...)
	}
	return out
}

// Fingerprint returns a CIDv1 (raw, sha2-256) over the serialized chain.
func (c Chain) Fingerprint() string { return cidutil.RawSHA256String(c.Serialize()) }
