// Package cert retrieves signed certificates from a certificate store and
// assembles ordered certificate chains from signature issuer strings.
//
// A signed certificate is a binary blob: a signature block (type word,
// signature, padding), a common block (issuer, public key type, name, date)
// and a public key block. All multi-byte enumeration fields are big-endian.
// The blob is classified structurally; signatures are never verified here.
package cert

import (
	"encoding/binary"

	"cargohold.io/cargohold/cidutil"
)

// Signed certificate size bounds. The smallest layout is an HMAC-160
// signature over an ECC-480 public key; the largest is RSA-4096 over
// RSA-4096.
const (
	MinSignedCertSize = 0x140
	MaxSignedCertSize = 0x500
)

// Signature type words (big-endian u32 at offset 0).
const (
	sigTypeRsa4096Sha1   uint32 = 0x10000
	sigTypeRsa2048Sha1   uint32 = 0x10001
	sigTypeEcc480Sha1    uint32 = 0x10002
	sigTypeRsa4096Sha256 uint32 = 0x10003
	sigTypeRsa2048Sha256 uint32 = 0x10004
	sigTypeEcc480Sha256  uint32 = 0x10005
	sigTypeHmac160Sha1   uint32 = 0x10006
)

// Public key type words (big-endian u32 in the common block).
const (
	pubKeyTypeRsa4096 uint32 = 0
	pubKeyTypeRsa2048 uint32 = 1
	pubKeyTypeEcc480  uint32 = 2
)

// Common block layout: issuer char[0x40], public key type u32, name
// char[0x40], date u32.
const (
	commonBlockSize        = 0x88
	commonIssuerOffset     = 0x00
	commonPubKeyTypeOffset = 0x40
	commonNameOffset       = 0x44
	issuerFieldSize        = 0x40
	nameFieldSize          = 0x40
)

// Signature block sizes (type word + signature + padding).
const (
	sigBlockSizeRsa4096 = 0x240
	sigBlockSizeRsa2048 = 0x140
	sigBlockSizeEcc480  = 0x80
	sigBlockSizeHmac160 = 0x40
)

// Public key block sizes (key material + exponent/padding).
const (
	pubKeyBlockSizeRsa4096 = 0x238
	pubKeyBlockSizeRsa2048 = 0x138
	pubKeyBlockSizeEcc480  = 0x78
)

// Type tags a certificate by its (signature family, public key family) pair.
type Type uint8

const (
	TypeNone Type = iota
	TypeSigRsa4096PubKeyRsa4096
	TypeSigRsa4096PubKeyRsa2048
	TypeSigRsa4096PubKeyEcc480
	TypeSigRsa2048PubKeyRsa4096
	TypeSigRsa2048PubKeyRsa2048
	TypeSigRsa2048PubKeyEcc480
	TypeSigEcc480PubKeyRsa4096
	TypeSigEcc480PubKeyRsa2048
	TypeSigEcc480PubKeyEcc480
	TypeSigHmac160
)

func (t Type) String() string {
	switch t {
	case TypeSigRsa4096PubKeyRsa4096:
		return "sig-rsa4096/pubkey-rsa4096"
	case TypeSigRsa4096PubKeyRsa2048:
		return "sig-rsa4096/pubkey-rsa2048"
	case TypeSigRsa4096PubKeyEcc480:
		return "sig-rsa4096/pubkey-ecc480"
	case TypeSigRsa2048PubKeyRsa4096:
		return "sig-rsa2048/pubkey-rsa4096"
	case TypeSigRsa2048PubKeyRsa2048:
		return "sig-rsa2048/pubkey-rsa2048"
	case TypeSigRsa2048PubKeyEcc480:
		return "sig-rsa2048/pubkey-ecc480"
	case TypeSigEcc480PubKeyRsa4096:
		return "sig-ecc480/pubkey-rsa4096"
	case TypeSigEcc480PubKeyRsa2048:
		return "sig-ecc480/pubkey-rsa2048"
	case TypeSigEcc480PubKeyEcc480:
		return "sig-ecc480/pubkey-ecc480"
	case TypeSigHmac160:
		return "sig-hmac160"
	default:
		return "none"
	}
}

// Certificate is one signed certificate retrieved from a store. Data is an
// independent copy, not a view into store state.
type Certificate struct {
	// Name is the store name the certificate was fetched under.
	Name string

	// Type is the structural classification of Data.
	Type Type

	// Data holds the raw signed certificate.
	Data []byte
}

// Size returns the certificate's byte length.
func (c Certificate) Size() uint64 { return uint64(len(c.Data)) }

// Fingerprint returns a CIDv1 (raw, sha2-256) over the certificate bytes.
func (c Certificate) Fingerprint() string { return cidutil.RawSHA256String(c.Data) }

// Issuer returns the issuer field of the common block, or "" if the
// certificate cannot be located structurally.
func (c Certificate) Issuer() string {
	cb, ok := commonBlock(c.Data)
	if !ok {
		return ""
	}
	return cString(cb[commonIssuerOffset : commonIssuerOffset+issuerFieldSize])
}

// Subject returns the name field of the common block, or "" if the
// certificate cannot be located structurally.
func (c Certificate) Subject() string {
	cb, ok := commonBlock(c.Data)
	if !ok {
		return ""
	}
	return cString(cb[commonNameOffset : commonNameOffset+nameFieldSize])
}

// commonBlock returns the 0x88-byte common block, locating it behind the
// signature block for the certificate's signature type.
func commonBlock(data []byte) ([]byte, bool) {
	if uint64(len(data)) < MinSignedCertSize {
		return nil, false
	}
	sb := signatureBlockSize(binary.BigEndian.Uint32(data[0:4]))
	if sb == 0 || sb+commonBlockSize > uint64(len(data)) {
		return nil, false
	}
	return data[sb : sb+commonBlockSize], true
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
