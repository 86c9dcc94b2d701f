package cert

import "encoding/binary"

// signatureBlockSize returns the size of the signature block for a signature
// type word, or 0 for an unrecognized type.
func signatureBlockSize(sigType uint32) uint64 {
	switch sigType {
	case sigTypeRsa4096Sha1, sigTypeRsa4096Sha256:
		return sigBlockSizeRsa4096
	case sigTypeRsa2048Sha1, sigTypeRsa2048Sha256:
		return sigBlockSizeRsa2048
	case sigTypeEcc480Sha1, sigTypeEcc480Sha256:
		return sigBlockSizeEcc480
	case sigTypeHmac160Sha1:
		return sigBlockSizeHmac160
	default:
		return 0
	}
}

// publicKeyBlockSize returns the size of the public key block for a public
// key type word. Unrecognized words fall back to the ECC-480 layout, the
// smallest defined block.
func publicKeyBlockSize(pubKeyType uint32) uint64 {
	switch pubKeyType {
	case pubKeyTypeRsa4096:
		return pubKeyBlockSizeRsa4096
	case pubKeyTypeRsa2048:
		return pubKeyBlockSizeRsa2048
	default:
		return pubKeyBlockSizeEcc480
	}
}

// Classify inspects raw signed-certificate bytes and derives a Type tag.
//
// It returns TypeNone when the buffer is outside the signed certificate size
// bounds, the signature type word is unrecognized, or the layout implied by
// the signature and public key type words does not fit inside the buffer.
// Callers must treat TypeNone as failure.
func Classify(data []byte) Type {
	size := uint64(len(data))
	if size < MinSignedCertSize || size > MaxSignedCertSize {
		return TypeNone
	}

	sigType := binary.BigEndian.Uint32(data[0:4])
	sigBlock := signatureBlockSize(sigType)
	if sigBlock == 0 || sigBlock+commonBlockSize > size {
		return TypeNone
	}

	pubKeyType := binary.BigEndian.Uint32(data[sigBlock+commonPubKeyTypeOffset:])
	if sigBlock+commonBlockSize+publicKeyBlockSize(pubKeyType) > size {
		return TypeNone
	}

	switch sigType {
	case sigTypeRsa4096Sha1, sigTypeRsa4096Sha256:
		return typeForPubKey(pubKeyType, TypeSigRsa4096PubKeyRsa4096, TypeSigRsa4096PubKeyRsa2048, TypeSigRsa4096PubKeyEcc480)
	case sigTypeRsa2048Sha1, sigTypeRsa2048Sha256:
		return typeForPubKey(pubKeyType, TypeSigRsa2048PubKeyRsa4096, TypeSigRsa2048PubKeyRsa2048, TypeSigRsa2048PubKeyEcc480)
	case sigTypeEcc480Sha1, sigTypeEcc480Sha256:
		return typeForPubKey(pubKeyType, TypeSigEcc480PubKeyRsa4096, TypeSigEcc480PubKeyRsa2048, TypeSigEcc480PubKeyEcc480)
	case sigTypeHmac160Sha1:
		// The public key field is not consulted for HMAC signatures.
		return TypeSigHmac160
	default:
		return TypeNone
	}
}

func typeForPubKey(pubKeyType uint32, rsa4096, rsa2048, ecc480 Type) Type {
	switch pubKeyType {
	case pubKeyTypeRsa4096:
		return rsa4096
	case pubKeyTypeRsa2048:
		return rsa2048
	default:
		return ecc480
	}
}
