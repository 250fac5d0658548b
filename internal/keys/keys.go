// Package keys provisions ledger key pairs. The address is derived from the
// public key with the ledger's Keccak-256 scheme, so it can always be
// recomputed from the custody record alone.
package keys

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"
)

// KeyPair holds a freshly generated ledger identity. PrivateKeyHex is the
// only copy of the key material; callers must seal and store it immediately
// and never log it.
type KeyPair struct {
	Address       string
	PrivateKeyHex string
}

// Generate produces a secp256k1 key pair from crypto/rand. The only failure
// mode is exhaustion of the randomness source, which is fatal and not
// retried.
func Generate() (KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate private key: %w", err)
	}
	return KeyPair{
		Address:       AddressFromPrivateKey(priv),
		PrivateKeyHex: hex.EncodeToString(priv.Serialize()),
	}, nil
}

// AddressFromPrivateKey derives the ledger address: the last 20 bytes of
// Keccak-256 over the uncompressed public key without its 0x04 prefix.
func AddressFromPrivateKey(priv *secp256k1.PrivateKey) string {
	pub := priv.PubKey().SerializeUncompressed()
	h := sha3.NewLegacyKeccak256()
	h.Write(pub[1:])
	digest := h.Sum(nil)
	return "0x" + hex.EncodeToString(digest[12:])
}

// ParsePrivateKeyHex rebuilds a private key from its custody encoding.
func ParsePrivateKeyHex(s string) (*secp256k1.PrivateKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode private key hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(raw))
	}
	return secp256k1.PrivKeyFromBytes(raw), nil
}

// IsValidAddress reports whether s has the fixed ledger address format.
func IsValidAddress(s string) bool {
	if len(s) != 42 || s[0] != '0' || s[1] != 'x' {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}
