package ledger

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// KeyHash digests a business identifier with Keccak-256 before it is embedded
// in a transaction or query. Raw national IDs and institution codes never
// reach the public ledger; equality-comparable lookups still work because the
// digest is deterministic.
func KeyHash(identifier string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(identifier))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
