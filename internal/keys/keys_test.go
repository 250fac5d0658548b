package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_AddressFormat(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	assert.True(t, IsValidAddress(kp.Address), "address %q should match the ledger format", kp.Address)
	assert.Len(t, kp.PrivateKeyHex, 64)
}

func TestGenerate_AddressDerivableFromPrivateKey(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	priv, err := ParsePrivateKeyHex(kp.PrivateKeyHex)
	require.NoError(t, err)

	assert.Equal(t, kp.Address, AddressFromPrivateKey(priv))
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		kp, err := Generate()
		require.NoError(t, err)
		require.False(t, seen[kp.Address], "duplicate address generated")
		seen[kp.Address] = true
	}
}

func TestParsePrivateKeyHex_Invalid(t *testing.T) {
	_, err := ParsePrivateKeyHex("not-hex")
	assert.Error(t, err)

	_, err = ParsePrivateKeyHex("abcd")
	assert.Error(t, err)
}

func TestIsValidAddress(t *testing.T) {
	assert.False(t, IsValidAddress(""))
	assert.False(t, IsValidAddress("0x1234"))
	assert.False(t, IsValidAddress("1234567890123456789012345678901234567890ab"))
	assert.True(t, IsValidAddress("0x1234567890abcdef1234567890abcdef12345678"))
}
