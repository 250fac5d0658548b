package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodia/pkg/domain-errors"
)

func TestDecodeStatus_TotalOverDefinedRange(t *testing.T) {
	want := map[uint64]Status{
		0: StatusNone,
		1: StatusPending,
		2: StatusApproved,
		3: StatusRejected,
	}
	for code, expected := range want {
		got, err := DecodeStatus(code)
		require.NoError(t, err, "code %d", code)
		assert.Equal(t, expected, got)
	}
}

func TestDecodeStatus_OutOfRange(t *testing.T) {
	for _, code := range []uint64{4, 5, 42, 255, 1 << 40} {
		_, err := DecodeStatus(code)
		require.Error(t, err, "code %d", code)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownStatus))
	}
}

func TestDecodeDecision(t *testing.T) {
	got, err := DecodeDecision(0)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got)

	got, err = DecodeDecision(1)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got)

	_, err = DecodeDecision(2)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownStatus))
}

func TestEncodeDecision(t *testing.T) {
	assert.Equal(t, uint64(1), EncodeDecision(true))
	assert.Equal(t, uint64(0), EncodeDecision(false))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "NONE", StatusNone.String())
	assert.Equal(t, "PENDING", StatusPending.String())
	assert.Equal(t, "APPROVED", StatusApproved.String())
	assert.Equal(t, "REJECTED", StatusRejected.String())
	assert.Equal(t, "UNKNOWN", Status(99).String())
}
