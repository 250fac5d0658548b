package ledger

import (
	dErrors "custodia/pkg/domain-errors"
)

// Status is the closed delegation state machine reported by the contract.
// NONE means no request was ever made for the (subject, provider) pair.
type Status uint8

const (
	StatusNone Status = iota
	StatusPending
	StatusApproved
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusPending:
		return "PENDING"
	case StatusApproved:
		return "APPROVED"
	case StatusRejected:
		return "REJECTED"
	}
	return "UNKNOWN"
}

// DecodeStatus maps the contract's status integer onto the closed enum. The
// mapping is total over the defined range; anything else surfaces as an
// unknown-status error instead of being coerced into a guessed state.
func DecodeStatus(code uint64) (Status, error) {
	switch code {
	case 0:
		return StatusNone, nil
	case 1:
		return StatusPending, nil
	case 2:
		return StatusApproved, nil
	case 3:
		return StatusRejected, nil
	}
	return StatusNone, dErrors.Newf(dErrors.CodeUnknownStatus,
		"ledger returned delegation status %d outside the defined range", code)
}

// DecodeDecision maps the contract's binary decision outcome. 0 rejects,
// 1 approves; anything else is unknown.
func DecodeDecision(code uint64) (Status, error) {
	switch code {
	case 0:
		return StatusRejected, nil
	case 1:
		return StatusApproved, nil
	}
	return StatusNone, dErrors.Newf(dErrors.CodeUnknownStatus,
		"ledger returned decision outcome %d outside the defined range", code)
}

// EncodeDecision converts the orchestrator's boolean outcome into the
// contract's wire integer.
func EncodeDecision(approve bool) uint64 {
	if approve {
		return 1
	}
	return 0
}
