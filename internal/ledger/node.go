package ledger

import (
	"context"
	"fmt"
)

// Call names one contract invocation. Arguments are already hashed where the
// contract expects digests; the gateway owns that translation.
type Call struct {
	Contract string
	Method   string
	Args     []any
}

// Event is one log entry emitted by a finalized transaction.
type Event struct {
	Name       string
	Attributes map[string]string
}

// Receipt describes a finalized transaction.
type Receipt struct {
	TxHash string
	Events []Event
}

// Node is the narrow surface of the ledger node this engine needs. Building a
// general-purpose ledger client is out of scope; concrete nodes (an RPC
// adapter in production, memnode in tests and dev mode) implement exactly
// this.
//
// Submit returns the pending transaction hash, or a *RevertError when the
// node rejects the transaction up front (the estimate-gas path). WaitFinal
// blocks until the transaction is included and confirmed. Query is a pure
// lookup against current state with no write and no wait.
type Node interface {
	Submit(ctx context.Context, call Call) (string, error)
	WaitFinal(ctx context.Context, txHash string) (*Receipt, error)
	Query(ctx context.Context, call Call) ([]any, error)
}

// RevertError reports a contract revert: the ledger rejected the transaction
// because a domain precondition did not hold. Reason carries the contract's
// raw revert string.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("ledger reverted: %s", e.Reason)
}
