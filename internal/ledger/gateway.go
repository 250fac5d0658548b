// Package ledger translates domain operations into deterministic contract
// transactions and ledger state back into domain types. It owns identifier
// hashing, finality waiting, status decoding, and failure classification.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"custodia/internal/platform/metrics"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// TxResult is returned by every write operation once finality is observed.
type TxResult struct {
	TxHash      string
	ExplorerURL string
}

// AccessLogEntry is one row of a subject's on-ledger access history.
type AccessLogEntry struct {
	CreditorAddress string
	Status          Status
}

// Gateway drives a Node. It holds no mutable state: configuration is fixed at
// construction and every operation is an independent unit of work.
type Gateway struct {
	node            Node
	contract        string
	explorerBase    string
	finalityTimeout time.Duration
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

// NewGateway builds a gateway over the given node and contract address.
func NewGateway(node Node, contract, explorerBase string, finalityTimeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{
		node:            node,
		contract:        contract,
		explorerBase:    explorerBase,
		finalityTimeout: finalityTimeout,
		logger:          logger,
		metrics:         m,
	}
}

// RegisterIdentity submits the registration transaction for a hashed external
// ID and waits for finality. The contract enforces uniqueness within the
// class and reverts on duplicates.
func (g *Gateway) RegisterIdentity(ctx context.Context, externalID string, class id.IdentityClass, address string) (TxResult, error) {
	return g.writeTx(ctx, "registerIdentity", Call{
		Contract: g.contract,
		Method:   "registerIdentity",
		Args:     []any{KeyHash(externalID), address, class.String()},
	})
}

// RequestDelegation submits a consent request for the (subject, provider)
// pair on behalf of the consumer. The contract reverts unless the current
// state is NONE.
func (g *Gateway) RequestDelegation(ctx context.Context, subjectID, consumerID, providerID string) (TxResult, error) {
	return g.writeTx(ctx, "requestDelegation", Call{
		Contract: g.contract,
		Method:   "requestDelegation",
		Args:     []any{KeyHash(subjectID), KeyHash(consumerID), KeyHash(providerID)},
	})
}

// DecideDelegation submits the binary decision outcome. The contract reverts
// unless the current state is PENDING, so terminal states stay immutable.
func (g *Gateway) DecideDelegation(ctx context.Context, subjectID, consumerID, providerID string, approve bool) (TxResult, error) {
	return g.writeTx(ctx, "decideDelegation", Call{
		Contract: g.contract,
		Method:   "decideDelegation",
		Args:     []any{KeyHash(subjectID), KeyHash(consumerID), KeyHash(providerID), EncodeDecision(approve)},
	})
}

// PurchaseEntitlement records a creditor's purchase of a data package.
func (g *Gateway) PurchaseEntitlement(ctx context.Context, buyerID, packageID string) (TxResult, error) {
	return g.writeTx(ctx, "purchaseEntitlement", Call{
		Contract: g.contract,
		Method:   "purchaseEntitlement",
		Args:     []any{KeyHash(buyerID), packageID},
	})
}

// LinkSubjectToHolder attaches a data subject to a holding creditor. The
// receipt must carry exactly one SubjectLinked event; its absence means the
// contract and this gateway disagree about the ABI.
func (g *Gateway) LinkSubjectToHolder(ctx context.Context, subjectID, holderID string) (TxResult, error) {
	op := "linkSubjectToHolder"
	receipt, err := g.submitAndWait(ctx, op, Call{
		Contract: g.contract,
		Method:   "linkSubjectToHolder",
		Args:     []any{KeyHash(subjectID), KeyHash(holderID)},
	})
	if err != nil {
		return TxResult{}, err
	}
	if _, found := findEvent(receipt.Events, "SubjectLinked"); !found {
		return TxResult{}, dErrors.New(dErrors.CodeLedgerInternal,
			"finalized linkSubjectToHolder receipt carries no SubjectLinked event")
	}
	return g.result(receipt), nil
}

// IdentityAddress resolves a hashed external ID to its ledger address.
// Returns CodeNotFound when the identity was never registered.
func (g *Gateway) IdentityAddress(ctx context.Context, externalID string, class id.IdentityClass) (string, error) {
	op := "queryIdentityAddress"
	out, err := g.node.Query(ctx, Call{
		Contract: g.contract,
		Method:   "getIdentity",
		Args:     []any{KeyHash(externalID), class.String()},
	})
	if err != nil {
		return "", g.translate(op, err)
	}
	if len(out) == 0 {
		return "", dErrors.Newf(dErrors.CodeNotFound, "no registered %s identity for identifier", class)
	}
	address, ok := out[0].(string)
	if !ok || address == "" {
		return "", dErrors.Newf(dErrors.CodeNotFound, "no registered %s identity for identifier", class)
	}
	return address, nil
}

// DelegationStatus reads the current delegation state for a (subject,
// provider) pair. NONE is a valid answer, not an error.
func (g *Gateway) DelegationStatus(ctx context.Context, subjectID, providerID string) (Status, error) {
	op := "queryDelegationStatus"
	out, err := g.node.Query(ctx, Call{
		Contract: g.contract,
		Method:   "getStatus",
		Args:     []any{KeyHash(subjectID), KeyHash(providerID)},
	})
	if err != nil {
		return StatusNone, g.translate(op, err)
	}
	if len(out) != 1 {
		return StatusNone, dErrors.Newf(dErrors.CodeLedgerInternal,
			"getStatus returned %d values, want 1", len(out))
	}
	code, ok := toUint64(out[0])
	if !ok {
		return StatusNone, dErrors.New(dErrors.CodeLedgerInternal, "getStatus returned a non-integer status")
	}
	return DecodeStatus(code)
}

// AccessLog reads the ordered access history for a subject. The contract
// returns parallel arrays; empty arrays or no data at all both mean "no
// activity" and come back as an empty slice.
func (g *Gateway) AccessLog(ctx context.Context, subjectID string) ([]AccessLogEntry, error) {
	op := "queryAccessLog"
	out, err := g.node.Query(ctx, Call{
		Contract: g.contract,
		Method:   "getAccessLog",
		Args:     []any{KeyHash(subjectID)},
	})
	if err != nil {
		return nil, g.translate(op, err)
	}
	if len(out) == 0 {
		return []AccessLogEntry{}, nil
	}
	if len(out) != 2 {
		return nil, dErrors.Newf(dErrors.CodeLedgerInternal,
			"getAccessLog returned %d values, want 2 parallel arrays", len(out))
	}
	addresses, ok := out[0].([]string)
	if !ok {
		return nil, dErrors.New(dErrors.CodeLedgerInternal, "getAccessLog address array has the wrong type")
	}
	codes, ok := out[1].([]uint64)
	if !ok {
		return nil, dErrors.New(dErrors.CodeLedgerInternal, "getAccessLog status array has the wrong type")
	}
	if len(addresses) != len(codes) {
		return nil, dErrors.Newf(dErrors.CodeLedgerInternal,
			"getAccessLog arrays are not parallel: %d addresses, %d statuses", len(addresses), len(codes))
	}

	entries := make([]AccessLogEntry, 0, len(addresses))
	for i := range addresses {
		status, err := DecodeStatus(codes[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, AccessLogEntry{
			CreditorAddress: addresses[i],
			Status:          status,
		})
	}
	return entries, nil
}

// writeTx submits a transaction and blocks until finality, then shapes the
// result with the explorer URL.
func (g *Gateway) writeTx(ctx context.Context, op string, call Call) (TxResult, error) {
	receipt, err := g.submitAndWait(ctx, op, call)
	if err != nil {
		return TxResult{}, err
	}
	return g.result(receipt), nil
}

func (g *Gateway) submitAndWait(ctx context.Context, op string, call Call) (*Receipt, error) {
	start := time.Now()

	txHash, err := g.node.Submit(ctx, call)
	if err != nil {
		return nil, g.translate(op, err)
	}

	// Once submitted, the transaction runs to completion; there is no
	// cancellation primitive past this point. The finality timeout bounds
	// how long we wait to observe the outcome, not the outcome itself.
	waitCtx, cancel := context.WithTimeout(ctx, g.finalityTimeout)
	defer cancel()

	receipt, err := g.node.WaitFinal(waitCtx, txHash)
	if err != nil {
		return nil, g.translate(op, err)
	}

	if g.metrics != nil {
		g.metrics.ObserveFinality(time.Since(start))
	}
	if g.logger != nil {
		g.logger.InfoContext(ctx, "ledger transaction finalized",
			"operation", op,
			"tx_hash", receipt.TxHash,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return receipt, nil
}

func (g *Gateway) result(receipt *Receipt) TxResult {
	return TxResult{
		TxHash:      receipt.TxHash,
		ExplorerURL: g.explorerBase + receipt.TxHash,
	}
}

// translate classifies node failures into the domain taxonomy: reverts become
// precondition failures carrying the raw reason, transport problems are
// retryable-by-caller unavailability, everything else is a ledger internal
// error.
func (g *Gateway) translate(op string, err error) error {
	var revert *RevertError
	if errors.As(err, &revert) {
		return dErrors.Wrap(err, dErrors.CodePreconditionFailed, revert.Reason)
	}
	if isUnavailable(err) {
		return dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, op+": ledger node unreachable")
	}
	if g.logger != nil {
		g.logger.Error("unexpected ledger failure", "operation", op, "error", err.Error())
	}
	return dErrors.Wrap(err, dErrors.CodeLedgerInternal, op+": unexpected ledger failure")
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func findEvent(events []Event, name string) (Event, bool) {
	for _, ev := range events {
		if ev.Name == name {
			return ev, true
		}
	}
	return Event{}, false
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}
