// Package memnode is an in-memory ledger node for tests and dev mode. It
// implements the contract semantics the gateway depends on: class-scoped
// identity uniqueness, the delegation state machine with reverts on violated
// preconditions, the per-subject access log, entitlement purchases, and
// subject-holder links. Transactions finalize immediately.
package memnode

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"custodia/internal/ledger"
)

type delegation struct {
	status   ledger.Status
	consumer string
	logEntry *logEntry
}

type logEntry struct {
	creditorAddress string
	status          ledger.Status
}

// Node holds the simulated contract state. All methods are safe for
// concurrent use; the single mutex stands in for the ledger's own
// serialization of conflicting writes.
type Node struct {
	mu           sync.Mutex
	identities   map[string]string      // class|idHash -> address
	delegations  map[string]*delegation // subjectHash|providerHash
	accessLogs   map[string][]*logEntry // subjectHash -> ordered history
	links        map[string]bool        // subjectHash|holderHash
	entitlements map[string]bool        // buyerHash|packageID
	receipts     map[string]*ledger.Receipt
}

// New builds an empty node.
func New() *Node {
	return &Node{
		identities:   make(map[string]string),
		delegations:  make(map[string]*delegation),
		accessLogs:   make(map[string][]*logEntry),
		links:        make(map[string]bool),
		entitlements: make(map[string]bool),
		receipts:     make(map[string]*ledger.Receipt),
	}
}

// Submit executes the call against the simulated contract. Precondition
// violations surface as *ledger.RevertError, matching a real node's
// estimate-gas rejection.
func (n *Node) Submit(_ context.Context, call ledger.Call) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var events []ledger.Event
	var err error
	switch call.Method {
	case "registerIdentity":
		err = n.registerIdentity(call.Args)
	case "requestDelegation":
		err = n.requestDelegation(call.Args)
	case "decideDelegation":
		err = n.decideDelegation(call.Args)
	case "linkSubjectToHolder":
		events, err = n.linkSubjectToHolder(call.Args)
	case "purchaseEntitlement":
		events, err = n.purchaseEntitlement(call.Args)
	default:
		return "", fmt.Errorf("memnode: unknown contract method %q", call.Method)
	}
	if err != nil {
		return "", err
	}

	txHash := newTxHash()
	n.receipts[txHash] = &ledger.Receipt{TxHash: txHash, Events: events}
	return txHash, nil
}

// WaitFinal returns the receipt for a submitted transaction. Everything
// submitted here is already final.
func (n *Node) WaitFinal(ctx context.Context, txHash string) (*ledger.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	receipt, ok := n.receipts[txHash]
	if !ok {
		return nil, fmt.Errorf("memnode: unknown transaction %s", txHash)
	}
	return receipt, nil
}

// Query reads current state without writing.
func (n *Node) Query(_ context.Context, call ledger.Call) ([]any, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch call.Method {
	case "getIdentity":
		idHash, class, err := twoStrings(call.Args)
		if err != nil {
			return nil, err
		}
		address, ok := n.identities[class+"|"+idHash]
		if !ok {
			return []any{}, nil
		}
		return []any{address}, nil

	case "getStatus":
		subjectHash, providerHash, err := twoStrings(call.Args)
		if err != nil {
			return nil, err
		}
		d, ok := n.delegations[subjectHash+"|"+providerHash]
		if !ok {
			return []any{uint64(ledger.StatusNone)}, nil
		}
		return []any{uint64(d.status)}, nil

	case "getAccessLog":
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("memnode: getAccessLog wants 1 arg, got %d", len(call.Args))
		}
		subjectHash, ok := call.Args[0].(string)
		if !ok {
			return nil, fmt.Errorf("memnode: getAccessLog subject must be a string")
		}
		entries := n.accessLogs[subjectHash]
		addresses := make([]string, 0, len(entries))
		codes := make([]uint64, 0, len(entries))
		for _, e := range entries {
			addresses = append(addresses, e.creditorAddress)
			codes = append(codes, uint64(e.status))
		}
		return []any{addresses, codes}, nil
	}
	return nil, fmt.Errorf("memnode: unknown query method %q", call.Method)
}

func (n *Node) registerIdentity(args []any) error {
	if len(args) != 3 {
		return fmt.Errorf("memnode: registerIdentity wants 3 args, got %d", len(args))
	}
	idHash, _ := args[0].(string)
	address, _ := args[1].(string)
	class, _ := args[2].(string)
	if idHash == "" || address == "" || class == "" {
		return fmt.Errorf("memnode: registerIdentity has empty arguments")
	}
	key := class + "|" + idHash
	if _, exists := n.identities[key]; exists {
		return &ledger.RevertError{Reason: "identity already registered"}
	}
	n.identities[key] = address
	return nil
}

func (n *Node) requestDelegation(args []any) error {
	if len(args) != 3 {
		return fmt.Errorf("memnode: requestDelegation wants 3 args, got %d", len(args))
	}
	subjectHash, _ := args[0].(string)
	consumerHash, _ := args[1].(string)
	providerHash, _ := args[2].(string)

	if _, ok := n.identities["debtor|"+subjectHash]; !ok {
		return &ledger.RevertError{Reason: "subject identity not registered"}
	}
	consumerAddr, ok := n.identities["creditor|"+consumerHash]
	if !ok {
		return &ledger.RevertError{Reason: "consumer identity not registered"}
	}
	if _, ok := n.identities["creditor|"+providerHash]; !ok {
		return &ledger.RevertError{Reason: "provider identity not registered"}
	}

	key := subjectHash + "|" + providerHash
	if d, exists := n.delegations[key]; exists && d.status != ledger.StatusNone {
		return &ledger.RevertError{Reason: "delegation request already exists"}
	}

	entry := &logEntry{creditorAddress: consumerAddr, status: ledger.StatusPending}
	n.delegations[key] = &delegation{
		status:   ledger.StatusPending,
		consumer: consumerHash,
		logEntry: entry,
	}
	n.accessLogs[subjectHash] = append(n.accessLogs[subjectHash], entry)
	return nil
}

func (n *Node) decideDelegation(args []any) error {
	if len(args) != 4 {
		return fmt.Errorf("memnode: decideDelegation wants 4 args, got %d", len(args))
	}
	subjectHash, _ := args[0].(string)
	consumerHash, _ := args[1].(string)
	providerHash, _ := args[2].(string)
	outcome, ok := args[3].(uint64)
	if !ok {
		return fmt.Errorf("memnode: decideDelegation outcome must be uint64")
	}

	d, exists := n.delegations[subjectHash+"|"+providerHash]
	if !exists || d.status != ledger.StatusPending {
		return &ledger.RevertError{Reason: "delegation request is not pending"}
	}
	if d.consumer != consumerHash {
		return &ledger.RevertError{Reason: "decision does not match the pending consumer"}
	}

	switch outcome {
	case 0:
		d.status = ledger.StatusRejected
	case 1:
		d.status = ledger.StatusApproved
	default:
		return &ledger.RevertError{Reason: "invalid decision outcome"}
	}
	d.logEntry.status = d.status
	return nil
}

func (n *Node) linkSubjectToHolder(args []any) ([]ledger.Event, error) {
	subjectHash, holderHash, err := twoStrings(args)
	if err != nil {
		return nil, err
	}
	if _, ok := n.identities["debtor|"+subjectHash]; !ok {
		return nil, &ledger.RevertError{Reason: "subject identity not registered"}
	}
	holderAddr, ok := n.identities["creditor|"+holderHash]
	if !ok {
		return nil, &ledger.RevertError{Reason: "holder identity not registered"}
	}
	key := subjectHash + "|" + holderHash
	if n.links[key] {
		return nil, &ledger.RevertError{Reason: "subject already linked to holder"}
	}
	n.links[key] = true
	return []ledger.Event{{
		Name: "SubjectLinked",
		Attributes: map[string]string{
			"subject":        subjectHash,
			"holder":         holderHash,
			"holder_address": holderAddr,
		},
	}}, nil
}

func (n *Node) purchaseEntitlement(args []any) ([]ledger.Event, error) {
	buyerHash, packageID, err := twoStrings(args)
	if err != nil {
		return nil, err
	}
	if _, ok := n.identities["creditor|"+buyerHash]; !ok {
		return nil, &ledger.RevertError{Reason: "buyer identity not registered"}
	}
	key := buyerHash + "|" + packageID
	if n.entitlements[key] {
		return nil, &ledger.RevertError{Reason: "entitlement already purchased"}
	}
	n.entitlements[key] = true
	return []ledger.Event{{
		Name: "EntitlementPurchased",
		Attributes: map[string]string{
			"buyer":   buyerHash,
			"package": packageID,
		},
	}}, nil
}

func twoStrings(args []any) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("memnode: want 2 args, got %d", len(args))
	}
	a, aok := args[0].(string)
	b, bok := args[1].(string)
	if !aok || !bok {
		return "", "", fmt.Errorf("memnode: arguments must be strings")
	}
	return a, b, nil
}

func newTxHash() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return "0x" + hex.EncodeToString(buf)
}
