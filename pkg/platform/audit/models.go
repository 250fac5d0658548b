// Package audit captures compliance-relevant actions taken through the
// engine. Events are transport-agnostic so stores and sinks can fan out.
// Subject identifiers are carried hashed, never raw, and private key
// material never enters an event.
package audit

import (
	"context"
	"time"
)

// Action names one auditable operation.
type Action string

const (
	ActionIdentityRegistered   Action = "identity_registered"
	ActionDelegationRequested  Action = "delegation_requested"
	ActionDelegationDecided    Action = "delegation_decided"
	ActionDelegationChecked    Action = "delegation_status_checked"
	ActionAccessLogViewed      Action = "access_log_viewed"
	ActionEntitlementPurchased Action = "entitlement_purchased"
	ActionHolderLinked         Action = "holder_linked"
)

// Event is emitted from domain logic to capture one key action.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// SubjectIDHash is the Keccak-256 digest of the subject identifier, the
	// same digest the ledger sees. Raw identifiers are never stored.
	SubjectIDHash string `json:"subject_id_hash,omitempty"`
	// ActorID identifies the calling institution when known.
	ActorID string `json:"actor_id,omitempty"`
	// TxHash links the event to the finalized ledger transaction when the
	// action produced one.
	TxHash    string `json:"tx_hash,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Store persists audit events. Implementations are append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is the write side handed to domain services. Emit must never block
// a business operation on audit delivery.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}
