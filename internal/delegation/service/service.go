// Package service sequences the key generator, envelope cipher, custody
// store, and ledger gateway into the consent operations. It holds no mutable
// state between calls; the ledger is the system of record and nothing here
// caches it.
package service

import (
	"context"
	"log/slog"

	"custodia/internal/custody"
	"custodia/internal/envelope"
	"custodia/internal/keys"
	"custodia/internal/ledger"
	"custodia/internal/platform/metrics"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
)

// Gateway is the ledger surface the orchestrator drives. The concrete
// implementation lives in internal/ledger; tests substitute it freely.
type Gateway interface {
	RegisterIdentity(ctx context.Context, externalID string, class id.IdentityClass, address string) (ledger.TxResult, error)
	RequestDelegation(ctx context.Context, subjectID, consumerID, providerID string) (ledger.TxResult, error)
	DecideDelegation(ctx context.Context, subjectID, consumerID, providerID string, approve bool) (ledger.TxResult, error)
	PurchaseEntitlement(ctx context.Context, buyerID, packageID string) (ledger.TxResult, error)
	LinkSubjectToHolder(ctx context.Context, subjectID, holderID string) (ledger.TxResult, error)
	IdentityAddress(ctx context.Context, externalID string, class id.IdentityClass) (string, error)
	DelegationStatus(ctx context.Context, subjectID, providerID string) (ledger.Status, error)
	AccessLog(ctx context.Context, subjectID string) ([]ledger.AccessLogEntry, error)
}

// RegisterResult is returned once a registration transaction is final and
// the sealed key is in custody.
type RegisterResult struct {
	Address     string
	TxHash      string
	ExplorerURL string
}

// DecisionResult carries the terminal status a decision produced.
type DecisionResult struct {
	Status      ledger.Status
	TxHash      string
	ExplorerURL string
}

// Service is the delegation orchestrator.
type Service struct {
	gateway Gateway
	custody *custody.Store
	cipher  *envelope.Cipher
	auditor audit.Emitter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New wires the orchestrator. All collaborators are required except metrics
// and logger.
func New(gateway Gateway, custodyStore *custody.Store, cipher *envelope.Cipher, auditor audit.Emitter, logger *slog.Logger, m *metrics.Metrics) *Service {
	if auditor == nil {
		auditor = audit.NopEmitter{}
	}
	return &Service{
		gateway: gateway,
		custody: custodyStore,
		cipher:  cipher,
		auditor: auditor,
		logger:  logger,
		metrics: m,
	}
}

// RegisterIdentity provisions a key pair, anchors the identity on the
// ledger, then seals and stores the private key. The ledger write comes
// first: if it fails, no custody write is attempted, so a revert never
// leaves an orphaned secret behind.
func (s *Service) RegisterIdentity(ctx context.Context, externalID string, class id.IdentityClass) (RegisterResult, error) {
	op := "register_identity"
	if externalID == "" {
		return RegisterResult{}, dErrors.New(dErrors.CodeValidation, "external identifier cannot be empty")
	}
	if !class.IsValid() {
		return RegisterResult{}, dErrors.New(dErrors.CodeValidation, "identity class must be debtor or creditor")
	}

	pair, err := keys.Generate()
	if err != nil {
		return RegisterResult{}, s.fail(op, dErrors.Wrap(err, dErrors.CodeInternal, "provision key pair"))
	}

	tx, err := s.gateway.RegisterIdentity(ctx, externalID, class, pair.Address)
	if err != nil {
		return RegisterResult{}, s.fail(op, err)
	}

	sealed, err := s.cipher.Seal(pair.PrivateKeyHex)
	if err != nil {
		return RegisterResult{}, s.fail(op, dErrors.Wrap(err, dErrors.CodeInternal, "seal private key"))
	}

	// A conflict here means the ledger accepted a fresh address that already
	// has a custody record. Correct sequencing makes that impossible; the
	// check is the safety net for the narrow read-before-write race, and the
	// conflict propagates rather than overwriting the first key.
	if err := s.custody.StoreKey(ctx, pair.Address, class, sealed); err != nil {
		return RegisterResult{}, s.fail(op, err)
	}

	if s.metrics != nil {
		s.metrics.IdentitiesRegistered.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionIdentityRegistered,
		SubjectIDHash: ledger.KeyHash(externalID),
		TxHash:        tx.TxHash,
		Outcome:       class.String(),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "identity registered",
			"class", class.String(),
			"address", pair.Address,
			"tx_hash", tx.TxHash,
		)
	}
	return RegisterResult{
		Address:     pair.Address,
		TxHash:      tx.TxHash,
		ExplorerURL: tx.ExplorerURL,
	}, nil
}

// RequestDelegation opens a consent request. The ledger requires the current
// state to be NONE and reverts otherwise.
func (s *Service) RequestDelegation(ctx context.Context, subjectID, consumerID, providerID string) (ledger.TxResult, error) {
	op := "request_delegation"
	if subjectID == "" || consumerID == "" || providerID == "" {
		return ledger.TxResult{}, dErrors.New(dErrors.CodeValidation, "subject, consumer and provider identifiers are required")
	}

	tx, err := s.gateway.RequestDelegation(ctx, subjectID, consumerID, providerID)
	if err != nil {
		return ledger.TxResult{}, s.fail(op, err)
	}

	if s.metrics != nil {
		s.metrics.DelegationsRequested.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionDelegationRequested,
		SubjectIDHash: ledger.KeyHash(subjectID),
		ActorID:       ledger.KeyHash(consumerID),
		TxHash:        tx.TxHash,
	})
	return tx, nil
}

// DecideDelegation applies the subject's decision. The ledger requires the
// current state to be PENDING; terminal states are immutable and a second
// decision reverts.
func (s *Service) DecideDelegation(ctx context.Context, subjectID, consumerID, providerID string, approve bool) (DecisionResult, error) {
	op := "decide_delegation"
	if subjectID == "" || consumerID == "" || providerID == "" {
		return DecisionResult{}, dErrors.New(dErrors.CodeValidation, "subject, consumer and provider identifiers are required")
	}

	tx, err := s.gateway.DecideDelegation(ctx, subjectID, consumerID, providerID, approve)
	if err != nil {
		return DecisionResult{}, s.fail(op, err)
	}

	status := ledger.StatusRejected
	if approve {
		status = ledger.StatusApproved
	}
	if s.metrics != nil {
		s.metrics.DelegationsDecided.WithLabelValues(status.String()).Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionDelegationDecided,
		SubjectIDHash: ledger.KeyHash(subjectID),
		ActorID:       ledger.KeyHash(consumerID),
		TxHash:        tx.TxHash,
		Outcome:       status.String(),
	})
	return DecisionResult{
		Status:      status,
		TxHash:      tx.TxHash,
		ExplorerURL: tx.ExplorerURL,
	}, nil
}

// DelegationStatus is a pure read; NONE is a valid answer.
func (s *Service) DelegationStatus(ctx context.Context, subjectID, providerID string) (ledger.Status, error) {
	op := "query_delegation_status"
	if subjectID == "" || providerID == "" {
		return ledger.StatusNone, dErrors.New(dErrors.CodeValidation, "subject and provider identifiers are required")
	}

	status, err := s.gateway.DelegationStatus(ctx, subjectID, providerID)
	if err != nil {
		return ledger.StatusNone, s.fail(op, err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionDelegationChecked,
		SubjectIDHash: ledger.KeyHash(subjectID),
		Outcome:       status.String(),
	})
	return status, nil
}

// AccessLog returns the subject's on-ledger access history. Zero activity is
// a valid, common outcome and comes back as an empty slice, never an error.
func (s *Service) AccessLog(ctx context.Context, subjectID string) ([]ledger.AccessLogEntry, error) {
	op := "query_access_log"
	if subjectID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "subject identifier is required")
	}

	entries, err := s.gateway.AccessLog(ctx, subjectID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if entries == nil {
		entries = []ledger.AccessLogEntry{}
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionAccessLogViewed,
		SubjectIDHash: ledger.KeyHash(subjectID),
	})
	return entries, nil
}

// PurchaseEntitlement records a creditor buying access to a data package.
func (s *Service) PurchaseEntitlement(ctx context.Context, buyerID, packageID string) (ledger.TxResult, error) {
	op := "purchase_entitlement"
	if buyerID == "" || packageID == "" {
		return ledger.TxResult{}, dErrors.New(dErrors.CodeValidation, "buyer and package identifiers are required")
	}

	tx, err := s.gateway.PurchaseEntitlement(ctx, buyerID, packageID)
	if err != nil {
		return ledger.TxResult{}, s.fail(op, err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionEntitlementPurchased,
		ActorID: ledger.KeyHash(buyerID),
		TxHash:  tx.TxHash,
		Outcome: packageID,
	})
	return tx, nil
}

// LinkSubjectToHolder attaches a data subject to the creditor holding their
// records.
func (s *Service) LinkSubjectToHolder(ctx context.Context, subjectID, holderID string) (ledger.TxResult, error) {
	op := "link_subject_to_holder"
	if subjectID == "" || holderID == "" {
		return ledger.TxResult{}, dErrors.New(dErrors.CodeValidation, "subject and holder identifiers are required")
	}

	tx, err := s.gateway.LinkSubjectToHolder(ctx, subjectID, holderID)
	if err != nil {
		return ledger.TxResult{}, s.fail(op, err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionHolderLinked,
		SubjectIDHash: ledger.KeyHash(subjectID),
		ActorID:       ledger.KeyHash(holderID),
		TxHash:        tx.TxHash,
	})
	return tx, nil
}

// fail counts the error for the operation and returns it unchanged. No
// operation is retried here; retry policy belongs to the caller.
func (s *Service) fail(op string, err error) error {
	if s.metrics != nil {
		s.metrics.OperationErrors.WithLabelValues(op, string(dErrors.CodeOf(err))).Inc()
	}
	return err
}
