package service

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/custody"
	"custodia/internal/custody/secrets"
	"custodia/internal/envelope"
	"custodia/internal/keys"
	"custodia/internal/ledger"
	"custodia/internal/ledger/memnode"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
)

const (
	subjectNIK   = "5101010"
	consumerCode = "54321"
	providerCode = "12345"
)

// captureEmitter records emitted audit events for assertions.
type captureEmitter struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *captureEmitter) Emit(_ context.Context, event audit.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureEmitter) actions() []audit.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]audit.Action, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	service *Service
	secrets *secrets.MemoryStore
	custody *custody.Store
	cipher  *envelope.Cipher
	auditor *captureEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	secret := make([]byte, envelope.KeyLen)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	cipher, err := envelope.New(secret)
	require.NoError(t, err)

	secretStore := secrets.NewMemoryStore()
	custodyStore := custody.NewStore(secretStore, "secret", "data/pk")
	gateway := ledger.NewGateway(memnode.New(), "0xc0ffee", "https://explorer.local/tx/", time.Second, nil, nil)
	auditor := &captureEmitter{}

	return &fixture{
		service: New(gateway, custodyStore, cipher, auditor, nil, nil),
		secrets: secretStore,
		custody: custodyStore,
		cipher:  cipher,
		auditor: auditor,
	}
}

func (f *fixture) registerAll(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := f.service.RegisterIdentity(ctx, subjectNIK, id.ClassDebtor)
	require.NoError(t, err)
	_, err = f.service.RegisterIdentity(ctx, consumerCode, id.ClassCreditor)
	require.NoError(t, err)
	_, err = f.service.RegisterIdentity(ctx, providerCode, id.ClassCreditor)
	require.NoError(t, err)
}

func TestRegisterIdentity_HappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.service.RegisterIdentity(ctx, subjectNIK, id.ClassDebtor)
	require.NoError(t, err)

	assert.True(t, keys.IsValidAddress(result.Address))
	assert.NotEmpty(t, result.TxHash)
	assert.Equal(t, "https://explorer.local/tx/"+result.TxHash, result.ExplorerURL)

	// Exactly one custody record at data/pk/debtor/<address>, and the sealed
	// key opens back to the private key that derives the returned address.
	record, err := f.secrets.Read(ctx, "secret", "data/pk/debtor/"+result.Address)
	require.NoError(t, err)
	require.NotNil(t, record)

	sealed, err := f.custody.RetrieveKey(ctx, result.Address, id.ClassDebtor)
	require.NoError(t, err)
	privHex, err := f.cipher.Open(sealed)
	require.NoError(t, err)
	priv, err := keys.ParsePrivateKeyHex(privHex)
	require.NoError(t, err)
	assert.Equal(t, result.Address, keys.AddressFromPrivateKey(priv))

	assert.Equal(t, []audit.Action{audit.ActionIdentityRegistered}, f.auditor.actions())
}

func TestRegisterIdentity_DuplicateFailsWithPrecondition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.RegisterIdentity(ctx, subjectNIK, id.ClassDebtor)
	require.NoError(t, err)

	_, err = f.service.RegisterIdentity(ctx, subjectNIK, id.ClassDebtor)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func TestRegisterIdentity_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.RegisterIdentity(ctx, "", id.ClassDebtor)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = f.service.RegisterIdentity(ctx, subjectNIK, id.IdentityClass("bank"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

// failingGateway rejects every ledger write.
type failingGateway struct {
	Gateway
	err error
}

func (f *failingGateway) RegisterIdentity(context.Context, string, id.IdentityClass, string) (ledger.TxResult, error) {
	return ledger.TxResult{}, f.err
}

func TestRegisterIdentity_NoCustodyWriteAfterLedgerFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ledgerErr := dErrors.Wrap(errors.New("boom"), dErrors.CodeLedgerUnavailable, "node unreachable")
	svc := New(&failingGateway{err: ledgerErr}, f.custody, f.cipher, f.auditor, nil, nil)

	_, err := svc.RegisterIdentity(ctx, subjectNIK, id.ClassDebtor)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLedgerUnavailable))

	// Fail fast: the secret store must stay empty, no orphaned secrets.
	assert.Empty(t, f.auditor.actions())
}

func TestRequestDelegation_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registerAll(t, ctx)

	// No prior request: status is NONE.
	status, err := f.service.DelegationStatus(ctx, subjectNIK, providerCode)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusNone, status)

	tx, err := f.service.RequestDelegation(ctx, subjectNIK, consumerCode, providerCode)
	require.NoError(t, err)
	assert.NotEmpty(t, tx.TxHash)

	status, err = f.service.DelegationStatus(ctx, subjectNIK, providerCode)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, status)

	// Immediately repeating the same request fails.
	_, err = f.service.RequestDelegation(ctx, subjectNIK, consumerCode, providerCode)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func TestDecideDelegation_ApproveAndRejectAreTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registerAll(t, ctx)

	_, err := f.service.RequestDelegation(ctx, subjectNIK, consumerCode, providerCode)
	require.NoError(t, err)

	decision, err := f.service.DecideDelegation(ctx, subjectNIK, consumerCode, providerCode, true)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusApproved, decision.Status)
	assert.NotEmpty(t, decision.TxHash)

	status, err := f.service.DelegationStatus(ctx, subjectNIK, providerCode)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusApproved, status)

	// Second decision on a terminal request must fail, not apply.
	_, err = f.service.DecideDelegation(ctx, subjectNIK, consumerCode, providerCode, false)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func TestDecideDelegation_WithoutPendingRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registerAll(t, ctx)

	_, err := f.service.DecideDelegation(ctx, subjectNIK, consumerCode, providerCode, true)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func TestAccessLog_NoActivityIsNotAnError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registerAll(t, ctx)

	entries, err := f.service.AccessLog(ctx, subjectNIK)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestAccessLog_ReflectsDecisions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registerAll(t, ctx)

	_, err := f.service.RequestDelegation(ctx, subjectNIK, consumerCode, providerCode)
	require.NoError(t, err)
	_, err = f.service.DecideDelegation(ctx, subjectNIK, consumerCode, providerCode, false)
	require.NoError(t, err)

	entries, err := f.service.AccessLog(ctx, subjectNIK)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.StatusRejected, entries[0].Status)
}

func TestPurchaseEntitlementAndLinkSubject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registerAll(t, ctx)

	tx, err := f.service.PurchaseEntitlement(ctx, consumerCode, "pkg-credit-report")
	require.NoError(t, err)
	assert.NotEmpty(t, tx.TxHash)

	tx, err = f.service.LinkSubjectToHolder(ctx, subjectNIK, providerCode)
	require.NoError(t, err)
	assert.NotEmpty(t, tx.TxHash)

	actions := f.auditor.actions()
	assert.Contains(t, actions, audit.ActionEntitlementPurchased)
	assert.Contains(t, actions, audit.ActionHolderLinked)
}

func TestAuditEvents_CarryHashedSubjectOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registerAll(t, ctx)

	_, err := f.service.RequestDelegation(ctx, subjectNIK, consumerCode, providerCode)
	require.NoError(t, err)

	for _, event := range f.auditor.events {
		assert.NotEqual(t, subjectNIK, event.SubjectIDHash, "raw subject identifier must never be audited")
		if event.SubjectIDHash != "" {
			assert.Equal(t, ledger.KeyHash(subjectNIK), event.SubjectIDHash)
		}
	}
}
