package handler

//go:generate mockgen -source=handler.go -destination=mocks/mock_service.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodia/internal/delegation/handler/mocks"
	"custodia/internal/delegation/service"
	"custodia/internal/ledger"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

type DelegationHandlerSuite struct {
	suite.Suite
}

func TestDelegationHandlerSuite(t *testing.T) {
	suite.Run(t, new(DelegationHandlerSuite))
}

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, logger, nil, nil)
	r := chi.NewRouter()
	h.Register(r)
	return r, mockService
}

func doJSON(t *testing.T, r chi.Router, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (s *DelegationHandlerSuite) TestRegisterIdentity() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().RegisterIdentity(gomock.Any(), "5101010", id.ClassDebtor).
		Return(service.RegisterResult{
			Address:     "0x1111111111111111111111111111111111111111",
			TxHash:      "0xabc",
			ExplorerURL: "https://explorer.local/tx/0xabc",
		}, nil)

	w := doJSON(s.T(), r, http.MethodPost, "/identities", registerIdentityRequest{
		ExternalID: "5101010",
		Class:      "debtor",
	})

	assert.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	var resp registerIdentityResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "0x1111111111111111111111111111111111111111", resp.Address)
	assert.Equal(s.T(), "0xabc", resp.TxHash)
	assert.Equal(s.T(), "https://explorer.local/tx/0xabc", resp.ExplorerURL)
}

func (s *DelegationHandlerSuite) TestRegisterIdentity_UnknownClass() {
	r, _ := newTestRouter(s.T())

	w := doJSON(s.T(), r, http.MethodPost, "/identities", registerIdentityRequest{
		ExternalID: "5101010",
		Class:      "bank",
	})

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodeValidation), resp["error"])
}

func (s *DelegationHandlerSuite) TestRegisterIdentity_MalformedBody() {
	r, _ := newTestRouter(s.T())

	req := httptest.NewRequest(http.MethodPost, "/identities", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *DelegationHandlerSuite) TestRequestDelegation_Conflict() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().RequestDelegation(gomock.Any(), "5101010", "54321", "12345").
		Return(ledger.TxResult{}, dErrors.New(dErrors.CodePreconditionFailed, "delegation request already exists"))

	w := doJSON(s.T(), r, http.MethodPost, "/delegations", delegationRequest{
		SubjectID:  "5101010",
		ConsumerID: "54321",
		ProviderID: "12345",
	})

	assert.Equal(s.T(), http.StatusConflict, w.Code)
	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodePreconditionFailed), resp["error"])
	assert.Equal(s.T(), "delegation request already exists", resp["message"])
}

func (s *DelegationHandlerSuite) TestDecideDelegation() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().DecideDelegation(gomock.Any(), "5101010", "54321", "12345", true).
		Return(service.DecisionResult{
			Status:      ledger.StatusApproved,
			TxHash:      "0xdef",
			ExplorerURL: "https://explorer.local/tx/0xdef",
		}, nil)

	w := doJSON(s.T(), r, http.MethodPost, "/delegations/decision", decisionRequest{
		SubjectID:  "5101010",
		ConsumerID: "54321",
		ProviderID: "12345",
		Approve:    true,
	})

	assert.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	var resp decisionResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "APPROVED", resp.Status)
	assert.Equal(s.T(), "0xdef", resp.TxHash)
}

func (s *DelegationHandlerSuite) TestDelegationStatus() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().DelegationStatus(gomock.Any(), "5101010", "12345").
		Return(ledger.StatusPending, nil)

	w := doJSON(s.T(), r, http.MethodGet, "/delegations/status?subject=5101010&provider=12345", nil)

	assert.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	var resp statusResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "PENDING", resp.Status)
	assert.Equal(s.T(), "5101010", resp.SubjectID)
}

func (s *DelegationHandlerSuite) TestDelegationStatus_MissingParams() {
	r, _ := newTestRouter(s.T())

	w := doJSON(s.T(), r, http.MethodGet, "/delegations/status?subject=5101010", nil)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *DelegationHandlerSuite) TestAccessLog() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().AccessLog(gomock.Any(), "5101010").
		Return([]ledger.AccessLogEntry{
			{CreditorAddress: "0x2222222222222222222222222222222222222222", Status: ledger.StatusRejected},
		}, nil)

	w := doJSON(s.T(), r, http.MethodGet, "/subjects/5101010/access-log", nil)

	assert.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	var resp accessLogResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "5101010", resp.SubjectID)
	require.Len(s.T(), resp.Entries, 1)
	assert.Equal(s.T(), "REJECTED", resp.Entries[0].Status)
}

func (s *DelegationHandlerSuite) TestAccessLog_EmptyHistory() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().AccessLog(gomock.Any(), "5101010").
		Return([]ledger.AccessLogEntry{}, nil)

	w := doJSON(s.T(), r, http.MethodGet, "/subjects/5101010/access-log", nil)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp accessLogResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(s.T(), resp.Entries)
	assert.Empty(s.T(), resp.Entries)
}

func (s *DelegationHandlerSuite) TestPurchaseEntitlement() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().PurchaseEntitlement(gomock.Any(), "54321", "pkg-credit-report").
		Return(ledger.TxResult{TxHash: "0xfee", ExplorerURL: "https://explorer.local/tx/0xfee"}, nil)

	w := doJSON(s.T(), r, http.MethodPost, "/entitlements", entitlementRequest{
		BuyerID:   "54321",
		PackageID: "pkg-credit-report",
	})

	assert.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
}

func (s *DelegationHandlerSuite) TestLinkSubject() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().LinkSubjectToHolder(gomock.Any(), "5101010", "12345").
		Return(ledger.TxResult{TxHash: "0x123", ExplorerURL: "https://explorer.local/tx/0x123"}, nil)

	w := doJSON(s.T(), r, http.MethodPost, "/holders/link", linkRequest{
		SubjectID: "5101010",
		HolderID:  "12345",
	})

	assert.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
}

func (s *DelegationHandlerSuite) TestUnclassifiedErrorIsMasked() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().RequestDelegation(gomock.Any(), "5101010", "54321", "12345").
		Return(ledger.TxResult{}, errors.New("pq: connection reset"))

	w := doJSON(s.T(), r, http.MethodPost, "/delegations", delegationRequest{
		SubjectID:  "5101010",
		ConsumerID: "54321",
		ProviderID: "12345",
	})

	assert.Equal(s.T(), http.StatusInternalServerError, w.Code)
	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodeInternal), resp["error"])
	assert.NotContains(s.T(), resp["message"], "pq:")
}

func (s *DelegationHandlerSuite) TestLedgerUnavailableMapsTo503() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().DelegationStatus(gomock.Any(), "5101010", "12345").
		Return(ledger.StatusNone, dErrors.New(dErrors.CodeLedgerUnavailable, "ledger node unreachable"))

	w := doJSON(s.T(), r, http.MethodGet, "/delegations/status?subject=5101010&provider=12345", nil)

	assert.Equal(s.T(), http.StatusServiceUnavailable, w.Code)
}
