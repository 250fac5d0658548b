package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/delegation/service"
	"custodia/internal/ledger"
	"custodia/internal/platform/metrics"
	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Service defines the orchestrator operations the HTTP surface exposes.
type Service interface {
	RegisterIdentity(ctx context.Context, externalID string, class id.IdentityClass) (service.RegisterResult, error)
	RequestDelegation(ctx context.Context, subjectID, consumerID, providerID string) (ledger.TxResult, error)
	DecideDelegation(ctx context.Context, subjectID, consumerID, providerID string, approve bool) (service.DecisionResult, error)
	DelegationStatus(ctx context.Context, subjectID, providerID string) (ledger.Status, error)
	AccessLog(ctx context.Context, subjectID string) ([]ledger.AccessLogEntry, error)
	PurchaseEntitlement(ctx context.Context, buyerID, packageID string) (ledger.TxResult, error)
	LinkSubjectToHolder(ctx context.Context, subjectID, holderID string) (ledger.TxResult, error)
}

type registerIdentityRequest struct {
	ExternalID string `json:"external_id"`
	Class      string `json:"class"`
}

type registerIdentityResponse struct {
	Address     string `json:"address"`
	TxHash      string `json:"tx_hash"`
	ExplorerURL string `json:"explorer_url"`
}

type delegationRequest struct {
	SubjectID  string `json:"subject_id"`
	ConsumerID string `json:"consumer_id"`
	ProviderID string `json:"provider_id"`
}

type decisionRequest struct {
	SubjectID  string `json:"subject_id"`
	ConsumerID string `json:"consumer_id"`
	ProviderID string `json:"provider_id"`
	Approve    bool   `json:"approve"`
}

type decisionResponse struct {
	Status      string `json:"status"`
	TxHash      string `json:"tx_hash"`
	ExplorerURL string `json:"explorer_url"`
}

type statusResponse struct {
	SubjectID  string `json:"subject_id"`
	ProviderID string `json:"provider_id"`
	Status     string `json:"status"`
}

type txResponse struct {
	TxHash      string `json:"tx_hash"`
	ExplorerURL string `json:"explorer_url"`
}

type accessLogEntry struct {
	CreditorAddress string `json:"creditor_address"`
	Status          string `json:"status"`
}

type accessLogResponse struct {
	SubjectID string           `json:"subject_id"`
	Entries   []accessLogEntry `json:"entries"`
}

type entitlementRequest struct {
	BuyerID   string `json:"buyer_id"`
	PackageID string `json:"package_id"`
}

type linkRequest struct {
	SubjectID string `json:"subject_id"`
	HolderID  string `json:"holder_id"`
}

// Handler handles delegation and custody endpoints.
type Handler struct {
	logger       *slog.Logger
	delegation   Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new delegation Handler.
func New(
	delegation Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		delegation:   delegation,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the delegation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics))
	if h.jwtValidator != nil {
		router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	}
	router.Post("/identities", h.handleRegisterIdentity)
	router.Post("/delegations", h.handleRequestDelegation)
	router.Post("/delegations/decision", h.handleDecideDelegation)
	router.Get("/delegations/status", h.handleDelegationStatus)
	router.Get("/subjects/{subjectID}/access-log", h.handleAccessLog)
	router.Post("/entitlements", h.handlePurchaseEntitlement)
	router.Post("/holders/link", h.handleLinkSubject)

	r.Mount("/", router)
}

// handleRegisterIdentity provisions a key pair and anchors the identity.
func (h *Handler) handleRegisterIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req registerIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid register identity request", requestID, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	class, err := id.ParseIdentityClass(req.Class)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.delegation.RegisterIdentity(ctx, req.ExternalID, class)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to register identity", requestID, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, registerIdentityResponse{
		Address:     result.Address,
		TxHash:      result.TxHash,
		ExplorerURL: result.ExplorerURL,
	})
}

func (h *Handler) handleRequestDelegation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req delegationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid delegation request", requestID, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	tx, err := h.delegation.RequestDelegation(ctx, req.SubjectID, req.ConsumerID, req.ProviderID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to request delegation", requestID, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, txResponse{
		TxHash:      tx.TxHash,
		ExplorerURL: tx.ExplorerURL,
	})
}

func (h *Handler) handleDecideDelegation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid decision request", requestID, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.delegation.DecideDelegation(ctx, req.SubjectID, req.ConsumerID, req.ProviderID, req.Approve)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to decide delegation", requestID, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, decisionResponse{
		Status:      result.Status.String(),
		TxHash:      result.TxHash,
		ExplorerURL: result.ExplorerURL,
	})
}

func (h *Handler) handleDelegationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	subjectID := r.URL.Query().Get("subject")
	providerID := r.URL.Query().Get("provider")
	if subjectID == "" || providerID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "subject and provider query parameters are required"))
		return
	}

	status, err := h.delegation.DelegationStatus(ctx, subjectID, providerID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to read delegation status", requestID, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, statusResponse{
		SubjectID:  subjectID,
		ProviderID: providerID,
		Status:     status.String(),
	})
}

func (h *Handler) handleAccessLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	subjectID := chi.URLParam(r, "subjectID")
	if subjectID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "subject identifier is required"))
		return
	}

	entries, err := h.delegation.AccessLog(ctx, subjectID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to read access log", requestID, err)
		return
	}

	resp := accessLogResponse{
		SubjectID: subjectID,
		Entries:   make([]accessLogEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, accessLogEntry{
			CreditorAddress: e.CreditorAddress,
			Status:          e.Status.String(),
		})
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePurchaseEntitlement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req entitlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid entitlement request", requestID, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	tx, err := h.delegation.PurchaseEntitlement(ctx, req.BuyerID, req.PackageID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to purchase entitlement", requestID, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, txResponse{
		TxHash:      tx.TxHash,
		ExplorerURL: tx.ExplorerURL,
	})
}

func (h *Handler) handleLinkSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid link request", requestID, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	tx, err := h.delegation.LinkSubjectToHolder(ctx, req.SubjectID, req.HolderID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to link subject", requestID, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, txResponse{
		TxHash:      tx.TxHash,
		ExplorerURL: tx.ExplorerURL,
	})
}

func (h *Handler) warn(ctx context.Context, msg, requestID string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.WarnContext(ctx, msg,
		"request_id", requestID,
		"error", err.Error(),
	)
}

// writeServiceError maps orchestrator failures to HTTP responses. Expected
// domain failures pass through with their own status; anything unclassified
// is logged and masked as an internal error.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg, requestID string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest,
		dErrors.CodePreconditionFailed, dErrors.CodeAlreadyExists,
		dErrors.CodeNotFound, dErrors.CodeLedgerUnavailable:
		h.warn(ctx, msg, requestID, err)
		shared.WriteError(w, err)
		return
	}
	if h.logger != nil {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
	}
	shared.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
}
