package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/propfolio/propfolio/internal/domain"
	"github.com/propfolio/propfolio/internal/http/response"
	"github.com/propfolio/propfolio/internal/observability"
	"github.com/propfolio/propfolio/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentRequest struct {
	TenantID   uint            `json:"tenant_id" validate:"required"`
	PropertyID uint            `json:"property_id" validate:"required"`
	LeaseID    uint            `json:"lease_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Type       string          `json:"type" validate:"required"`
	Method     string          `json:"method" validate:"required"`
	Status     string          `json:"status"`
	PaidOn     *time.Time      `json:"paid_on"`
	Notes      string          `json:"notes" validate:"max=1024"`
}

type updatePaymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Type   *string          `json:"type"`
	Method *string          `json:"method"`
	Status *string          `json:"status"`
	PaidOn *time.Time       `json:"paid_on"`
	Notes  *string          `json:"notes"`
}

type paymentResponse struct {
	Payment      *domain.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret,omitempty"`
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req createPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := service.CreatePaymentInput{
		TenantID:       req.TenantID,
		PropertyID:     req.PropertyID,
		LeaseID:        req.LeaseID,
		Amount:         req.Amount,
		Type:           domain.PaymentType(req.Type),
		Method:         domain.PaymentMethod(req.Method),
		Status:         domain.PaymentStatus(req.Status),
		Notes:          req.Notes,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	if req.PaidOn != nil {
		in.PaidOn = *req.PaidOn
	}
	result, err := h.payments.Create(r.Context(), userID, in)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.AuditActor(r, "payment.create", userID, "payment_id", result.Payment.ID, "method", result.Payment.Method)
	response.JSON(w, r, http.StatusCreated, paymentResponse{Payment: result.Payment, ClientSecret: result.ClientSecret})
}

func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "payment_id")
	if !ok {
		return
	}
	var req updatePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := service.UpdatePaymentInput{
		Amount: req.Amount,
		PaidOn: req.PaidOn,
		Notes:  req.Notes,
	}
	if req.Type != nil {
		t := domain.PaymentType(*req.Type)
		in.Type = &t
	}
	if req.Method != nil {
		m := domain.PaymentMethod(*req.Method)
		in.Method = &m
	}
	if req.Status != nil {
		s := domain.PaymentStatus(*req.Status)
		in.Status = &s
	}
	payment, err := h.payments.Update(r.Context(), userID, id, in)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.AuditActor(r, "payment.update", userID, "payment_id", id, "status", payment.Status)
	response.JSON(w, r, http.StatusOK, paymentResponse{Payment: payment})
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "payment_id")
	if !ok {
		return
	}
	if err := h.payments.Delete(r.Context(), userID, id); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.AuditActor(r, "payment.delete", userID, "payment_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "payment_id")
	if !ok {
		return
	}
	payment, err := h.payments.Get(r.Context(), userID, id)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, paymentResponse{Payment: payment})
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	in := service.ListPaymentsInput{
		Status: q.Get("status"),
		Type:   q.Get("type"),
	}
	if raw := q.Get("property_id"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			in.PropertyID = uint(v)
		}
	}
	if raw := q.Get("tenant_id"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			in.TenantID = uint(v)
		}
	}
	payments, err := h.payments.List(r.Context(), userID, in)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, payments)
}

