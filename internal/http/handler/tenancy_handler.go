package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/propfolio/propfolio/internal/domain"
	"github.com/propfolio/propfolio/internal/http/response"
	"github.com/propfolio/propfolio/internal/observability"
	"github.com/propfolio/propfolio/internal/repository"
	"github.com/propfolio/propfolio/internal/service"
)

// TenancyHandler serves the plain CRUD endpoints for properties,
// tenants and leases. All rows are scoped to the authenticated owner.
type TenancyHandler struct {
	tenancy *repository.TenancyRepository
}

func NewTenancyHandler(tenancy *repository.TenancyRepository) *TenancyHandler {
	return &TenancyHandler{tenancy: tenancy}
}

type propertyRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"required,max=512"`
	City    string `json:"city" validate:"max=128"`
	State   string `json:"state" validate:"max=64"`
	Zip     string `json:"zip" validate:"max=16"`
	Units   int    `json:"units" validate:"omitempty,min=1"`
}

type propertyUpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=255"`
	Address *string `json:"address" validate:"omitempty,max=512"`
	City    *string `json:"city" validate:"omitempty,max=128"`
	State   *string `json:"state" validate:"omitempty,max=64"`
	Zip     *string `json:"zip" validate:"omitempty,max=16"`
	Units   *int    `json:"units" validate:"omitempty,min=1"`
}

func (h *TenancyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req propertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	units := req.Units
	if units == 0 {
		units = 1
	}
	property := &domain.Property{
		OwnerID: userID,
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Units:   units,
	}
	if err := h.tenancy.Properties.Create(r.Context(), property); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.AuditActor(r, "property.create", userID, "property_id", property.ID)
	response.JSON(w, r, http.StatusCreated, property)
}

func (h *TenancyHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	properties, err := h.tenancy.Properties.ListForOwner(r.Context(), userID, nil, "")
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, properties)
}

func (h *TenancyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "property_id")
	if !ok {
		return
	}
	property, err := h.tenancy.Properties.FindForOwner(r.Context(), userID, id)
	if err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	response.JSON(w, r, http.StatusOK, property)
}

func (h *TenancyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "property_id")
	if !ok {
		return
	}
	var req propertyUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fields := map[string]any{}
	setIf(fields, "name", req.Name)
	setIf(fields, "address", req.Address)
	setIf(fields, "city", req.City)
	setIf(fields, "state", req.State)
	setIf(fields, "zip", req.Zip)
	setIf(fields, "units", req.Units)
	if len(fields) == 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "no fields to update", nil)
		return
	}
	if err := h.tenancy.Properties.UpdateForOwner(r.Context(), userID, id, fields); err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	property, err := h.tenancy.Properties.FindForOwner(r.Context(), userID, id)
	if err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	observability.AuditActor(r, "property.update", userID, "property_id", id)
	response.JSON(w, r, http.StatusOK, property)
}

func (h *TenancyHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "property_id")
	if !ok {
		return
	}
	if err := h.tenancy.Properties.DeleteForOwner(r.Context(), userID, id); err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	observability.AuditActor(r, "property.delete", userID, "property_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

type tenantRequest struct {
	PropertyID uint   `json:"property_id" validate:"required"`
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"omitempty,email,max=255"`
	Phone      string `json:"phone" validate:"max=32"`
}

type tenantUpdateRequest struct {
	PropertyID *uint   `json:"property_id"`
	Name       *string `json:"name" validate:"omitempty,max=255"`
	Email      *string `json:"email" validate:"omitempty,email,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
}

func (h *TenancyHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req tenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	exists, err := h.tenancy.Properties.ExistsForOwner(r.Context(), userID, req.PropertyID)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	if !exists {
		response.ServiceError(w, r, service.ErrNotFound)
		return
	}
	tenant := &domain.Tenant{
		OwnerID:    userID,
		PropertyID: req.PropertyID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
	}
	if err := h.tenancy.Tenants.Create(r.Context(), tenant); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.AuditActor(r, "tenant.create", userID, "tenant_id", tenant.ID)
	response.JSON(w, r, http.StatusCreated, tenant)
}

func (h *TenancyHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	filters := map[string]any{}
	if id, set := queryID(r, "property_id"); set {
		filters["property_id"] = id
	}
	tenants, err := h.tenancy.Tenants.ListForOwner(r.Context(), userID, filters, "")
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tenants)
}

func (h *TenancyHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "tenant_id")
	if !ok {
		return
	}
	tenant, err := h.tenancy.Tenants.FindForOwner(r.Context(), userID, id)
	if err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	response.JSON(w, r, http.StatusOK, tenant)
}

func (h *TenancyHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "tenant_id")
	if !ok {
		return
	}
	var req tenantUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fields := map[string]any{}
	setIf(fields, "name", req.Name)
	setIf(fields, "email", req.Email)
	setIf(fields, "phone", req.Phone)
	if req.PropertyID != nil {
		exists, err := h.tenancy.Properties.ExistsForOwner(r.Context(), userID, *req.PropertyID)
		if err != nil {
			response.ServiceError(w, r, err)
			return
		}
		if !exists {
			response.ServiceError(w, r, service.ErrNotFound)
			return
		}
		fields["property_id"] = *req.PropertyID
	}
	if len(fields) == 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "no fields to update", nil)
		return
	}
	if err := h.tenancy.Tenants.UpdateForOwner(r.Context(), userID, id, fields); err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	tenant, err := h.tenancy.Tenants.FindForOwner(r.Context(), userID, id)
	if err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	observability.AuditActor(r, "tenant.update", userID, "tenant_id", id)
	response.JSON(w, r, http.StatusOK, tenant)
}

func (h *TenancyHandler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "tenant_id")
	if !ok {
		return
	}
	if err := h.tenancy.Tenants.DeleteForOwner(r.Context(), userID, id); err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	observability.AuditActor(r, "tenant.delete", userID, "tenant_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

type leaseRequest struct {
	PropertyID  uint            `json:"property_id" validate:"required"`
	TenantID    uint            `json:"tenant_id" validate:"required"`
	StartDate   time.Time       `json:"start_date" validate:"required"`
	EndDate     time.Time       `json:"end_date" validate:"required"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	Deposit     decimal.Decimal `json:"deposit"`
	Status      string          `json:"status"`
}

type leaseUpdateRequest struct {
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
	MonthlyRent *decimal.Decimal `json:"monthly_rent"`
	Deposit     *decimal.Decimal `json:"deposit"`
	Status      *string          `json:"status"`
}

func (h *TenancyHandler) CreateLease(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req leaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.EndDate.After(req.StartDate) {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "end_date must be after start_date", nil)
		return
	}
	if req.MonthlyRent.IsNegative() || req.MonthlyRent.IsZero() {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "monthly_rent must be positive", nil)
		return
	}
	status := domain.LeaseStatus(req.Status)
	if status == "" {
		status = domain.LeaseStatusActive
	}
	if !leaseStatusValid(status) {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "unknown lease status", nil)
		return
	}
	propertyOK, err := h.tenancy.Properties.ExistsForOwner(r.Context(), userID, req.PropertyID)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	tenantOK, err := h.tenancy.Tenants.ExistsForOwner(r.Context(), userID, req.TenantID)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	if !propertyOK || !tenantOK {
		response.ServiceError(w, r, service.ErrNotFound)
		return
	}
	lease := &domain.Lease{
		OwnerID:     userID,
		PropertyID:  req.PropertyID,
		TenantID:    req.TenantID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		MonthlyRent: req.MonthlyRent,
		Deposit:     req.Deposit,
		Status:      status,
	}
	if err := h.tenancy.Leases.Create(r.Context(), lease); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.AuditActor(r, "lease.create", userID, "lease_id", lease.ID)
	response.JSON(w, r, http.StatusCreated, lease)
}

func (h *TenancyHandler) ListLeases(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	filters := map[string]any{}
	if id, set := queryID(r, "property_id"); set {
		filters["property_id"] = id
	}
	if id, set := queryID(r, "tenant_id"); set {
		filters["tenant_id"] = id
	}
	leases, err := h.tenancy.Leases.ListForOwner(r.Context(), userID, filters, "")
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, leases)
}

func (h *TenancyHandler) GetLease(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "lease_id")
	if !ok {
		return
	}
	lease, err := h.tenancy.Leases.FindForOwner(r.Context(), userID, id)
	if err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	response.JSON(w, r, http.StatusOK, lease)
}

func (h *TenancyHandler) UpdateLease(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "lease_id")
	if !ok {
		return
	}
	var req leaseUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fields := map[string]any{}
	setIf(fields, "start_date", req.StartDate)
	setIf(fields, "end_date", req.EndDate)
	setIf(fields, "monthly_rent", req.MonthlyRent)
	setIf(fields, "deposit", req.Deposit)
	if req.Status != nil {
		status := domain.LeaseStatus(*req.Status)
		if !leaseStatusValid(status) {
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "unknown lease status", nil)
			return
		}
		fields["status"] = status
	}
	if len(fields) == 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "no fields to update", nil)
		return
	}
	if err := h.tenancy.Leases.UpdateForOwner(r.Context(), userID, id, fields); err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	lease, err := h.tenancy.Leases.FindForOwner(r.Context(), userID, id)
	if err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	observability.AuditActor(r, "lease.update", userID, "lease_id", id)
	response.JSON(w, r, http.StatusOK, lease)
}

func (h *TenancyHandler) DeleteLease(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "lease_id")
	if !ok {
		return
	}
	if err := h.tenancy.Leases.DeleteForOwner(r.Context(), userID, id); err != nil {
		response.ServiceError(w, r, notFoundAs(err))
		return
	}
	observability.AuditActor(r, "lease.delete", userID, "lease_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func leaseStatusValid(s domain.LeaseStatus) bool {
	switch s {
	case domain.LeaseStatusActive, domain.LeaseStatusExpired, domain.LeaseStatusTerminated:
		return true
	}
	return false
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uint, bool) {
	id, err := parseID(chi.URLParam(r, param))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid "+param, nil)
		return 0, false
	}
	return id, true
}
