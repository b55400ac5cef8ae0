// internal/handlers/inventory.go
package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/handlers/middleware"
)

// InventoryHandler handles item and stock HTTP requests
type InventoryHandler struct {
	service          ports.InventoryService
	reports          ports.ReportingService
	defaultThreshold int
	logger           *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(
	service ports.InventoryService,
	reports ports.ReportingService,
	defaultThreshold int,
	logger *slog.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		service:          service,
		reports:          reports,
		defaultThreshold: defaultThreshold,
		logger:           logger.With(slog.String("handler", "inventory")),
	}
}

// ListItems handles GET /api/items
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := domain.ItemFilter{
		Category: domain.Category(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
		Status:   domain.StockStatus(q.Get("status")),
		Location: strings.TrimSpace(q.Get("location")),
	}

	items, err := h.service.ListItems(ctx, filter)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to list items")
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// GetItem handles GET /api/items/{id}
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to retrieve item")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// CreateItem handles POST /api/items
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to create item")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := req.ToDomain(h.defaultThreshold)
	if err := h.service.CreateItem(ctx, item, actorFrom(r)); err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to create item")
		return
	}

	respondJSON(w, http.StatusCreated, CreateItemResponse{
		ID:      item.ID,
		Message: "Item created",
	})
}

// UpdateItem handles PUT /api/items/{id}
func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to update item")
		return
	}

	item, err := h.service.UpdateItem(r.Context(), r.PathValue("id"), req.ToDomain())
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to update item")
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/{id}
func (h *InventoryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to delete item")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id":      id,
		"message": "Item deleted",
	})
}

// AdjustStock handles POST /api/items/{id}/adjust
func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to adjust stock")
		return
	}

	result, err := h.service.AdjustStock(r.Context(), req.ToDomain(r.PathValue("id"), actorFrom(r)))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to adjust stock")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// History handles GET /api/items/{id}/history
func (h *InventoryHandler) History(w http.ResponseWriter, r *http.Request) {
	order := ports.HistoryDescending
	if strings.EqualFold(r.URL.Query().Get("order"), string(ports.HistoryAscending)) {
		order = ports.HistoryAscending
	}

	entries, err := h.reports.History(r.Context(), r.PathValue("id"), order)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

func actorFrom(r *http.Request) string {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p.Actor()
}

// Request/Response DTOs

// Date accepts a calendar date ("2006-01-02") or an RFC 3339 timestamp
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		return nil
	}

	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return domain.NewValidationError("date", "expected YYYY-MM-DD or RFC 3339, got "+s)
}

func (d *Date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// CreateItemRequest represents the request body for creating an item
type CreateItemRequest struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	Model          string          `json:"model,omitempty"`
	Category       string          `json:"category"`
	Serial         string          `json:"serial,omitempty"`
	Location       string          `json:"location,omitempty"`
	Supplier       string          `json:"supplier,omitempty"`
	PurchaseDate   *Date           `json:"purchaseDate,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Photo          string          `json:"photo,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Quantity       int             `json:"quantity"`
	AlertThreshold *int            `json:"alertThreshold,omitempty"`
}

// Validate checks the fields the item itself cannot default
func (r *CreateItemRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return domain.NewValidationError("category", "is required")
	}
	return nil
}

// ToDomain converts the request to a domain item
func (r *CreateItemRequest) ToDomain(defaultThreshold int) *domain.Item {
	threshold := defaultThreshold
	if r.AlertThreshold != nil {
		threshold = *r.AlertThreshold
	}

	return &domain.Item{
		ID:             strings.TrimSpace(r.ID),
		Name:           r.Name,
		Model:          r.Model,
		Category:       domain.Category(strings.TrimSpace(r.Category)),
		Serial:         r.Serial,
		Location:       r.Location,
		Supplier:       r.Supplier,
		PurchaseDate:   r.PurchaseDate.ptr(),
		Price:          r.Price,
		Photo:          r.Photo,
		Notes:          r.Notes,
		Quantity:       r.Quantity,
		AlertThreshold: threshold,
	}
}

// CreateItemResponse is returned by POST /api/items
type CreateItemResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// UpdateItemRequest carries metadata fields only. Absent fields are kept; a
// quantity in the body has no field to land in and is dropped.
type UpdateItemRequest struct {
	Name           *string          `json:"name"`
	Model          *string          `json:"model"`
	Category       *string          `json:"category"`
	Serial         *string          `json:"serial"`
	Location       *string          `json:"location"`
	Supplier       *string          `json:"supplier"`
	PurchaseDate   *Date            `json:"purchaseDate"`
	Price          *decimal.Decimal `json:"price"`
	Photo          *string          `json:"photo"`
	Notes          *string          `json:"notes"`
	AlertThreshold *int             `json:"alertThreshold"`
}

// ToDomain converts the request to a patch
func (r *UpdateItemRequest) ToDomain() domain.ItemPatch {
	patch := domain.ItemPatch{
		Name:           r.Name,
		Model:          r.Model,
		Serial:         r.Serial,
		Location:       r.Location,
		Supplier:       r.Supplier,
		PurchaseDate:   r.PurchaseDate.ptr(),
		Price:          r.Price,
		Photo:          r.Photo,
		Notes:          r.Notes,
		AlertThreshold: r.AlertThreshold,
	}
	if r.Category != nil {
		c := domain.Category(strings.TrimSpace(*r.Category))
		patch.Category = &c
	}
	return patch
}

// AdjustStockRequest represents the body of POST /api/items/{id}/adjust
type AdjustStockRequest struct {
	Type               string `json:"type"`
	Quantity           int    `json:"quantity"`
	Note               string `json:"note,omitempty"`
	Person             string `json:"person,omitempty"`
	ExpectedReturnDate *Date  `json:"expectedReturnDate,omitempty"`
}

// ToDomain converts the request to an adjustment; validation is the service's
func (r *AdjustStockRequest) ToDomain(itemID, actor string) domain.Adjustment {
	return domain.Adjustment{
		ItemID:             itemID,
		Type:               domain.MovementType(strings.ToLower(strings.TrimSpace(r.Type))),
		Quantity:           r.Quantity,
		Note:               strings.TrimSpace(r.Note),
		Person:             r.Person,
		ExpectedReturnDate: r.ExpectedReturnDate.ptr(),
		Actor:              actor,
	}
}
