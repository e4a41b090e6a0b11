package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/itik-it/grindstack/internal/orders/domain"
	"github.com/itik-it/grindstack/internal/orders/repository"
)

type OrdersHandler struct {
	repo    repository.OrderRepository
	timeout time.Duration
}

func NewOrdersHandler(repo repository.OrderRepository, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		repo:    repo,
		timeout: timeout,
	}
}

type CreateOrderRequestDTO struct {
	UserID string             `json:"userId"`
	Items  []domain.OrderItem `json:"items"`
}

type UpdateOrderStatusRequestDTO struct {
	Status string `json:"status"`
}

// POST /orders creates an order directly, outside checkout. The POS-style
// flow uses this for single-product purchases.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "userId is required")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_items", "items must not be empty")
		return
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			respondError(w, http.StatusBadRequest, "invalid_quantity", "every item quantity must be at least 1")
			return
		}
	}

	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Items:     req.Items,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	order.Total = order.ComputedTotal()

	if err := h.repo.CreateOrder(ctx, order); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// GET /orders?from=&to= lists orders, optionally bounded by RFC 3339 dates.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var filter repository.ListFilter
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_from", "from must be an RFC 3339 timestamp")
			return
		}
		filter.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_to", "to must be an RFC 3339 timestamp")
			return
		}
		filter.To = t
	}

	orders, err := h.repo.ListOrders(ctx, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.repo.GetOrderByID(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// PATCH /orders/{id}/status transitions pending -> fulfilled.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	var req UpdateOrderStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	status := domain.OrderStatus(req.Status)
	if status != domain.OrderStatusPending && status != domain.OrderStatusFulfilled {
		respondError(w, http.StatusBadRequest, "invalid_status", "status must be pending or fulfilled")
		return
	}

	order, err := h.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
