package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itik-it/grindstack/internal/checkout/service"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout *service.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type ConfirmCheckoutRequestDTO struct {
	IdempotencyKey string `json:"idempotencyKey"`
}

type ConfirmCheckoutResponseDTO struct {
	Order    interface{} `json:"order"`
	Status   string      `json:"status"`
	Replayed bool        `json:"replayed,omitempty"`
}

// POST /checkout/{userId}/review
func (h *CheckoutHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := chi.URLParam(r, "userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "userId is required")
		return
	}

	review, err := h.checkout.Review(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// POST /checkout/{userId}/confirm
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := chi.URLParam(r, "userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "userId is required")
		return
	}

	var req ConfirmCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.checkout.Confirm(ctx, userID, req.IdempotencyKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	respondJSON(w, status, ConfirmCheckoutResponseDTO{
		Order:    result.Order,
		Status:   result.Status.String(),
		Replayed: result.Replayed,
	})
}
