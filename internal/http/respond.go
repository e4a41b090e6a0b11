package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	cartrepo "github.com/itik-it/grindstack/internal/cart/repository"
	catalogrepo "github.com/itik-it/grindstack/internal/catalog/repository"
	catalogsvc "github.com/itik-it/grindstack/internal/catalog/service"
	checkoutsvc "github.com/itik-it/grindstack/internal/checkout/service"
	ordersrepo "github.com/itik-it/grindstack/internal/orders/repository"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// StockErrorResponse itemizes an insufficient-stock failure so the client
// can send the user back to the cart with the numbers in hand.
type StockErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// PartialCommitResponse reports exactly which commit steps completed so
// recovery tooling can reconcile stock and order state.
type PartialCommitResponse struct {
	Error          string      `json:"error"`
	Code           string      `json:"code"`
	CompletedSteps interface{} `json:"completedSteps"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors onto the HTTP taxonomy: 404 for
// unresolved references, 400 for validation, 409 for stock conflicts, 502
// for partial commits needing reconciliation.
func handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *catalogsvc.ValidationError
	var stockErr *checkoutsvc.InsufficientStockError
	var unknownErr *checkoutsvc.UnknownProductError
	var partialErr *checkoutsvc.PartialCommitError

	switch {
	// Checked first: the wrapped cause may itself be a typed error (stock
	// shortage, unknown product) and must not shadow the partial-commit
	// report, which is the only signal that mutations already happened.
	case errors.As(err, &partialErr):
		respondJSON(w, http.StatusBadGateway, PartialCommitResponse{
			Error:          partialErr.Error(),
			Code:           "partial_commit",
			CompletedSteps: partialErr.Completed,
		})

	case errors.Is(err, catalogrepo.ErrProductNotFound),
		errors.Is(err, cartrepo.ErrCartNotFound),
		errors.Is(err, ordersrepo.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.As(err, &unknownErr):
		respondError(w, http.StatusNotFound, "unknown_product", unknownErr.Error())

	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, "validation_error", validationErr.Error())

	case errors.Is(err, checkoutsvc.ErrMissingIdempotencyKey):
		respondError(w, http.StatusBadRequest, "missing_idempotency_key", err.Error())

	case errors.Is(err, checkoutsvc.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())

	case errors.Is(err, checkoutsvc.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())

	case errors.Is(err, ordersrepo.ErrDuplicateCheckout):
		respondError(w, http.StatusConflict, "duplicate_checkout", err.Error())

	case errors.Is(err, ordersrepo.ErrInvalidStatusChange):
		respondError(w, http.StatusConflict, "invalid_status_change", err.Error())

	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, StockErrorResponse{
			Error:     stockErr.Error(),
			Code:      "insufficient_stock",
			ProductID: stockErr.ProductID,
			Requested: stockErr.Requested,
			Available: stockErr.Available,
		})

	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
