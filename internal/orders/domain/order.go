package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFulfilled OrderStatus = "fulfilled"
)

// CanTransitionTo permits only the pending -> fulfilled transition; line
// items are immutable once the order exists.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusPending && next == OrderStatusFulfilled
}

// OrderItem snapshots name and unit price at order time; they are not
// re-derived from the catalog afterwards.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Order struct {
	ID             uuid.UUID   `json:"id"`
	UserID         string      `json:"userId"`
	Items          []OrderItem `json:"items"`
	Total          float64     `json:"total"`
	Status         OrderStatus `json:"status"`
	IdempotencyKey string      `json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// ComputedTotal derives the total from line items; it must match the
// persisted Total.
func (o *Order) ComputedTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
