package domain

import "time"

// LineItem is a cart entry merged with live product data, with name and
// unit price captured at review time.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Review represents the full cart state presented for confirmation.
type Review struct {
	UserID     string     `json:"user_id"`
	Items      []LineItem `json:"items"`
	Total      float64    `json:"total"`
	CapturedAt time.Time  `json:"captured_at"`
}

type CommitStepKind string

const (
	StepDecrementStock CommitStepKind = "decrement_stock"
	StepClearCart      CommitStepKind = "clear_cart"
	StepCreateOrder    CommitStepKind = "create_order"
)

// CommitStep records one completed mutation of the commit phase. The
// ordered log of these is what reconciliation tooling works from when a
// commit fails partway.
type CommitStep struct {
	Kind      CommitStepKind `json:"kind"`
	ProductID string         `json:"product_id,omitempty"`
	Quantity  int            `json:"quantity,omitempty"`
}
