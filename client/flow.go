package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FlowState tracks where a checkout attempt currently sits.
type FlowState string

const (
	StateCartView FlowState = "CART_VIEW"
	StateReview   FlowState = "REVIEW"
	StateConfirm  FlowState = "CONFIRM"
	StateDone     FlowState = "DONE"
	StateFailed   FlowState = "FAILED"
)

// Flow walks a user's cart through review and confirmation, blocking on
// each server response. A stock rejection at confirm drops the flow back
// to CartView with the shortages attached, so the caller can fix the cart
// and call Run again. The idempotency key survives transient failures so
// a retried Run replays the same order instead of creating a second one.
type Flow struct {
	client *Client
	userID string

	state          FlowState
	idempotencyKey string

	Cart      *Cart
	Review    *Review
	Result    *ConfirmResult
	Shortages []StockShortage
	Partial   *PartialCommit
}

func NewFlow(c *Client, userID string) *Flow {
	return &Flow{
		client: c,
		userID: userID,
		state:  StateCartView,
	}
}

func (f *Flow) State() FlowState { return f.state }

// Run drives the flow from the cart to a placed order. It returns the
// state the flow stopped in. StateDone means f.Result holds the order;
// StateCartView with a non-nil Shortages means the user must adjust
// quantities; StateFailed is not retryable with this flow instance.
func (f *Flow) Run(ctx context.Context) (FlowState, error) {
	if f.state == StateDone || f.state == StateFailed {
		return f.state, fmt.Errorf("checkout flow already finished in state %s", f.state)
	}

	cart, err := f.client.GetCart(ctx, f.userID)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			f.state = StateCartView
			return f.state, err
		}
		return f.fail(err)
	}
	f.Cart = cart
	f.Shortages = nil
	if len(cart.Items) == 0 {
		f.state = StateCartView
		return f.state, errors.New("cart is empty")
	}

	f.state = StateReview
	review, err := f.client.ReviewCheckout(ctx, f.userID)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return f.state, err
		}
		return f.fail(err)
	}
	f.Review = review

	// One key per checkout attempt. A Run retried after ErrUnavailable
	// keeps the key so the server can deduplicate.
	if f.idempotencyKey == "" {
		f.idempotencyKey = uuid.New().String()
	}

	f.state = StateConfirm
	result, err := f.client.ConfirmCheckout(ctx, f.userID, f.idempotencyKey)
	if err != nil {
		var shortage *StockShortage
		if errors.As(err, &shortage) {
			// Stock moved between review and confirm. Nothing was
			// mutated server side, so the cart is still intact and a
			// fresh attempt needs a fresh key.
			f.Shortages = append(f.Shortages, *shortage)
			f.idempotencyKey = ""
			f.state = StateCartView
			return f.state, err
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "checkout_in_progress" {
			// Another confirm holds the lock. Back off and let the
			// caller retry; the key is kept for replay.
			f.state = StateReview
			return f.state, err
		}

		var partial *PartialCommit
		if errors.As(err, &partial) {
			// The commit mutated state before failing. Retrying cannot
			// undo the completed steps, so the flow is over; the step
			// log is kept for whoever reconciles.
			f.Partial = partial
			return f.fail(err)
		}

		if errors.Is(err, ErrUnavailable) {
			f.state = StateReview
			return f.state, err
		}

		return f.fail(err)
	}

	f.Result = result
	f.state = StateDone
	return f.state, nil
}

// RunWithRetry calls Run, retrying transient failures with a fixed delay.
// Stock shortages and terminal failures are returned immediately.
func (f *Flow) RunWithRetry(ctx context.Context, attempts int, delay time.Duration) (FlowState, error) {
	var state FlowState
	var err error
	for i := 0; i < attempts; i++ {
		state, err = f.Run(ctx)
		if err == nil || !errors.Is(err, ErrUnavailable) {
			return state, err
		}
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-time.After(delay):
		}
	}
	return state, err
}

func (f *Flow) fail(err error) (FlowState, error) {
	f.state = StateFailed
	return f.state, err
}
