package domain

type CheckoutStatus string

const (
	CheckoutStatusBuilding   CheckoutStatus = "BUILDING"
	CheckoutStatusReviewing  CheckoutStatus = "REVIEWING"
	CheckoutStatusCommitting CheckoutStatus = "COMMITTING"
	CheckoutStatusCompleted  CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed     CheckoutStatus = "FAILED"
)

var transitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusBuilding:   {CheckoutStatusReviewing, CheckoutStatusFailed},
	CheckoutStatusReviewing:  {CheckoutStatusCommitting, CheckoutStatusFailed},
	CheckoutStatusCommitting: {CheckoutStatusCompleted, CheckoutStatusFailed},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
