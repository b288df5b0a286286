package models

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	// OrderStatusPending is set at creation until the payment is confirmed.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid is set by webhook or on-read reconciliation.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusInProgress is set by an admin once work started.
	OrderStatusInProgress OrderStatus = "in_progress"
	// OrderStatusCompleted is set by an admin when the design was delivered.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled can be reached from any non-terminal state.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists all known order states in lifecycle order.
var OrderStatuses = []OrderStatus{ //nolint:gochecknoglobals
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// orderTransitions is the table of allowed order status edges.
var orderTransitions = map[OrderStatus][]OrderStatus{ //nolint:gochecknoglobals
	OrderStatusPending:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
}

// ParseOrderStatus returns the status for s and whether it is known.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, status := range OrderStatuses {
		if string(status) == s {
			return status, true
		}
	}

	return "", false
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the edge s -> next is in the transition table.
// Writing a status onto itself is allowed and has no effect.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}

	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// String representation (for logging).
func (s OrderStatus) String() string {
	return string(s)
}

// DonationStatus is the lifecycle state of a donation.
type DonationStatus string

const (
	// DonationStatusPending is set at creation until the payment is confirmed.
	DonationStatusPending DonationStatus = "pending"
	// DonationStatusCompleted is set once the payment is confirmed.
	DonationStatusCompleted DonationStatus = "completed"
)

// String representation (for logging).
func (s DonationStatus) String() string {
	return string(s)
}
