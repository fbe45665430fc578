package orders

import "fmt"

// Transitions is the single source of truth for legal status changes.
// SHIPPED and CANCELLED are terminal. Every status change, whether from the
// admin UI or the payment webhook mapping, goes through this table; clients
// read it back via AllowedTransitions instead of keeping their own copy.
var Transitions = map[string][]string{
	StatusPending:         {StatusAwaitingPayment, StatusCancelled},
	StatusAwaitingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:            {StatusFulfilled, StatusCancelled},
	StatusFulfilled:       {StatusShipped, StatusCancelled},
	StatusShipped:         {},
	StatusCancelled:       {},
}

// InvalidTransitionError reports a rejected status change with the attempted pair.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// CanTransition reports whether from -> to is allowed by the table.
// Unknown statuses have no successors.
func CanTransition(from, to string) bool {
	for _, next := range Transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the successor set for a status. The returned
// slice is a copy; callers may not mutate the table through it.
func AllowedTransitions(from string) []string {
	next := Transitions[from]
	out := make([]string, len(next))
	copy(out, next)
	return out
}
