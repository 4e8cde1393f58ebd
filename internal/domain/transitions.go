package domain

// orderStatusTransitions maps each order status to the statuses directly
// reachable from it. Cancelled and failed keep limited recovery edges;
// refunded has no outgoing edges.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusPaid, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusProcessing: {OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed, OrderStatusPending},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCompleted, OrderStatusRefunded},
	OrderStatusCompleted:  {OrderStatusRefunded, OrderStatusProcessing},
	OrderStatusCancelled:  {OrderStatusPending},
	OrderStatusFailed:     {OrderStatusPending, OrderStatusProcessing},
	OrderStatusRefunded:   {},
}

// paymentStatusTransitions is the stricter payment axis: paid may only move
// to refunded and refunded is terminal.
var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusProcessing: {PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusPaid:       {PaymentStatusRefunded},
	PaymentStatusFailed:     {PaymentStatusPending, PaymentStatusProcessing},
	PaymentStatusCancelled:  {PaymentStatusPending},
	PaymentStatusRefunded:   {},
}

// AllowedNextOrderStatuses returns the set of order statuses reachable from
// the given status, including the status itself.
func AllowedNextOrderStatuses(from OrderStatus) []OrderStatus {
	next, ok := orderStatusTransitions[from]
	if !ok {
		return []OrderStatus{from}
	}
	result := make([]OrderStatus, 0, len(next)+1)
	result = append(result, from)
	result = append(result, next...)
	return result
}

// AllowedNextPaymentStatuses returns the set of payment statuses reachable
// from the given status, including the status itself.
func AllowedNextPaymentStatuses(from PaymentStatus) []PaymentStatus {
	next, ok := paymentStatusTransitions[from]
	if !ok {
		return []PaymentStatus{from}
	}
	result := make([]PaymentStatus, 0, len(next)+1)
	result = append(result, from)
	result = append(result, next...)
	return result
}

// CanTransitionOrderStatus reports whether the order axis allows moving from
// one status to another. A self transition is always allowed so repeated
// application of the same status stays idempotent.
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	next, ok := orderStatusTransitions[from]
	if !ok {
		return false
	}
	for _, status := range next {
		if status == to {
			return true
		}
	}
	return false
}

// CanTransitionPaymentStatus reports whether the payment axis allows moving
// from one status to another. Self transitions are always allowed.
func CanTransitionPaymentStatus(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	next, ok := paymentStatusTransitions[from]
	if !ok {
		return false
	}
	for _, status := range next {
		if status == to {
			return true
		}
	}
	return false
}
