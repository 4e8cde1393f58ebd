package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// OrderStatus enumerates valid fulfillment states for orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order has been created but not yet picked up for processing.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusPaid indicates payment completed and fulfillment can continue.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusCompleted indicates the order has been fulfilled.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled indicates the order was cancelled before fulfillment.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusRefunded indicates the order was refunded. No further transitions are allowed.
	OrderStatusRefunded OrderStatus = "refunded"
	// OrderStatusFailed indicates the order could not be completed.
	OrderStatusFailed OrderStatus = "failed"
)

// PaymentStatus enumerates valid payment states. Payment status is an
// independent axis from order status; a single update never changes both.
type PaymentStatus string

const (
	// PaymentStatusPending indicates payment has not been attempted or confirmed yet.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusProcessing indicates the payment provider is still working on the charge.
	PaymentStatusProcessing PaymentStatus = "processing"
	// PaymentStatusPaid indicates the charge succeeded.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusFailed indicates the charge failed.
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusRefunded indicates the charge was refunded. Terminal.
	PaymentStatusRefunded PaymentStatus = "refunded"
	// PaymentStatusCancelled indicates the charge was abandoned or voided.
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// OrderStatuses returns every order status in declaration order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusPaid,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunded,
		OrderStatusFailed,
	}
}

// PaymentStatuses returns every payment status in declaration order.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusProcessing,
		PaymentStatusPaid,
		PaymentStatusFailed,
		PaymentStatusRefunded,
		PaymentStatusCancelled,
	}
}

// ParseOrderStatus normalises raw input into a known order status.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	candidate := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range OrderStatuses() {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// ParsePaymentStatus normalises raw input into a known payment status.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	candidate := PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range PaymentStatuses() {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// Valid reports whether the status is one of the enumerated order statuses.
func (s OrderStatus) Valid() bool {
	_, ok := ParseOrderStatus(string(s))
	return ok
}

// Valid reports whether the status is one of the enumerated payment statuses.
func (s PaymentStatus) Valid() bool {
	_, ok := ParsePaymentStatus(string(s))
	return ok
}

// Order is the aggregate root for the order lifecycle.
type Order struct {
	ID              string
	OrderNumber     string
	CustomerID      string
	Email           string
	Phone           string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	SubtotalAmount  decimal.Decimal
	ShippingCost    decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	Currency        string
	Items           []OrderItem
	ShippingAddress *Address
	BillingAddress  *Address
	Notes           string
	CartRef         *string
	Metadata        OrderMetadata
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem stores a single line of the order at the time of creation.
type OrderItem struct {
	ID         string
	ProductID  string
	SKU        string
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// Address represents postal address snapshots stored on the order.
type Address struct {
	FirstName  string
	LastName   string
	Line1      string
	Line2      *string
	City       string
	State      *string
	PostalCode string
	Country    string
	Phone      *string
}

// FullName joins the address name parts for display and search.
func (a *Address) FullName() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// StatusChange records a single order-status transition together with its undo window.
type StatusChange struct {
	PreviousStatus OrderStatus
	NewStatus      OrderStatus
	ChangedAt      time.Time
	CanUndoUntil   time.Time
	Undone         bool
	UndoneAt       *time.Time
}

// TrackingInfo stores shipment tracking references attached to an order.
type TrackingInfo struct {
	Carrier        string
	TrackingNumber string
	TrackingURL    string
}

// StatusHistoryLimit caps the number of retained status changes; older
// entries are dropped when the limit is exceeded.
const StatusHistoryLimit = 10

// OrderMetadata replaces the untyped metadata bag with explicit slots for
// the known purposes plus an extensible map for everything else.
type OrderMetadata struct {
	StatusHistory []StatusChange
	Tracking      *TrackingInfo
	Extra         map[string]any
}

// PushStatusChange prepends the entry so the newest change is always at
// index 0, trimming the history to StatusHistoryLimit entries.
func (m *OrderMetadata) PushStatusChange(entry StatusChange) {
	history := make([]StatusChange, 0, len(m.StatusHistory)+1)
	history = append(history, entry)
	history = append(history, m.StatusHistory...)
	if len(history) > StatusHistoryLimit {
		history = history[:StatusHistoryLimit]
	}
	m.StatusHistory = history
}

// LatestStatusChange returns the newest status change, if any.
func (m *OrderMetadata) LatestStatusChange() (StatusChange, bool) {
	if m == nil || len(m.StatusHistory) == 0 {
		return StatusChange{}, false
	}
	return m.StatusHistory[0], true
}

// ItemTotal sums the line totals across all items.
func (o *Order) ItemTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// ItemCount sums the quantities across all items.
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
