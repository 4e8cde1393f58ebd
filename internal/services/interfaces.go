package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order         = domain.Order
	OrderItem     = domain.OrderItem
	OrderStatus   = domain.OrderStatus
	PaymentStatus = domain.PaymentStatus
	OrderMetadata = domain.OrderMetadata
	StatusChange  = domain.StatusChange
	TrackingInfo  = domain.TrackingInfo
	Address       = domain.Address
	SortOrder     = domain.SortOrder
)

// OrderService encapsulates the guarded order lifecycle: creation, guarded
// updates, payment-driven updates, and the undo window for status changes.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (OrderCreateResult, error)
	Get(ctx context.Context, orderID string) (Order, error)
	Update(ctx context.Context, cmd UpdateOrderCommand) (Order, error)
	UpdateFromPayment(ctx context.Context, cmd PaymentResultCommand) (Order, error)
	UpdateStatusWithUndo(ctx context.Context, cmd StatusChangeCommand) (StatusChangeReceipt, error)
	CanUndoStatusChange(ctx context.Context, orderID string) (UndoAvailability, error)
}

// NewOrderItem describes one order line supplied at creation time.
type NewOrderItem struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateOrderCommand carries everything needed to create an order from a
// cart-like item list.
type CreateOrderCommand struct {
	CustomerID      string
	Email           string
	Phone           string
	Currency        string
	Items           []NewOrderItem
	ShippingAddress *Address
	BillingAddress  *Address
	SubtotalAmount  decimal.Decimal
	ShippingCost    decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	Notes           string
	CartID          string
	Extra           map[string]any
}

// UpdateOrderCommand mutates a subset of order fields. Status and
// PaymentStatus are independent axes; a validated call may set at most one.
type UpdateOrderCommand struct {
	OrderID       string
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
	Notes         *string
	ShippingCost  *decimal.Decimal
	TaxAmount     *decimal.Decimal
	Tracking      *TrackingInfo
	Extra         map[string]any
	// SkipValidation bypasses the transition guard. Reserved for undo
	// restoration and payment-provider-driven writes.
	SkipValidation bool
}

// PaymentResultCommand captures the outcome reported by a payment provider.
type PaymentResultCommand struct {
	OrderID      string
	Success      bool
	Status       string
	Provider     string
	IntentID     string
	RefundAmount *decimal.Decimal
	RefundReason string
}

// StatusChangeCommand requests a status change guarded by an undo window.
type StatusChangeCommand struct {
	OrderID   string
	NewStatus OrderStatus
	// UndoWindow defaults to the service-configured window when zero.
	UndoWindow time.Duration
}

// UndoFunc reverts the status change it was issued for. It fails with
// ErrOrderUndoExpired once the window has passed or the change was already
// undone.
type UndoFunc func(ctx context.Context) (Order, error)

// StatusChangeReceipt pairs the updated order with its undo handle.
type StatusChangeReceipt struct {
	Order   Order
	Changed bool
	Undo    UndoFunc
}

// UndoAvailability reports whether the newest status change can still be
// reverted. Derived read-only from the order's status history.
type UndoAvailability struct {
	CanUndo              bool
	PreviousStatus       OrderStatus
	CurrentStatus        OrderStatus
	TimeRemainingSeconds int64
	ExpiresAt            time.Time
}

// BestEffort records the outcome of a side effect the caller is allowed to
// ignore: linked-cart updates, notifications, event publishing.
type BestEffort struct {
	Attempted bool
	OK        bool
	Err       error
}

// OrderCreateResult carries the created order plus the outcome of the
// best-effort cart status update that follows creation.
type OrderCreateResult struct {
	Order      Order
	CartStatus BestEffort
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	OrderNumber    string
	PreviousStatus OrderStatus
	CurrentStatus  OrderStatus
	OccurredAt     time.Time
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// NotificationChannel distinguishes delivery mechanisms.
type NotificationChannel string

const (
	// ChannelEmail delivers through the email collaborator.
	ChannelEmail NotificationChannel = "email"
	// ChannelSMS delivers through the SMS collaborator.
	ChannelSMS NotificationChannel = "sms"
)

// NotificationMessage is the payload handed to the notification collaborator.
type NotificationMessage struct {
	Channel      NotificationChannel
	TemplateType string
	Recipient    string
	Subject      string
	Message      string
	Data         map[string]any
}

// Notifier is the transport collaborator contract: it reports delivery
// success as a boolean and never blocks the business operation.
type Notifier interface {
	Send(ctx context.Context, msg NotificationMessage) bool
}
