// Package orders is the public surface of the notalock order engine: order
// lifecycle with guarded status transitions and time-boxed undo, in-memory
// search over order snapshots, and sales reporting. Implementation lives in
// the internal packages; this package re-exports the types and entry points
// consuming applications need.
package orders

import (
	"context"
	"time"

	"github.com/snusnumrick/notalock-orders/internal/di"
	domain "github.com/snusnumrick/notalock-orders/internal/domain"
	"github.com/snusnumrick/notalock-orders/internal/services"
)

// Core data model.
type (
	Order         = domain.Order
	OrderItem     = domain.OrderItem
	Address       = domain.Address
	OrderMetadata = domain.OrderMetadata
	StatusChange  = domain.StatusChange
	TrackingInfo  = domain.TrackingInfo
	OrderStatus   = domain.OrderStatus
	PaymentStatus = domain.PaymentStatus
)

// Order status axis.
const (
	OrderStatusPending    = domain.OrderStatusPending
	OrderStatusProcessing = domain.OrderStatusProcessing
	OrderStatusPaid       = domain.OrderStatusPaid
	OrderStatusCompleted  = domain.OrderStatusCompleted
	OrderStatusCancelled  = domain.OrderStatusCancelled
	OrderStatusRefunded   = domain.OrderStatusRefunded
	OrderStatusFailed     = domain.OrderStatusFailed
)

// Payment status axis.
const (
	PaymentStatusPending    = domain.PaymentStatusPending
	PaymentStatusProcessing = domain.PaymentStatusProcessing
	PaymentStatusPaid       = domain.PaymentStatusPaid
	PaymentStatusFailed     = domain.PaymentStatusFailed
	PaymentStatusRefunded   = domain.PaymentStatusRefunded
	PaymentStatusCancelled  = domain.PaymentStatusCancelled
)

// CanTransitionOrderStatus reports whether the order axis allows from -> to.
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	return domain.CanTransitionOrderStatus(from, to)
}

// CanTransitionPaymentStatus reports whether the payment axis allows from -> to.
func CanTransitionPaymentStatus(from, to PaymentStatus) bool {
	return domain.CanTransitionPaymentStatus(from, to)
}

// AllowedNextOrderStatuses lists reachable order statuses, self included.
func AllowedNextOrderStatuses(from OrderStatus) []OrderStatus {
	return domain.AllowedNextOrderStatuses(from)
}

// AllowedNextPaymentStatuses lists reachable payment statuses, self included.
func AllowedNextPaymentStatuses(from PaymentStatus) []PaymentStatus {
	return domain.AllowedNextPaymentStatuses(from)
}

// Lifecycle service surface.
type (
	OrderService         = services.OrderService
	CreateOrderCommand   = services.CreateOrderCommand
	UpdateOrderCommand   = services.UpdateOrderCommand
	PaymentResultCommand = services.PaymentResultCommand
	StatusChangeCommand  = services.StatusChangeCommand
	StatusChangeReceipt  = services.StatusChangeReceipt
	UndoAvailability     = services.UndoAvailability
	UndoFunc             = services.UndoFunc
	OrderCreateResult    = services.OrderCreateResult
	BestEffort           = services.BestEffort
	NewOrderItem         = services.NewOrderItem
	OrderEvent           = services.OrderEvent
	OrderEventPublisher  = services.OrderEventPublisher
	Notifier             = services.Notifier
	NotificationMessage  = services.NotificationMessage
)

// Sentinel errors returned by the lifecycle service.
var (
	ErrOrderValidation  = services.ErrOrderValidation
	ErrOrderTransition  = services.ErrOrderTransition
	ErrOrderNotFound    = services.ErrOrderNotFound
	ErrOrderConflict    = services.ErrOrderConflict
	ErrOrderUndoExpired = services.ErrOrderUndoExpired
)

// Search surface.
type (
	SearchOptions = services.SearchOptions
	SearchResult  = services.SearchResult
	FuzzyMatch    = services.FuzzyMatch
)

// SearchOrders filters, sorts, and paginates an order snapshot.
func SearchOrders(orders []Order, opts SearchOptions) SearchResult {
	return services.SearchOrders(orders, opts)
}

// QuickSearchOrders is the typeahead substring search.
func QuickSearchOrders(orders []Order, text string) []Order {
	return services.QuickSearchOrders(orders, text)
}

// FuzzySearchOrders scores orders against a possibly misspelled query.
func FuzzySearchOrders(orders []Order, text string) []FuzzyMatch {
	return services.FuzzySearchOrders(orders, text)
}

// Reporting surface.
type (
	Period                = services.Period
	Interval              = services.Interval
	DateRange             = services.DateRange
	SalesSummary          = services.SalesSummary
	StatusCount           = services.StatusCount
	ProductSalesEntry     = services.ProductSalesEntry
	TimeSeriesPoint       = services.TimeSeriesPoint
	Report                = services.Report
	PerformanceComparison = services.PerformanceComparison
)

const (
	PeriodDaily     = services.PeriodDaily
	PeriodWeekly    = services.PeriodWeekly
	PeriodMonthly   = services.PeriodMonthly
	PeriodQuarterly = services.PeriodQuarterly
	PeriodYearly    = services.PeriodYearly
	PeriodCustom    = services.PeriodCustom
)

// DateRangeForPeriod resolves a preset period against a reference date.
func DateRangeForPeriod(period Period, reference time.Time) DateRange {
	return services.DateRangeForPeriod(period, reference)
}

// GenerateReport composes summary, distribution, product sales, and a dense
// time series for the period.
func GenerateReport(orders []Order, period Period, reference time.Time, customRange *DateRange) Report {
	return services.GenerateReport(orders, period, reference, customRange)
}

// ComparePerformance contrasts two date ranges over the same order snapshot.
func ComparePerformance(orders []Order, current, previous DateRange) PerformanceComparison {
	return services.ComparePerformance(orders, current, previous)
}

// ExportOrdersCSV renders orders as CSV.
func ExportOrdersCSV(orders []Order) (string, error) {
	return services.ExportOrdersCSV(orders)
}

// ExportOrdersJSON renders orders as an indented JSON array.
func ExportOrdersJSON(orders []Order) (string, error) {
	return services.ExportOrdersJSON(orders)
}

// Engine owns the wired infrastructure and exposes the lifecycle service.
type Engine struct {
	container *di.Container
}

// EngineOptions tunes engine construction.
type EngineOptions struct {
	// EmailNotifier and SMSNotifier enable notification delivery when set.
	EmailNotifier Notifier
	SMSNotifier   Notifier
	// DisableEvents skips Pub/Sub wiring.
	DisableEvents bool
}

// NewEngine loads configuration from the environment and wires Firestore,
// Pub/Sub, logging, and the order service. Close the engine when done.
func NewEngine(ctx context.Context, opts EngineOptions) (*Engine, error) {
	container, err := di.New(ctx, di.Options{
		EmailNotifier: opts.EmailNotifier,
		SMSNotifier:   opts.SMSNotifier,
		DisableEvents: opts.DisableEvents,
	})
	if err != nil {
		return nil, err
	}
	return &Engine{container: container}, nil
}

// Orders returns the order lifecycle service.
func (e *Engine) Orders() OrderService {
	return e.container.OrderService()
}

// Close releases the engine's infrastructure clients.
func (e *Engine) Close(ctx context.Context) error {
	return e.container.Close(ctx)
}
