package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
	"github.com/snusnumrick/notalock-orders/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"
	orderEventStatusUndone  = "order.status.undone"

	orderIDPrefix = "ord_"

	defaultUndoWindow          = 5 * time.Minute
	defaultConvertedCartStatus = "consumed"
)

var (
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderConflict indicates optimistic concurrency conflicts or duplicates.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderUndoExpired indicates the undo window has passed or the change was already undone.
	ErrOrderUndoExpired = errors.New("order: undo window expired")
)

// paymentOutcomes maps a provider-reported payment status to the pair of
// axis updates issued by UpdateFromPayment. Each axis is written in its own
// guard-bypassing sub-call; the two are never combined.
var paymentOutcomes = map[string]struct {
	order   domain.OrderStatus
	payment domain.PaymentStatus
}{
	"paid":      {domain.OrderStatusPaid, domain.PaymentStatusPaid},
	"failed":    {domain.OrderStatusFailed, domain.PaymentStatusFailed},
	"pending":   {domain.OrderStatusProcessing, domain.PaymentStatusPending},
	"refunded":  {domain.OrderStatusRefunded, domain.PaymentStatusRefunded},
	"cancelled": {domain.OrderStatusCancelled, domain.PaymentStatusFailed},
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders        repositories.OrderRepository
	Carts         repositories.CartRepository
	Counters      repositories.CounterRepository
	UnitOfWork    repositories.UnitOfWork
	Clock         func() time.Time
	IDGenerator   func() string
	Events        OrderEventPublisher
	Notifications *NotificationDispatcher
	Logger        func(ctx context.Context, event string, fields map[string]any)
	// UndoWindow is the default undo span for status changes; 5 minutes when zero.
	UndoWindow time.Duration
	// ConvertedCartStatus is written to a linked cart after successful creation.
	ConvertedCartStatus string
	// OrderNumberCounter names the counter document allocating order number sequences.
	OrderNumberCounter string
}

type orderService struct {
	orders        repositories.OrderRepository
	carts         repositories.CartRepository
	counters      repositories.CounterRepository
	unitOfWork    repositories.UnitOfWork
	clock         func() time.Time
	newID         func() string
	events        OrderEventPublisher
	notifications *NotificationDispatcher
	logger        func(context.Context, string, map[string]any)
	undoWindow    time.Duration
	cartStatus    string
	counterID     string
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	window := deps.UndoWindow
	if window <= 0 {
		window = defaultUndoWindow
	}

	cartStatus := strings.TrimSpace(deps.ConvertedCartStatus)
	if cartStatus == "" {
		cartStatus = defaultConvertedCartStatus
	}

	counterID := strings.TrimSpace(deps.OrderNumberCounter)
	if counterID == "" {
		counterID = "orders"
	}

	return &orderService{
		orders:        deps.Orders,
		carts:         deps.Carts,
		counters:      deps.Counters,
		unitOfWork:    unit,
		// Firestore stores timestamps at microsecond precision. Truncate up
		// front so history entries compare equal after a read back.
		clock:         func() time.Time { return clock().UTC().Truncate(time.Microsecond) },
		newID:         idGen,
		events:        deps.Events,
		notifications: deps.Notifications,
		logger:        logger,
		undoWindow:    window,
		cartStatus:    cartStatus,
		counterID:     counterID,
	}, nil
}

// sagaStep is one action of a multi-write sequence together with the
// compensation applied when a later step fails.
type sagaStep struct {
	name       string
	action     func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

func (s *orderService) runSaga(ctx context.Context, steps []sagaStep) error {
	for i, step := range steps {
		if err := step.action(ctx); err != nil {
			wrapped := fmt.Errorf("order: %s: %w", step.name, s.mapRepositoryError(err))
			for j := i - 1; j >= 0; j-- {
				if steps[j].compensate == nil {
					continue
				}
				if cerr := steps[j].compensate(ctx); cerr != nil {
					s.logger(ctx, "order.saga.compensation_failed", map[string]any{
						"step":  steps[j].name,
						"error": cerr.Error(),
					})
				}
			}
			return wrapped
		}
	}
	return nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (OrderCreateResult, error) {
	if err := ValidateOrderCreate(cmd); err != nil {
		return OrderCreateResult{}, err
	}

	now := s.now()
	number, err := s.generateOrderNumber(ctx, now)
	if err != nil {
		return OrderCreateResult{}, fmt.Errorf("order: generate order number: %w", err)
	}

	order := Order{
		ID:              orderIDPrefix + s.newID(),
		OrderNumber:     number,
		CustomerID:      strings.TrimSpace(cmd.CustomerID),
		Email:           strings.TrimSpace(cmd.Email),
		Phone:           strings.TrimSpace(cmd.Phone),
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		SubtotalAmount:  cmd.SubtotalAmount,
		ShippingCost:    cmd.ShippingCost,
		TaxAmount:       cmd.TaxAmount,
		TotalAmount:     cmd.TotalAmount,
		Currency:        strings.ToUpper(strings.TrimSpace(cmd.Currency)),
		Items:           buildOrderItems(cmd.Items),
		ShippingAddress: cloneAddress(cmd.ShippingAddress),
		BillingAddress:  cloneAddress(cmd.BillingAddress),
		Notes:           strings.TrimSpace(cmd.Notes),
		Metadata:        OrderMetadata{Extra: cloneAnyMap(cmd.Extra)},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if cartID := strings.TrimSpace(cmd.CartID); cartID != "" {
		order.CartRef = &cartID
	}

	header := order
	header.Items = nil

	steps := []sagaStep{
		{
			name: "insert order",
			action: func(ctx context.Context) error {
				return s.orders.Insert(ctx, header)
			},
			compensate: func(ctx context.Context) error {
				return s.orders.Delete(ctx, order.ID)
			},
		},
		{
			name: "insert items",
			action: func(ctx context.Context) error {
				return s.orders.InsertItems(ctx, order.ID, order.Items)
			},
		},
	}
	if err := s.runSaga(ctx, steps); err != nil {
		return OrderCreateResult{}, err
	}

	cartOutcome := s.markCartConverted(ctx, order)

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CurrentStatus: order.Status,
		OccurredAt:    now,
	})
	if s.notifications != nil {
		s.notifications.DispatchOrderCreated(ctx, order)
	}

	return OrderCreateResult{Order: order, CartStatus: cartOutcome}, nil
}

// markCartConverted flags the originating cart so it is not reused. Failures
// are logged and never abort the creation they piggyback on.
func (s *orderService) markCartConverted(ctx context.Context, order Order) BestEffort {
	if s.carts == nil || order.CartRef == nil {
		return BestEffort{}
	}
	err := s.carts.SetStatus(ctx, *order.CartRef, s.cartStatus)
	if err != nil {
		s.logger(ctx, "order.cart_status_failed", map[string]any{
			"order": order.ID,
			"cart":  *order.CartRef,
			"error": err.Error(),
		})
	}
	return BestEffort{Attempted: true, OK: err == nil, Err: err}
}

func (s *orderService) Get(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderValidation)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) Update(ctx context.Context, cmd UpdateOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderValidation)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if !cmd.SkipValidation {
		if err := ValidateOrderUpdate(cmd, order.Status, order.PaymentStatus); err != nil {
			return Order{}, err
		}
	}

	if cmd.Status != nil {
		order.Status = *cmd.Status
	}
	if cmd.PaymentStatus != nil {
		order.PaymentStatus = *cmd.PaymentStatus
	}
	if cmd.Notes != nil {
		order.Notes = *cmd.Notes
	}
	if cmd.ShippingCost != nil {
		order.ShippingCost = *cmd.ShippingCost
	}
	if cmd.TaxAmount != nil {
		order.TaxAmount = *cmd.TaxAmount
	}
	if cmd.Tracking != nil {
		tracking := *cmd.Tracking
		order.Metadata.Tracking = &tracking
	}
	if len(cmd.Extra) > 0 {
		if order.Metadata.Extra == nil {
			order.Metadata.Extra = map[string]any{}
		}
		for k, v := range cmd.Extra {
			order.Metadata.Extra[k] = v
		}
	}
	order.UpdatedAt = s.now()

	if err := s.writeOrder(ctx, order); err != nil {
		return Order{}, fmt.Errorf("order: update fields: %w", err)
	}

	reloaded, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return reloaded, nil
}

func (s *orderService) UpdateFromPayment(ctx context.Context, cmd PaymentResultCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderValidation)
	}

	outcome, ok := paymentOutcomes[strings.ToLower(strings.TrimSpace(cmd.Status))]
	if !ok {
		return Order{}, fmt.Errorf("%w: unknown payment result status %q", ErrOrderValidation, cmd.Status)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	previousStatus := order.Status

	note := composePaymentNote(cmd)
	notes := order.Notes
	if notes != "" {
		notes += "\n"
	}
	notes += note

	// The two axes are written in separate guard-bypassing sub-calls so a
	// webhook can move both without violating the one-axis-per-update rule.
	payment := outcome.payment
	if _, err := s.Update(ctx, UpdateOrderCommand{
		OrderID:        orderID,
		PaymentStatus:  &payment,
		Notes:          &notes,
		SkipValidation: true,
	}); err != nil {
		return Order{}, fmt.Errorf("order: payment status update: %w", err)
	}

	status := outcome.order
	updated, err := s.Update(ctx, UpdateOrderCommand{
		OrderID:        orderID,
		Status:         &status,
		SkipValidation: true,
	})
	if err != nil {
		return Order{}, fmt.Errorf("order: status update: %w", err)
	}

	if previousStatus != updated.Status {
		s.publishEvent(ctx, OrderEvent{
			Type:           orderEventStatusChanged,
			OrderID:        updated.ID,
			OrderNumber:    updated.OrderNumber,
			PreviousStatus: previousStatus,
			CurrentStatus:  updated.Status,
			OccurredAt:     s.now(),
		})
		if s.notifications != nil {
			s.notifications.DispatchStatusChange(ctx, updated, previousStatus, updated.Status)
		}
	}

	return updated, nil
}

func (s *orderService) UpdateStatusWithUndo(ctx context.Context, cmd StatusChangeCommand) (StatusChangeReceipt, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return StatusChangeReceipt{}, fmt.Errorf("%w: order id is required", ErrOrderValidation)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return StatusChangeReceipt{}, s.mapRepositoryError(err)
	}

	if order.Status == cmd.NewStatus {
		// Idempotent no-op: nothing changed, nothing to undo.
		current := order
		return StatusChangeReceipt{
			Order:   current,
			Changed: false,
			Undo: func(context.Context) (Order, error) {
				return current, nil
			},
		}, nil
	}

	if !cmd.NewStatus.Valid() {
		return StatusChangeReceipt{}, fmt.Errorf("%w: unknown order status %q", ErrOrderValidation, cmd.NewStatus)
	}
	if !domain.CanTransitionOrderStatus(order.Status, cmd.NewStatus) {
		return StatusChangeReceipt{}, transitionError("order status", string(order.Status), string(cmd.NewStatus),
			orderStatusNames(domain.AllowedNextOrderStatuses(order.Status)))
	}

	window := cmd.UndoWindow
	if window <= 0 {
		window = s.undoWindow
	}

	now := s.now()
	entry := StatusChange{
		PreviousStatus: order.Status,
		NewStatus:      cmd.NewStatus,
		ChangedAt:      now,
		CanUndoUntil:   now.Add(window),
	}

	previousStatus := order.Status
	order.Status = cmd.NewStatus
	order.UpdatedAt = now
	order.Metadata.PushStatusChange(entry)

	if err := s.writeOrder(ctx, order); err != nil {
		return StatusChangeReceipt{}, fmt.Errorf("order: status update: %w", err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventStatusChanged,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: previousStatus,
		CurrentStatus:  order.Status,
		OccurredAt:     now,
	})
	if s.notifications != nil {
		s.notifications.DispatchStatusChange(ctx, order, previousStatus, order.Status)
	}

	return StatusChangeReceipt{
		Order:   order,
		Changed: true,
		Undo:    s.undoFunc(order.ID, entry),
	}, nil
}

// undoFunc builds the closure reverting the status change recorded by entry.
// Expiry is evaluated lazily against the clock at call time.
func (s *orderService) undoFunc(orderID string, issued StatusChange) UndoFunc {
	return func(ctx context.Context) (Order, error) {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return Order{}, s.mapRepositoryError(err)
		}

		latest, ok := order.Metadata.LatestStatusChange()
		if !ok || !latest.ChangedAt.Equal(issued.ChangedAt) || latest.NewStatus != issued.NewStatus {
			return Order{}, fmt.Errorf("%w: status has changed since", ErrOrderUndoExpired)
		}
		if latest.Undone {
			return Order{}, fmt.Errorf("%w: change already undone", ErrOrderUndoExpired)
		}

		now := s.now()
		if now.After(latest.CanUndoUntil) {
			return Order{}, fmt.Errorf("%w: window closed at %s", ErrOrderUndoExpired, latest.CanUndoUntil.Format(time.RFC3339))
		}

		// Guard-bypassing revert: the recorded previous status wins even when
		// the transition table would reject it.
		previousStatus := order.Status
		undoneAt := now
		order.Status = latest.PreviousStatus
		order.UpdatedAt = now
		order.Metadata.StatusHistory[0].Undone = true
		order.Metadata.StatusHistory[0].UndoneAt = &undoneAt

		if err := s.writeOrder(ctx, order); err != nil {
			return Order{}, fmt.Errorf("order: undo status update: %w", err)
		}

		s.publishEvent(ctx, OrderEvent{
			Type:           orderEventStatusUndone,
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			PreviousStatus: previousStatus,
			CurrentStatus:  order.Status,
			OccurredAt:     now,
		})

		return order, nil
	}
}

func (s *orderService) CanUndoStatusChange(ctx context.Context, orderID string) (UndoAvailability, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return UndoAvailability{}, fmt.Errorf("%w: order id is required", ErrOrderValidation)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return UndoAvailability{}, s.mapRepositoryError(err)
	}

	latest, ok := order.Metadata.LatestStatusChange()
	if !ok {
		return UndoAvailability{CurrentStatus: order.Status}, nil
	}

	availability := UndoAvailability{
		PreviousStatus: latest.PreviousStatus,
		CurrentStatus:  order.Status,
		ExpiresAt:      latest.CanUndoUntil,
	}
	if latest.Undone {
		return availability, nil
	}

	now := s.now()
	if remaining := latest.CanUndoUntil.Sub(now); remaining > 0 {
		availability.CanUndo = true
		availability.TimeRemainingSeconds = int64(remaining.Seconds())
	}
	return availability, nil
}

func (s *orderService) writeOrder(ctx context.Context, order Order) error {
	return s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}
	return err
}

func (s *orderService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, s.counterID, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("NO-%s-%04d", now.Format("20060102"), seq), nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish_failed", map[string]any{
			"type":   event.Type,
			"order":  event.OrderID,
			"error":  err.Error(),
			"status": string(event.CurrentStatus),
		})
	}
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func composePaymentNote(cmd PaymentResultCommand) string {
	var sb strings.Builder
	sb.WriteString("Payment ")
	sb.WriteString(strings.ToLower(strings.TrimSpace(cmd.Status)))
	if provider := strings.TrimSpace(cmd.Provider); provider != "" {
		sb.WriteString(" via ")
		sb.WriteString(provider)
	}
	if intent := strings.TrimSpace(cmd.IntentID); intent != "" {
		sb.WriteString(" (")
		sb.WriteString(intent)
		sb.WriteString(")")
	}
	if cmd.RefundAmount != nil {
		sb.WriteString(", refund ")
		sb.WriteString(cmd.RefundAmount.StringFixed(2))
		if reason := strings.TrimSpace(cmd.RefundReason); reason != "" {
			sb.WriteString(": ")
			sb.WriteString(reason)
		}
	}
	return sb.String()
}

func buildOrderItems(items []NewOrderItem) []OrderItem {
	lines := make([]OrderItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderItem{
			ID:         uuid.NewString(),
			ProductID:  strings.TrimSpace(item.ProductID),
			SKU:        strings.TrimSpace(item.SKU),
			Name:       strings.TrimSpace(item.Name),
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return lines
}

func cloneAddress(addr *Address) *Address {
	if addr == nil {
		return nil
	}
	cloned := *addr
	return &cloned
}

func cloneAnyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	cloned := make(map[string]any, len(src))
	for k, v := range src {
		cloned[k] = v
	}
	return cloned
}
