package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
	"github.com/snusnumrick/notalock-orders/internal/repositories"
)

type stubRepoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *stubRepoError) Error() string       { return e.msg }
func (e *stubRepoError) IsNotFound() bool    { return e.notFound }
func (e *stubRepoError) IsConflict() bool    { return e.conflict }
func (e *stubRepoError) IsUnavailable() bool { return e.unavailable }

type memOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]Order
	items   map[string][]OrderItem
	deleted []string

	insertErr error
	itemsErr  error
	updateErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders: map[string]Order{},
		items:  map[string][]OrderItem{},
	}
}

func (r *memOrderRepo) Insert(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.orders[order.ID] = order
	return nil
}

func (r *memOrderRepo) InsertItems(_ context.Context, orderID string, items []domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.itemsErr != nil {
		return r.itemsErr
	}
	r.items[orderID] = append([]OrderItem(nil), items...)
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.orders[order.ID]; !ok {
		return &stubRepoError{msg: "order missing", notFound: true}
	}
	stored := order
	stored.Items = nil
	r.orders[order.ID] = stored
	return nil
}

func (r *memOrderRepo) Delete(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, orderID)
	delete(r.items, orderID)
	r.deleted = append(r.deleted, orderID)
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, &stubRepoError{msg: "order missing", notFound: true}
	}
	order.Items = append([]OrderItem(nil), r.items[orderID]...)
	return order, nil
}

func (r *memOrderRepo) List(_ context.Context, _ repositories.OrderListFilter) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]domain.Order, 0, len(r.orders))
	for id, order := range r.orders {
		order.Items = append([]OrderItem(nil), r.items[id]...)
		orders = append(orders, order)
	}
	return orders, nil
}

type stubCartRepo struct {
	setFn func(ctx context.Context, cartID, status string) error
	calls []string
}

func (r *stubCartRepo) SetStatus(ctx context.Context, cartID, status string) error {
	r.calls = append(r.calls, cartID+"="+status)
	if r.setFn != nil {
		return r.setFn(ctx, cartID, status)
	}
	return nil
}

type stubCounterRepo struct {
	next int64
	err  error
}

func (r *stubCounterRepo) Next(context.Context, string, int64) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.next++
	return r.next, nil
}

type capturePublisher struct {
	events []OrderEvent
	err    error
}

func (p *capturePublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type serviceFixture struct {
	service  OrderService
	orders   *memOrderRepo
	carts    *stubCartRepo
	events   *capturePublisher
	now      *time.Time
	baseTime time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	baseTime := time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)
	now := baseTime
	fixture := &serviceFixture{
		orders:   newMemOrderRepo(),
		carts:    &stubCartRepo{},
		events:   &capturePublisher{},
		now:      &now,
		baseTime: baseTime,
	}

	counter := int64(0)
	service, err := NewOrderService(OrderServiceDeps{
		Orders:   fixture.orders,
		Carts:    fixture.carts,
		Counters: &stubCounterRepo{},
		Clock:    func() time.Time { return *fixture.now },
		IDGenerator: func() string {
			counter++
			return strings.Repeat("0", 25) + string(rune('A'+counter-1))
		},
		Events: fixture.events,
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	fixture.service = service
	return fixture
}

func (f *serviceFixture) advance(d time.Duration) {
	*f.now = f.now.Add(d)
}

func money(value string) decimal.Decimal {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return amount
}

func validCreateCommand() CreateOrderCommand {
	return CreateOrderCommand{
		CustomerID: "cust_1",
		Email:      "jane.smith@example.com",
		Phone:      "+15550100",
		Currency:   "usd",
		Items: []NewOrderItem{
			{ProductID: "prod_1", SKU: "HP-100", Name: "Premium Headphones", Quantity: 2, UnitPrice: money("49.50")},
			{ProductID: "prod_2", SKU: "CB-200", Name: "Cable", Quantity: 1, UnitPrice: money("5.00")},
		},
		ShippingAddress: &Address{FirstName: "Jane", LastName: "Smith", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"},
		SubtotalAmount:  money("104.00"),
		ShippingCost:    money("7.50"),
		TaxAmount:       money("8.50"),
		TotalAmount:     money("120.00"),
		CartID:          "cart_9",
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.service.Create(context.Background(), validCreateCommand())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	order := result.Order
	if !strings.HasPrefix(order.ID, "ord_") {
		t.Fatalf("order id %q lacks prefix", order.ID)
	}
	if want := "NO-20260314-0001"; order.OrderNumber != want {
		t.Fatalf("order number = %q, want %q", order.OrderNumber, want)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("payment status = %s, want pending", order.PaymentStatus)
	}
	if order.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", order.Currency)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(order.Items))
	}
	if !order.Items[0].TotalPrice.Equal(money("99.00")) {
		t.Fatalf("item total = %s, want 99.00", order.Items[0].TotalPrice)
	}

	if !result.CartStatus.Attempted || !result.CartStatus.OK {
		t.Fatalf("cart status outcome = %+v, want attempted ok", result.CartStatus)
	}
	if len(f.carts.calls) != 1 || f.carts.calls[0] != "cart_9=consumed" {
		t.Fatalf("cart calls = %v", f.carts.calls)
	}

	if len(f.events.events) != 1 || f.events.events[0].Type != orderEventCreated {
		t.Fatalf("events = %+v", f.events.events)
	}

	stored, err := f.orders.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("FindByID after create: %v", err)
	}
	if len(stored.Items) != 2 {
		t.Fatalf("stored items = %d, want 2", len(stored.Items))
	}
}

func TestCreateOrderCompensatesWhenItemInsertFails(t *testing.T) {
	f := newServiceFixture(t)
	f.orders.itemsErr = errors.New("write exploded")

	_, err := f.service.Create(context.Background(), validCreateCommand())
	if err == nil {
		t.Fatal("Create succeeded despite item failure")
	}
	if !strings.Contains(err.Error(), "insert items") {
		t.Fatalf("error %q does not name the failed step", err)
	}

	if len(f.orders.deleted) != 1 {
		t.Fatalf("compensation deletes = %v, want one", f.orders.deleted)
	}
	if len(f.orders.orders) != 0 {
		t.Fatalf("orders left behind: %d", len(f.orders.orders))
	}
	if len(f.carts.calls) != 0 {
		t.Fatalf("cart updated despite failed creation: %v", f.carts.calls)
	}
}

func TestCreateOrderCartFailureIsBestEffort(t *testing.T) {
	f := newServiceFixture(t)
	f.carts.setFn = func(context.Context, string, string) error {
		return errors.New("cart store down")
	}

	result, err := f.service.Create(context.Background(), validCreateCommand())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !result.CartStatus.Attempted || result.CartStatus.OK {
		t.Fatalf("cart outcome = %+v, want attempted failure", result.CartStatus)
	}
	if result.CartStatus.Err == nil {
		t.Fatal("cart outcome error missing")
	}
}

func TestCreateOrderValidationFailsBeforeWrites(t *testing.T) {
	f := newServiceFixture(t)
	cmd := validCreateCommand()
	cmd.Items = nil

	if _, err := f.service.Create(context.Background(), cmd); !errors.Is(err, ErrOrderValidation) {
		t.Fatalf("err = %v, want ErrOrderValidation", err)
	}
	if len(f.orders.orders) != 0 {
		t.Fatal("order written despite validation failure")
	}
}

func seedOrder(t *testing.T, f *serviceFixture) Order {
	t.Helper()
	result, err := f.service.Create(context.Background(), validCreateCommand())
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return result.Order
}

func TestUpdateRejectsBothAxesAtOnce(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	status := domain.OrderStatusProcessing
	payment := domain.PaymentStatusPaid
	_, err := f.service.Update(context.Background(), UpdateOrderCommand{
		OrderID:       order.ID,
		Status:        &status,
		PaymentStatus: &payment,
	})
	if !errors.Is(err, ErrOrderValidation) {
		t.Fatalf("err = %v, want ErrOrderValidation", err)
	}
}

func TestUpdateRejectsDisallowedTransition(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	status := domain.OrderStatusCompleted
	_, err := f.service.Update(context.Background(), UpdateOrderCommand{
		OrderID: order.ID,
		Status:  &status,
	})
	if !errors.Is(err, ErrOrderTransition) {
		t.Fatalf("err = %v, want ErrOrderTransition", err)
	}
	if !strings.Contains(err.Error(), "pending") || !strings.Contains(err.Error(), "completed") {
		t.Fatalf("error %q does not name the attempted transition", err)
	}
}

func TestUpdateAppliesAllowedTransition(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	status := domain.OrderStatusProcessing
	updated, err := f.service.Update(context.Background(), UpdateOrderCommand{
		OrderID: order.ID,
		Status:  &status,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.OrderStatusProcessing {
		t.Fatalf("status = %s, want processing", updated.Status)
	}
	if updated.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("payment status changed unexpectedly: %s", updated.PaymentStatus)
	}
}

func TestUpdateTrackingAndExtra(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	updated, err := f.service.Update(context.Background(), UpdateOrderCommand{
		OrderID:  order.ID,
		Tracking: &TrackingInfo{Carrier: "UPS", TrackingNumber: "1Z999"},
		Extra:    map[string]any{"giftWrap": true},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Metadata.Tracking == nil || updated.Metadata.Tracking.TrackingNumber != "1Z999" {
		t.Fatalf("tracking = %+v", updated.Metadata.Tracking)
	}
	if updated.Metadata.Extra["giftWrap"] != true {
		t.Fatalf("extra = %+v", updated.Metadata.Extra)
	}
}

func TestUpdateNotFound(t *testing.T) {
	f := newServiceFixture(t)
	notes := "x"
	_, err := f.service.Update(context.Background(), UpdateOrderCommand{OrderID: "ord_missing", Notes: &notes})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestUpdateFromPaymentMapping(t *testing.T) {
	cases := []struct {
		status      string
		wantOrder   domain.OrderStatus
		wantPayment domain.PaymentStatus
	}{
		{"paid", domain.OrderStatusPaid, domain.PaymentStatusPaid},
		{"failed", domain.OrderStatusFailed, domain.PaymentStatusFailed},
		{"pending", domain.OrderStatusProcessing, domain.PaymentStatusPending},
		{"refunded", domain.OrderStatusRefunded, domain.PaymentStatusRefunded},
		{"cancelled", domain.OrderStatusCancelled, domain.PaymentStatusFailed},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			f := newServiceFixture(t)
			order := seedOrder(t, f)

			updated, err := f.service.UpdateFromPayment(context.Background(), PaymentResultCommand{
				OrderID:  order.ID,
				Status:   tc.status,
				Provider: "stripe",
				IntentID: "pi_123",
			})
			if err != nil {
				t.Fatalf("UpdateFromPayment: %v", err)
			}
			if updated.Status != tc.wantOrder {
				t.Fatalf("status = %s, want %s", updated.Status, tc.wantOrder)
			}
			if updated.PaymentStatus != tc.wantPayment {
				t.Fatalf("payment status = %s, want %s", updated.PaymentStatus, tc.wantPayment)
			}
			if !strings.Contains(updated.Notes, "stripe") || !strings.Contains(updated.Notes, "pi_123") {
				t.Fatalf("notes %q missing payment context", updated.Notes)
			}
		})
	}
}

func TestUpdateFromPaymentRefundNote(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)
	amount := money("120.00")

	updated, err := f.service.UpdateFromPayment(context.Background(), PaymentResultCommand{
		OrderID:      order.ID,
		Status:       "refunded",
		Provider:     "stripe",
		RefundAmount: &amount,
		RefundReason: "damaged in transit",
	})
	if err != nil {
		t.Fatalf("UpdateFromPayment: %v", err)
	}
	if !strings.Contains(updated.Notes, "120.00") || !strings.Contains(updated.Notes, "damaged in transit") {
		t.Fatalf("notes %q missing refund details", updated.Notes)
	}
}

func TestUpdateFromPaymentUnknownStatus(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	_, err := f.service.UpdateFromPayment(context.Background(), PaymentResultCommand{
		OrderID: order.ID,
		Status:  "on-hold",
	})
	if !errors.Is(err, ErrOrderValidation) {
		t.Fatalf("err = %v, want ErrOrderValidation", err)
	}
}

func TestUpdateStatusWithUndoThenUndo(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	receipt, err := f.service.UpdateStatusWithUndo(context.Background(), StatusChangeCommand{
		OrderID:   order.ID,
		NewStatus: domain.OrderStatusProcessing,
	})
	if err != nil {
		t.Fatalf("UpdateStatusWithUndo: %v", err)
	}
	if !receipt.Changed {
		t.Fatal("receipt says nothing changed")
	}
	if receipt.Order.Status != domain.OrderStatusProcessing {
		t.Fatalf("status = %s, want processing", receipt.Order.Status)
	}

	latest, ok := receipt.Order.Metadata.LatestStatusChange()
	if !ok {
		t.Fatal("status history empty after change")
	}
	if latest.PreviousStatus != domain.OrderStatusPending {
		t.Fatalf("recorded previous = %s, want pending", latest.PreviousStatus)
	}
	if want := f.baseTime.Add(5 * time.Minute); !latest.CanUndoUntil.Equal(want) {
		t.Fatalf("canUndoUntil = %s, want %s", latest.CanUndoUntil, want)
	}

	f.advance(time.Minute)
	reverted, err := receipt.Undo(context.Background())
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if reverted.Status != domain.OrderStatusPending {
		t.Fatalf("reverted status = %s, want pending", reverted.Status)
	}
	entry, _ := reverted.Metadata.LatestStatusChange()
	if !entry.Undone || entry.UndoneAt == nil {
		t.Fatalf("history entry not marked undone: %+v", entry)
	}

	if _, err := receipt.Undo(context.Background()); !errors.Is(err, ErrOrderUndoExpired) {
		t.Fatalf("second undo err = %v, want ErrOrderUndoExpired", err)
	}
}

func TestUndoFailsAfterWindowExpires(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	receipt, err := f.service.UpdateStatusWithUndo(context.Background(), StatusChangeCommand{
		OrderID:   order.ID,
		NewStatus: domain.OrderStatusProcessing,
	})
	if err != nil {
		t.Fatalf("UpdateStatusWithUndo: %v", err)
	}

	f.advance(5*time.Minute + time.Second)
	if _, err := receipt.Undo(context.Background()); !errors.Is(err, ErrOrderUndoExpired) {
		t.Fatalf("err = %v, want ErrOrderUndoExpired", err)
	}

	current, err := f.service.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if current.Status != domain.OrderStatusProcessing {
		t.Fatalf("status reverted despite expired window: %s", current.Status)
	}
}

// truncatingOrderRepo rounds timestamps to microseconds on read, the
// precision Firestore stores them at.
type truncatingOrderRepo struct {
	*memOrderRepo
}

func (r *truncatingOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := r.memOrderRepo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order.CreatedAt = order.CreatedAt.Truncate(time.Microsecond)
	order.UpdatedAt = order.UpdatedAt.Truncate(time.Microsecond)
	for i := range order.Metadata.StatusHistory {
		entry := &order.Metadata.StatusHistory[i]
		entry.ChangedAt = entry.ChangedAt.Truncate(time.Microsecond)
		entry.CanUndoUntil = entry.CanUndoUntil.Truncate(time.Microsecond)
		if entry.UndoneAt != nil {
			undoneAt := entry.UndoneAt.Truncate(time.Microsecond)
			entry.UndoneAt = &undoneAt
		}
	}
	return order, nil
}

func TestUndoSurvivesStoreTimestampTruncation(t *testing.T) {
	now := time.Date(2026, time.March, 14, 10, 30, 0, 123456789, time.UTC)
	repo := &truncatingOrderRepo{memOrderRepo: newMemOrderRepo()}

	service, err := NewOrderService(OrderServiceDeps{
		Orders:   repo,
		Carts:    &stubCartRepo{},
		Counters: &stubCounterRepo{},
		Clock:    func() time.Time { return now },
		Events:   &capturePublisher{},
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}

	result, err := service.Create(context.Background(), validCreateCommand())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	receipt, err := service.UpdateStatusWithUndo(context.Background(), StatusChangeCommand{
		OrderID:   result.Order.ID,
		NewStatus: domain.OrderStatusProcessing,
	})
	if err != nil {
		t.Fatalf("UpdateStatusWithUndo: %v", err)
	}

	now = now.Add(time.Minute)
	reverted, err := receipt.Undo(context.Background())
	if err != nil {
		t.Fatalf("undo after read back from store: %v", err)
	}
	if reverted.Status != domain.OrderStatusPending {
		t.Fatalf("reverted status = %s, want pending", reverted.Status)
	}
}

func TestUpdateStatusWithUndoSameStatusIsNoop(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	receipt, err := f.service.UpdateStatusWithUndo(context.Background(), StatusChangeCommand{
		OrderID:   order.ID,
		NewStatus: domain.OrderStatusPending,
	})
	if err != nil {
		t.Fatalf("UpdateStatusWithUndo: %v", err)
	}
	if receipt.Changed {
		t.Fatal("same-status change reported as changed")
	}
	if len(receipt.Order.Metadata.StatusHistory) != 0 {
		t.Fatalf("history grew on no-op: %+v", receipt.Order.Metadata.StatusHistory)
	}

	same, err := receipt.Undo(context.Background())
	if err != nil {
		t.Fatalf("no-op undo: %v", err)
	}
	if same.Status != domain.OrderStatusPending {
		t.Fatalf("no-op undo status = %s", same.Status)
	}
}

func TestUpdateStatusWithUndoRejectsDisallowedTransition(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	_, err := f.service.UpdateStatusWithUndo(context.Background(), StatusChangeCommand{
		OrderID:   order.ID,
		NewStatus: domain.OrderStatusRefunded,
	})
	if !errors.Is(err, ErrOrderTransition) {
		t.Fatalf("err = %v, want ErrOrderTransition", err)
	}
}

func TestUndoRevertsEvenWhenReverseTransitionIsDisallowed(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	for _, status := range []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusPaid} {
		if _, err := f.service.UpdateStatusWithUndo(context.Background(), StatusChangeCommand{
			OrderID:   order.ID,
			NewStatus: status,
		}); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	receipt, err := f.service.UpdateStatusWithUndo(context.Background(), StatusChangeCommand{
		OrderID:   order.ID,
		NewStatus: domain.OrderStatusCompleted,
	})
	if err != nil {
		t.Fatalf("UpdateStatusWithUndo: %v", err)
	}

	// completed -> paid is not in the forward table; undo bypasses it.
	reverted, err := receipt.Undo(context.Background())
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if reverted.Status != domain.OrderStatusPaid {
		t.Fatalf("reverted status = %s, want paid", reverted.Status)
	}
}

func TestCanUndoStatusChange(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(t, f)

	availability, err := f.service.CanUndoStatusChange(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("CanUndoStatusChange: %v", err)
	}
	if availability.CanUndo {
		t.Fatal("undo available with empty history")
	}

	receipt, err := f.service.UpdateStatusWithUndo(context.Background(), StatusChangeCommand{
		OrderID:   order.ID,
		NewStatus: domain.OrderStatusProcessing,
	})
	if err != nil {
		t.Fatalf("UpdateStatusWithUndo: %v", err)
	}

	f.advance(2 * time.Minute)
	availability, err = f.service.CanUndoStatusChange(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("CanUndoStatusChange: %v", err)
	}
	if !availability.CanUndo {
		t.Fatal("undo should be available inside the window")
	}
	if availability.PreviousStatus != domain.OrderStatusPending {
		t.Fatalf("previous = %s, want pending", availability.PreviousStatus)
	}
	if availability.TimeRemainingSeconds != 180 {
		t.Fatalf("remaining = %d, want 180", availability.TimeRemainingSeconds)
	}

	if _, err := receipt.Undo(context.Background()); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	availability, err = f.service.CanUndoStatusChange(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("CanUndoStatusChange: %v", err)
	}
	if availability.CanUndo {
		t.Fatal("undo still available after being used")
	}
}

func TestEventPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newServiceFixture(t)
	f.events.err = errors.New("broker down")

	if _, err := f.service.Create(context.Background(), validCreateCommand()); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestGetUnknownOrder(t *testing.T) {
	f := newServiceFixture(t)
	if _, err := f.service.Get(context.Background(), "ord_nope"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}
