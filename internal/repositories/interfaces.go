package repositories

import (
	"context"
	"time"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderListFilter narrows order listings served directly by the store.
// In-memory search refinement happens in the services layer.
type OrderListFilter struct {
	CustomerID   string
	Statuses     []domain.OrderStatus
	CreatedAfter *time.Time
	Limit        int
}

// OrderRepository persists order aggregates, items and status history included.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
}

// CartRepository covers the single cart side effect the order lifecycle
// needs: marking a linked cart with a new status, returning nothing.
type CartRepository interface {
	SetStatus(ctx context.Context, cartID string, status string) error
}

// CounterRepository provides monotonic sequences used for order numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}
