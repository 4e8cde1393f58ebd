package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	firestorev1 "cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
	"github.com/snusnumrick/notalock-orders/internal/repositories"
	platform "github.com/snusnumrick/notalock-orders/internal/platform/firestore"
)

const (
	ordersCollection    = "orders"
	itemsSubcollection  = "items"
	defaultOrderListCap = 500
)

type orderDocument struct {
	OrderNumber     string                 `firestore:"orderNumber"`
	CustomerID      string                 `firestore:"customerId,omitempty"`
	Email           string                 `firestore:"email"`
	Phone           string                 `firestore:"phone,omitempty"`
	Status          string                 `firestore:"status"`
	PaymentStatus   string                 `firestore:"paymentStatus"`
	SubtotalAmount  string                 `firestore:"subtotalAmount"`
	ShippingCost    string                 `firestore:"shippingCost"`
	TaxAmount       string                 `firestore:"taxAmount"`
	TotalAmount     string                 `firestore:"totalAmount"`
	Currency        string                 `firestore:"currency"`
	ShippingAddress *addressDocument       `firestore:"shippingAddress,omitempty"`
	BillingAddress  *addressDocument       `firestore:"billingAddress,omitempty"`
	Notes           string                 `firestore:"notes,omitempty"`
	CartID          string                 `firestore:"cartId,omitempty"`
	StatusHistory   []statusChangeDocument `firestore:"statusHistory,omitempty"`
	Tracking        *trackingDocument      `firestore:"tracking,omitempty"`
	Extra           map[string]any         `firestore:"extra,omitempty"`
	CreatedAt       time.Time              `firestore:"createdAt"`
	UpdatedAt       time.Time              `firestore:"updatedAt"`
}

type orderItemDocument struct {
	ProductID  string `firestore:"productId"`
	SKU        string `firestore:"sku,omitempty"`
	Name       string `firestore:"name"`
	Quantity   int    `firestore:"quantity"`
	UnitPrice  string `firestore:"unitPrice"`
	TotalPrice string `firestore:"totalPrice"`
	Position   int    `firestore:"position"`
}

type addressDocument struct {
	FirstName  string  `firestore:"firstName,omitempty"`
	LastName   string  `firestore:"lastName,omitempty"`
	Line1      string  `firestore:"line1"`
	Line2      *string `firestore:"line2,omitempty"`
	City       string  `firestore:"city"`
	State      *string `firestore:"state,omitempty"`
	PostalCode string  `firestore:"postalCode"`
	Country    string  `firestore:"country"`
	Phone      *string `firestore:"phone,omitempty"`
}

type statusChangeDocument struct {
	PreviousStatus string     `firestore:"previousStatus"`
	NewStatus      string     `firestore:"newStatus"`
	ChangedAt      time.Time  `firestore:"changedAt"`
	CanUndoUntil   time.Time  `firestore:"canUndoUntil"`
	Undone         bool       `firestore:"undone"`
	UndoneAt       *time.Time `firestore:"undoneAt,omitempty"`
}

type trackingDocument struct {
	Carrier        string `firestore:"carrier,omitempty"`
	TrackingNumber string `firestore:"trackingNumber"`
	TrackingURL    string `firestore:"trackingUrl,omitempty"`
}

// OrderRepository persists orders in the "orders" collection with items in an
// "items" subcollection per order document.
type OrderRepository struct {
	base *platform.BaseRepository[orderDocument]
}

// NewOrderRepository builds the Firestore backed order repository.
func NewOrderRepository(provider *platform.Provider) *OrderRepository {
	return &OrderRepository{
		base: platform.NewBaseRepository[orderDocument](provider, ordersCollection, nil),
	}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// Insert writes the order header. Items are written separately so the caller
// can compensate with Delete when the item write fails.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	doc, err := encodeOrder(order)
	if err != nil {
		return err
	}
	_, err = r.base.Create(ctx, order.ID, doc)
	return err
}

// InsertItems writes all item lines under the order document.
func (r *OrderRepository) InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	coll, err := r.itemsRef(ctx, orderID)
	if err != nil {
		return err
	}
	for i, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return platform.WrapError("orders.items.create",
				fmt.Errorf("firestore: item %d of order %s has no id", i, orderID))
		}
		if _, err := coll.Doc(id).Create(ctx, encodeOrderItem(item, i)); err != nil {
			return platform.WrapError("orders.items.create", err)
		}
	}
	return nil
}

// Update overwrites the order header document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	doc, err := encodeOrder(order)
	if err != nil {
		return err
	}
	_, err = r.base.Set(ctx, order.ID, doc)
	return err
}

// Delete removes the order header and any item lines already written. Used
// as the compensation step of order creation.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	coll, err := r.itemsRef(ctx, orderID)
	if err != nil {
		return err
	}

	iter := coll.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return platform.WrapError("orders.items.delete", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return platform.WrapError("orders.items.delete", err)
		}
	}

	return r.base.Delete(ctx, orderID)
}

// FindByID loads the order header plus its item lines.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := decodeOrder(doc.ID, doc.Data)
	if err != nil {
		return domain.Order{}, err
	}

	items, err := r.loadItems(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	return order, nil
}

// List returns orders matching the store-level filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultOrderListCap
	}

	docs, err := r.base.Query(ctx, func(q firestorev1.Query) firestorev1.Query {
		if customer := strings.TrimSpace(filter.CustomerID); customer != "" {
			q = q.Where("customerId", "==", customer)
		}
		if len(filter.Statuses) > 0 {
			statuses := make([]string, 0, len(filter.Statuses))
			for _, status := range filter.Statuses {
				statuses = append(statuses, string(status))
			}
			q = q.Where("status", "in", statuses)
		}
		if filter.CreatedAfter != nil {
			q = q.Where("createdAt", ">=", *filter.CreatedAfter)
		}
		return q.OrderBy("createdAt", firestorev1.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := decodeOrder(doc.ID, doc.Data)
		if err != nil {
			return nil, err
		}
		items, err := r.loadItems(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	coll, err := r.itemsRef(ctx, orderID)
	if err != nil {
		return nil, err
	}

	iter := coll.Documents(ctx)
	defer iter.Stop()

	type positioned struct {
		item     domain.OrderItem
		position int
	}
	var lines []positioned
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, platform.WrapError("orders.items.query", err)
		}
		var doc orderItemDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore: decode item %s of order %s: %w", snap.Ref.ID, orderID, err)
		}
		item, err := decodeOrderItem(snap.Ref.ID, doc)
		if err != nil {
			return nil, err
		}
		lines = append(lines, positioned{item: item, position: doc.Position})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].position < lines[j].position
	})

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.item)
	}
	return items, nil
}

func (r *OrderRepository) itemsRef(ctx context.Context, orderID string) (*firestorev1.CollectionRef, error) {
	doc, err := r.base.DocumentRef(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return doc.Collection(itemsSubcollection), nil
}

func encodeOrder(order domain.Order) (orderDocument, error) {
	if strings.TrimSpace(order.ID) == "" {
		return orderDocument{}, platform.WrapError("orders.encode", errors.New("firestore: order id is required"))
	}

	doc := orderDocument{
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		Email:           order.Email,
		Phone:           order.Phone,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		SubtotalAmount:  order.SubtotalAmount.String(),
		ShippingCost:    order.ShippingCost.String(),
		TaxAmount:       order.TaxAmount.String(),
		TotalAmount:     order.TotalAmount.String(),
		Currency:        order.Currency,
		ShippingAddress: encodeAddress(order.ShippingAddress),
		BillingAddress:  encodeAddress(order.BillingAddress),
		Notes:           order.Notes,
		Extra:           order.Metadata.Extra,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if order.CartRef != nil {
		doc.CartID = *order.CartRef
	}
	if tracking := order.Metadata.Tracking; tracking != nil {
		doc.Tracking = &trackingDocument{
			Carrier:        tracking.Carrier,
			TrackingNumber: tracking.TrackingNumber,
			TrackingURL:    tracking.TrackingURL,
		}
	}
	for _, change := range order.Metadata.StatusHistory {
		doc.StatusHistory = append(doc.StatusHistory, statusChangeDocument{
			PreviousStatus: string(change.PreviousStatus),
			NewStatus:      string(change.NewStatus),
			ChangedAt:      change.ChangedAt,
			CanUndoUntil:   change.CanUndoUntil,
			Undone:         change.Undone,
			UndoneAt:       change.UndoneAt,
		})
	}
	return doc, nil
}

func decodeOrder(id string, doc orderDocument) (domain.Order, error) {
	subtotal, err := parseAmount("subtotalAmount", doc.SubtotalAmount)
	if err != nil {
		return domain.Order{}, err
	}
	shipping, err := parseAmount("shippingCost", doc.ShippingCost)
	if err != nil {
		return domain.Order{}, err
	}
	tax, err := parseAmount("taxAmount", doc.TaxAmount)
	if err != nil {
		return domain.Order{}, err
	}
	total, err := parseAmount("totalAmount", doc.TotalAmount)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:              id,
		OrderNumber:     doc.OrderNumber,
		CustomerID:      doc.CustomerID,
		Email:           doc.Email,
		Phone:           doc.Phone,
		Status:          domain.OrderStatus(doc.Status),
		PaymentStatus:   domain.PaymentStatus(doc.PaymentStatus),
		SubtotalAmount:  subtotal,
		ShippingCost:    shipping,
		TaxAmount:       tax,
		TotalAmount:     total,
		Currency:        doc.Currency,
		ShippingAddress: decodeAddress(doc.ShippingAddress),
		BillingAddress:  decodeAddress(doc.BillingAddress),
		Notes:           doc.Notes,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
	if doc.CartID != "" {
		cartID := doc.CartID
		order.CartRef = &cartID
	}

	order.Metadata.Extra = doc.Extra
	if doc.Tracking != nil {
		order.Metadata.Tracking = &domain.TrackingInfo{
			Carrier:        doc.Tracking.Carrier,
			TrackingNumber: doc.Tracking.TrackingNumber,
			TrackingURL:    doc.Tracking.TrackingURL,
		}
	}
	for _, change := range doc.StatusHistory {
		order.Metadata.StatusHistory = append(order.Metadata.StatusHistory, domain.StatusChange{
			PreviousStatus: domain.OrderStatus(change.PreviousStatus),
			NewStatus:      domain.OrderStatus(change.NewStatus),
			ChangedAt:      change.ChangedAt,
			CanUndoUntil:   change.CanUndoUntil,
			Undone:         change.Undone,
			UndoneAt:       change.UndoneAt,
		})
	}
	return order, nil
}

func encodeOrderItem(item domain.OrderItem, position int) orderItemDocument {
	return orderItemDocument{
		ProductID:  item.ProductID,
		SKU:        item.SKU,
		Name:       item.Name,
		Quantity:   item.Quantity,
		UnitPrice:  item.UnitPrice.String(),
		TotalPrice: item.TotalPrice.String(),
		Position:   position,
	}
}

func decodeOrderItem(id string, doc orderItemDocument) (domain.OrderItem, error) {
	unitPrice, err := parseAmount("unitPrice", doc.UnitPrice)
	if err != nil {
		return domain.OrderItem{}, err
	}
	totalPrice, err := parseAmount("totalPrice", doc.TotalPrice)
	if err != nil {
		return domain.OrderItem{}, err
	}
	return domain.OrderItem{
		ID:         id,
		ProductID:  doc.ProductID,
		SKU:        doc.SKU,
		Name:       doc.Name,
		Quantity:   doc.Quantity,
		UnitPrice:  unitPrice,
		TotalPrice: totalPrice,
	}, nil
}

func encodeAddress(addr *domain.Address) *addressDocument {
	if addr == nil {
		return nil
	}
	return &addressDocument{
		FirstName:  addr.FirstName,
		LastName:   addr.LastName,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
		Phone:      addr.Phone,
	}
}

func decodeAddress(doc *addressDocument) *domain.Address {
	if doc == nil {
		return nil
	}
	return &domain.Address{
		FirstName:  doc.FirstName,
		LastName:   doc.LastName,
		Line1:      doc.Line1,
		Line2:      doc.Line2,
		City:       doc.City,
		State:      doc.State,
		PostalCode: doc.PostalCode,
		Country:    doc.Country,
		Phone:      doc.Phone,
	}
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("firestore: parse %s %q: %w", field, raw, err)
	}
	return amount, nil
}
