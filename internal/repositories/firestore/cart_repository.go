package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	firestorev1 "cloud.google.com/go/firestore"

	"github.com/snusnumrick/notalock-orders/internal/repositories"
	platform "github.com/snusnumrick/notalock-orders/internal/platform/firestore"
)

const cartsCollection = "carts"

type cartDocument struct {
	Status    string    `firestore:"status"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// CartRepository covers the single cart write the order lifecycle performs:
// marking a converted cart so it is not reused.
type CartRepository struct {
	base  *platform.BaseRepository[cartDocument]
	clock func() time.Time
}

// NewCartRepository builds the Firestore backed cart repository.
func NewCartRepository(provider *platform.Provider) *CartRepository {
	return &CartRepository{
		base:  platform.NewBaseRepository[cartDocument](provider, cartsCollection, nil),
		clock: time.Now,
	}
}

var _ repositories.CartRepository = (*CartRepository)(nil)

// SetStatus updates only the status and updatedAt fields of the cart.
func (r *CartRepository) SetStatus(ctx context.Context, cartID string, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return platform.WrapError("carts.update", errors.New("firestore: cart status is required"))
	}

	_, err := r.base.Update(ctx, cartID, []firestorev1.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: r.clock().UTC()},
	})
	return err
}
