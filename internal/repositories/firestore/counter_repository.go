package firestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	firestorev1 "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/snusnumrick/notalock-orders/internal/repositories"
	platform "github.com/snusnumrick/notalock-orders/internal/platform/firestore"
)

const countersCollection = "counters"

type counterDocument struct {
	Value     int64     `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// CounterRepository allocates monotonic sequences inside Firestore
// transactions. Missing counter documents start at zero.
type CounterRepository struct {
	provider *platform.Provider
	clock    func() time.Time
}

// NewCounterRepository builds the Firestore backed counter repository.
func NewCounterRepository(provider *platform.Provider) *CounterRepository {
	return &CounterRepository{provider: provider, clock: time.Now}
}

var _ repositories.CounterRepository = (*CounterRepository)(nil)

// Next increments the counter by step and returns the new value.
func (r *CounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	counterID = strings.TrimSpace(counterID)
	if counterID == "" {
		return 0, repositories.NewCounterError(repositories.CounterErrorInvalidInput,
			"counter id is required", nil)
	}
	if step <= 0 {
		return 0, repositories.NewCounterError(repositories.CounterErrorInvalidInput,
			fmt.Sprintf("step must be positive, got %d", step), nil)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}
	ref := client.Collection(countersCollection).Doc(counterID)

	var next int64
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestorev1.Transaction) error {
		var doc counterDocument
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("firestore: decode counter %s: %w", counterID, err)
			}
		case status.Code(err) == codes.NotFound:
			// First allocation creates the counter.
		default:
			return err
		}

		next = doc.Value + step
		return tx.Set(ref, counterDocument{Value: next, UpdatedAt: r.clock().UTC()})
	})
	if err != nil {
		return 0, repositories.NewCounterError(repositories.CounterErrorUnknown,
			fmt.Sprintf("increment counter %s", counterID), err)
	}
	return next, nil
}
