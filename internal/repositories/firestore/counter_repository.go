package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/shoppie-mart/api/internal/platform/firestore"
	"github.com/shoppie-mart/api/internal/repositories"
)

const countersCollection = "counters"

type counterDocument struct {
	CurrentValue int64     `firestore:"currentValue"`
	Step         int64     `firestore:"step"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// CounterRepository implements repositories.CounterRepository backed by
// Firestore transactions. When the context already carries a transaction the
// increment joins it instead of opening a new one.
type CounterRepository struct {
	provider *pfirestore.Provider
	counters *pfirestore.BaseRepository[counterDocument]
}

// NewCounterRepository constructs a Firestore-backed counter repository.
func NewCounterRepository(provider *pfirestore.Provider) (*CounterRepository, error) {
	if provider == nil {
		return nil, errors.New("counter repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[counterDocument](provider, countersCollection, nil, nil)
	return &CounterRepository{
		provider: provider,
		counters: base,
	}, nil
}

// Next atomically increments the counter identified by counterID and returns the next value.
func (r *CounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if r == nil || r.provider == nil {
		return 0, errors.New("counter repository not initialised")
	}
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, errors.New("counter repository: counter id is required")
	}
	if step < 0 {
		return 0, fmt.Errorf("counter repository: step must be positive, got %d", step)
	}

	if tx, ok := pfirestore.TxFrom(ctx); ok {
		value, err := r.increment(ctx, tx, id, step)
		if err != nil {
			return 0, pfirestore.WrapError("counters.next", err)
		}
		return value, nil
	}

	var nextValue int64
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		value, err := r.increment(ctx, tx, id, step)
		if err != nil {
			return err
		}
		nextValue = value
		return nil
	})
	if err != nil {
		return 0, pfirestore.WrapError("counters.next", err)
	}
	return nextValue, nil
}

func (r *CounterRepository) increment(ctx context.Context, tx *firestore.Transaction, id string, step int64) (int64, error) {
	ref, err := r.counters.DocumentRef(ctx, id)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()

	snapshot, err := tx.Get(ref)
	switch status.Code(err) {
	case codes.NotFound:
		increment := step
		if increment <= 0 {
			increment = 1
		}
		doc := counterDocument{
			CurrentValue: increment,
			Step:         increment,
			UpdatedAt:    now,
		}
		if err := tx.Create(ref, doc); err != nil {
			return 0, err
		}
		return doc.CurrentValue, nil
	case codes.OK:
		// proceed
	default:
		return 0, err
	}

	var doc counterDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return 0, fmt.Errorf("firestore counters decode %s: %w", id, err)
	}

	increment := step
	if increment <= 0 {
		if doc.Step > 0 {
			increment = doc.Step
		} else {
			increment = 1
		}
	}

	doc.CurrentValue += increment
	doc.Step = increment
	doc.UpdatedAt = now

	if err := tx.Set(ref, doc, firestore.MergeAll); err != nil {
		return 0, err
	}
	return doc.CurrentValue, nil
}

var _ repositories.CounterRepository = (*CounterRepository)(nil)
