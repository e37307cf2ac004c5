package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an update or delete targets an unknown id.
var ErrNotFound = errors.New("not found")

// Entity is implemented by every stored domain value.
type Entity[T any] interface {
	Key() string
	WithID(id string) T
	Clone() T
}

// Patch is a partial update for T.
type Patch[T any] interface {
	Validate() error
	Apply(v T) T
}

// Collection is the remote persistence contract for one collection of
// documents. Ids are assigned by the collection on Create.
type Collection[T Entity[T], P Patch[T]] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, v T) (string, error)
	Update(ctx context.Context, id string, patch P) error
	Delete(ctx context.Context, id string) error
}

// Unsubscribe stops a subscription. Once it returns no further callbacks are
// delivered. It must not be called from inside the subscription callback.
type Unsubscribe func()

// LiveCollection is a Collection whose contents can be observed. Subscribe
// delivers the full filtered collection once immediately and again after
// every change. A nil filter matches everything.
type LiveCollection[T Entity[T], P Patch[T]] interface {
	Collection[T, P]
	Subscribe(ctx context.Context, filter func(T) bool, fn func([]T)) (Unsubscribe, error)
}

func filterItems[T any](items []T, filter func(T) bool) []T {
	if filter == nil {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if filter(it) {
			out = append(out, it)
		}
	}
	return out
}
