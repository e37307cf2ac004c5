package store

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus/hooks/test"

	"projectboard/domain"
	"projectboard/storage"
)

var testUser = domain.User{UID: "u1", DisplayName: "Ada Lovelace", Email: "ada@example.com"}

var errRemote = errors.New("remote unavailable")

func ptrString(s string) *string { return &s }

func newTestSyncer(opts ...Option) (*Syncer, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewSyncer(NewStatus(), logger, opts...), hook
}

// faultyCollection wraps a Memory collection and fails the configured calls.
type faultyCollection[T storage.Entity[T], P storage.Patch[T]] struct {
	*storage.Memory[T, P]

	mu        sync.Mutex
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	writes    int
}

func newFaulty[T storage.Entity[T], P storage.Patch[T]]() *faultyCollection[T, P] {
	return &faultyCollection[T, P]{Memory: storage.NewMemory[T, P]()}
}

func (f *faultyCollection[T, P]) fail(which *error, err error) {
	f.mu.Lock()
	*which = err
	f.mu.Unlock()
}

func (f *faultyCollection[T, P]) get(which *error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *which
}

func (f *faultyCollection[T, P]) wrote() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *faultyCollection[T, P]) count() {
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
}

func (f *faultyCollection[T, P]) List(ctx context.Context) ([]T, error) {
	if err := f.get(&f.listErr); err != nil {
		return nil, err
	}
	return f.Memory.List(ctx)
}

func (f *faultyCollection[T, P]) Create(ctx context.Context, v T) (string, error) {
	f.count()
	if err := f.get(&f.createErr); err != nil {
		return "", err
	}
	return f.Memory.Create(ctx, v)
}

func (f *faultyCollection[T, P]) Update(ctx context.Context, id string, patch P) error {
	f.count()
	if err := f.get(&f.updateErr); err != nil {
		return err
	}
	return f.Memory.Update(ctx, id, patch)
}

func (f *faultyCollection[T, P]) Delete(ctx context.Context, id string) error {
	f.count()
	if err := f.get(&f.deleteErr); err != nil {
		return err
	}
	return f.Memory.Delete(ctx, id)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (r *recordingSink) Publish(ctx context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingSink) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}
