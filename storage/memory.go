package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process LiveCollection. Values are deep copied on the way in
// and out so callers never share state with the collection.
type Memory[T Entity[T], P Patch[T]] struct {
	mu      sync.Mutex
	order   []string
	items   map[string]T
	subs    map[int]*memorySub[T]
	nextSub int
	newID   func() string
}

type memorySub[T any] struct {
	mu     sync.Mutex
	closed bool
	filter func(T) bool
	fn     func([]T)
}

func (s *memorySub[T]) deliver(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(filterItems(items, s.filter))
}

// NewMemory creates an empty in-memory collection.
func NewMemory[T Entity[T], P Patch[T]]() *Memory[T, P] {
	return &Memory[T, P]{
		items: make(map[string]T),
		subs:  make(map[int]*memorySub[T]),
		newID: uuid.NewString,
	}
}

func (m *Memory[T, P]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(), nil
}

func (m *Memory[T, P]) Create(ctx context.Context, v T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	id := m.newID()
	m.items[id] = v.WithID(id).Clone()
	m.order = append(m.order, id)
	m.mu.Unlock()
	m.notify()
	return id, nil
}

func (m *Memory[T, P]) Update(ctx context.Context, id string, patch P) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	cur, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.items[id] = patch.Apply(cur).WithID(id)
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Memory[T, P]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if _, ok := m.items[id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.items, id)
	for i, key := range m.order {
		if key == id {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Memory[T, P]) Subscribe(ctx context.Context, filter func(T) bool, fn func([]T)) (Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &memorySub[T]{filter: filter, fn: fn}
	m.mu.Lock()
	key := m.nextSub
	m.nextSub++
	m.subs[key] = sub
	items := m.snapshotLocked()
	m.mu.Unlock()

	sub.deliver(items)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, key)
			m.mu.Unlock()
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()
		})
	}, nil
}

func (m *Memory[T, P]) notify() {
	m.mu.Lock()
	subs := make([]*memorySub[T], 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()
	for _, s := range subs {
		m.mu.Lock()
		items := m.snapshotLocked()
		m.mu.Unlock()
		s.deliver(items)
	}
}

func (m *Memory[T, P]) snapshotLocked() []T {
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id].Clone())
	}
	return out
}
