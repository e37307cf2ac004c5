package store

import "sync"

// Status is the process-wide view of the last failure and of collections with
// an operation in flight.
type Status struct {
	mu   sync.Mutex
	err  string
	busy map[string]int
}

func NewStatus() *Status {
	return &Status{busy: make(map[string]int)}
}

// Error returns the last recorded failure, or "".
func (s *Status) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Status) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

func (s *Status) ClearError() { s.SetError("") }

// Busy reports whether an operation on collection is in flight.
func (s *Status) Busy(collection string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[collection] > 0
}

// Loading reports whether any operation is in flight.
func (s *Status) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.busy {
		if n > 0 {
			return true
		}
	}
	return false
}

// begin marks collection busy and returns the func that clears it.
func (s *Status) begin(collection string) func() {
	s.mu.Lock()
	s.busy[collection]++
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.busy[collection]--; s.busy[collection] <= 0 {
				delete(s.busy, collection)
			}
			s.mu.Unlock()
		})
	}
}
