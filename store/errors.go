package store

import (
	"errors"
	"fmt"
)

// Kind classifies a store failure.
type Kind int

const (
	KindCreate Kind = iota + 1
	KindUpdate
	KindDelete
	KindLoad
	KindSeed
	KindLookup
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindLoad:
		return "load"
	case KindSeed:
		return "seed"
	case KindLookup:
		return "lookup"
	}
	return "unknown"
}

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrTemplateIndex       = errors.New("task template index out of range")
	ErrEmptyName           = errors.New("name is required")
)

// OpError is returned by every failed store operation. Msg is the
// human-readable text also recorded in Status.
type OpError struct {
	Kind       Kind
	Collection string
	Msg        string
	Err        error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// IsKind reports whether err is an OpError of kind k.
func IsKind(err error, k Kind) bool {
	var opErr *OpError
	return errors.As(err, &opErr) && opErr.Kind == k
}
