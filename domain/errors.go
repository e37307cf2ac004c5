package domain

import "errors"

var (
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidRole     = errors.New("invalid role")
)
