package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a table or parameter fails validation.
	// It is reported to the caller immediately and never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateKey is returned when a (symbol, timestamp) pair occurs more than once.
	ErrDuplicateKey = fmt.Errorf("%w: duplicate (symbol, timestamp) key", ErrInvalidInput)
)
