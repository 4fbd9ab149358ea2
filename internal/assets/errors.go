package assets

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound  = errors.New("asset source not found")
	ErrUnknownFilter = errors.New("unknown filter")
	ErrNotFrozen     = errors.New("bundle registry must be frozen before building")
	ErrNotBuilt      = errors.New("bundle not built yet")
)

// FilterError reports a transform failure for a bundle.
type FilterError struct {
	Bundle string
	Filter string
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %s failed for bundle %s: %v", e.Filter, e.Bundle, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}
