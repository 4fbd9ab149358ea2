package bundle

import "errors"

var (
	ErrNotFound        = errors.New("bundle not found")
	ErrEmptySources    = errors.New("bundle must have at least one source")
	ErrEmptyPath       = errors.New("bundle source path is empty")
	ErrEmptyName       = errors.New("bundle name is empty")
	ErrMissingOutput   = errors.New("bundle output is required")
	ErrDuplicateName   = errors.New("bundle name already defined")
	ErrDuplicateOutput = errors.New("bundle output already used")
	ErrFrozen          = errors.New("registry is frozen")
)
