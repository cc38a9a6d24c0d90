package core

import "errors"

// Errors returned by registry operations. Callers map them to wire codes.
var (
	ErrAxisNotFound    = errors.New("no axis with specified name")
	ErrMustBeStopped   = errors.New("axis must be stopped")
	ErrNoMoreAxisSlots = errors.New("no free axis slot")
	ErrValueLimit      = errors.New("value clamped to limit")
	ErrNoBackend       = errors.New("axis has no pulse backend")
)
