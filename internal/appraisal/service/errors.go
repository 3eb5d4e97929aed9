package service

import "errors"

// Failure kinds surfaced to callers. Services wrap them with context, so
// match with errors.Is. Field level input problems are *validx.Error.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrExpired         = errors.New("expired")
	ErrConflict        = errors.New("conflict")
)
