package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so adapters can pick a user-facing message without leaking gateway details.
var (
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")

	ErrRoleNotFound       = errors.New("role not found")
	ErrAlreadyVerified    = errors.New("already verified")
	ErrInteractionExpired = errors.New("interaction expired")
	ErrQueueClosed        = errors.New("switch queue closed")
)
