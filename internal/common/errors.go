// Package common defines sentinel errors shared by the repositories, services
// and the REST layer of staffkeeper. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrRotationConflict = errors.New("refresh token rotation conflict")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingIdentity    = errors.New("user id is required")
	ErrRefreshFailed      = errors.New("could not refresh tokens")

	// Token verification errors. They stay internal: the REST layer collapses
	// them into ErrorUnauthorized or ErrRefreshFailed.
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token expired")
)
