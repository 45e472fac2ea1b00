// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Startup / configuration errors (fatal, not recoverable per-request).
	ErrConfiguration = errors.New("configuration error")

	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrRepository    = errors.New("repository error")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")

	// Ingestion errors.
	ErrDuplicateName  = errors.New("file name already exists")
	ErrSizeConversion = errors.New("file size out of range")
	ErrStorageIO      = errors.New("storage i/o error")
	ErrRemoteStorage  = errors.New("remote storage error")
	ErrNoLinkProduced = errors.New("no link produced")
)
