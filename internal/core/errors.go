package core

import "errors"

var (
	// ErrTransportNotReady is returned before any work starts when the
	// messaging transport cannot accept sends.
	ErrTransportNotReady = errors.New("transport not ready")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrMissingContactFields is returned by SendOne when name or phone is empty.
	ErrMissingContactFields = errors.New("name and phone are required")
)
