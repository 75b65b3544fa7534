package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrExtensionNotFound signals a missing or inactive extension.
	ErrExtensionNotFound = errors.New("extension not found")
	// ErrInvalidQuery signals a malformed search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSearchUnavailable signals that the query backend cannot serve requests.
	ErrSearchUnavailable = errors.New("search unavailable")
)
