// ABOUTME: Error values returned by tracker actions.
// ABOUTME: Callers map them to HTTP status codes and CLI messages with errors.Is.
package tracker

import (
	"errors"

	"github.com/harperreed/caltra/internal/estimate"
	"github.com/harperreed/caltra/internal/storage"
)

var (
	// ErrNotAuthenticated is returned by writes made without a user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidInput is returned when a write carries unusable values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned for missing records or records owned by someone else.
	ErrNotFound = storage.ErrNotFound
	// ErrAmbiguous is returned when an ID prefix matches several records.
	ErrAmbiguous = storage.ErrAmbiguous
	// ErrEstimatorUnavailable is returned when no estimation client is configured.
	ErrEstimatorUnavailable = errors.New("estimation unavailable")
	// ErrEmptyQuery is returned when an estimation query is blank.
	ErrEmptyQuery = estimate.ErrEmptyQuery
	// ErrInvalidFormat is returned when the estimation reply cannot be parsed.
	ErrInvalidFormat = estimate.ErrInvalidFormat
)
