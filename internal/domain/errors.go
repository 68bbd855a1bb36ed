package domain

import "errors"

var (
	ErrUnsupportedSymbol         = errors.New("unsupported symbol")
	ErrUnsupportedTimeframe      = errors.New("unsupported timeframe")
	ErrUnsupportedRepresentation = errors.New("unsupported representation")

	// ErrMalformedPayload marks a collaborator response that failed shape validation
	ErrMalformedPayload = errors.New("malformed payload")

	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
