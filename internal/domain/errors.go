package domain

import "errors"

var (
	// ErrCredential is returned when the catalog rejects the account or client token
	ErrCredential = errors.New("catalog credentials rejected")

	// ErrRateLimited is returned when the catalog reports too many requests
	ErrRateLimited = errors.New("catalog rate limit exceeded")

	// ErrServiceUnavailable is returned when the catalog reports an internal error
	ErrServiceUnavailable = errors.New("catalog service error")

	// ErrNotApplicable is returned when the barcode is not a valid value for the
	// requested identifier type
	ErrNotApplicable = errors.New("barcode not applicable to identifier type")

	// ErrCatalogAPIFailure is returned for any catalog failure outside the known categories
	ErrCatalogAPIFailure = errors.New("catalog API request failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMissingCredentials is returned when a lookup is attempted without configured keys
	ErrMissingCredentials = errors.New("catalog credentials not configured")
)
