package paapi

import (
	"fmt"
	"net/http"

	"github.com/piscan/barcode-resolver/internal/domain"
	"github.com/piscan/barcode-resolver/internal/util"
)

// Catalog error codes with a known classification
const (
	codeInvalidAccount        = "AWS.InvalidAccount"
	codeInvalidClientTokenID  = "InvalidClientTokenId"
	codeMissingClientTokenID  = "MissingClientTokenId"
	codeSignatureDoesNotMatch = "SignatureDoesNotMatch"
	codeRequestThrottled      = "RequestThrottled"
	codeTooManyRequests       = "TooManyRequests"
	codeInternalError         = "AWS.InternalError"
	codeInvalidParameterValue = "AWS.InvalidParameterValue"
	codeNoExactMatches        = "AWS.ECommerceService.NoExactMatches"
)

// APIError is a sanitized catalog failure. Unwrap returns the domain
// sentinel for its category so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	kind       error
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{
		StatusCode: status,
		Code:       code,
		Message:    util.RedactSecrets(message),
		kind:       classify(status, code),
	}
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("catalog api error: status=%d", e.StatusCode)
	if e.Code != "" {
		msg += " code=" + e.Code
	}
	if e.Message != "" {
		msg += " message=" + e.Message
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// classify maps an error code (or, lacking one, the HTTP status) to a domain error
func classify(status int, code string) error {
	switch code {
	case codeInvalidAccount, codeInvalidClientTokenID, codeMissingClientTokenID, codeSignatureDoesNotMatch:
		return domain.ErrCredential
	case codeRequestThrottled, codeTooManyRequests:
		return domain.ErrRateLimited
	case codeInternalError:
		return domain.ErrServiceUnavailable
	case codeInvalidParameterValue:
		return domain.ErrNotApplicable
	case "":
	default:
		return domain.ErrCatalogAPIFailure
	}

	switch {
	case status == http.StatusServiceUnavailable, status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case status >= 500:
		return domain.ErrServiceUnavailable
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrCredential
	default:
		return domain.ErrCatalogAPIFailure
	}
}
