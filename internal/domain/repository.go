package domain

import "context"

// SearchIndexAll searches every catalog category
const SearchIndexAll = "All"

// CatalogClient defines the interface for looking up items in the remote product catalog.
//
// Implementations report failures with the sentinel errors in this package
// (ErrCredential, ErrRateLimited, ErrServiceUnavailable, ErrNotApplicable) so
// callers can classify them with errors.Is.
type CatalogClient interface {
	ItemLookup(ctx context.Context, barcode string, idType IdentifierType, searchIndex string) (*ItemLookupResponse, error)
}
