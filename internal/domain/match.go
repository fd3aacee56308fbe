package domain

import (
	"fmt"
	"strings"
)

// IdentifierType is the barcode numbering scheme a lookup is performed against
type IdentifierType string

const (
	IdentifierUPC  IdentifierType = "UPC"
	IdentifierEAN  IdentifierType = "EAN"
	IdentifierISBN IdentifierType = "ISBN"
	IdentifierASIN IdentifierType = "ASIN"
)

// DefaultIdentifierTypes is the lookup order used when the caller supplies none
var DefaultIdentifierTypes = []IdentifierType{IdentifierUPC, IdentifierEAN, IdentifierISBN}

// ParseIdentifierType converts user input (any case) into an IdentifierType
func ParseIdentifierType(s string) (IdentifierType, error) {
	switch t := IdentifierType(strings.ToUpper(strings.TrimSpace(s))); t {
	case IdentifierUPC, IdentifierEAN, IdentifierISBN, IdentifierASIN:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown identifier type %q", ErrInvalidRequest, s)
	}
}

// Match is one candidate catalog entry for a scanned barcode
type Match struct {
	CatalogID      string         `json:"sku"`
	Description    string         `json:"desc,omitempty"`
	IdentifierType IdentifierType `json:"type,omitempty"`
	VendorTag      string         `json:"vnd,omitempty"`
}

// CatalogItem is a single item returned by the remote catalog
type CatalogItem struct {
	ASIN  string
	Title string
}

// ItemLookupResponse is the decoded result of one catalog item lookup
type ItemLookupResponse struct {
	Items []CatalogItem
}
