package paapi

import (
	"strings"

	"github.com/piscan/barcode-resolver/internal/domain"
)

// itemLookupXML covers both the ItemLookupResponse and ItemLookupErrorResponse documents
type itemLookupXML struct {
	Items struct {
		Request struct {
			Errors []errorXML `xml:"Errors>Error"`
		} `xml:"Request"`
		Item []itemXML `xml:"Item"`
	} `xml:"Items"`
	Errors []errorXML `xml:"Error"`
}

type itemXML struct {
	ASIN  string `xml:"ASIN"`
	Title string `xml:"ItemAttributes>Title"`
}

type errorXML struct {
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

// firstError returns the top-level error if present, else the first request error
func (r *itemLookupXML) firstError() *errorXML {
	if len(r.Errors) > 0 {
		return &r.Errors[0]
	}
	if len(r.Items.Request.Errors) > 0 {
		return &r.Items.Request.Errors[0]
	}
	return nil
}

// mapItems converts decoded items to domain items, dropping entries without an ASIN
func mapItems(items []itemXML) []domain.CatalogItem {
	result := make([]domain.CatalogItem, 0, len(items))
	for _, item := range items {
		asin := strings.TrimSpace(item.ASIN)
		if asin == "" {
			continue
		}
		result = append(result, domain.CatalogItem{
			ASIN:  asin,
			Title: strings.TrimSpace(item.Title),
		})
	}
	return result
}
