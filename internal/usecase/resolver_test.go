package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"testing"

	"github.com/piscan/barcode-resolver/internal/domain"
	"github.com/piscan/barcode-resolver/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lookupCall records one ItemLookup invocation
type lookupCall struct {
	barcode     string
	idType      domain.IdentifierType
	searchIndex string
}

// MockCatalogClient is a mock implementation of domain.CatalogClient
type MockCatalogClient struct {
	items  map[domain.IdentifierType][]domain.CatalogItem
	errors map[domain.IdentifierType]error
	calls  []lookupCall
}

func NewMockCatalogClient() *MockCatalogClient {
	return &MockCatalogClient{
		items:  make(map[domain.IdentifierType][]domain.CatalogItem),
		errors: make(map[domain.IdentifierType]error),
	}
}

func (m *MockCatalogClient) ItemLookup(ctx context.Context, barcode string, idType domain.IdentifierType, searchIndex string) (*domain.ItemLookupResponse, error) {
	m.calls = append(m.calls, lookupCall{barcode: barcode, idType: idType, searchIndex: searchIndex})
	if err, ok := m.errors[idType]; ok {
		return nil, err
	}
	return &domain.ItemLookupResponse{Items: m.items[idType]}, nil
}

func newTestResolver(client domain.CatalogClient) (*Resolver, *bytes.Buffer) {
	var diagnostics bytes.Buffer
	resolver := NewResolver(client, ResolverConfig{
		VendorTag: "AMZN:us",
		Logger:    log.New(&diagnostics, "", 0),
	})
	return resolver, &diagnostics
}

func diagnosticLines(buf *bytes.Buffer) []string {
	text := strings.TrimRight(buf.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func notApplicable(idType domain.IdentifierType) error {
	return fmt.Errorf("%w: not a valid value for %s", domain.ErrNotApplicable, idType)
}

func TestNewResolver(t *testing.T) {
	t.Run("defaults logger", func(t *testing.T) {
		resolver := NewResolver(NewMockCatalogClient(), ResolverConfig{})
		require.NotNil(t, resolver)
		assert.NotNil(t, resolver.logger)
		assert.Empty(t, resolver.vendorTag)
	})

	t.Run("keeps vendor tag", func(t *testing.T) {
		resolver := NewResolver(NewMockCatalogClient(), ResolverConfig{VendorTag: "AMZN:de"})
		assert.Equal(t, "AMZN:de", resolver.vendorTag)
	})
}

func TestResolve_UPCMatch(t *testing.T) {
	client := NewMockCatalogClient()
	client.items[domain.IdentifierUPC] = []domain.CatalogItem{{ASIN: "B000123456", Title: "Widget"}}
	client.errors[domain.IdentifierEAN] = notApplicable(domain.IdentifierEAN)
	client.errors[domain.IdentifierISBN] = notApplicable(domain.IdentifierISBN)
	resolver, diagnostics := newTestResolver(client)

	matches, err := resolver.Resolve(context.Background(), "012345678905",
		domain.IdentifierUPC, domain.IdentifierEAN, domain.IdentifierISBN)

	require.NoError(t, err)
	assert.Equal(t, []domain.Match{{
		CatalogID:      "B000123456",
		Description:    "Widget",
		IdentifierType: domain.IdentifierUPC,
		VendorTag:      "AMZN:us",
	}}, matches)
	assert.Empty(t, diagnosticLines(diagnostics))
	assert.Len(t, client.calls, 3)
}

func TestResolve_DefaultIdentifierTypes(t *testing.T) {
	client := NewMockCatalogClient()
	resolver, _ := newTestResolver(client)

	_, err := resolver.Resolve(context.Background(), "012345678905")

	require.NoError(t, err)
	require.Len(t, client.calls, 3)
	for i, want := range []domain.IdentifierType{domain.IdentifierUPC, domain.IdentifierEAN, domain.IdentifierISBN} {
		assert.Equal(t, want, client.calls[i].idType)
		assert.Equal(t, "012345678905", client.calls[i].barcode)
		assert.Equal(t, domain.SearchIndexAll, client.calls[i].searchIndex)
	}
}

func TestResolve_CallerOrderIsAuthoritative(t *testing.T) {
	client := NewMockCatalogClient()
	client.items[domain.IdentifierISBN] = []domain.CatalogItem{{ASIN: "0134685997", Title: "Effective Java"}}
	client.items[domain.IdentifierEAN] = []domain.CatalogItem{{ASIN: "B07EAN0001", Title: "Effective Java (EAN)"}}
	resolver, _ := newTestResolver(client)

	matches, err := resolver.Resolve(context.Background(), "9780134685991", domain.IdentifierISBN, domain.IdentifierEAN)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, domain.IdentifierISBN, matches[0].IdentifierType)
	assert.Equal(t, domain.IdentifierEAN, matches[1].IdentifierType)
	assert.Len(t, client.calls, 2)
}

func TestResolve_DuplicateAcrossTypes(t *testing.T) {
	client := NewMockCatalogClient()
	client.items[domain.IdentifierUPC] = []domain.CatalogItem{{ASIN: "B000123456", Title: "Widget"}}
	client.items[domain.IdentifierEAN] = []domain.CatalogItem{{ASIN: "B000123456", Title: "Widget (EU)"}}
	client.errors[domain.IdentifierISBN] = notApplicable(domain.IdentifierISBN)
	resolver, _ := newTestResolver(client)

	before := testutil.ToFloat64(metrics.DuplicatesSkipped)
	matches, err := resolver.Resolve(context.Background(), "012345678905")

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Widget", matches[0].Description)
	assert.Equal(t, domain.IdentifierUPC, matches[0].IdentifierType)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DuplicatesSkipped))
}

func TestResolve_DuplicateWithinType(t *testing.T) {
	client := NewMockCatalogClient()
	client.items[domain.IdentifierUPC] = []domain.CatalogItem{
		{ASIN: "B1", Title: "first"},
		{ASIN: "B2", Title: "second"},
		{ASIN: "B1", Title: "first again"},
	}
	resolver, _ := newTestResolver(client)

	matches, err := resolver.Resolve(context.Background(), "012345678905", domain.IdentifierUPC)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "B1", matches[0].CatalogID)
	assert.Equal(t, "first", matches[0].Description)
	assert.Equal(t, "B2", matches[1].CatalogID)
}

func TestResolve_AllNotApplicable(t *testing.T) {
	client := NewMockCatalogClient()
	for _, idType := range domain.DefaultIdentifierTypes {
		client.errors[idType] = notApplicable(idType)
	}
	resolver, diagnostics := newTestResolver(client)

	matches, err := resolver.Resolve(context.Background(), "not-a-barcode")

	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
	assert.Empty(t, diagnosticLines(diagnostics))
	assert.Len(t, client.calls, 3)
}

func TestResolve_CredentialErrorForAllTypes(t *testing.T) {
	client := NewMockCatalogClient()
	for _, idType := range domain.DefaultIdentifierTypes {
		client.errors[idType] = fmt.Errorf("%w: InvalidClientTokenId", domain.ErrCredential)
	}
	resolver, diagnostics := newTestResolver(client)

	matches, err := resolver.Resolve(context.Background(), "012345678905")

	require.NoError(t, err)
	assert.Empty(t, matches)
	lines := diagnosticLines(diagnostics)
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, "[Resolver] catalog lookup: bad account credentials", line)
	}
}

func TestResolve_AbsorbedErrorsLogOneLine(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"credential", domain.ErrCredential, metrics.OutcomeCredentialError},
		{"rate limited", fmt.Errorf("%w: RequestThrottled", domain.ErrRateLimited), metrics.OutcomeRateLimited},
		{"service error", fmt.Errorf("%w: AWS.InternalError", domain.ErrServiceUnavailable), metrics.OutcomeServiceError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewMockCatalogClient()
			client.errors[domain.IdentifierEAN] = tt.err
			client.items[domain.IdentifierISBN] = []domain.CatalogItem{{ASIN: "B3", Title: "after failure"}}
			resolver, diagnostics := newTestResolver(client)
			counter := metrics.Lookups.WithLabelValues(string(domain.IdentifierEAN), tt.outcome)
			before := testutil.ToFloat64(counter)

			matches, err := resolver.Resolve(context.Background(), "012345678905")

			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, "B3", matches[0].CatalogID)
			assert.Len(t, diagnosticLines(diagnostics), 1)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestResolve_DiagnosticIncludesUnderlyingError(t *testing.T) {
	client := NewMockCatalogClient()
	client.errors[domain.IdentifierUPC] = fmt.Errorf("%w: RequestThrottled: slow down", domain.ErrRateLimited)
	resolver, diagnostics := newTestResolver(client)

	_, err := resolver.Resolve(context.Background(), "012345678905", domain.IdentifierUPC)

	require.NoError(t, err)
	assert.Contains(t, diagnostics.String(), "RequestThrottled: slow down")
	assert.Contains(t, diagnostics.String(), "(UPC)")
}

func TestResolve_UnexpectedErrorPropagates(t *testing.T) {
	client := NewMockCatalogClient()
	client.items[domain.IdentifierUPC] = []domain.CatalogItem{{ASIN: "B1", Title: "Widget"}}
	client.errors[domain.IdentifierEAN] = fmt.Errorf("%w: AWS.MissingParameters", domain.ErrCatalogAPIFailure)
	resolver, diagnostics := newTestResolver(client)

	matches, err := resolver.Resolve(context.Background(), "012345678905")

	assert.Nil(t, matches)
	assert.ErrorIs(t, err, domain.ErrCatalogAPIFailure)
	assert.Contains(t, err.Error(), "as EAN")
	assert.Len(t, client.calls, 2, "lookup stops at the unexpected failure")
	assert.Empty(t, diagnosticLines(diagnostics))
}

func TestResolve_ContextCancellationPropagates(t *testing.T) {
	client := NewMockCatalogClient()
	client.errors[domain.IdentifierUPC] = fmt.Errorf("catalog request aborted: %w", context.Canceled)
	resolver, _ := newTestResolver(client)

	_, err := resolver.Resolve(context.Background(), "012345678905")

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResolve_InvalidBarcode(t *testing.T) {
	client := NewMockCatalogClient()
	resolver, _ := newTestResolver(client)

	for _, barcode := range []string{"", "   "} {
		_, err := resolver.Resolve(context.Background(), barcode)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	}
	assert.Empty(t, client.calls)
}

func TestResolve_NilResponseIsEmpty(t *testing.T) {
	resolver, _ := newTestResolver(nilResponseClient{})

	matches, err := resolver.Resolve(context.Background(), "012345678905")

	require.NoError(t, err)
	assert.Empty(t, matches)
}

type nilResponseClient struct{}

func (nilResponseClient) ItemLookup(ctx context.Context, barcode string, idType domain.IdentifierType, searchIndex string) (*domain.ItemLookupResponse, error) {
	return nil, nil
}

// TestResolve_Invariants drives the resolver with random catalog behaviour and
// checks uniqueness and ordering of the result.
func TestResolve_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	absorbed := []error{domain.ErrNotApplicable, domain.ErrCredential, domain.ErrRateLimited, domain.ErrServiceUnavailable}
	allTypes := []domain.IdentifierType{domain.IdentifierUPC, domain.IdentifierEAN, domain.IdentifierISBN}

	for i := 0; i < 200; i++ {
		client := NewMockCatalogClient()
		order := make([]domain.IdentifierType, len(allTypes))
		copy(order, allTypes)
		rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })

		for _, idType := range order {
			if rng.Intn(3) == 0 {
				client.errors[idType] = absorbed[rng.Intn(len(absorbed))]
				continue
			}
			for n := rng.Intn(5); n > 0; n-- {
				asin := fmt.Sprintf("B%02d", rng.Intn(8))
				client.items[idType] = append(client.items[idType], domain.CatalogItem{ASIN: asin, Title: asin})
			}
		}

		resolver, _ := newTestResolver(client)
		matches, err := resolver.Resolve(context.Background(), "012345678905", order...)
		require.NoError(t, err)

		seen := map[string]bool{}
		position := map[domain.IdentifierType]int{}
		for idx, idType := range order {
			position[idType] = idx
		}
		last := -1
		for _, m := range matches {
			assert.False(t, seen[m.CatalogID], "duplicate catalog id %s", m.CatalogID)
			seen[m.CatalogID] = true
			assert.GreaterOrEqual(t, position[m.IdentifierType], last, "identifier type order violated")
			last = position[m.IdentifierType]
		}

		// every distinct item from a successful lookup is present
		for _, idType := range order {
			for _, item := range client.items[idType] {
				if _, failed := client.errors[idType]; !failed {
					assert.True(t, seen[item.ASIN])
				}
			}
		}
	}
}
