package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/piscan/barcode-resolver/internal/domain"
	"github.com/piscan/barcode-resolver/internal/metrics"
)

// ResolverConfig holds configuration for the barcode resolver
type ResolverConfig struct {
	// VendorTag is stamped on every match, e.g. "AMZN:us"
	VendorTag string
	// Logger receives diagnostics for absorbed lookup failures. Defaults to stderr.
	Logger *log.Logger
}

// Resolver looks a barcode up in the catalog once per identifier type and
// merges the results. It holds no per-call state; concurrent use is as safe
// as the injected client.
type Resolver struct {
	client    domain.CatalogClient
	vendorTag string
	logger    *log.Logger
}

// NewResolver creates a new resolver with dependencies
func NewResolver(client domain.CatalogClient, config ResolverConfig) *Resolver {
	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	return &Resolver{
		client:    client,
		vendorTag: config.VendorTag,
		logger:    logger,
	}
}

// Resolve returns the catalog entries matching barcode, trying each identifier
// type in order (DefaultIdentifierTypes when none are given).
//
// Matches keep the identifier-type order, then the catalog's order, and no two
// share a catalog id. Credential, rate-limit and service errors are logged and
// skipped; not-applicable errors are skipped silently. Any other failure is
// returned.
func (r *Resolver) Resolve(ctx context.Context, barcode string, idTypes ...domain.IdentifierType) ([]domain.Match, error) {
	start := time.Now()
	defer func() {
		metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}()

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", domain.ErrInvalidRequest)
	}
	if len(idTypes) == 0 {
		idTypes = domain.DefaultIdentifierTypes
	}

	matches := make([]domain.Match, 0)
	seen := make(map[string]struct{})

	for _, idType := range idTypes {
		resp, err := r.client.ItemLookup(ctx, barcode, idType, domain.SearchIndexAll)
		if err != nil {
			if err := r.absorb(barcode, idType, err); err != nil {
				return nil, err
			}
			continue
		}

		if resp == nil || len(resp.Items) == 0 {
			metrics.Lookups.WithLabelValues(string(idType), metrics.OutcomeEmpty).Inc()
			continue
		}
		metrics.Lookups.WithLabelValues(string(idType), metrics.OutcomeFound).Inc()

		for _, item := range resp.Items {
			if _, dup := seen[item.ASIN]; dup {
				metrics.DuplicatesSkipped.Inc()
				continue
			}
			seen[item.ASIN] = struct{}{}
			matches = append(matches, domain.Match{
				CatalogID:      item.ASIN,
				Description:    item.Title,
				IdentifierType: idType,
				VendorTag:      r.vendorTag,
			})
		}
	}

	return matches, nil
}

// absorb decides whether a lookup failure ends the resolve call. It returns
// nil for the known catalog failure categories.
func (r *Resolver) absorb(barcode string, idType domain.IdentifierType, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotApplicable):
		// barcode is not a valid value for this identifier type
		metrics.Lookups.WithLabelValues(string(idType), metrics.OutcomeNotApplicable).Inc()
		return nil
	case errors.Is(err, domain.ErrCredential):
		metrics.Lookups.WithLabelValues(string(idType), metrics.OutcomeCredentialError).Inc()
		r.logger.Printf("[Resolver] catalog lookup: bad account credentials")
		return nil
	case errors.Is(err, domain.ErrRateLimited):
		metrics.Lookups.WithLabelValues(string(idType), metrics.OutcomeRateLimited).Inc()
		r.logger.Printf("[Resolver] catalog lookup error (%s): %v", idType, err)
		return nil
	case errors.Is(err, domain.ErrServiceUnavailable):
		metrics.Lookups.WithLabelValues(string(idType), metrics.OutcomeServiceError).Inc()
		r.logger.Printf("[Resolver] catalog lookup error (%s): %v", idType, err)
		return nil
	default:
		metrics.Lookups.WithLabelValues(string(idType), metrics.OutcomeFailed).Inc()
		return fmt.Errorf("lookup %q as %s: %w", barcode, idType, err)
	}
}
