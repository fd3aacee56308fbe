// Command lookup resolves a single barcode against the product catalog and
// prints the matches as a JSON array on stdout. Diagnostics go to stderr.
//
// Usage:
//
//	lookup <barcode>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/piscan/barcode-resolver/config"
	"github.com/piscan/barcode-resolver/internal/domain"
	"github.com/piscan/barcode-resolver/internal/infrastructure/paapi"
	"github.com/piscan/barcode-resolver/internal/usecase"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type barcodeResolver interface {
	Resolve(ctx context.Context, barcode string, idTypes ...domain.IdentifierType) ([]domain.Match, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintf(stderr, "usage: %s <barcode>\n", filepath.Base(args[0]))
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}
	if err := cfg.Catalog.Validate(); err != nil {
		fmt.Fprintf(stderr, "Cannot look up barcodes: %v\n", err)
		return exitError
	}

	client, err := paapi.NewClient(cfg.Catalog)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create catalog client: %v\n", err)
		return exitError
	}

	resolver := usecase.NewResolver(client, usecase.ResolverConfig{
		VendorTag: cfg.Catalog.VendorTag(),
		Logger:    log.New(stderr, "", log.LstdFlags),
	})

	return lookup(ctx, resolver, args[1], stdout, stderr)
}

// lookup writes the matches for barcode to stdout. An empty result is
// printed as [] rather than suppressed.
func lookup(ctx context.Context, resolver barcodeResolver, barcode string, stdout, stderr io.Writer) int {
	matches, err := resolver.Resolve(ctx, barcode)
	if err != nil {
		fmt.Fprintf(stderr, "lookup failed: %v\n", err)
		return exitError
	}
	if matches == nil {
		matches = []domain.Match{}
	}

	if err := json.NewEncoder(stdout).Encode(matches); err != nil {
		fmt.Fprintf(stderr, "failed to write result: %v\n", err)
		return exitError
	}
	return exitOK
}
