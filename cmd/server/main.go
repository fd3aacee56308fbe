package main

import (
	"fmt"
	"log"
	"os"

	"github.com/piscan/barcode-resolver/config"
	httpDelivery "github.com/piscan/barcode-resolver/internal/delivery/http"
	"github.com/piscan/barcode-resolver/internal/infrastructure/paapi"
	"github.com/piscan/barcode-resolver/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Catalog.Validate(); err != nil {
		log.Fatalf("Invalid catalog configuration: %v", err)
	}

	log.Printf("Starting Barcode Resolver v%s", httpDelivery.Version)
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Catalog locale: %s (tag %s)", cfg.Catalog.Locale, cfg.Catalog.AssociateTag)

	catalogClient, err := paapi.NewClient(cfg.Catalog)
	if err != nil {
		log.Fatalf("Failed to create catalog client: %v", err)
	}

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		catalogClient.SetDebug(true)
		log.Printf("Catalog client debug mode enabled")
	}

	resolver := usecase.NewResolver(catalogClient, usecase.ResolverConfig{
		VendorTag: cfg.Catalog.VendorTag(),
		Logger:    log.Default(),
	})

	handler := httpDelivery.NewHandler(resolver)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
}
