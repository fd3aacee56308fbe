package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/piscan/barcode-resolver/internal/domain"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// BarcodeResolver resolves a barcode to catalog matches
type BarcodeResolver interface {
	Resolve(ctx context.Context, barcode string, idTypes ...domain.IdentifierType) ([]domain.Match, error)
}

// LookupRequest is the body of a barcode lookup. It binds from JSON or from
// the form field "barcode" used by existing scanner clients.
type LookupRequest struct {
	Barcode string   `json:"barcode" form:"barcode" binding:"required"`
	IDTypes []string `json:"idTypes,omitempty" form:"idTypes"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver BarcodeResolver
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver BarcodeResolver) *Handler {
	return &Handler{resolver: resolver}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "barcode-resolver",
		"version": Version,
	})
}

// LookupBarcode resolves a barcode and responds with a JSON array of matches
func (h *Handler) LookupBarcode(c *gin.Context) {
	if h.resolver == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "barcode lookup not configured"})
		return
	}

	var req LookupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
		return
	}

	idTypes := make([]domain.IdentifierType, 0, len(req.IDTypes))
	for _, raw := range req.IDTypes {
		idType, err := domain.ParseIdentifierType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		idTypes = append(idTypes, idType)
	}

	matches, err := h.resolver.Resolve(c.Request.Context(), req.Barcode, idTypes...)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[HTTP] lookup for %q failed: %v", req.Barcode, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog lookup failed"})
		return
	}

	c.JSON(http.StatusOK, matches)
}
