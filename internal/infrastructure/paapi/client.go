package paapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/piscan/barcode-resolver/config"
	"github.com/piscan/barcode-resolver/internal/domain"
	"github.com/piscan/barcode-resolver/internal/util"
	"golang.org/x/time/rate"
)

const (
	requestPath     = "/onca/xml"
	apiVersion      = "2013-08-01"
	responseGroup   = "ItemAttributes"
	maxBodyBytes    = 1 << 20
	timestampLayout = "2006-01-02T15:04:05Z"
)

// localeHosts maps a catalog locale to its Product Advertising API host
var localeHosts = map[string]string{
	"us": "webservices.amazon.com",
	"ca": "webservices.amazon.ca",
	"uk": "webservices.amazon.co.uk",
	"de": "webservices.amazon.de",
	"fr": "webservices.amazon.fr",
	"it": "webservices.amazon.it",
	"es": "webservices.amazon.es",
	"jp": "webservices.amazon.co.jp",
	"in": "webservices.amazon.in",
	"br": "webservices.amazon.com.br",
	"mx": "webservices.amazon.com.mx",
	"cn": "webservices.amazon.cn",
}

// Client handles communication with the Product Advertising API.
// A Client is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	accessKey    string
	secretKey    string
	associateTag string
	endpoint     *url.URL
	rateLimiter  *rate.Limiter
	debug        bool
	now          func() time.Time
}

// NewClient creates a new catalog client for the configured locale
func NewClient(cfg config.CatalogConfig) (*Client, error) {
	endpoint, err := resolveEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	// nil limiter means unpaced
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		accessKey:    cfg.AccessKey,
		secretKey:    cfg.SecretKey,
		associateTag: cfg.AssociateTag,
		endpoint:     endpoint,
		rateLimiter:  limiter,
		now:          time.Now,
	}, nil
}

func resolveEndpoint(cfg config.CatalogConfig) (*url.URL, error) {
	raw := cfg.Endpoint
	if raw == "" {
		host, ok := localeHosts[strings.ToLower(cfg.Locale)]
		if !ok {
			return nil, fmt.Errorf("unsupported catalog locale %q", cfg.Locale)
		}
		raw = "https://" + host
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid catalog endpoint %q", raw)
	}
	return u, nil
}

// SetDebug toggles per-request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// ItemLookup looks up barcode as the given identifier type. Known catalog
// failures are returned as *APIError values that match the domain sentinel
// errors under errors.Is.
func (c *Client) ItemLookup(ctx context.Context, barcode string, idType domain.IdentifierType, searchIndex string) (*domain.ItemLookupResponse, error) {
	if c.debug {
		log.Printf("[PAAPI] ItemLookup called with barcode: %q, idType: %s", barcode, idType)
	}

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	params := url.Values{}
	params.Set("Service", "AWSECommerceService")
	params.Set("Operation", "ItemLookup")
	params.Set("Version", apiVersion)
	params.Set("AWSAccessKeyId", c.accessKey)
	params.Set("AssociateTag", c.associateTag)
	params.Set("ItemId", barcode)
	params.Set("IdType", string(idType))
	params.Set("ResponseGroup", responseGroup)
	params.Set("Timestamp", c.now().UTC().Format(timestampLayout))
	// SearchIndex is rejected for ASIN lookups
	if idType != domain.IdentifierASIN && searchIndex != "" {
		params.Set("SearchIndex", searchIndex)
	}

	resp, body, err := c.doRequest(ctx, c.signedURL(params))
	if err != nil {
		return nil, err
	}

	var parsed itemLookupXML
	if err := xml.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, newAPIError(resp.StatusCode, "", "")
		}
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrCatalogAPIFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		if e := parsed.firstError(); e != nil {
			return nil, newAPIError(resp.StatusCode, e.Code, e.Message)
		}
		return nil, newAPIError(resp.StatusCode, "", "")
	}

	items := mapItems(parsed.Items.Item)
	if len(items) == 0 {
		if e := parsed.firstError(); e != nil && e.Code != codeNoExactMatches {
			return nil, newAPIError(resp.StatusCode, e.Code, e.Message)
		}
	}

	if c.debug {
		log.Printf("[PAAPI] Found %d items for barcode: %q, idType: %s", len(items), barcode, idType)
	}
	return &domain.ItemLookupResponse{Items: items}, nil
}

// doRequest executes a GET request and reads the (bounded) response body
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s", util.RedactSecrets(err.Error()))
	}
	req.Header.Set("User-Agent", "barcode-resolver/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("catalog request aborted: %w", ctxErr)
		}
		// url.Error carries the signed URL
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrCatalogAPIFailure, util.RedactSecrets(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrCatalogAPIFailure, err)
	}
	return resp, body, nil
}

// signedURL returns the request URL with an HMAC-SHA256 signature appended
func (c *Client) signedURL(params url.Values) string {
	// RFC 3986 encoding, keys sorted by byte value
	canonical := strings.ReplaceAll(params.Encode(), "+", "%20")

	stringToSign := strings.Join([]string{
		http.MethodGet,
		strings.ToLower(c.endpoint.Host),
		requestPath,
		canonical,
	}, "\n")

	signature := sign(c.secretKey, stringToSign)

	u := *c.endpoint
	u.Path = requestPath
	u.RawQuery = canonical + "&Signature=" + url.QueryEscape(signature)
	return u.String()
}

func sign(secretKey, stringToSign string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
