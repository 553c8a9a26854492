// Package shop is the HTTP client for the backend shop API: the
// session-scoped cart, checkout, recycling intake, and the admin
// statistics endpoint.
//
// Cart identity is the anonymous session token sent as the X-Session
// header on every request. All cart state lives server-side; this
// client never caches anything.
package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rgamer-store/internal/model"
)

// API paths, relative to the backend base URL.
const (
	pathCart      = "api/shop/cart/"
	pathCartAdd   = "api/shop/cart/"
	pathCartUpd   = "api/shop/cart/update/"
	pathCartRm    = "api/shop/cart/remove/"
	pathCartClear = "api/shop/cart/clear/"
	pathCheckout  = "api/shop/checkout/"
	pathRecycling = "api/shop/recycling-requests/"
	pathStats     = "api/shop/admin/stats/"
)

// Client is the shop API HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string // always ends with "/"
}

// NewClient creates a shop client against baseURL using rt as the
// underlying transport (browser-fingerprint or plain, per config).
func NewClient(baseURL string, rt http.RoundTripper) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: rt,
		},
		baseURL: baseURL,
	}
}

// === Cart Operations ===

// GetCart retrieves the current server cart for the session.
// A response without an items collection is malformed and reported as
// such; callers treat it exactly like a failure response.
func (c *Client) GetCart(ctx context.Context, sessionKey string) (*Cart, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathCart, nil, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("creating cart request: %w", err)
	}

	var cart Cart
	if err := c.do(req, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		return nil, model.NewMalformedError("cart items missing or not a collection")
	}
	return &cart, nil
}

// AddItem appends quantity of a variant to the session's server cart.
// The backend increments the existing line if the variant is already
// in the cart.
func (c *Client) AddItem(ctx context.Context, sessionKey string, variantID int64, quantity int) error {
	body := &cartMutationRequest{VariantID: variantID, Quantity: quantity}

	req, err := c.newRequest(ctx, http.MethodPost, pathCartAdd, body, sessionKey)
	if err != nil {
		return fmt.Errorf("creating add request: %w", err)
	}
	return c.do(req, nil)
}

// UpdateQuantity sets the absolute quantity for a variant.
// quantity <= 0 signals removal server-side.
func (c *Client) UpdateQuantity(ctx context.Context, sessionKey string, variantID int64, quantity int) error {
	body := &cartMutationRequest{VariantID: variantID, Quantity: quantity}

	req, err := c.newRequest(ctx, http.MethodPost, pathCartUpd, body, sessionKey)
	if err != nil {
		return fmt.Errorf("creating update request: %w", err)
	}
	return c.do(req, nil)
}

// RemoveItem removes a variant's line from the session's server cart.
func (c *Client) RemoveItem(ctx context.Context, sessionKey string, variantID int64) error {
	body := &cartMutationRequest{VariantID: variantID}

	req, err := c.newRequest(ctx, http.MethodPost, pathCartRm, body, sessionKey)
	if err != nil {
		return fmt.Errorf("creating remove request: %w", err)
	}
	return c.do(req, nil)
}

// ClearCart empties the server cart for the session.
func (c *Client) ClearCart(ctx context.Context, sessionKey string) error {
	req, err := c.newRequest(ctx, http.MethodPost, pathCartClear, nil, sessionKey)
	if err != nil {
		return fmt.Errorf("creating clear request: %w", err)
	}
	return c.do(req, nil)
}

// === Checkout ===

// Checkout submits an order from the session's server cart.
// idempotencyKey is generated client-side per attempt so the backend
// can dedupe network-level replays of a single submission.
func (c *Client) Checkout(ctx context.Context, sessionKey, idempotencyKey string, customer model.CustomerInfo) (*model.OrderConfirmation, error) {
	body := &checkoutRequest{
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		CustomerNotes:   customer.Notes,
		PaymentMethod:   model.PaymentMethodManual,
	}

	req, err := c.newRequest(ctx, http.MethodPost, pathCheckout, body, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("creating checkout request: %w", err)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	var conf model.OrderConfirmation
	if err := c.do(req, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// === Recycling intake ===

// SubmitRecyclingRequest files an equipment recycling request.
func (c *Client) SubmitRecyclingRequest(ctx context.Context, r RecyclingRequest) error {
	req, err := c.newRequest(ctx, http.MethodPost, pathRecycling, &r, "")
	if err != nil {
		return fmt.Errorf("creating recycling request: %w", err)
	}
	return c.do(req, nil)
}

// === Admin statistics ===

// Stats retrieves per-day order statistics for the last days days.
// Requires a staff bearer credential.
func (c *Client) Stats(ctx context.Context, bearer string, days int) (*AdminStats, error) {
	path := pathStats + "?days=" + strconv.Itoa(days)

	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, fmt.Errorf("creating stats request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	var stats AdminStats
	if err := c.do(req, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// === HTTP Helpers ===

// newRequest creates a request with the session header and an
// anti-cache ts query param (the backend sits behind caching layers
// that must never serve a stale cart).
func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}, sessionKey string) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("building request URL: %w", err)
	}
	q := u.Query()
	q.Set("ts", strconv.FormatInt(time.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if sessionKey != "" {
		req.Header.Set("X-Session", sessionKey)
	}
	return req, nil
}

// do executes the request and decodes the response.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewConnectivityError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, body)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return model.NewMalformedError(fmt.Sprintf("parsing response: %v", err))
		}
	}
	return nil
}

// parseError converts backend error responses to model.APIError.
// The message comes from the body's detail/error field when present,
// else a generic status-coded fallback.
func parseError(statusCode int, body []byte) error {
	var eb errorBody
	json.Unmarshal(body, &eb) // Best effort parse

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		msg := eb.message()
		if msg == "" {
			msg = "not authorized"
		}
		return model.NewUnauthorizedError(msg)
	case http.StatusNotFound:
		return model.NewNotFoundError("resource")
	default:
		return model.NewStatusError(statusCode, eb.message())
	}
}
