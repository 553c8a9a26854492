// Package catalog is the read-mostly HTTP client for the product
// catalog and the management report.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"rgamer-store/internal/model"
)

const (
	pathProducts = "api/index/products/"
	pathReport   = "api/index/management-report/"
)

// Brand is a product brand.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Category is a product category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Image is one product photo.
type Image struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
	Alt   string `json:"alt"`
	Sort  int    `json:"sort"`
}

// Variant is a purchasable configuration of a product.
type Variant struct {
	ID         int64                  `json:"id"`
	SKU        string                 `json:"sku"`
	Attributes map[string]interface{} `json:"attributes"`
	PriceCLP   int64                  `json:"price_clp"`
	Stock      int                    `json:"stock"`
	WeightG    int                    `json:"weight_g"`
}

// Product is a published catalog entry. The shop sells refurbished
// hardware, so condition and grade are first-class fields.
type Product struct {
	ID        int64     `json:"id"`
	SKURoot   string    `json:"sku_root"`
	Title     string    `json:"title"`
	Brand     Brand     `json:"brand"`
	Category  Category  `json:"category"`
	ShortDesc string    `json:"short_desc"`
	LongDesc  string    `json:"long_desc"`
	Condition string    `json:"condition"`
	Grade     string    `json:"grade"`
	Publish   bool      `json:"publish"`
	Variants  []Variant `json:"variants"`
	Images    []Image   `json:"images"`
}

// Report holds the management report KPI totals.
type Report struct {
	TotalProducts     int64 `json:"total_products"`
	TotalStock        int64 `json:"total_stock"`
	OrdersCount       int64 `json:"orders_count"`
	TotalIncome       int64 `json:"total_income"`
	RecyclingRequests int64 `json:"recycling_requests"`
}

// Client is the catalog API HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a catalog client against baseURL.
func NewClient(baseURL string, rt http.RoundTripper) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: rt,
		},
		baseURL: baseURL,
	}
}

// ListProducts retrieves all published products.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, pathProducts, "", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct retrieves a single product by ID.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var product Product
	path := pathProducts + strconv.FormatInt(id, 10) + "/"
	if err := c.get(ctx, path, "", &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant locates a variant by ID across all published products.
// Used where the caller knows the variant but not the product (the CLI
// add command, the agent tools).
func (c *Client) FindVariant(ctx context.Context, variantID int64) (*Product, *Variant, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range products {
		for j := range products[i].Variants {
			if products[i].Variants[j].ID == variantID {
				return &products[i], &products[i].Variants[j], nil
			}
		}
	}
	return nil, nil, model.NewNotFoundError(fmt.Sprintf("variant %d", variantID))
}

// ManagementReport retrieves the KPI totals.
// Requires a staff bearer credential.
func (c *Client) ManagementReport(ctx context.Context, bearer string) (*Report, error) {
	var report Report
	if err := c.get(ctx, pathReport, bearer, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) get(ctx context.Context, path, bearer string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewConnectivityError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return model.NewNotFoundError("product")
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return model.NewUnauthorizedError("not authorized for this report")
	}
	if resp.StatusCode >= 400 {
		return model.NewStatusError(resp.StatusCode, "")
	}

	if err := json.Unmarshal(body, result); err != nil {
		return model.NewMalformedError(fmt.Sprintf("parsing response: %v", err))
	}
	return nil
}
