// Package agent exposes the storefront as MCP tools over stdio using
// the official MCP Go SDK, so an assistant can browse the catalog and
// drive the cart and checkout on the shopper's behalf.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"rgamer-store/internal/cartstore"
	"rgamer-store/internal/cartsync"
	"rgamer-store/internal/catalog"
	"rgamer-store/internal/checkout"
	"rgamer-store/internal/model"
)

// === Tool Input/Output Types ===

// ProductSummary is one catalog entry in the list_products output.
type ProductSummary struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Brand     string           `json:"brand"`
	Category  string           `json:"category"`
	Condition string           `json:"condition"`
	Grade     string           `json:"grade,omitempty"`
	Variants  []VariantSummary `json:"variants"`
}

// VariantSummary is a purchasable option in the list_products output.
type VariantSummary struct {
	ID       int64  `json:"id"`
	SKU      string `json:"sku"`
	PriceCLP int64  `json:"price_clp"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
}

// ListProductsOutput is the list_products tool result.
type ListProductsOutput struct {
	Products []ProductSummary `json:"products"`
}

// CartOutput is the cart state returned by the cart tools.
type CartOutput struct {
	Lines    []model.CartLine `json:"lines"`
	TotalCLP int64            `json:"total_clp"`
	Total    string           `json:"total"`
}

// AddToCartInput is the input schema for add_to_cart.
type AddToCartInput struct {
	VariantID int64 `json:"variant_id" jsonschema:"variant ID from list_products,required"`
	Quantity  int   `json:"quantity,omitempty" jsonschema:"units to add, default 1"`
}

// UpdateQuantityInput is the input schema for update_quantity.
// Quantity zero removes the line.
type UpdateQuantityInput struct {
	VariantID int64 `json:"variant_id" jsonschema:"variant ID of the cart line,required"`
	Quantity  int   `json:"quantity" jsonschema:"absolute quantity, 0 removes the line,required"`
}

// CheckoutInput is the input schema for the checkout tool.
type CheckoutInput struct {
	Name    string `json:"name" jsonschema:"customer full name,required"`
	Email   string `json:"email" jsonschema:"customer email,required"`
	Phone   string `json:"phone,omitempty" jsonschema:"contact phone"`
	Address string `json:"address,omitempty" jsonschema:"delivery address"`
	Notes   string `json:"notes,omitempty" jsonschema:"order notes"`
}

// CheckoutOutput is the order confirmation from the checkout tool.
type CheckoutOutput struct {
	OrderID  int64  `json:"order_id"`
	TotalCLP int64  `json:"total_clp"`
	Total    string `json:"total"`
	Status   string `json:"status"`
}

type emptyInput struct{}

// Agent wires the storefront services to MCP tools.
type Agent struct {
	controller *cartsync.Controller
	finalizer  *checkout.Finalizer
	catalog    *catalog.Client
	store      *cartstore.Store
	logger     *slog.Logger
}

// New creates an agent over the given storefront services.
func New(controller *cartsync.Controller, finalizer *checkout.Finalizer, catalogClient *catalog.Client, store *cartstore.Store, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		controller: controller,
		finalizer:  finalizer,
		catalog:    catalogClient,
		store:      store,
		logger:     logger,
	}
}

// NewMCPServer creates an MCP server with the storefront tools
// registered.
func (a *Agent) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "rgamer-store",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront for a refurbished-hardware shop. Prices are Chilean pesos (CLP). " +
				"Browse with list_products, manage the cart by variant_id, then place the order with checkout. " +
				"Orders use manual payment and start as PENDING.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List the published products with their purchasable variants and CLP prices.",
	}, a.listProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_cart",
		Description: "Reload the cart from the server and return its lines and total.",
	}, a.viewCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a variant to the cart. The variant must exist in the catalog.",
	}, a.addToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_quantity",
		Description: "Set the absolute quantity of a cart line. Quantity 0 removes the line.",
	}, a.updateQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cart",
		Description: "Empty the cart.",
	}, a.clearCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "checkout",
		Description: "Place an order from the current cart. Requires customer name and email.",
	}, a.checkout)

	return server
}

// Run serves the MCP tools over stdio until ctx is canceled.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent serving over stdio")
	return a.NewMCPServer().Run(ctx, &mcp.StdioTransport{})
}

// === Tool Handlers ===

func (a *Agent) listProducts(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, *ListProductsOutput, error) {
	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		return nil, nil, a.toolError(err)
	}

	out := &ListProductsOutput{Products: make([]ProductSummary, 0, len(products))}
	for _, p := range products {
		summary := ProductSummary{
			ID:        p.ID,
			Title:     p.Title,
			Brand:     p.Brand.Name,
			Category:  p.Category.Name,
			Condition: p.Condition,
			Grade:     p.Grade,
		}
		for _, v := range p.Variants {
			summary.Variants = append(summary.Variants, VariantSummary{
				ID:       v.ID,
				SKU:      v.SKU,
				PriceCLP: v.PriceCLP,
				Price:    model.DisplayCLP(v.PriceCLP),
				Stock:    v.Stock,
			})
		}
		out.Products = append(out.Products, summary)
	}
	return nil, out, nil
}

func (a *Agent) viewCart(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, *CartOutput, error) {
	if err := a.controller.Load(ctx); err != nil {
		return nil, nil, a.toolError(err)
	}
	return nil, a.cartOutput(), nil
}

func (a *Agent) addToCart(ctx context.Context, req *mcp.CallToolRequest, input AddToCartInput) (*mcp.CallToolResult, *CartOutput, error) {
	if input.VariantID == 0 {
		return nil, nil, fmt.Errorf("variant_id is required")
	}

	product, variant, err := a.catalog.FindVariant(ctx, input.VariantID)
	if err != nil {
		return nil, nil, a.toolError(err)
	}

	err = a.controller.Add(ctx,
		model.ProductRef{ID: product.ID, Title: product.Title},
		model.VariantRef{ID: variant.ID, SKU: variant.SKU, PriceCLP: variant.PriceCLP},
		input.Quantity)
	if err != nil && !errors.Is(err, cartsync.ErrAddNotPersisted) {
		return nil, nil, a.toolError(err)
	}
	return nil, a.cartOutput(), nil
}

func (a *Agent) updateQuantity(ctx context.Context, req *mcp.CallToolRequest, input UpdateQuantityInput) (*mcp.CallToolResult, *CartOutput, error) {
	if input.VariantID == 0 {
		return nil, nil, fmt.Errorf("variant_id is required")
	}

	if err := a.controller.UpdateQuantity(ctx, input.VariantID, input.Quantity); err != nil {
		return nil, nil, a.toolError(err)
	}
	return nil, a.cartOutput(), nil
}

func (a *Agent) clearCart(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, *CartOutput, error) {
	if err := a.controller.Clear(ctx); err != nil {
		return nil, nil, a.toolError(err)
	}
	return nil, a.cartOutput(), nil
}

func (a *Agent) checkout(ctx context.Context, req *mcp.CallToolRequest, input CheckoutInput) (*mcp.CallToolResult, *CheckoutOutput, error) {
	conf, err := a.finalizer.Checkout(ctx, model.CustomerInfo{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
		Notes:   input.Notes,
	})
	if err != nil {
		return nil, nil, a.toolError(err)
	}

	return nil, &CheckoutOutput{
		OrderID:  conf.OrderID,
		TotalCLP: conf.TotalCLP,
		Total:    model.DisplayCLP(conf.TotalCLP),
		Status:   conf.Status,
	}, nil
}

func (a *Agent) cartOutput() *CartOutput {
	lines := a.store.Items()
	total := a.store.TotalPrice()
	return &CartOutput{
		Lines:    lines,
		TotalCLP: total,
		Total:    model.DisplayCLP(total),
	}
}

// toolError converts service errors to MCP-friendly errors.
func (a *Agent) toolError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	if errors.Is(err, cartsync.ErrBusy) {
		return fmt.Errorf("busy: another cart operation is in flight, retry shortly")
	}
	// Don't leak internal error details
	a.logger.Error("agent internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
