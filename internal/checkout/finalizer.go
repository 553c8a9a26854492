// Package checkout turns the session's server cart into an order.
// Orders are manual-payment only: the backend records them PENDING
// and staff settle payment out of band.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"rgamer-store/internal/cartstore"
	"rgamer-store/internal/model"
	"rgamer-store/internal/session"
	"rgamer-store/internal/shop"
)

// Finalizer validates customer input and submits the order.
type Finalizer struct {
	store   *cartstore.Store
	shop    *shop.Client
	session *session.Provider
	logger  *slog.Logger
}

// NewFinalizer creates a checkout finalizer. A nil logger falls back
// to slog.Default().
func NewFinalizer(store *cartstore.Store, shopClient *shop.Client, sessionProvider *session.Provider, logger *slog.Logger) *Finalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalizer{
		store:   store,
		shop:    shopClient,
		session: sessionProvider,
		logger:  logger,
	}
}

// Checkout submits the session's cart as an order.
//
// Validation happens before any network traffic: an empty local cart
// or missing contact fields never reach the backend. Each attempt
// carries a fresh Idempotency-Key so a replayed submission cannot
// create a second order, while a deliberate retry after failure can.
//
// On success the local cart is emptied and the server cart is cleared
// best-effort; the order already exists either way, so a failed server
// clear is only logged.
func (f *Finalizer) Checkout(ctx context.Context, customer model.CustomerInfo) (*model.OrderConfirmation, error) {
	if f.store.Len() == 0 {
		return nil, model.NewValidationError("cart", "cart is empty")
	}
	if strings.TrimSpace(customer.Name) == "" {
		return nil, model.NewValidationError("name", "customer name is required")
	}
	if strings.TrimSpace(customer.Email) == "" {
		return nil, model.NewValidationError("email", "customer email is required")
	}

	sessionKey := f.session.Key()
	conf, err := f.shop.Checkout(ctx, sessionKey, uuid.NewString(), customer)
	if err != nil {
		return nil, fmt.Errorf("submitting order: %w", err)
	}

	f.store.Clear()
	if err := f.shop.ClearCart(ctx, sessionKey); err != nil {
		f.logger.Warn("server cart clear after checkout failed", "order_id", conf.OrderID, "error", err)
	}

	f.logger.Info("order placed",
		"order_id", conf.OrderID,
		"total_clp", conf.TotalCLP,
		"status", conf.Status)
	return conf, nil
}
