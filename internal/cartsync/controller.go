// Package cartsync keeps the local cart store aligned with the
// server cart. The server is the single source of truth: every reload
// replaces the local contents wholesale, and a cart that cannot be
// read is treated as empty rather than stale.
package cartsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"rgamer-store/internal/cartstore"
	"rgamer-store/internal/model"
	"rgamer-store/internal/session"
	"rgamer-store/internal/shop"
)

// ErrBusy is returned when a sync operation is already in flight.
// Callers retry after the current operation settles; overlapping
// syncs against the same session would race on the server cart.
var ErrBusy = errors.New("cart sync already in flight")

// ErrAddNotPersisted marks an add that reached the local store but
// not the server. The local line is kept; the next reload reconciles.
var ErrAddNotPersisted = errors.New("item added locally but not persisted to server")

// Controller coordinates the local store and the shop API.
type Controller struct {
	store    *cartstore.Store
	shop     *shop.Client
	session  *session.Provider
	logger   *slog.Logger
	inFlight atomic.Bool
}

// NewController creates a sync controller. A nil logger falls back to
// slog.Default().
func NewController(store *cartstore.Store, shopClient *shop.Client, sessionProvider *session.Provider, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:   store,
		shop:    shopClient,
		session: sessionProvider,
		logger:  logger,
	}
}

// begin claims the in-flight slot. Returns false if another sync
// operation holds it.
func (c *Controller) begin() bool {
	return c.inFlight.CompareAndSwap(false, true)
}

func (c *Controller) end() {
	c.inFlight.Store(false)
}

// Load reloads the local store from the server cart.
//
// On any failure, including a malformed response, the local store is
// emptied: showing nothing is safer than showing a cart the server no
// longer has.
func (c *Controller) Load(ctx context.Context) error {
	if !c.begin() {
		return ErrBusy
	}
	defer c.end()

	return c.load(ctx)
}

// load is Load without the in-flight guard, for chaining from
// mutations that already hold it.
func (c *Controller) load(ctx context.Context) error {
	cart, err := c.shop.GetCart(ctx, c.session.Key())
	if err != nil {
		c.logger.Warn("cart reload failed, resetting local cart", "error", err)
		c.store.Clear()
		return fmt.Errorf("loading cart: %w", err)
	}

	c.store.Replace(shop.CartLines(cart))
	return nil
}

// Add puts the item in the local store immediately, then persists it
// to the server. The local line survives a server failure so the user
// keeps their feedback; ErrAddNotPersisted signals the divergence and
// the next reload reconciles it.
func (c *Controller) Add(ctx context.Context, product model.ProductRef, variant model.VariantRef, quantity int) error {
	if !c.begin() {
		return ErrBusy
	}
	defer c.end()

	// Coerce once so the local line and the server write agree; the
	// backend stores a negative quantity as-is.
	if quantity <= 0 {
		quantity = 1
	}

	c.store.AddItem(product, variant, quantity)

	if err := c.shop.AddItem(ctx, c.session.Key(), variant.ID, quantity); err != nil {
		c.logger.Warn("server add failed, keeping local line",
			"variant_id", variant.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrAddNotPersisted, err)
	}
	return nil
}

// UpdateQuantity sets the absolute quantity for a variant on the
// server, then reloads. Zero or below removes the line. On server
// failure the local store is left untouched and no reload happens.
func (c *Controller) UpdateQuantity(ctx context.Context, variantID int64, quantity int) error {
	if !c.begin() {
		return ErrBusy
	}
	defer c.end()

	if err := c.shop.UpdateQuantity(ctx, c.session.Key(), variantID, quantity); err != nil {
		return fmt.Errorf("updating quantity: %w", err)
	}
	return c.load(ctx)
}

// Remove deletes a variant's line on the server, then reloads.
func (c *Controller) Remove(ctx context.Context, variantID int64) error {
	if !c.begin() {
		return ErrBusy
	}
	defer c.end()

	if err := c.shop.RemoveItem(ctx, c.session.Key(), variantID); err != nil {
		return fmt.Errorf("removing item: %w", err)
	}
	return c.load(ctx)
}

// Clear empties the cart on both sides. The local clear and the
// reload proceed even when the server call fails: an empty local cart
// is always an acceptable state.
func (c *Controller) Clear(ctx context.Context) error {
	if !c.begin() {
		return ErrBusy
	}
	defer c.end()

	if err := c.shop.ClearCart(ctx, c.session.Key()); err != nil {
		c.logger.Warn("server clear failed, clearing locally anyway", "error", err)
	}
	c.store.Clear()
	return c.load(ctx)
}
