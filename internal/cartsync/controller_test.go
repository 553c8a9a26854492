package cartsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"rgamer-store/internal/cartstore"
	"rgamer-store/internal/model"
	"rgamer-store/internal/session"
	"rgamer-store/internal/shop"
)

const cartWithSSD = `{
	"id": 7,
	"session_key": "s",
	"items": [
		{
			"id": 1,
			"variant": {"id": 101, "sku": "SSD-1TB", "price_clp": 15000, "product_id": 10, "title": "SSD 1TB"},
			"quantity": 2,
			"subtotal": 30000
		}
	],
	"total_clp": 30000
}`

const emptyCart = `{"id": 7, "session_key": "s", "items": [], "total_clp": 0}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newController(srvURL string) (*Controller, *cartstore.Store) {
	store := cartstore.New()
	client := shop.NewClient(srvURL+"/", nil)
	provider := session.NewProvider(nil, quietLogger())
	return NewController(store, client, provider, quietLogger()), store
}

func ssdProduct() (model.ProductRef, model.VariantRef) {
	return model.ProductRef{ID: 10, Title: "SSD 1TB"},
		model.VariantRef{ID: 101, SKU: "SSD-1TB", PriceCLP: 15000}
}

func TestLoadReplacesWholesale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cartWithSSD))
	}))
	defer srv.Close()

	ctrl, store := newController(srv.URL)

	// Pre-existing local line for a different variant must not survive
	// the reload.
	store.AddItem(model.ProductRef{ID: 20, Title: "RAM 16GB"},
		model.VariantRef{ID: 201, SKU: "RAM-16", PriceCLP: 7990}, 1)

	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	items := store.Items()
	if len(items) != 1 || items[0].VariantID != 101 {
		t.Errorf("items = %+v, want single line for variant 101", items)
	}
	if store.TotalPrice() != 30000 {
		t.Errorf("TotalPrice() = %d, want 30000", store.TotalPrice())
	}
}

func TestLoadFailureResetsLocalCart(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>gateway error</html>`))
		}},
		{"items missing", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": 7, "total_clp": 0}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			ctrl, store := newController(srv.URL)
			product, variant := ssdProduct()
			store.AddItem(product, variant, 1)

			if err := ctrl.Load(context.Background()); err == nil {
				t.Fatal("Load() error = nil, want failure")
			}
			if store.Len() != 0 {
				t.Errorf("store has %d lines after failed load, want 0", store.Len())
			}
		})
	}
}

func TestAddKeepsLocalLineOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctrl, store := newController(srv.URL)
	product, variant := ssdProduct()

	err := ctrl.Add(context.Background(), product, variant, 2)
	if !errors.Is(err, ErrAddNotPersisted) {
		t.Fatalf("Add() error = %v, want ErrAddNotPersisted", err)
	}

	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Errorf("items = %+v, want optimistic line kept", items)
	}
}

func TestAddSuccess(t *testing.T) {
	var posted atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posted.Add(1)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	ctrl, store := newController(srv.URL)
	product, variant := ssdProduct()

	if err := ctrl.Add(context.Background(), product, variant, 1); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if posted.Load() != 1 {
		t.Errorf("server received %d requests, want 1", posted.Load())
	}
	if store.Len() != 1 {
		t.Errorf("store has %d lines, want 1", store.Len())
	}
}

func TestAddCoercesNonPositiveQuantity(t *testing.T) {
	// Local and server must see the same quantity. The store already
	// treats quantity <= 0 as 1; the server write has to match rather
	// than forward the raw value.
	var got struct {
		VariantID int64 `json:"variant_id"`
		Quantity  int   `json:"quantity"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	for _, quantity := range []int{0, -3} {
		ctrl, store := newController(srv.URL)
		product, variant := ssdProduct()

		if err := ctrl.Add(context.Background(), product, variant, quantity); err != nil {
			t.Fatalf("Add(qty=%d) error = %v", quantity, err)
		}
		if got.Quantity != 1 {
			t.Errorf("Add(qty=%d) sent quantity %d to server, want 1", quantity, got.Quantity)
		}
		if items := store.Items(); len(items) != 1 || items[0].Quantity != 1 {
			t.Errorf("Add(qty=%d) local items = %+v, want single line qty 1", quantity, items)
		}
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	// Quantity zero is the removal signal; after the server accepts it
	// the reload installs the now-empty cart.
	var updateBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(emptyCart))
			return
		}
		updateBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"updated": true}`))
	}))
	defer srv.Close()

	ctrl, store := newController(srv.URL)
	product, variant := ssdProduct()
	store.AddItem(product, variant, 2)

	if err := ctrl.UpdateQuantity(context.Background(), 101, 0); err != nil {
		t.Fatalf("UpdateQuantity() error = %v", err)
	}

	var sent map[string]json.RawMessage
	if err := json.Unmarshal(updateBody, &sent); err != nil {
		t.Fatalf("update body %q is not JSON: %v", updateBody, err)
	}
	if raw, ok := sent["quantity"]; !ok || string(raw) != "0" {
		t.Errorf("update body = %q, want explicit quantity 0", updateBody)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d lines after removal update, want 0", store.Len())
	}
}

func TestUpdateQuantityFailureLeavesStateUntouched(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "Falta variant_id"}`))
	}))
	defer srv.Close()

	ctrl, store := newController(srv.URL)
	product, variant := ssdProduct()
	store.AddItem(product, variant, 2)

	if err := ctrl.UpdateQuantity(context.Background(), 101, 5); err == nil {
		t.Fatal("UpdateQuantity() error = nil, want failure")
	}

	// No reload after a failed update: exactly one request, local
	// quantity unchanged.
	if requests.Load() != 1 {
		t.Errorf("server received %d requests, want 1", requests.Load())
	}
	if items := store.Items(); len(items) != 1 || items[0].Quantity != 2 {
		t.Errorf("items = %+v, want untouched line qty 2", items)
	}
}

func TestUpdateQuantitySuccessReloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(cartWithSSD))
			return
		}
		w.Write([]byte(`{"updated": true}`))
	}))
	defer srv.Close()

	ctrl, store := newController(srv.URL)

	if err := ctrl.UpdateQuantity(context.Background(), 101, 2); err != nil {
		t.Fatalf("UpdateQuantity() error = %v", err)
	}
	if items := store.Items(); len(items) != 1 || items[0].Quantity != 2 {
		t.Errorf("items = %+v, want reloaded server state", items)
	}
}

func TestRemoveReloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(emptyCart))
			return
		}
		w.Write([]byte(`{"removed": true}`))
	}))
	defer srv.Close()

	ctrl, store := newController(srv.URL)
	product, variant := ssdProduct()
	store.AddItem(product, variant, 1)

	if err := ctrl.Remove(context.Background(), 101); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d lines, want 0", store.Len())
	}
}

func TestClearProceedsDespiteServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(emptyCart))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctrl, store := newController(srv.URL)
	product, variant := ssdProduct()
	store.AddItem(product, variant, 3)

	if err := ctrl.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d lines after clear, want 0", store.Len())
	}
}

func TestOverlappingSyncReturnsBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		w.Write([]byte(emptyCart))
	}))
	defer srv.Close()

	ctrl, _ := newController(srv.URL)

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Load(context.Background())
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first Load never reached the server")
	}

	product, variant := ssdProduct()
	if err := ctrl.Add(context.Background(), product, variant, 1); !errors.Is(err, ErrBusy) {
		t.Errorf("Add() during in-flight Load = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Load() error = %v", err)
	}

	// The slot is free again once the first operation settles.
	if err := ctrl.Load(context.Background()); err != nil {
		t.Errorf("Load() after release error = %v", err)
	}
}
