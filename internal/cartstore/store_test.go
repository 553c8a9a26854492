package cartstore

import (
	"testing"

	"rgamer-store/internal/model"
)

var (
	ssdProduct = model.ProductRef{ID: 10, Title: "SSD 1TB"}
	ssdVariant = model.VariantRef{ID: 101, SKU: "SSD-1TB", PriceCLP: 15000}
	ramProduct = model.ProductRef{ID: 20, Title: "RAM 16GB"}
	ramVariant = model.VariantRef{ID: 201, SKU: "RAM-16", PriceCLP: 7990}
)

func TestAddItemDedupesByVariant(t *testing.T) {
	s := New()

	s.AddItem(ssdProduct, ssdVariant, 1)
	s.AddItem(ssdProduct, ssdVariant, 2)
	s.AddItem(ssdProduct, ssdVariant, 1)

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("got %d lines, want exactly one per variant", len(items))
	}
	if items[0].Quantity != 4 {
		t.Errorf("quantity = %d, want sum of added quantities 4", items[0].Quantity)
	}
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	s := New()
	s.AddItem(ssdProduct, ssdVariant, 0)

	if items := s.Items(); len(items) != 1 || items[0].Quantity != 1 {
		t.Errorf("items = %+v, want single line with quantity 1", items)
	}
}

func TestTotalPriceExactIntegerArithmetic(t *testing.T) {
	s := New()
	s.AddItem(ssdProduct, ssdVariant, 1)  // 15000
	s.AddItem(ramProduct, ramVariant, 2)  // 2 * 7990

	if got := s.TotalPrice(); got != 30980 {
		t.Errorf("TotalPrice() = %d, want exactly 30980", got)
	}
}

func TestTotalPriceEmptyCart(t *testing.T) {
	if got := New().TotalPrice(); got != 0 {
		t.Errorf("TotalPrice() on empty cart = %d, want 0", got)
	}
}

func TestDecreaseQuantityRemovesAtZero(t *testing.T) {
	s := New()
	s.AddItem(ramProduct, ramVariant, 2)

	s.DecreaseQuantity(ramVariant.ID)
	if items := s.Items(); len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("after first decrease items = %+v, want quantity 1", items)
	}

	s.DecreaseQuantity(ramVariant.ID)
	if s.Len() != 0 {
		t.Error("line should be removed when quantity reaches zero")
	}

	// Further decreases on an absent variant are no-ops.
	s.DecreaseQuantity(ramVariant.ID)
	if s.Len() != 0 || s.TotalPrice() != 0 {
		t.Error("decrease on absent variant should be a no-op")
	}
}

func TestIncreaseQuantity(t *testing.T) {
	s := New()
	s.AddItem(ssdProduct, ssdVariant, 1)
	s.IncreaseQuantity(ssdVariant.ID)

	if items := s.Items(); items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", items[0].Quantity)
	}

	// Unknown variant: no-op.
	s.IncreaseQuantity(999)
	if s.Len() != 1 {
		t.Error("increase on absent variant should not create a line")
	}
}

func TestRemoveItem(t *testing.T) {
	s := New()
	s.AddItem(ssdProduct, ssdVariant, 1)
	s.AddItem(ramProduct, ramVariant, 1)

	s.RemoveItem(ssdVariant.ID)
	items := s.Items()
	if len(items) != 1 || items[0].VariantID != ramVariant.ID {
		t.Errorf("items = %+v, want only the RAM line", items)
	}

	s.RemoveItem(999) // no-op
	if s.Len() != 1 {
		t.Error("removing an absent variant should be a no-op")
	}
}

func TestReplaceIsWholesale(t *testing.T) {
	s := New()
	s.AddItem(ssdProduct, ssdVariant, 3)

	s.Replace([]model.CartLine{{
		ProductID: 20, Title: "RAM 16GB", VariantID: 201,
		VariantSKU: "RAM-16", PriceCLP: 7990, Quantity: 1,
	}})

	items := s.Items()
	if len(items) != 1 || items[0].VariantID != 201 {
		t.Errorf("Replace must discard prior contents, got %+v", items)
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.AddItem(ssdProduct, ssdVariant, 1)
	s.Clear()

	if s.Len() != 0 || s.TotalPrice() != 0 {
		t.Error("Clear() should empty the container unconditionally")
	}
}

func TestObserversNotifiedSynchronously(t *testing.T) {
	s := New()

	var got []Snapshot
	s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	s.AddItem(ssdProduct, ssdVariant, 1)
	s.IncreaseQuantity(ssdVariant.ID)
	s.Clear()

	if len(got) != 3 {
		t.Fatalf("observer called %d times, want 3", len(got))
	}
	if got[0].TotalCLP != 15000 || got[1].TotalCLP != 30000 || got[2].TotalCLP != 0 {
		t.Errorf("observer totals = %d, %d, %d; want 15000, 30000, 0",
			got[0].TotalCLP, got[1].TotalCLP, got[2].TotalCLP)
	}
}

func TestObserverMayReadStore(t *testing.T) {
	s := New()

	var lenSeen int
	s.Subscribe(func(Snapshot) { lenSeen = s.Len() })

	s.AddItem(ssdProduct, ssdVariant, 1)
	if lenSeen != 1 {
		t.Errorf("observer read Len() = %d, want 1", lenSeen)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	s := New()
	s.AddItem(ssdProduct, ssdVariant, 1)

	items := s.Items()
	items[0].Quantity = 99

	if s.Items()[0].Quantity != 1 {
		t.Error("mutating the returned slice must not affect the store")
	}
}
