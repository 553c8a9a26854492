// Package cartstore holds the in-memory cart mirrored for immediate
// UI feedback (badge counts, optimistic totals). It is a cache of the
// server cart, not a second authority: the sync controller replaces
// its contents wholesale from every server reload.
package cartstore

import (
	"sync"

	"rgamer-store/internal/model"
)

// Snapshot is the state handed to observers on every mutation.
type Snapshot struct {
	Lines    []model.CartLine
	TotalCLP int64
}

// Observer is called synchronously after each mutation.
type Observer func(Snapshot)

// Store is the local cart container. Insertion order of lines is kept
// for display only; it carries no business meaning. At most one line
// exists per variant and quantities are always positive: a line whose
// quantity would drop to zero or below is removed, never retained.
type Store struct {
	mu        sync.Mutex
	lines     []model.CartLine
	observers []Observer
}

// New creates an empty cart store.
func New() *Store {
	return &Store{}
}

// Subscribe registers an observer for mutation notifications.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// AddItem appends a line for the variant, or increments the existing
// line's quantity. Never produces duplicate variant entries.
func (s *Store) AddItem(product model.ProductRef, variant model.VariantRef, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}

	s.mu.Lock()
	found := false
	for i := range s.lines {
		if s.lines[i].VariantID == variant.ID {
			s.lines[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		s.lines = append(s.lines, model.CartLine{
			ProductID:  product.ID,
			Title:      product.Title,
			VariantID:  variant.ID,
			VariantSKU: variant.SKU,
			PriceCLP:   variant.PriceCLP,
			Quantity:   quantity,
		})
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// RemoveItem deletes the line for variantID. No-op if absent.
func (s *Store) RemoveItem(variantID int64) {
	s.mu.Lock()
	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.VariantID != variantID {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// IncreaseQuantity adjusts the line for variantID by +1.
// No-op if the variant is not in the cart.
func (s *Store) IncreaseQuantity(variantID int64) {
	s.adjust(variantID, +1)
}

// DecreaseQuantity adjusts the line for variantID by -1, removing the
// line entirely when the quantity would reach zero or below.
// Further decreases on an absent variant are no-ops.
func (s *Store) DecreaseQuantity(variantID int64) {
	s.adjust(variantID, -1)
}

func (s *Store) adjust(variantID int64, delta int) {
	s.mu.Lock()
	for i := range s.lines {
		if s.lines[i].VariantID != variantID {
			continue
		}
		s.lines[i].Quantity += delta
		if s.lines[i].Quantity <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		}
		break
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Clear empties the container unconditionally.
func (s *Store) Clear() {
	s.Replace(nil)
}

// Replace discards the current contents entirely and installs lines
// as the new state. Used by the sync controller after every server
// reload: wholesale replace, never merge.
func (s *Store) Replace(lines []model.CartLine) {
	s.mu.Lock()
	s.lines = append([]model.CartLine(nil), lines...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CartLine(nil), s.lines...)
}

// Len returns the number of lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// TotalPrice returns the sum of PriceCLP*Quantity over all lines.
// Integer arithmetic throughout; 0 for an empty cart.
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalOf(s.lines)
}

// snapshotLocked copies state for observers. Caller holds s.mu.
func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Lines:    append([]model.CartLine(nil), s.lines...),
		TotalCLP: totalOf(s.lines),
	}
}

// notify runs observers outside the lock so they may read the store.
func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func totalOf(lines []model.CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}
