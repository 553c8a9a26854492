package session

import (
	"regexp"
	"testing"

	"rgamer-store/internal/storage"
)

// Canonical 36-character hyphenated hex, version nibble 4, variant
// nibble in [89ab].
var tokenPattern = regexp.MustCompile(
	`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	return store
}

func TestKeyFormat(t *testing.T) {
	p := NewProvider(newTestStore(t), nil)

	key := p.Key()
	if !tokenPattern.MatchString(key) {
		t.Errorf("Key() = %q, want canonical UUID v4 format", key)
	}
}

func TestKeyStableWithinProvider(t *testing.T) {
	p := NewProvider(newTestStore(t), nil)

	first := p.Key()
	second := p.Key()
	if first != second {
		t.Errorf("consecutive Key() calls differ: %q vs %q", first, second)
	}
}

func TestKeyStableAcrossProviders(t *testing.T) {
	store := newTestStore(t)

	first := NewProvider(store, nil).Key()
	second := NewProvider(store, nil).Key()
	if first != second {
		t.Errorf("Key() not stable across providers on same store: %q vs %q", first, second)
	}
}

func TestKeyWithoutStore(t *testing.T) {
	p := NewProvider(nil, nil)

	if got := p.Key(); got != Unavailable {
		t.Errorf("Key() without store = %q, want %q", got, Unavailable)
	}
	if tokenPattern.MatchString(Unavailable) {
		t.Error("sentinel must be distinguishable from a real token")
	}
}

func TestDistinctStoresGetDistinctTokens(t *testing.T) {
	a := NewProvider(newTestStore(t), nil).Key()
	b := NewProvider(newTestStore(t), nil).Key()
	if a == b {
		t.Error("two independent storage scopes produced the same token")
	}
}
