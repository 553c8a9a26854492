package model

import (
	"testing"
)

func TestFormatCLP(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   string
	}{
		{"zero", 0, "0"},
		{"under a thousand", 990, "990"},
		{"exactly a thousand", 1000, "1.000"},
		{"typical price", 7990, "7.990"},
		{"cart total", 30980, "30.980"},
		{"six digits", 149990, "149.990"},
		{"seven digits", 1234567, "1.234.567"},
		{"negative", -7990, "-7.990"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCLP(tt.amount)
			if got != tt.want {
				t.Errorf("FormatCLP(%d) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestDisplayCLP(t *testing.T) {
	got := DisplayCLP(30980)
	if got != "$30.980 CLP" {
		t.Errorf("DisplayCLP(30980) = %q, want %q", got, "$30.980 CLP")
	}
}

func TestCartLineSubtotal(t *testing.T) {
	line := CartLine{PriceCLP: 7990, Quantity: 2}
	if got := line.Subtotal(); got != 15980 {
		t.Errorf("Subtotal() = %d, want 15980", got)
	}
}
