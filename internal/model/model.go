// Package model holds the storefront domain types shared by the cart
// store, synchronization controller, and API clients.
package model

// ProductRef identifies the product a cart line belongs to.
// Only the fields the cart needs; the full catalog shape lives in the
// catalog client.
type ProductRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// VariantRef identifies a purchasable variant of a product.
type VariantRef struct {
	ID       int64  `json:"id"`
	SKU      string `json:"sku"`
	PriceCLP int64  `json:"price_clp"`
}

// CartLine is the local-shape line item owned by the cart store.
// Derived from the server cart on every reload, or appended
// speculatively on a local add before server confirmation.
type CartLine struct {
	ProductID  int64  `json:"product_id"`
	Title      string `json:"title"`
	VariantID  int64  `json:"variant_id"`
	VariantSKU string `json:"variant_sku"`
	PriceCLP   int64  `json:"price_clp"`
	Quantity   int    `json:"quantity"`
}

// Subtotal returns the line total in CLP.
func (l CartLine) Subtotal() int64 {
	return l.PriceCLP * int64(l.Quantity)
}

// CustomerInfo carries the buyer details submitted at checkout.
// Name and Email are required; the rest is optional.
type CustomerInfo struct {
	Name    string `json:"customer_name"`
	Email   string `json:"customer_email"`
	Phone   string `json:"customer_phone"`
	Address string `json:"customer_address"`
	Notes   string `json:"customer_notes"`
}

// OrderConfirmation is the backend's proof that an order was created.
type OrderConfirmation struct {
	OrderID  int64  `json:"order_id"`
	TotalCLP int64  `json:"total_clp"`
	Status   string `json:"status"`
}

// PaymentMethodManual marks orders settled manually/offline.
// The storefront has no payment gateway; the shop confirms by hand.
const PaymentMethodManual = "MANUAL"
