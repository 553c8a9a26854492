package shop

import "rgamer-store/internal/model"

// Wire types for the backend shop API. These are the server-shape
// payloads; the cart store only ever sees the local shape produced by
// CartLines.

// Cart is the server cart for one session.
type Cart struct {
	ID         int64      `json:"id"`
	SessionKey string     `json:"session_key"`
	Items      []CartItem `json:"items"`
	TotalCLP   int64      `json:"total_clp"`
}

// CartItem is one server-shape line item.
type CartItem struct {
	ID       int64   `json:"id"`
	Variant  Variant `json:"variant"`
	Quantity int     `json:"quantity"`
	Subtotal int64   `json:"subtotal"`
}

// Variant is the variant snapshot embedded in a cart item.
type Variant struct {
	ID        int64  `json:"id"`
	SKU       string `json:"sku"`
	PriceCLP  int64  `json:"price_clp"`
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
}

// cartMutationRequest is the body for add/update/remove calls.
// Quantity must always be on the wire: the backend defaults a missing
// quantity to 1, and for updates zero is the removal signal.
type cartMutationRequest struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// checkoutRequest is the body for POST checkout/.
type checkoutRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	CustomerNotes   string `json:"customer_notes"`
	PaymentMethod   string `json:"payment_method"`
}

// RecyclingRequest is an equipment recycling intake submission.
// JSON field names follow the backend's Spanish schema.
type RecyclingRequest struct {
	Name          string `json:"nombre"`
	Email         string `json:"email"`
	EquipmentType string `json:"tipo_equipo"`
	Description   string `json:"descripcion"`
}

// DailyStats is one row of the admin per-day order statistics.
type DailyStats struct {
	Date        string `json:"date"`
	OrdersCount int64  `json:"orders_count"`
	TotalCLP    int64  `json:"total_clp"`
	CartsCount  int64  `json:"carts_count"`
	ItemsSold   int64  `json:"items_sold"`
}

// AdminStats is the admin statistics response.
type AdminStats struct {
	Days    int          `json:"days"`
	Results []DailyStats `json:"results"`
}

// errorBody matches the backend's error payloads. Some endpoints use
// "detail" (DRF default), others "error".
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (e errorBody) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}

// CartLines maps the server cart into local-shape lines.
func CartLines(cart *Cart) []model.CartLine {
	lines := make([]model.CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, model.CartLine{
			ProductID:  item.Variant.ProductID,
			Title:      item.Variant.Title,
			VariantID:  item.Variant.ID,
			VariantSKU: item.Variant.SKU,
			PriceCLP:   item.Variant.PriceCLP,
			Quantity:   item.Quantity,
		})
	}
	return lines
}
