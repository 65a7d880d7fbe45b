package models

import (
	"github.com/shopspring/decimal"
)

// Product represents a catalog product as served by the remote product service.
// The stores hold copies; nothing in this service mutates a product.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	Category    *Category       `json:"category,omitempty"`
	Company     *Company        `json:"company,omitempty"`
}

// Category represents a product category
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Company represents the brand/company selling a product
type Company struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
}

// CartLineItem is one row of the cart: a product plus its quantity.
// Quantity is always >= 1; a row whose quantity drops to zero is removed.
type CartLineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns quantity x unit price, exact.
func (li CartLineItem) Subtotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// PaymentResult is the terminal outcome of a successful checkout attempt.
// It is only ever fully populated; there is no partial result.
type PaymentResult struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	OrderID       string          `json:"order_id,omitempty"`
}
