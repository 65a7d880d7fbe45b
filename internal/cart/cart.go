package cart

import (
	"sync"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
)

// Cart holds the line items of one session. Rows keep insertion order of
// first-add; re-adding a product merges into its existing row. The original
// storefront mutates the cart from a single UI thread, but an HTTP session can
// see interleaved requests, so every operation takes the lock.
//
// None of the mutating operations fail: out-of-range quantities and unknown
// product IDs are defined no-ops so the cart stays robust against duplicate
// UI events.
type Cart struct {
	mu     sync.Mutex
	items  []models.CartLineItem
	isOpen bool
}

// New creates an empty cart
func New() *Cart {
	return &Cart{}
}

// AddItem adds quantity units of product to the cart. If a row for the
// product already exists its quantity is incremented; otherwise a new row is
// appended. Quantities below 1 are a no-op so a row can never be created or
// grown into an invalid state. Stock limits are the caller's concern, not the
// cart's.
func (c *Cart) AddItem(product models.Product, quantity int) {
	if quantity < 1 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == product.ID {
			c.items[i].Quantity += quantity
			return
		}
	}

	c.items = append(c.items, models.CartLineItem{Product: product, Quantity: quantity})
}

// UpdateQuantity sets the quantity of a row to an absolute value. A value of
// zero or below removes the row. Unknown product IDs are a no-op and never
// create a row.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == productID {
			if quantity <= 0 {
				c.items = append(c.items[:i], c.items[i+1:]...)
			} else {
				c.items[i].Quantity = quantity
			}
			return
		}
	}
}

// RemoveItem removes the row for productID if present
func (c *Cart) RemoveItem(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a snapshot copy of the current rows
func (c *Cart) Items() []models.CartLineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CartLineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct rows
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Contains reports whether a row exists for productID
func (c *Cart) Contains(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return true
		}
	}
	return false
}

// Quantity returns the quantity of the row for productID, zero when absent
func (c *Cart) Quantity(productID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return c.items[i].Quantity
		}
	}
	return 0
}

// TotalItems returns the sum of all row quantities
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for i := range c.items {
		total += c.items[i].Quantity
	}
	return total
}

// TotalPrice returns the exact sum of quantity x unit price over all rows.
// Rounding happens at display time only.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for i := range c.items {
		total = total.Add(c.items[i].Subtotal())
	}
	return total
}

// Open marks the cart drawer visible. Visibility is independent of the rows;
// opening or closing never alters items.
func (c *Cart) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = true
}

// Close marks the cart drawer hidden
func (c *Cart) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = false
}

// IsOpen reports the drawer visibility
func (c *Cart) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

// Snapshot returns the rows for persistence
func (c *Cart) Snapshot() []models.CartLineItem {
	return c.Items()
}

// Restore replaces the rows from a persisted snapshot, dropping rows that
// violate the quantity invariant.
func (c *Cart) Restore(items []models.CartLineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	for _, li := range items {
		if li.Quantity < 1 {
			continue
		}
		c.items = append(c.items, li)
	}
}
