package compare

import (
	"sync"

	"storefront-service/internal/models"
)

// Limit is the maximum number of products in the comparison set. The compare
// view renders one column per product in a fixed layout, so the cap is
// enforced here rather than scattered across callers.
const Limit = 4

// Compare holds the set of products selected for side-by-side comparison.
// Membership is by product ID; duplicates and adds beyond Limit are rejected.
type Compare struct {
	mu     sync.Mutex
	items  []models.Product
	isOpen bool
}

// New creates an empty comparison set
func New() *Compare {
	return &Compare{}
}

// Add inserts a product at the end of the set. It returns false, leaving the
// set unchanged, when the set is full or the product is already present.
func (c *Compare) Add(product models.Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= Limit {
		return false
	}
	for i := range c.items {
		if c.items[i].ID == product.ID {
			return false
		}
	}

	c.items = append(c.items, product)
	return true
}

// Remove removes the product with productID if present
func (c *Compare) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Clear empties the set
func (c *Compare) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Contains reports membership, used by presentation to toggle the
// "add to compare" affordance.
func (c *Compare) Contains(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == productID {
			return true
		}
	}
	return false
}

// Items returns a snapshot copy of the current members
func (c *Compare) Items() []models.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Product, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of members
func (c *Compare) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Open marks the compare drawer visible
func (c *Compare) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = true
}

// Close marks the compare drawer hidden
func (c *Compare) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = false
}

// IsOpen reports the drawer visibility
func (c *Compare) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

// Snapshot returns the members for persistence
func (c *Compare) Snapshot() []models.Product {
	return c.Items()
}

// Restore replaces the members from a persisted snapshot, dropping duplicates
// and anything beyond the capacity limit.
func (c *Compare) Restore(items []models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	seen := make(map[int64]bool, len(items))
	for _, p := range items {
		if len(c.items) >= Limit || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		c.items = append(c.items, p)
	}
}
