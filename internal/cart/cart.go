package cart

import (
	"github.com/shopspring/decimal"

	"github.com/verdeleaf/storefront-backend/pkg/types"
)

// Cart is the authoritative line-item collection for one shopper
// session. Mutations happen through the narrow API below; persistence
// is the service's job.
type Cart struct {
	Items []types.LineItemSnapshot `json:"items"`
}

// DeriveLineID builds the identifier that keys a line item: the
// product id, plus the tier label when a product sells in multiple
// weight options, plus the variant id when a variant was picked.
// Distinct tiers or variants never silently merge into one line.
func DeriveLineID(productID, tierLabel, variantID string) string {
	id := productID
	if tierLabel != "" {
		id += ":" + tierLabel
	}
	if variantID != "" {
		id += "@" + variantID
	}
	return id
}

// Add merges quantity into an existing line with the same derived ID
// or appends a new line. Non-positive quantities are rejected by the
// caller-facing service, not clamped here.
func (c *Cart) Add(item types.LineItemSnapshot, quantity int) {
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	item.Quantity = quantity
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets a line's quantity to exactly newQuantity.
// Anything at or below zero removes the line.
func (c *Cart) UpdateQuantity(id string, newQuantity int) {
	if newQuantity <= 0 {
		c.Remove(id)
		return
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Quantity = newQuantity
			return
		}
	}
}

// Remove deletes the line if present; no-op otherwise.
func (c *Cart) Remove(id string) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Clear empties the collection.
func (c *Cart) Clear() {
	c.Items = nil
}

// TotalCents is the decimal-safe sum of unit price x quantity over all
// lines, in cents.
func (c Cart) TotalCents() int64 {
	total := decimal.Zero
	for _, item := range c.Items {
		line := decimal.NewFromInt(int64(item.UnitPriceCents)).
			Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.IntPart()
}

// ItemCount sums quantities over all lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Find returns the line with the given ID, if any.
func (c Cart) Find(id string) (types.LineItemSnapshot, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return types.LineItemSnapshot{}, false
}
