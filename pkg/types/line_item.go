package types

import (
	"database/sql/driver"
	"encoding/json"
)

// LineItemSnapshot freezes one cart line at checkout time. It is
// intentionally decoupled from live product rows so historical orders
// stay accurate when catalog prices change later.
type LineItemSnapshot struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	VariantID      string `json:"variant_id,omitempty"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// LineItemSnapshots is a slice marshaled as JSONB.
type LineItemSnapshots []LineItemSnapshot

// Value serializes the snapshots to JSON.
func (l LineItemSnapshots) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan decodes JSONB into the snapshot slice.
func (l *LineItemSnapshots) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded LineItemSnapshots
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*l = decoded
	return nil
}
