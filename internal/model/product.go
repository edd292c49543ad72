package model

import "github.com/shopspring/decimal"

const (
	ProductTypeReadyMade    = "ready-made"
	ProductTypeManufactured = "manufactured"
)

// Product mirrors a row of the `products` table.  Quantity is the on-hand
// stock; it is only changed by manual edits and by order lines, and may
// go negative when a sale oversells.
//
// UserID is nil for guest inventory.  PurchasePrice is the cost used by
// profit reports and is 0 when unknown.
type Product struct {
	ID            uint64          `json:"id"`
	UserID        *uint64         `json:"user_id"`
	Name          string          `json:"name"`
	Size          *string         `json:"size"`
	Color         *string         `json:"color"`
	Price         decimal.Decimal `json:"price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Quantity      int64           `json:"quantity"`
	Category      *string         `json:"category"`
	Subcategory   *string         `json:"subcategory"`
	ProductType   string          `json:"product_type"`
}
