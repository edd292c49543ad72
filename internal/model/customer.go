package model

import "github.com/shopspring/decimal"

// Customer mirrors the `customers` table.  Dues is a running balance owed
// by the customer; it is settled by hand and is not tied to orders.
type Customer struct {
	ID      uint64          `json:"id"`
	UserID  *uint64         `json:"user_id"`
	Name    string          `json:"name"`
	Phone   *string         `json:"phone"`
	Address *string         `json:"address"`
	Type    *string         `json:"type"`
	Dues    decimal.Decimal `json:"dues"`
}
