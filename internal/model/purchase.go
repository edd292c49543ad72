package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is an append-only expense entry.  Only a flag records whether a
// bill image exists; the image itself is not stored.
type Purchase struct {
	ID            uint64          `json:"id"`
	UserID        *uint64         `json:"user_id"`
	SupplierName  string          `json:"supplierName"`
	CompanyName   *string         `json:"companyName"`
	InvoiceNumber *string         `json:"invoiceNumber"`
	Amount        decimal.Decimal `json:"amount"`
	Notes         *string         `json:"notes"`
	HasBillImage  bool            `json:"hasBillImage"`
	CreatedAt     time.Time       `json:"created_at"`
}
