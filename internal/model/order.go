package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a completed sale.  Orders are immutable once created and carry
// only a free-text customer name, never a customer id.  TotalAmount is the
// sum of price × quantity over the items and FinalAmount is TotalAmount
// minus Discount, negative when the discount exceeds the total.
type Order struct {
	ID           uint64          `json:"id"`
	UserID       *uint64         `json:"user_id"`
	CustomerName *string         `json:"customer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Discount     decimal.Decimal `json:"discount"`
	FinalAmount  decimal.Decimal `json:"final_amount"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []OrderItem     `json:"items,omitempty"`
}

// OrderItem is one line of an order.  ProductName and Price are snapshots
// taken at sale time; ProductID may be nil or point at a product that no
// longer exists.
type OrderItem struct {
	ID          uint64          `json:"-"`
	OrderID     uint64          `json:"-"`
	ProductID   *uint64         `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// CalculateTotals sets TotalAmount from the items and FinalAmount from the
// total and discount.  No floor is applied to FinalAmount.
func (o *Order) CalculateTotals() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	o.TotalAmount = total
	o.FinalAmount = total.Sub(o.Discount)
}
