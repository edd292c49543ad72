// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/shopspring/decimal"

// OrderCreatedQueue is the durable queue that receives committed sales.
const OrderCreatedQueue = "order.created"

// OrderCreatedEvent is published after an order transaction commits.  It
// carries enough to write a sales log line without querying the database.
type OrderCreatedEvent struct {
	OrderID      uint64           `json:"order_id"`
	UserID       *uint64          `json:"user_id"`
	CustomerName string           `json:"customer_name"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Discount     decimal.Decimal  `json:"discount"`
	FinalAmount  decimal.Decimal  `json:"final_amount"`
	Items        []OrderEventItem `json:"items"`
	CreatedAt    string           `json:"created_at"`
}

// OrderEventItem is one sold line.
type OrderEventItem struct {
	ProductID   *uint64         `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}
