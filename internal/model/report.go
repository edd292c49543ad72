package model

import "github.com/shopspring/decimal"

// DashboardStats holds the four dashboard counters.  Each one is read by
// an independent query; they are not a consistent snapshot.
type DashboardStats struct {
	TotalSalesToday  decimal.Decimal `json:"totalSalesToday"`
	TotalPendingDues decimal.Decimal `json:"totalPendingDues"`
	LowStockItems    int64           `json:"lowStockItems"`
	TotalCustomers   int64           `json:"totalCustomers"`
}

// LowStockThreshold is the quantity at or below which a product counts as low stock.
const LowStockThreshold = 5

// SalesSummaryLimit caps the number of rows in the sales summary.
const SalesSummaryLimit = 10

// SalesSummaryRow aggregates every sold line sharing a product name.
type SalesSummaryRow struct {
	ProductName  string          `json:"product_name"`
	TotalQty     int64           `json:"totalQty"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	Profit       decimal.Decimal `json:"profit"`
}
