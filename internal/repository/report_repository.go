package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopsathi/shopsathi-api/internal/model"
)

// ReportRepo runs the read-only aggregations behind the dashboard and the
// sales report.
type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// DashboardStats runs four independent aggregates for the scope.  Sales are
// summed over orders created in [dayStart, dayStart+24h).
func (r *ReportRepo) DashboardStats(ctx context.Context, scope model.Scope, dayStart time.Time) (model.DashboardStats, error) {
	var st model.DashboardStats
	where, args := scope.Filter("user_id")
	dayEnd := dayStart.AddDate(0, 0, 1)

	salesArgs := append(append([]any{}, args...), dayStart, dayEnd)
	if err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(final_amount), 0) FROM orders WHERE "+where+" AND created_at >= ? AND created_at < ?",
		salesArgs...).Scan(&st.TotalSalesToday); err != nil {
		return st, err
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(dues), 0) FROM customers WHERE "+where, args...).Scan(&st.TotalPendingDues); err != nil {
		return st, err
	}
	lowArgs := append(append([]any{}, args...), model.LowStockThreshold)
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE "+where+" AND quantity <= ?", lowArgs...).Scan(&st.LowStockItems); err != nil {
		return st, err
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM customers WHERE "+where, args...).Scan(&st.TotalCustomers); err != nil {
		return st, err
	}
	return st, nil
}

// SalesSummary groups the scope's sold lines by product name.  Cost comes
// from the purchase price of the matching product in the same scope and is
// zero when the product is gone or never matched.  Rows are ordered by
// quantity sold and capped at model.SalesSummaryLimit.
func (r *ReportRepo) SalesSummary(ctx context.Context, scope model.Scope) ([]model.SalesSummaryRow, error) {
	productScope, pargs := scope.Filter("p.user_id")
	orderScope, oargs := scope.Filter("o.user_id")
	q := `SELECT oi.product_name,
	             SUM(oi.quantity) AS total_qty,
	             SUM(oi.quantity * oi.price) AS total_revenue,
	             SUM(oi.quantity * COALESCE(p.purchase_price, 0)) AS total_cost
	      FROM order_items oi
	      JOIN orders o ON o.id = oi.order_id
	      LEFT JOIN products p ON p.id = oi.product_id AND ` + productScope + `
	      WHERE ` + orderScope + `
	      GROUP BY oi.product_name
	      ORDER BY total_qty DESC, oi.product_name
	      LIMIT ?`
	args := append(append(append([]any{}, pargs...), oargs...), model.SalesSummaryLimit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SalesSummaryRow{}
	for rows.Next() {
		var row model.SalesSummaryRow
		if err := rows.Scan(&row.ProductName, &row.TotalQty, &row.TotalRevenue, &row.TotalCost); err != nil {
			return nil, err
		}
		row.Profit = row.TotalRevenue.Sub(row.TotalCost)
		out = append(out, row)
	}
	return out, rows.Err()
}
