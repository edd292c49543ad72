package repository

import (
	"context"
	"database/sql"

	"github.com/shopsathi/shopsathi-api/internal/model"
)

// PurchaseRepo appends to and reads the purchases expense ledger.
type PurchaseRepo struct {
	db *sql.DB
}

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

// Create inserts the entry under the scope's owner.
func (r *PurchaseRepo) Create(ctx context.Context, scope model.Scope, p *model.Purchase) error {
	const q = `INSERT INTO purchases (user_id, supplier_name, company_name, invoice_number, amount, notes, has_bill_image, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, scope.OwnerValue(), p.SupplierName, p.CompanyName, p.InvoiceNumber,
		p.Amount, p.Notes, p.HasBillImage, p.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.UserID = scope.OwnerPtr()
	return nil
}

// List returns the scope's purchases newest first.
func (r *PurchaseRepo) List(ctx context.Context, scope model.Scope) ([]model.Purchase, error) {
	where, args := scope.Filter("user_id")
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, supplier_name, company_name, invoice_number, amount, notes, COALESCE(has_bill_image, 0), created_at
		 FROM purchases WHERE `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Purchase{}
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.SupplierName, &p.CompanyName, &p.InvoiceNumber,
			&p.Amount, &p.Notes, &p.HasBillImage, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
