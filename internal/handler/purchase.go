package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/shopsathi/shopsathi-api/internal/model"
	"github.com/shopsathi/shopsathi-api/internal/repository"
	"github.com/shopsathi/shopsathi-api/internal/utils"
)

// PurchaseHandler serves the purchase expense ledger.
type PurchaseHandler struct {
	base
	Purchases *repository.PurchaseRepo
	now       func() time.Time
}

func NewPurchaseHandler(r *repository.PurchaseRepo, opts Options) *PurchaseHandler {
	return &PurchaseHandler{base: newBase(opts), Purchases: r, now: time.Now}
}

type purchaseReq struct {
	SupplierName  string           `json:"supplierName" validate:"required"`
	CompanyName   string           `json:"companyName"`
	InvoiceNumber string           `json:"invoiceNumber"`
	Amount        *decimal.Decimal `json:"amount" validate:"required,gte=0"`
	Date          string           `json:"date"`
	Notes         string           `json:"notes"`
	HasBillImage  bool             `json:"hasBillImage"`
}

func (r *purchaseReq) normalize() {
	r.SupplierName = strings.TrimSpace(r.SupplierName)
	r.Date = strings.TrimSpace(r.Date)
}

// purchaseMessage keeps the ledger's two historic messages: a missing
// field wins over a negative amount.
func purchaseMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return "Supplier name and amount are required"
			}
		}
		return "Amount cannot be negative"
	}
	return utils.ValidationMessage(err)
}

// parseDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD day in
// server-local time.
func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Create: POST /api/purchases.  Supplier name and amount are mandatory;
// date defaults to now.
func (h *PurchaseHandler) Create(c echo.Context) error {
	var req purchaseReq
	if err := decode(c, &req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return message(c, http.StatusBadRequest, purchaseMessage(err))
	}
	createdAt := h.now()
	if req.Date != "" {
		t, ok := parseDate(req.Date)
		if !ok {
			return message(c, http.StatusBadRequest, "Invalid date")
		}
		createdAt = t
	}

	scope, ctx, cancel := h.request(c)
	defer cancel()

	p := model.Purchase{
		SupplierName:  req.SupplierName,
		CompanyName:   optional(req.CompanyName),
		InvoiceNumber: optional(req.InvoiceNumber),
		Amount:        model.Cents(*req.Amount),
		Notes:         optional(req.Notes),
		HasBillImage:  req.HasBillImage,
		CreatedAt:     createdAt.Truncate(time.Second),
	}
	if err := h.Purchases.Create(ctx, scope, &p); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// List: GET /api/purchases, newest first.
func (h *PurchaseHandler) List(c echo.Context) error {
	scope, ctx, cancel := h.request(c)
	defer cancel()

	items, err := h.Purchases.List(ctx, scope)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
