package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/shopsathi/shopsathi-api/internal/model"
	"github.com/shopsathi/shopsathi-api/internal/repository"
)

// ProductHandler serves the inventory endpoints.
type ProductHandler struct {
	base
	Products *repository.ProductRepo
}

func NewProductHandler(p *repository.ProductRepo, opts Options) *ProductHandler {
	return &ProductHandler{base: newBase(opts), Products: p}
}

type productReq struct {
	Name          string           `json:"name" validate:"required"`
	Size          *string          `json:"size"`
	Color         *string          `json:"color"`
	Price         decimal.Decimal  `json:"price" validate:"gte=0"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice" validate:"omitempty,gte=0"`
	Quantity      int64            `json:"quantity"`
	Category      *string          `json:"category"`
	Subcategory   *string          `json:"subcategory"`
	ProductType   string           `json:"productType" validate:"omitempty,oneof=ready-made manufactured"`
}

func (r *productReq) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.ProductType = strings.TrimSpace(r.ProductType)
}

// toModel applies the create/update defaults: purchase price 0 and type
// ready-made when omitted.
func (r productReq) toModel() model.Product {
	p := model.Product{
		Name:        r.Name,
		Size:        r.Size,
		Color:       r.Color,
		Price:       model.Cents(r.Price),
		Quantity:    r.Quantity,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		ProductType: r.ProductType,
	}
	if r.PurchasePrice != nil {
		p.PurchasePrice = model.Cents(*r.PurchasePrice)
	}
	if p.ProductType == "" {
		p.ProductType = model.ProductTypeReadyMade
	}
	return p
}

// List: GET /api/products
func (h *ProductHandler) List(c echo.Context) error {
	scope, ctx, cancel := h.request(c)
	defer cancel()

	items, err := h.Products.List(ctx, scope)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create: POST /api/products
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	scope, ctx, cancel := h.request(c)
	defer cancel()

	p := req.toModel()
	if err := h.Products.Create(ctx, scope, &p); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Update: PUT /api/products/:id.  A product outside the caller's scope is
// not touched; the response then echoes the request, as for a hit.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid product id")
	}
	var req productReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	scope, ctx, cancel := h.request(c)
	defer cancel()

	p := req.toModel()
	p.ID = id
	n, err := h.Products.Update(ctx, scope, &p)
	if err != nil {
		return h.fail(c, err)
	}
	if n > 0 {
		stored, err := h.Products.GetByID(ctx, scope, id)
		if err == nil {
			return c.JSON(http.StatusOK, stored)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return h.fail(c, err)
		}
	}
	p.UserID = scope.OwnerPtr()
	return c.JSON(http.StatusOK, p)
}

// Delete: DELETE /api/products/:id.  Succeeds even when nothing matched.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid product id")
	}
	scope, ctx, cancel := h.request(c)
	defer cancel()

	if _, err := h.Products.Delete(ctx, scope, id); err != nil {
		return h.fail(c, err)
	}
	return success(c)
}
