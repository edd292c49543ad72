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

// CustomerHandler serves the customer and dues endpoints.
type CustomerHandler struct {
	base
	Customers *repository.CustomerRepo
}

func NewCustomerHandler(r *repository.CustomerRepo, opts Options) *CustomerHandler {
	return &CustomerHandler{base: newBase(opts), Customers: r}
}

type customerReq struct {
	Name    string          `json:"name" validate:"required"`
	Phone   *string         `json:"phone"`
	Address *string         `json:"address"`
	Type    *string         `json:"type"`
	Dues    decimal.Decimal `json:"dues"`
}

func (r *customerReq) normalize() { r.Name = strings.TrimSpace(r.Name) }

func (r customerReq) toModel() model.Customer {
	return model.Customer{
		Name:    r.Name,
		Phone:   r.Phone,
		Address: r.Address,
		Type:    r.Type,
		Dues:    model.Cents(r.Dues),
	}
}

// List: GET /api/customers, sorted by name.
func (h *CustomerHandler) List(c echo.Context) error {
	scope, ctx, cancel := h.request(c)
	defer cancel()

	items, err := h.Customers.List(ctx, scope)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create: POST /api/customers
func (h *CustomerHandler) Create(c echo.Context) error {
	var req customerReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	scope, ctx, cancel := h.request(c)
	defer cancel()

	cust := req.toModel()
	if err := h.Customers.Create(ctx, scope, &cust); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, cust)
}

// Update: PUT /api/customers/:id.  Used to settle dues.
func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid customer id")
	}
	var req customerReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	scope, ctx, cancel := h.request(c)
	defer cancel()

	cust := req.toModel()
	cust.ID = id
	n, err := h.Customers.Update(ctx, scope, &cust)
	if err != nil {
		return h.fail(c, err)
	}
	if n > 0 {
		stored, err := h.Customers.GetByID(ctx, scope, id)
		if err == nil {
			return c.JSON(http.StatusOK, stored)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return h.fail(c, err)
		}
	}
	cust.UserID = scope.OwnerPtr()
	return c.JSON(http.StatusOK, cust)
}

// Delete: DELETE /api/customers/:id.  Unlike products, a miss is a 404.
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid customer id")
	}
	scope, ctx, cancel := h.request(c)
	defer cancel()

	if err := h.Customers.Delete(ctx, scope, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Customer not found")
		}
		return h.fail(c, err)
	}
	return success(c)
}
