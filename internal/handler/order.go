package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/shopsathi/shopsathi-api/internal/repository"
	"github.com/shopsathi/shopsathi-api/internal/service"
)

// OrderHandler serves billing: order creation and history.
type OrderHandler struct {
	base
	Orders  *repository.OrderRepo
	Service *service.OrderService
}

func NewOrderHandler(r *repository.OrderRepo, s *service.OrderService, opts Options) *OrderHandler {
	return &OrderHandler{base: newBase(opts), Orders: r, Service: s}
}

// orderLineReq accepts both the billing screen's {id, name} and the
// {productId, productName} spelling.
type orderLineReq struct {
	ID          *uint64         `json:"id"`
	ProductID   *uint64         `json:"productId"`
	Name        string          `json:"name"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type orderReq struct {
	CustomerName string          `json:"customerName"`
	Discount     decimal.Decimal `json:"discount"`
	Items        []orderLineReq  `json:"items"`
}

func (r orderReq) toInput() service.CreateOrderInput {
	in := service.CreateOrderInput{
		CustomerName: r.CustomerName,
		Discount:     r.Discount,
		Items:        make([]service.OrderLine, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		line := service.OrderLine{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		}
		if line.ProductID == nil {
			line.ProductID = it.ID
		}
		if line.ProductName == "" {
			line.ProductName = it.Name
		}
		// product ids start at 1; 0 is how some clients send "none"
		if line.ProductID != nil && *line.ProductID == 0 {
			line.ProductID = nil
		}
		in.Items = append(in.Items, line)
	}
	return in
}

// Create: POST /api/orders.  Responds {success, orderId}.
func (h *OrderHandler) Create(c echo.Context) error {
	var req orderReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}
	scope, ctx, cancel := h.request(c)
	defer cancel()

	o, err := h.Service.Create(ctx, scope, req.toInput())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "orderId": o.ID})
}

// List: GET /api/orders, newest first, without lines.
func (h *OrderHandler) List(c echo.Context) error {
	scope, ctx, cancel := h.request(c)
	defer cancel()

	orders, err := h.Orders.List(ctx, scope)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Get: GET /api/orders/:id with its lines.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid order id")
	}
	scope, ctx, cancel := h.request(c)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Order not found")
		}
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, o)
}
