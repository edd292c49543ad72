// Package service holds business flows that span more than one repository.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopsathi/shopsathi-api/internal/metrics"
	"github.com/shopsathi/shopsathi-api/internal/model"
	"github.com/shopsathi/shopsathi-api/internal/queue"
	"github.com/shopsathi/shopsathi-api/internal/repository"
)

// ValidationError is a client mistake in the order payload.  Its message
// is safe to return to the caller verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// OrderLine is one requested sale line.
type OrderLine struct {
	ProductID   *uint64
	ProductName string
	Quantity    int64
	Price       decimal.Decimal
}

// CreateOrderInput is the caller-supplied part of an order.
type CreateOrderInput struct {
	CustomerName string
	Discount     decimal.Decimal
	Items        []OrderLine
}

// EventPublisher receives committed orders.  Implementations must be safe
// for concurrent use.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, ev queue.OrderCreatedEvent) error
}

// OrderService records sales atomically: the order row, its lines and the
// stock decrements either all commit or none do.
type OrderService struct {
	orders      *repository.OrderRepo
	products    *repository.ProductRepo
	logger      *zap.Logger
	metrics     *metrics.Metrics
	events      EventPublisher
	strictStock bool
	now         func() time.Time
	publishWait time.Duration
}

// OrderServiceOption customises an OrderService.
type OrderServiceOption func(*OrderService)

// WithStrictStock rejects lines that would drive stock below zero.
func WithStrictStock(strict bool) OrderServiceOption {
	return func(s *OrderService) { s.strictStock = strict }
}

// WithEvents publishes an order.created event after every commit.
func WithEvents(p EventPublisher) OrderServiceOption {
	return func(s *OrderService) { s.events = p }
}

// WithMetrics records order counters.
func WithMetrics(m *metrics.Metrics) OrderServiceOption {
	return func(s *OrderService) { s.metrics = m }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) { s.now = now }
}

// NewOrderService wires the order flow.
func NewOrderService(orders *repository.OrderRepo, products *repository.ProductRepo, logger *zap.Logger, opts ...OrderServiceOption) *OrderService {
	s := &OrderService{
		orders:      orders,
		products:    products,
		logger:      logger,
		now:         time.Now,
		publishWait: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in, computes totals and persists the order for scope.
// Stock is decremented for every line that names a product; in lenient
// mode a product that does not exist in the scope is silently skipped.
func (s *OrderService) Create(ctx context.Context, scope model.Scope, in CreateOrderInput) (*model.Order, error) {
	order, err := buildOrder(in)
	if err != nil {
		s.countFailure("validation")
		return nil, err
	}
	order.CreatedAt = s.now().Truncate(time.Second)

	tx, err := s.orders.DB().BeginTx(ctx, nil)
	if err != nil {
		s.countFailure("store")
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("order rollback failed", zap.Error(rbErr))
		}
	}()

	if err := s.orders.CreateTx(ctx, tx, scope, order); err != nil {
		s.countFailure("store")
		return nil, fmt.Errorf("insert order: %w", err)
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err := s.orders.CreateItemsBulkTx(ctx, tx, order.Items); err != nil {
		s.countFailure("store")
		return nil, fmt.Errorf("insert order items: %w", err)
	}
	decremented := 0
	for _, it := range order.Items {
		if it.ProductID == nil {
			continue
		}
		if err := s.products.DecrementStockTx(ctx, tx, scope, *it.ProductID, it.Quantity, s.strictStock); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				s.countFailure("stock")
				return nil, err
			}
			s.countFailure("store")
			return nil, fmt.Errorf("update stock: %w", err)
		}
		decremented++
	}
	if err := tx.Commit(); err != nil {
		s.countFailure("store")
		return nil, fmt.Errorf("commit order: %w", err)
	}
	committed = true

	s.logger.Info("order created",
		zap.Uint64("order_id", order.ID),
		zap.Stringer("scope", scope),
		zap.Int("items", len(order.Items)),
		zap.String("final_amount", order.FinalAmount.StringFixed(2)),
	)
	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
		s.metrics.StockDecrements.Add(float64(decremented))
	}
	s.publish(ctx, order)
	return order, nil
}

// buildOrder turns the request into an order with rounded amounts and
// computed totals, rejecting malformed lines.
func buildOrder(in CreateOrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, invalid("Items required")
	}
	if in.Discount.IsNegative() {
		return nil, invalid("Discount cannot be negative")
	}
	items := make([]model.OrderItem, 0, len(in.Items))
	for _, l := range in.Items {
		name := strings.TrimSpace(l.ProductName)
		switch {
		case name == "":
			return nil, invalid("Item name required")
		case l.Quantity <= 0:
			return nil, invalid("Item quantity must be greater than zero")
		case l.Price.IsNegative():
			return nil, invalid("Item price cannot be negative")
		}
		items = append(items, model.OrderItem{
			ProductID:   l.ProductID,
			ProductName: name,
			Quantity:    l.Quantity,
			Price:       model.Cents(l.Price),
		})
	}
	o := &model.Order{Discount: model.Cents(in.Discount), Items: items}
	if name := strings.TrimSpace(in.CustomerName); name != "" {
		o.CustomerName = &name
	}
	o.CalculateTotals()
	return o, nil
}

// publish hands the committed order to the event publisher without
// blocking the response.  Failures are logged only.
func (s *OrderService) publish(ctx context.Context, o *model.Order) {
	if s.events == nil {
		return
	}
	ev := orderEvent(o)
	ctx = context.WithoutCancel(ctx)
	go func() {
		pctx, cancel := context.WithTimeout(ctx, s.publishWait)
		defer cancel()
		if err := s.events.PublishOrderCreated(pctx, ev); err != nil {
			s.logger.Warn("publish order.created failed", zap.Uint64("order_id", ev.OrderID), zap.Error(err))
		}
	}()
}

func orderEvent(o *model.Order) queue.OrderCreatedEvent {
	ev := queue.OrderCreatedEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Discount:    o.Discount,
		FinalAmount: o.FinalAmount,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
		Items:       make([]queue.OrderEventItem, 0, len(o.Items)),
	}
	if o.CustomerName != nil {
		ev.CustomerName = *o.CustomerName
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, queue.OrderEventItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	return ev
}

func (s *OrderService) countFailure(reason string) {
	if s.metrics != nil {
		s.metrics.OrdersFailed.WithLabelValues(reason).Inc()
	}
}
