package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopsathi/shopsathi-api/internal/metrics"
	"github.com/shopsathi/shopsathi-api/internal/model"
	"github.com/shopsathi/shopsathi-api/internal/queue"
	"github.com/shopsathi/shopsathi-api/internal/repository"
)

var fixedNow = time.Date(2026, 3, 4, 10, 30, 0, 0, time.Local)

const (
	insertOrderSQL = "INSERT INTO orders (user_id, customer_name, total_amount, discount, final_amount, created_at)"
	insertItemsSQL = "INSERT INTO order_items (order_id, product_id, product_name, quantity, price) VALUES "
	decrementSQL   = "UPDATE products SET quantity = quantity - ? WHERE id = ? AND "
)

func newService(t *testing.T, opts ...OrderServiceOption) (*OrderService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	opts = append([]OrderServiceOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := NewOrderService(repository.NewOrderRepo(db), repository.NewProductRepo(db), zap.NewNop(), opts...)
	return svc, mock
}

func ptr(v uint64) *uint64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func shirtInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName: "Asha",
		Discount:     dec("100"),
		Items: []OrderLine{
			{ProductID: ptr(3), ProductName: "Shirt", Quantity: 2, Price: dec("500")},
		},
	}
}

func TestCreateOrderCommits(t *testing.T) {
	m := metrics.New()
	svc, mock := newService(t, WithMetrics(m))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs(int64(7), "Asha", "1000", "100", "900", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemsSQL)).
		WithArgs(int64(42), int64(3), "Shirt", int64(2), "500").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL+"user_id = ?")).
		WithArgs(int64(2), int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := svc.Create(context.Background(), model.Owner(7), shirtInput())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), o.ID)
	assert.Equal(t, uint64(7), *o.UserID)
	assert.True(t, dec("1000").Equal(o.TotalAmount))
	assert.True(t, dec("900").Equal(o.FinalAmount))
	assert.Equal(t, fixedNow, o.CreatedAt)
	assert.Equal(t, uint64(42), o.Items[0].OrderID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockDecrements))
}

func TestCreateOrderGuestScope(t *testing.T) {
	svc, mock := newService(t)

	in := CreateOrderInput{Items: []OrderLine{
		{ProductID: ptr(5), ProductName: "Cap", Quantity: 1, Price: dec("150.5")},
		{ProductName: "Gift wrap", Quantity: 1, Price: dec("20")},
	}}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs(nil, nil, "170.5", "0", "170.5", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemsSQL+"(?, ?, ?, ?, ?),(?, ?, ?, ?, ?)")).
		WithArgs(int64(8), int64(5), "Cap", int64(1), "150.5", int64(8), nil, "Gift wrap", int64(1), "20").
		WillReturnResult(sqlmock.NewResult(1, 2))
	// only the line with a product id touches stock
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL+"user_id IS NULL")).
		WithArgs(int64(1), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	o, err := svc.Create(context.Background(), model.Guest(), in)
	require.NoError(t, err)
	assert.Nil(t, o.UserID)
	assert.Nil(t, o.CustomerName)
}

func TestCreateOrderValidation(t *testing.T) {
	m := metrics.New()
	svc, _ := newService(t, WithMetrics(m))

	cases := map[string]struct {
		in   CreateOrderInput
		want string
	}{
		"no items":        {CreateOrderInput{}, "Items required"},
		"zero quantity":   {CreateOrderInput{Items: []OrderLine{{ProductName: "A", Price: dec("1")}}}, "Item quantity must be greater than zero"},
		"negative price":  {CreateOrderInput{Items: []OrderLine{{ProductName: "A", Quantity: 1, Price: dec("-1")}}}, "Item price cannot be negative"},
		"blank name":      {CreateOrderInput{Items: []OrderLine{{ProductName: "  ", Quantity: 1}}}, "Item name required"},
		"negative discnt": {CreateOrderInput{Discount: dec("-5"), Items: []OrderLine{{ProductName: "A", Quantity: 1}}}, "Discount cannot be negative"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), model.Guest(), tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.want, verr.Message)
		})
	}
	assert.Equal(t, float64(len(cases)), testutil.ToFloat64(m.OrdersFailed.WithLabelValues("validation")))
}

func TestCreateOrderRollsBackOnOrderInsertFailure(t *testing.T) {
	m := metrics.New()
	svc, mock := newService(t, WithMetrics(m))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs(7, "Asha", "1000", "100", "900", sqlmock.AnyArg()).
		WillReturnError(errors.New("Lock wait timeout exceeded"))
	mock.ExpectRollback()

	o, err := svc.Create(context.Background(), model.Owner(7), shirtInput())
	assert.Nil(t, o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order")
	assert.Contains(t, err.Error(), "Lock wait timeout exceeded")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrdersFailed.WithLabelValues("store")))
	assert.Zero(t, testutil.ToFloat64(m.OrdersCreated))
}

func TestCreateOrderRollsBackOnItemFailure(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemsSQL)).WillReturnError(errors.New("Data too long for column 'product_name'"))
	mock.ExpectRollback()

	o, err := svc.Create(context.Background(), model.Owner(7), shirtInput())
	assert.Nil(t, o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Data too long")
}

func TestCreateOrderRollsBackOnStockFailure(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemsSQL)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), model.Owner(7), shirtInput())
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestCreateOrderStrictStock(t *testing.T) {
	m := metrics.New()
	svc, mock := newService(t, WithStrictStock(true), WithMetrics(m))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemsSQL)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL+"user_id = ? AND quantity >= ?")).
		WithArgs(int64(2), int64(3), int64(7), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), model.Owner(7), shirtInput())
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersFailed.WithLabelValues("stock")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OrdersCreated))
}

func TestCreateOrderCommitFailure(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemsSQL)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("deadlock"))

	_, err := svc.Create(context.Background(), model.Owner(7), shirtInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit order")
}

type chanPublisher chan queue.OrderCreatedEvent

func (c chanPublisher) PublishOrderCreated(_ context.Context, ev queue.OrderCreatedEvent) error {
	c <- ev
	return nil
}

func TestCreateOrderPublishesEvent(t *testing.T) {
	events := make(chanPublisher, 1)
	svc, mock := newService(t, WithEvents(events))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemsSQL)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Create(context.Background(), model.Owner(7), shirtInput())
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, uint64(42), ev.OrderID)
		assert.Equal(t, "Asha", ev.CustomerName)
		require.Len(t, ev.Items, 1)
		assert.Equal(t, "Shirt", ev.Items[0].ProductName)
		assert.Equal(t, fixedNow.Format(time.RFC3339), ev.CreatedAt)
	case <-time.After(2 * time.Second):
		t.Fatal("order.created event not published")
	}
}

func TestBuildOrderRoundsToCents(t *testing.T) {
	o, err := buildOrder(CreateOrderInput{
		Discount: dec("0.105"),
		Items: []OrderLine{
			{ProductName: "Pen", Quantity: 3, Price: dec("0.1")},
			{ProductName: "Ink", Quantity: 1, Price: dec("9.999")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "10.30", o.TotalAmount.StringFixed(2))
	assert.Equal(t, "0.11", o.Discount.StringFixed(2))
	assert.True(t, o.FinalAmount.Equal(o.TotalAmount.Sub(o.Discount)))
}
