package queue

// The sales consumer listens on order.created and appends one line per
// committed order to <dir>/sales.log.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SalesLogFile is the file name written inside the configured log directory.
const SalesLogFile = "sales.log"

// SalesConsumer drains the order.created queue into the sales log.
type SalesConsumer struct {
	url    string
	dir    string
	logger *zap.Logger
}

// NewSalesConsumer returns a consumer for the broker at url writing into dir.
func NewSalesConsumer(url, dir string, logger *zap.Logger) *SalesConsumer {
	return &SalesConsumer{url: url, dir: dir, logger: logger}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures back off exponentially up to 30s; a closed delivery channel
// triggers a reconnect.
func (c *SalesConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("sales consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("sales consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *SalesConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("sales consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(OrderCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(OrderCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.logger.Error("sales consumer: handle message failed", zap.Error(err))
				// no requeue, a poison message would loop forever
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one OrderCreatedEvent and appends it to the sales log.
func (c *SalesConsumer) Handle(body []byte) error {
	var ev OrderCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, SalesLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open sales log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatSalesLine(ev)); err != nil {
		return fmt.Errorf("write sales log: %w", err)
	}
	return nil
}

// FormatSalesLine renders ev as a single newline-terminated log line.
func FormatSalesLine(ev OrderCreatedEvent) string {
	owner := "guest"
	if ev.UserID != nil {
		owner = fmt.Sprintf("%d", *ev.UserID)
	}
	customer := ev.CustomerName
	if customer == "" {
		customer = "-"
	}
	items := make([]string, 0, len(ev.Items))
	for _, it := range ev.Items {
		items = append(items, fmt.Sprintf("%s x%d @%s", it.ProductName, it.Quantity, it.Price.StringFixed(2)))
	}
	return fmt.Sprintf("[%s] Order created | order_id=%d | user_id=%s | customer=%q | total=%s | discount=%s | final=%s | items=[%s]\n",
		ev.CreatedAt, ev.OrderID, owner, customer,
		ev.TotalAmount.StringFixed(2), ev.Discount.StringFixed(2), ev.FinalAmount.StringFixed(2),
		strings.Join(items, ", "))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
