package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/shopsathi/shopsathi-api/internal/queue"
)

// ErrPublisherUnavailable is returned while the breaker is open.
var ErrPublisherUnavailable = errors.New("order event publisher unavailable")

// sendFunc delivers one encoded message to the named queue.
type sendFunc func(ctx context.Context, queueName string, body []byte) error

// Publisher sends order events to RabbitMQ behind a circuit breaker so a
// dead broker costs one fast failure instead of a dial per order.
type Publisher struct {
	send   sendFunc
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewPublisher returns a Publisher dialing url for every message.
func NewPublisher(url string, logger *zap.Logger) *Publisher {
	return newPublisher(amqpSender(url), logger)
}

func newPublisher(send sendFunc, logger *zap.Logger) *Publisher {
	settings := gobreaker.Settings{
		Name:        "OrderEvents",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Publisher{
		send:   send,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

// PublishOrderCreated encodes ev and sends it to the order.created queue.
func (p *Publisher) PublishOrderCreated(ctx context.Context, ev queue.OrderCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.send(ctx, queue.OrderCreatedQueue, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrPublisherUnavailable
	}
	return err
}

func amqpSender(url string) sendFunc {
	return func(ctx context.Context, queueName string, body []byte) error {
		conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
		if err != nil {
			return fmt.Errorf("rabbitmq dial: %w", err)
		}
		defer func() { _ = conn.Close() }()

		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("rabbitmq channel: %w", err)
		}
		defer func() { _ = ch.Close() }()

		if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("rabbitmq queue declare: %w", err)
		}
		return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	}
}
