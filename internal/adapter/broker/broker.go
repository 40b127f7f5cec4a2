package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lunchpad/orderengine/internal/domain/model"
)

// amqpChannel is the subset of amqp.Channel the broker relies on, held
// behind an interface so tests can substitute a recording fake.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var dialAMQP = func(url string) (*amqp.Connection, error) {
	return amqp.Dial(url)
}

// Broker publishes notification and shipping-dispatch events over AMQP.
// It implements the notification router capability: the engine never holds
// per-user connection state, it only publishes to a user-keyed routing key.
type Broker struct {
	conn           *amqp.Connection
	ch             amqpChannel
	notifyExchange string
	shippingQueue  string
	logger         *slog.Logger
}

// New dials the broker and declares the topology.
func New(url, notifyExchange, shippingQueue string, logger *slog.Logger) (*Broker, error) {
	conn, err := dialAMQP(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	b := &Broker{
		conn:           conn,
		ch:             ch,
		notifyExchange: notifyExchange,
		shippingQueue:  shippingQueue,
		logger:         logger,
	}
	if err := b.setupTopology(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Broker) setupTopology() error {
	if err := b.ch.ExchangeDeclare(
		b.notifyExchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	_, err := b.ch.QueueDeclare(
		b.shippingQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

// RouteTo publishes a notification keyed by user id. A consumer bound to the
// user's key receives it live; with no binding the broker drops it, which is
// the degraded "no active listener" case.
func (b *Broker) RouteTo(ctx context.Context, userID int64, n model.Notification) (bool, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return false, err
	}

	err = b.ch.PublishWithContext(ctx,
		b.notifyExchange,
		strconv.FormatInt(userID, 10),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// PublishShipmentDispatch hands a pending shipping order to the external
// fulfillment collaborator via the shipping queue.
func (b *Broker) PublishShipmentDispatch(ctx context.Context, ev model.ShipmentDispatch) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return b.ch.PublishWithContext(ctx,
		"", // default exchange routes straight to the queue
		b.shippingQueue,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    ev.EventID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Close releases the channel and connection.
func (b *Broker) Close() {
	if b.ch != nil {
		if err := b.ch.Close(); err != nil {
			b.logger.Warn("close amqp channel", slog.String("error", err.Error()))
		}
	}
	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			b.logger.Warn("close amqp connection", slog.String("error", err.Error()))
		}
	}
}
