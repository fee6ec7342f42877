// Package notify fans gate decisions out to RabbitMQ.
//
// Each decision is published to a durable topic exchange with routing key
// "decision.<status>.<CODE>", so consumers can bind to e.g.
// "decision.rejected.#" or "decision.*.CUNT".
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

const publishTimeout = 5 * time.Second

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends DecisionEvents to an AMQP exchange.
type Publisher struct {
	exchange string
	log      logrus.FieldLogger

	mu   sync.Mutex
	ch   Channel
	conn *amqp.Connection
}

// Dial connects to url and declares exchange.
func Dial(url, exchange string, log logrus.FieldLogger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := New(ch, exchange, log)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn

	log.WithFields(logrus.Fields{
		"exchange": exchange,
	}).Info("connected to RabbitMQ")
	return p, nil
}

// New wraps an open channel and declares exchange on it.
func New(ch Channel, exchange string, log logrus.FieldLogger) (*Publisher, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &Publisher{exchange: exchange, log: log, ch: ch}, nil
}

// RoutingKey returns the topic key of ev.
func RoutingKey(ev model.DecisionEvent) string {
	return fmt.Sprintf("decision.%s.%s", ev.Status, ev.Amount.Code())
}

// PublishDecision sends ev as a persistent JSON message.
func (p *Publisher) PublishDecision(ctx context.Context, ev model.DecisionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev), false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     ev.Token,
		CorrelationId: ev.Token,
		Timestamp:     ev.At,
		Type:          "limiter.decision",
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish decision seq=%d: %w", ev.Seq, err)
	}

	p.log.WithFields(logrus.Fields{
		"seq":    ev.Seq,
		"status": ev.Status,
		"key":    RoutingKey(ev),
	}).Debug("decision published")
	return nil
}

// Close closes the channel and, if Dial opened it, the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
