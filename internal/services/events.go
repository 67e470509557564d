package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ngenohkevin/circulation/internal/config"
)

var eventJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// AMQPPublisher publishes domain events to a durable topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(cfg config.EventsConfig, logger *slog.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	logger.Info("Event publisher connected", "exchange", cfg.Exchange)
	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := eventJSON.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	p.logger.Debug("Event published", "routing_key", routingKey, "bytes", len(body))
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
