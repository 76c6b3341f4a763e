package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Goldbar97/Account/internal/domain"
)

// RabbitMQPublisher publishes transaction events to a RabbitMQ topic exchange.
type RabbitMQPublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the exchange.
func NewRabbitMQPublisher(url, exchange, routingKey string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQPublisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// transactionRecordedEvent is the wire format of a ledger event.
type transactionRecordedEvent struct {
	EventType            string `json:"eventType"`
	TransactionID        string `json:"transactionId"`
	Type                 string `json:"type"`
	Result               string `json:"result"`
	AccountNumber        string `json:"accountNumber"`
	Amount               int64  `json:"amount"`
	BalanceSnapshot      int64  `json:"balanceSnapshot"`
	RelatedTransactionID string `json:"relatedTransactionId,omitempty"`
	TransactedAt         string `json:"transactedAt"`
}

// PublishTransactionRecorded emits a transaction.recorded event for a
// committed ledger record.
func (p *RabbitMQPublisher) PublishTransactionRecorded(ctx context.Context, tx *domain.Transaction) error {
	event := transactionRecordedEvent{
		EventType:            "transaction.recorded",
		TransactionID:        tx.TransactionID,
		Type:                 string(tx.Type),
		Result:               string(tx.Result),
		AccountNumber:        tx.AccountNumber,
		Amount:               tx.Amount,
		BalanceSnapshot:      tx.BalanceSnapshot,
		RelatedTransactionID: tx.RelatedTransactionID,
		TransactedAt:         tx.TransactedAt.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
