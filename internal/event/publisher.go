package event

import (
	"encoding/json"
	"log"
	"time"

	"github.com/streadway/amqp"
)

// Routing keys published to the topic exchange.
const (
	SessionCreated   = "survey.session.created"
	SessionCompleted = "survey.session.completed"
	QuotaRejected    = "survey.quota.rejected"
	AttentionFailed  = "survey.attention.failed"
)

// Publisher emits survey lifecycle events to a RabbitMQ topic exchange. A nil
// *Publisher is a no-op, so callers never need to guard against an
// unconfigured broker.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends an event using the event type as the routing key. Failures
// are logged, not returned; the survey never blocks on the broker.
func (p *Publisher) Publish(eventType string, payload interface{}) {
	if p == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"type":      eventType,
		"payload":   payload,
		"timestamp": time.Now().UTC(),
	})
	if err != nil {
		log.Printf("failed to marshal event %s: %v", eventType, err)
		return
	}
	err = p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		log.Printf("failed to publish event %s: %v", eventType, err)
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
