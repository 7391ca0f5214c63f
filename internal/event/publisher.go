package event

import (
	"encoding/json"
	"log"
	"time"

	"github.com/streadway/amqp"
)

// Session lifecycle routing keys.
const (
	SessionCreated        = "quiz.session.created"
	SessionStarted        = "quiz.session.started"
	AnswerSubmitted       = "quiz.answer.submitted"
	LearningModeEntered   = "quiz.learning_mode.entered"
	LearningModeCompleted = "quiz.learning_mode.completed"
	SessionCompleted      = "quiz.session.completed"
	SessionAbandoned      = "quiz.session.abandoned"
)

// EventPublisher pushes session lifecycle events onto a RabbitMQ topic
// exchange. A nil publisher is valid and drops everything, so callers never
// guard their publish sites.
type EventPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewEventPublisher(amqpURL, exchange string) (*EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &EventPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends one event with the routing key equal to its type. Publishing
// is best-effort; failures are logged, never propagated into request flow.
func (p *EventPublisher) Publish(eventType string, payload interface{}) {
	if p == nil {
		return
	}
	event := map[string]interface{}{
		"type":      eventType,
		"payload":   payload,
		"timestamp": time.Now(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("[EVENT] failed to marshal %s: %v", eventType, err)
		return
	}

	err = p.channel.Publish(
		p.exchange,
		eventType, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		log.Printf("[EVENT] failed to publish %s: %v", eventType, err)
	}
}

func (p *EventPublisher) Close() {
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
