package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadboard/internal/entity"
)

// Publisher é a parte do *amqp.Channel que o producer usa.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type LeadEventProducer interface {
	PublishLeadEvent(ctx context.Context, ev entity.LeadEvent) error
}

type RabbitMQProducer struct {
	mu sync.Mutex
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadEvent(ctx context.Context, ev entity.LeadEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode lead event: %w", err)
	}
	return p.publish(ctx, LeadRoutingKey, fmt.Sprintf("lead-%d", ev.LeadID), body)
}

// PublishOperatorChanges envia uma mensagem persistente por mudança.
func (p *RabbitMQProducer) PublishOperatorChanges(ctx context.Context, changes []entity.OperatorChange) error {
	for _, change := range changes {
		body, err := json.Marshal(change)
		if err != nil {
			return fmt.Errorf("encode operator change: %w", err)
		}
		if err := p.publish(ctx, OperatorRoutingKey, change.EventID, body); err != nil {
			return err
		}
	}
	return nil
}

func (p *RabbitMQProducer) publish(ctx context.Context, key, id string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.Ch.PublishWithContext(ctx,
		ExchangeName,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    id,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}
	return nil
}
