package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/xavierca1/leadboard/internal/entity"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher escreve mudanças de operador num tópico com chave por etapa e
// operador, para que as mudanças de um operador fiquem ordenadas na partição.
type KafkaPublisher struct {
	w MessageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}}
}

func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) PublishOperatorChanges(ctx context.Context, changes []entity.OperatorChange) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(changes))
	for _, change := range changes {
		body, err := json.Marshal(change)
		if err != nil {
			return fmt.Errorf("encode operator change: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(change.StatusID + ":" + strconv.Itoa(change.OperatorID)),
			Value: body,
			Time:  change.At,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(change.EventID)},
			},
		})
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
