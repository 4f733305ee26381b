package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/usecase"
)

type LeadIngester interface {
	Execute(ctx context.Context, ev entity.LeadEvent) error
}

// Worker consome eventos de lead e repassa ao caso de uso de ingestão.
type Worker struct {
	Channel *amqp.Channel
	Ingest  LeadIngester
}

func NewWorker(ch *amqp.Channel, ingest LeadIngester) *Worker {
	return &Worker{Channel: ch, Ingest: ingest}
}

// Start consome até ctx ser cancelado ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] worker consuming '%s'", queueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ lead event worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", queueName)
			}
			w.handle(ctx, d)
		}
	}
}

// handle confirma em caso de sucesso. Eventos malformados ou inválidos vão direto
// para a dead-letter queue; outras falhas voltam para a fila uma vez.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var ev entity.LeadEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.Printf("❌ [WORKER] invalid JSON: %s", err)
		d.Nack(false, false)
		return
	}

	if err := w.Ingest.Execute(ctx, ev); err != nil {
		if usecase.IsDomainError(err) || d.Redelivered {
			log.Printf("❌ [WORKER] lead %d rejected: %s", ev.LeadID, err)
			d.Nack(false, false)
			return
		}
		log.Printf("⚠️ [WORKER] lead %d failed, requeueing: %s", ev.LeadID, err)
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}
