package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName       = "ex.leadboard"
	DLXName            = "ex.leadboard.dlx"
	LeadQueueName      = "q.lead-events"
	LeadDLQName        = "q.lead-events.dlq"
	OperatorQueueName  = "q.operator-changes"
	LeadRoutingKey     = "k.lead.event"
	OperatorRoutingKey = "k.operator.changed"
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare topology: %w", err)
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

func (r *RabbitMQ) Close() {
	if r.Ch != nil {
		r.Ch.Close()
	}
	if r.Conn != nil {
		r.Conn.Close()
	}
}

// setupTopology declara a fila de eventos de lead com sua dead-letter e
// uma fila durável que junta mudanças de operador para outros consumidores.
func setupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(LeadDLQName, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(LeadDLQName, LeadRoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": LeadRoutingKey,
	}
	if _, err := ch.QueueDeclare(LeadQueueName, true, false, false, false, args); err != nil {
		return err
	}
	if err := ch.QueueBind(LeadQueueName, LeadRoutingKey, ExchangeName, false, nil); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(OperatorQueueName, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.QueueBind(OperatorQueueName, OperatorRoutingKey, ExchangeName, false, nil)
}
