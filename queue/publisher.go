package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/pamojavote/pamoja-go/models"
)

const publishTimeout = 5 * time.Second

// Publisher forwards session events to RabbitMQ. It satisfies
// gateway.Listener.
type Publisher struct {
	conn   *Connection
	logger *zap.Logger
}

func NewPublisher(conn *Connection, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.L()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Publish sends one event to the exchange.
func (p *Publisher) Publish(ctx context.Context, event models.SessionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode session event: %w", err)
	}

	return p.conn.Ch.PublishWithContext(
		ctx,
		p.conn.config.Exchange,
		event.Name, // routing key, ignored by fanout bindings
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  p.conn.config.ContentType,
			DeliveryMode: p.conn.config.DeliveryMode,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Type:         event.Name,
			Body:         body,
		},
	)
}

// OnSessionEvent publishes event, logging failures instead of returning
// them: the broker being down must not fail an API call.
func (p *Publisher) OnSessionEvent(ctx context.Context, event models.SessionEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(ctx, event); err != nil {
		p.logger.Warn("failed to publish session event",
			zap.String("event", event.Name),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
