package queue

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/pamojavote/pamoja-go/models"
)

// Subscribe binds a queue to the session event exchange and streams decoded
// events until ctx is done or the channel closes. Undecodable deliveries are
// rejected and skipped.
func Subscribe(ctx context.Context, conn *Connection, config SubscribeConfig) (<-chan models.SessionEvent, error) {
	exclusive := config.Queue == ""
	q, err := conn.Ch.QueueDeclare(
		config.Queue,
		!exclusive, // durable
		exclusive,  // auto-delete
		exclusive,  // exclusive
		false,      // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := conn.Ch.QueueBind(q.Name, "", conn.config.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue %s: %w", q.Name, err)
	}

	deliveries, err := conn.Ch.ConsumeWithContext(
		ctx,
		q.Name,
		config.Consumer,
		config.AutoAck,
		exclusive,
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume from %s: %w", q.Name, err)
	}

	events := make(chan models.SessionEvent)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				var event models.SessionEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					if !config.AutoAck {
						_ = d.Reject(false)
					}
					continue
				}
				if !config.AutoAck {
					_ = d.Ack(false)
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}
