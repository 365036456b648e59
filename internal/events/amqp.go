package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultDialTimeout bounds connecting and the AMQP handshake.
const DefaultDialTimeout = 5 * time.Second

// AMQPPublisher publishes events to RabbitMQ. Each publish opens its own
// connection.
type AMQPPublisher struct {
	URL   string
	Queue string
	// DialTimeout bounds connecting to the broker; zero means
	// DefaultDialTimeout. A sooner context deadline wins.
	DialTimeout time.Duration
}

// NewAMQPPublisher returns a publisher for the custody queue at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Queue: CustodyQueue, DialTimeout: DefaultDialTimeout}
}

// PublishCustodyChange sends event as a persistent JSON message.
func (p *AMQPPublisher) PublishCustodyChange(ctx context.Context, event CustodyChanged) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding custody event: %w", err)
	}
	return p.publish(ctx, body)
}

func (p *AMQPPublisher) dialTimeout(ctx context.Context) time.Duration {
	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	return timeout
}

func (p *AMQPPublisher) publish(ctx context.Context, body []byte) error {
	timeout := p.dialTimeout(ctx)
	if timeout <= 0 {
		return fmt.Errorf("dialing broker: %w", context.DeadlineExceeded)
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("dialing broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring queue %s: %w", p.Queue, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.Queue, err)
	}
	return nil
}
