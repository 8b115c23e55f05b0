package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrPublisherUnavailable = errors.New("rabbitmq publisher is not connected")

	errStopped = errors.New("rabbitmq client stopped")
)

// amqpSession is one broker connection with a channel on which the contact
// queue has been declared.
type amqpSession struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func openSession(url string, prefetch int) (*amqpSession, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	if prefetch > 0 {
		if err := channel.Qos(prefetch, 0, false); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set channel qos: %w", err)
		}
	}

	if _, err := channel.QueueDeclare(ContactNotificationQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare rabbitmq queue %s: %w", ContactNotificationQueue, err)
	}

	return &amqpSession{conn: conn, channel: channel}, nil
}

func (s *amqpSession) close() {
	if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		slog.Error("error closing rabbitmq connection", "error", err)
	}
}

// dial opens a session, backing off between failures until stop is closed.
// A positive attempts bounds the number of tries.
func dial(url string, prefetch int, attempts int, stop <-chan struct{}) (*amqpSession, error) {
	delay := RetryDelay
	for i := 1; ; i++ {
		s, err := openSession(url, prefetch)
		if err == nil {
			slog.Info("connected to rabbitmq", "queue", ContactNotificationQueue)
			return s, nil
		}
		if attempts > 0 && i >= attempts {
			slog.Error("failed to connect to rabbitmq", "attempts", i, "error", err)
			return nil, fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", i, err)
		}
		slog.Warn("failed to connect to rabbitmq", "attempt", i, "retry_in", delay, "error", err)

		select {
		case <-stop:
			return nil, errStopped
		case <-time.After(delay):
		}
		delay = min(2*delay, MaxRetryDelay)
	}
}

// RabbitMQPublisher publishes through the current session. While the broker is
// unreachable no session is held and publishes fail with
// ErrPublisherUnavailable instead of waiting for the reconnect.
type RabbitMQPublisher struct {
	url     string
	session atomic.Pointer[amqpSession]
	stop    chan struct{}
	closer  sync.Once
}

func NewRabbitMQPublisher(rabbitMQURL string) (*RabbitMQPublisher, error) {
	p := &RabbitMQPublisher{url: rabbitMQURL, stop: make(chan struct{})}

	s, err := dial(rabbitMQURL, 0, MaxConnectRetry, p.stop)
	if err != nil {
		return nil, err
	}
	p.session.Store(s)

	go p.watch(s)

	return p, nil
}

func (p *RabbitMQPublisher) watch(s *amqpSession) {
	for {
		closed := s.channel.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-p.stop:
			return
		case err := <-closed:
			slog.Warn("rabbitmq publisher connection lost, reconnecting", "error", err)
		}

		if p.session.CompareAndSwap(s, nil) {
			s.close()
		}

		next, err := dial(p.url, 0, 0, p.stop)
		if err != nil {
			return
		}
		p.session.Store(next)

		select {
		case <-p.stop:
			// Close ran while dialing and may have missed this session.
			if p.session.CompareAndSwap(next, nil) {
				next.close()
			}
			return
		default:
		}

		slog.Info("rabbitmq publisher reconnected")
		s = next
	}
}

func (p *RabbitMQPublisher) publish(ctx context.Context, queueName string, payload any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", queueName, err)
	}

	s := p.session.Load()
	if s == nil {
		return fmt.Errorf("failed to publish %s: %w", queueName, ErrPublisherUnavailable)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", queueName, err)
	}

	err = s.channel.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		slog.Error("failed to publish message", "queue", queueName, "error", err)
		return fmt.Errorf("failed to publish %s: %w", queueName, err)
	}

	return nil
}

func (p *RabbitMQPublisher) PublishContactMessage(ctx context.Context, payload ContactMessagePayload) error {
	return p.publish(ctx, ContactNotificationQueue, payload)
}

func (p *RabbitMQPublisher) Close() {
	p.closer.Do(func() {
		close(p.stop)
		if s := p.session.Swap(nil); s != nil {
			s.close()
		}
	})
}

type RabbitMQTask struct {
	d amqp.Delivery
}

func (t *RabbitMQTask) Type() string {
	return t.d.RoutingKey
}

func (t *RabbitMQTask) Payload() []byte {
	return t.d.Body
}

func (t *RabbitMQTask) Ack() error {
	return t.d.Ack(false)
}

// Nack requeues the delivery once; a redelivered message that fails again is
// dropped so a dead webhook cannot spin the queue.
func (t *RabbitMQTask) Nack() error {
	return t.d.Nack(false, !t.d.Redelivered)
}

func (t *RabbitMQTask) Reject() error {
	return t.d.Reject(false)
}

// RabbitMQReceiver consumes the contact queue one delivery at a time and
// resubscribes after the broker drops the connection.
type RabbitMQReceiver struct {
	tasks  chan Task
	url    string
	stop   chan struct{}
	closer sync.Once
}

func NewRabbitMQReceiver(rabbitMQURL string) (*RabbitMQReceiver, error) {
	c := &RabbitMQReceiver{
		tasks: make(chan Task),
		url:   rabbitMQURL,
		stop:  make(chan struct{}),
	}

	s, msgs, err := c.subscribe(MaxConnectRetry)
	if err != nil {
		return nil, err
	}

	go c.run(s, msgs)

	return c, nil
}

func (c *RabbitMQReceiver) subscribe(attempts int) (*amqpSession, <-chan amqp.Delivery, error) {
	for {
		s, err := dial(c.url, 1, attempts, c.stop)
		if err != nil {
			return nil, nil, err
		}

		msgs, err := s.channel.Consume(ContactNotificationQueue, "", false, false, false, false, nil)
		if err == nil {
			return s, msgs, nil
		}
		s.close()
		if attempts > 0 {
			return nil, nil, fmt.Errorf("failed to consume from rabbitmq queue %s: %w", ContactNotificationQueue, err)
		}
		slog.Warn("failed to consume from rabbitmq queue, retrying", "queue", ContactNotificationQueue, "error", err)

		select {
		case <-c.stop:
			return nil, nil, errStopped
		case <-time.After(RetryDelay):
		}
	}
}

func (c *RabbitMQReceiver) run(s *amqpSession, msgs <-chan amqp.Delivery) {
	for {
		if !c.forward(msgs) {
			slog.Info("stopping rabbitmq consumer")
			s.close()
			return
		}

		slog.Warn("rabbitmq consumer connection lost, reconnecting")
		s.close()

		var err error
		if s, msgs, err = c.subscribe(0); err != nil {
			return
		}
		slog.Info("rabbitmq consumer resubscribed")
	}
}

// forward hands deliveries to Tasks until the broker closes msgs. It returns
// false once the receiver has been closed.
func (c *RabbitMQReceiver) forward(msgs <-chan amqp.Delivery) bool {
	for {
		select {
		case <-c.stop:
			return false
		case d, ok := <-msgs:
			if !ok {
				return true
			}
			select {
			case c.tasks <- &RabbitMQTask{d: d}:
			case <-c.stop:
				return false
			}
		}
	}
}

func (c *RabbitMQReceiver) Tasks() <-chan Task {
	return c.tasks
}

func (c *RabbitMQReceiver) Close() {
	c.closer.Do(func() { close(c.stop) })
}
