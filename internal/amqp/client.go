// Package amqp carries the async jobs between the API and the worker:
// statement-import analysis requests and operation export syncs. One Client
// is bound to one queue on the shared direct exchange.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states. The breaker keeps a flaky broker from stalling
// request handlers: once publishing fails maxFailures times in a row the
// client refuses further publishes until openTimeout has passed.
const (
	StateClosed int32 = iota
	StateHalfOpen
	StateOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
)

type Client struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	url          string
	exchangeName string
	queueName    string

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	if err := c.setup(); err != nil {
		c.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on the direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishImportJob asks the worker to analyze the given batch.
func (c *Client) PublishImportJob(ctx context.Context, batchID string) error {
	msg := NewImportJobMessage(batchID)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published import job",
		"batch_id", batchID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishOperationSync asks the worker to mirror the operation to the
// export sheet.
func (c *Client) PublishOperationSync(ctx context.Context, operationID, kind string) error {
	msg := NewOperationSyncMessage(operationID, kind)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published operation sync",
		"operation_id", operationID,
		"kind", kind,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open for queue %s", c.queueName)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		pubCtx,
		c.exchangeName,
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()
	return nil
}

// ConsumeImportJobs blocks delivering import jobs to the handler until the
// context is cancelled, reconnecting with backoff when the broker drops.
func (c *Client) ConsumeImportJobs(ctx context.Context, handler func(*ImportJobMessage) error) error {
	return c.consume(ctx, func(ctx context.Context, d amqp091.Delivery) {
		msg, err := ImportJobMessageFromJSON(d.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal import job", "error", err)
			d.Nack(false, false) // poison message, drop it
			return
		}
		if msg.Version > SchemaVersion {
			slog.ErrorContext(ctx, "Import job from a newer schema, dropping",
				"version", msg.Version, "batch_id", msg.BatchID)
			d.Nack(false, false)
			return
		}
		if err := handler(msg); err != nil {
			slog.ErrorContext(ctx, "Failed to handle import job",
				"error", err, "batch_id", msg.BatchID)
			d.Nack(false, true) // requeue for retry
			return
		}
		d.Ack(false)
		slog.InfoContext(ctx, "Processed import job", "batch_id", msg.BatchID)
	})
}

// ConsumeOperationSync blocks delivering export syncs to the handler until
// the context is cancelled.
func (c *Client) ConsumeOperationSync(ctx context.Context, handler func(*OperationSyncMessage) error) error {
	return c.consume(ctx, func(ctx context.Context, d amqp091.Delivery) {
		msg, err := OperationSyncMessageFromJSON(d.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal operation sync", "error", err)
			d.Nack(false, false)
			return
		}
		if msg.Version > SchemaVersion {
			slog.ErrorContext(ctx, "Operation sync from a newer schema, dropping",
				"version", msg.Version, "operation_id", msg.OperationID)
			d.Nack(false, false)
			return
		}
		if err := handler(msg); err != nil {
			slog.ErrorContext(ctx, "Failed to handle operation sync",
				"error", err, "operation_id", msg.OperationID, "kind", msg.Kind)
			d.Nack(false, true)
			return
		}
		d.Ack(false)
		slog.InfoContext(ctx, "Processed operation sync",
			"operation_id", msg.OperationID, "kind", msg.Kind)
	})
}

func (c *Client) consume(ctx context.Context, process func(context.Context, amqp091.Delivery)) error {
	for {
		msgs, err := c.channel.Consume(
			c.queueName,
			"",    // consumer
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			if !isConnectionError(err) {
				return fmt.Errorf("start consuming: %w", err)
			}
			if err := c.reconnect(ctx); err != nil {
				return err
			}
			continue
		}
		slog.InfoContext(ctx, "Started consuming", "queue", c.queueName)

	deliveries:
		for {
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
				return ctx.Err()
			case d, ok := <-msgs:
				if !ok {
					slog.WarnContext(ctx, "Delivery channel closed, reconnecting", "queue", c.queueName)
					if err := c.reconnect(ctx); err != nil {
						return err
					}
					break deliveries
				}
				process(ctx, d)
			}
		}
	}
}

// reconnect redials with exponential backoff until it succeeds or the
// context ends.
func (c *Client) reconnect(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}

		c.closeTransport()
		if err := c.connect(); err != nil {
			c.recordFailure()
			slog.WarnContext(ctx, "Reconnect attempt failed",
				"attempt", attempt+1, "queue", c.queueName, "error", err)
			continue
		}
		c.recordSuccess()
		slog.InfoContext(ctx, "Reconnected to AMQP broker", "queue", c.queueName)
		return nil
	}
}

func exponentialBackoff(attempt int) time.Duration {
	const max = 30 * time.Second
	d := time.Second << uint(attempt)
	if d <= 0 || d > max {
		return max
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, probe := range []string{
		"connection refused",
		"connection closed",
		"eof",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, probe) {
			return true
		}
	}
	return false
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) closeTransport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
