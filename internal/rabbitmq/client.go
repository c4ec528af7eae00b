package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/GoArmGo/PictureIt/internal/messaging/payloads"
)

const (
	publishTimeout = 5 * time.Second
	// requeueDelay пауза перед возвратом сообщения в очередь после ошибки обработчика,
	// чтобы при недоступной БД воркер не крутил повторные доставки вхолостую
	requeueDelay   = 5 * time.Second
)

// Client представляет собой клиент RabbitMQ для отчётов о рассинхронизации.
// Реализует ports.DivergencePublisher и ports.DivergenceConsumer.
type Client struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	queue        amqp.Queue
	requeueDelay time.Duration
	logger       *slog.Logger
}

// NewClient подключается к RabbitMQ и объявляет durable очередь
func NewClient(url, queueName string, logger *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// идемпотентно: существующая очередь не пересоздаётся
	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	logger.Info("RabbitMQ queue declared", "queue", q.Name, "messages", q.Messages)

	return &Client{conn: conn, channel: ch, queue: q, requeueDelay: requeueDelay, logger: logger}, nil
}

// Close закрывает канал и соединение RabbitMQ
func (c *Client) Close() error {
	var firstErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("error closing RabbitMQ channel", "error", err)
			firstErr = err
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("error closing RabbitMQ connection", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	c.logger.Info("RabbitMQ connection closed")
	return firstErr
}

// PublishImageDivergence публикует отчёт о рассинхронизации как persistent сообщение
func (c *Client) PublishImageDivergence(ctx context.Context, payload payloads.ImageDivergencePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    payload.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	c.logger.Info("divergence report published", "queue", c.queue.Name, "operation", payload.Operation, "remote_id", payload.RemoteID)
	return nil
}

// StartConsumingImageDivergences начинает потребление сообщений из очереди.
// Битое сообщение отклоняется без возврата, ошибка обработчика возвращает сообщение в очередь.
func (c *Client) StartConsumingImageDivergences(ctx context.Context, handler func(context.Context, payloads.ImageDivergencePayload) error) error {
	msgs, err := c.channel.Consume(
		c.queue.Name,
		"",    // consumer
		false, // auto-ack, подтверждаем вручную
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered", "queue", c.queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Info("RabbitMQ delivery channel closed, stopping consumer")
					return
				}
				c.handleDelivery(ctx, msg, handler)
			case <-ctx.Done():
				c.logger.Info("context cancelled, stopping RabbitMQ consumer")
				return
			}
		}
	}()

	return nil
}

// acknowledger часть amqp.Delivery, нужная для подтверждения
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Client) handleDelivery(ctx context.Context, msg amqp.Delivery, handler func(context.Context, payloads.ImageDivergencePayload) error) {
	processDelivery(ctx, msg.Body, msg.Redelivered, msg, handler, c.requeueDelay, c.logger)
}

func processDelivery(
	ctx context.Context,
	body []byte,
	redelivered bool,
	ack acknowledger,
	handler func(context.Context, payloads.ImageDivergencePayload) error,
	delay time.Duration,
	logger *slog.Logger,
) {
	var payload payloads.ImageDivergencePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Error("error unmarshalling message", "error", err)
		if err := ack.Nack(false, false); err != nil {
			logger.Error("error NACKing message after unmarshal failure", "error", err)
		}
		return
	}

	if err := handler(ctx, payload); err != nil {
		logger.Error("error processing message, requeueing after delay",
			"error", err,
			"remote_id", payload.RemoteID,
			"redelivered", redelivered,
			"delay", delay,
		)
		// при остановке воркера ждать не нужно, сообщение всё равно вернётся в очередь
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
		}
		if err := ack.Nack(false, true); err != nil {
			logger.Error("error NACKing message after processing failure", "error", err)
		}
		return
	}

	if err := ack.Ack(false); err != nil {
		logger.Error("error ACKing message", "error", err)
		return
	}
	logger.Debug("message processed and ACKed", "remote_id", payload.RemoteID)
}
