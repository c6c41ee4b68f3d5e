package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"agency/internal/core"
	"agency/internal/log"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *log.Logger
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       log.New(log.Config{Component: log.ComponentAMQP}),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange
	err = c.channel.QueueBind(
		c.queueName,
		c.queueName,
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransactionSync asks the worker to mirror the transaction to the
// ledger backup.
func (c *Client) PublishTransactionSync(ctx context.Context, id int64) error {
	msg := NewTransactionSyncMessage(id)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, TypeTransactionSync, body); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Published transaction sync message",
		log.FieldTransactionID, id,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishTransactionDelete tells the worker a row was removed, with enough
// of a snapshot to find and drop its mirrored ledger row.
func (c *Client) PublishTransactionDelete(ctx context.Context, t core.Transaction) error {
	msg := NewTransactionDeleteMessage(t)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, TypeTransactionDelete, body); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Published transaction delete message",
		log.FieldTransactionID, t.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, msgType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Type:         msgType,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeMessages consumes from the queue until ctx is cancelled,
// dispatching on the delivery type. Handler failures nack with requeue;
// undecodable messages are dropped.
func (c *Client) ConsumeMessages(
	ctx context.Context,
	syncHandler func(context.Context, *TransactionSyncMessage) error,
	deleteHandler func(context.Context, *TransactionDeleteMessage) error,
) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming transaction messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.dispatch(ctx, delivery, syncHandler, deleteHandler)
		}
	}
}

func (c *Client) dispatch(
	ctx context.Context,
	delivery amqp091.Delivery,
	syncHandler func(context.Context, *TransactionSyncMessage) error,
	deleteHandler func(context.Context, *TransactionDeleteMessage) error,
) {
	switch delivery.Type {
	case TypeTransactionDelete:
		msg, err := TransactionDeleteMessageFromJSON(delivery.Body)
		if err != nil {
			c.logger.ErrorContext(ctx, "Failed to unmarshal delete message", log.FieldError, err)
			delivery.Nack(false, false)
			return
		}
		if err := deleteHandler(ctx, msg); err != nil {
			c.logger.ErrorContext(ctx, "Failed to handle delete message", log.FieldError, err, log.FieldTransactionID, msg.ID)
			delivery.Nack(false, true)
			return
		}
		delivery.Ack(false)
	default:
		msg, err := TransactionSyncMessageFromJSON(delivery.Body)
		if err != nil {
			c.logger.ErrorContext(ctx, "Failed to unmarshal sync message", log.FieldError, err)
			delivery.Nack(false, false)
			return
		}
		if err := syncHandler(ctx, msg); err != nil {
			c.logger.ErrorContext(ctx, "Failed to handle sync message", log.FieldError, err, log.FieldTransactionID, msg.ID)
			delivery.Nack(false, true)
			return
		}
		delivery.Ack(false)
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
