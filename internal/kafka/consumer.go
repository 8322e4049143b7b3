package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Consumer struct {
	reader  *kafka.Reader
	handler *Handler
	logger  *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID string, handler *Handler, logger *zap.SugaredLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: r, handler: handler, logger: logger}
}

func NewDLQWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
}

// Start reads until ctx is cancelled. Messages are handled one at a time so
// notifications for a recipient keep their publish order.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Infof("kafka consumer started topic=%s", c.reader.Config().Topic)
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Errorf("kafka read error: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if err := c.handler.HandleEvent(ctx, m.Value); err != nil {
			c.logger.Warnf("event offset=%d partition=%d not created: %v", m.Offset, m.Partition, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
