package messaging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Additional-Code/fornecedor/internal/config"
)

const fetchRetryDelay = time.Second

type kafkaClient struct {
	writer *kafka.Writer
	reader *kafka.Reader
	topic  string
	logger *zap.Logger
}

func newKafkaClient(cfg config.Messaging, logger *zap.Logger) *kafkaClient {
	sugar := logger.Sugar()

	writer := &kafka.Writer{
		Addr:  kafka.TCP(cfg.Kafka.Brokers...),
		Topic: cfg.Kafka.Topic,
		// Events of one supplier share a key, so they land on one partition in order.
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Logger:       kafka.LoggerFunc(sugar.Debugf),
		ErrorLogger:  kafka.LoggerFunc(sugar.Errorf),
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.ConsumerGroup,
		Topic:          cfg.Kafka.Topic,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: cfg.Kafka.CommitInterval,
		Dialer: &kafka.Dialer{
			Timeout:  cfg.Kafka.ConnectTimeout,
			ClientID: cfg.Kafka.ClientID,
		},
		ErrorLogger: kafka.LoggerFunc(sugar.Errorf),
	})

	return &kafkaClient{writer: writer, reader: reader, topic: cfg.Kafka.Topic, logger: logger}
}

func (k *kafkaClient) Publish(ctx context.Context, msg Message) error {
	if err := k.writer.WriteMessages(ctx, toKafka(msg)); err != nil {
		return fmt.Errorf("publish to %s: %w", k.topic, err)
	}
	return nil
}

// Consume fetches until ctx ends. Messages whose handler fails are not committed.
func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			k.logger.Error("kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if err := handler(ctx, fromKafka(msg)); err != nil {
			k.logger.Error("supplier event handler failed",
				zap.ByteString("key", msg.Key),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := k.reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Warn("kafka commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (k *kafkaClient) Topic() string { return k.topic }

func (k *kafkaClient) Close() error {
	k.logger.Info("closing kafka client")
	return errors.Join(k.writer.Close(), k.reader.Close())
}

// toKafka leaves Topic unset; the writer owns it.
func toKafka(msg Message) kafka.Message {
	out := kafka.Message{Key: msg.Key, Value: msg.Value, Time: msg.Time}
	if len(msg.Headers) == 0 {
		return out
	}
	keys := make([]string, 0, len(msg.Headers))
	for key := range msg.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out.Headers = make([]kafka.Header, 0, len(keys))
	for _, key := range keys {
		out.Headers = append(out.Headers, kafka.Header{Key: key, Value: []byte(msg.Headers[key])})
	}
	return out
}

func fromKafka(msg kafka.Message) Message {
	out := Message{
		Topic:     msg.Topic,
		Key:       append([]byte(nil), msg.Key...),
		Value:     append([]byte(nil), msg.Value...),
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Time:      msg.Time,
	}
	if len(msg.Headers) > 0 {
		out.Headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			out.Headers[h.Key] = string(h.Value)
		}
	}
	return out
}
