package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/segmentio/kafka-go"

	"github.com/meterplan/meterplan/pkg/log"
	"github.com/meterplan/meterplan/pkg/metrics"
	"github.com/meterplan/meterplan/pkg/readings"
	"github.com/meterplan/meterplan/pkg/types"
)

const pollTimeout = 5 * time.Second

// ReadingStore is where consumed batches are written.
type ReadingStore interface {
	StoreReadings(ctx context.Context, meterID string, batch []types.Reading) (types.StoreStatus, error)
}

// messageReader is the subset of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads reading batches from a Kafka topic and stores them. Every
// message is committed once handled, whether it was stored or not.
type Consumer struct {
	brokers []string
	topic   string
	group   string

	reader messageReader
	store  ReadingStore
}

// Configured registers the kafka flags. The consumer is disabled unless
// --kafka-brokers is set.
func Configured() *Consumer {
	c := &Consumer{}

	brokers := lflag.String("kafka-brokers", "", "Comma separated Kafka brokers to consume readings from (empty disables)")
	topic := lflag.String("kafka-topic", "meter-readings", "Kafka topic carrying reading batches")
	group := lflag.String("kafka-group", "meterplan", "Kafka consumer group")

	lflag.Do(func() {
		for _, b := range strings.Split(*brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.brokers = append(c.brokers, b)
			}
		}
		c.topic = *topic
		c.group = *group
	})

	return c
}

// Enabled reports whether any brokers were configured.
func (c *Consumer) Enabled() bool {
	return len(c.brokers) > 0
}

// Init creates the Kafka reader.
func (c *Consumer) Init(store ReadingStore) error {
	if !c.Enabled() {
		return errors.New("no kafka brokers configured")
	}
	if c.topic == "" {
		return errors.New("kafka topic must not be empty")
	}
	if c.group == "" {
		return errors.New("kafka group must not be empty")
	}
	c.store = store
	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     c.group,
		Topic:       c.topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return nil
}

// Close shuts down the underlying reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Run consumes until the context is canceled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	if c.reader == nil {
		return errors.New("consumer not initialized")
	}

	log.Ctx(ctx).InfoContext(
		ctx,
		"starting reading consumer",
		slog.String("topic", c.topic),
		slog.String("group", c.group),
		slog.String("brokers", strings.Join(c.brokers, ",")),
	)
	defer log.Ctx(ctx).InfoContext(ctx, "stopped reading consumer")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fetchCtx, cancel := context.WithTimeout(ctx, pollTimeout)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
				continue
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, kafka.ErrGroupClosed):
				return nil
			}
			log.Ctx(ctx).ErrorContext(ctx, "failed to fetch message", slog.Any("error", err))
			// avoid spinning against a broken broker
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		c.handleMessage(ctx, msg)

		commitCtx, commitCancel := context.WithTimeout(ctx, pollTimeout)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil && ctx.Err() == nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to commit message", slog.Int64("offset", msg.Offset), slog.Any("error", err))
		}
		commitCancel()
	}
}

// handleMessage decodes and stores one message. Failures are logged and
// counted but never returned since the message is committed regardless.
func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message) {
	ctx = log.WithAttrs(
		ctx,
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)

	batch, err := decodeMessage(msg.Value)
	if err != nil {
		metrics.ObserveDecodeFailure(metrics.SourceKafka)
		log.Ctx(ctx).WarnContext(ctx, "failed to decode readings message", slog.Any("error", err))
		return
	}

	status, err := c.store.StoreReadings(ctx, batch.SmartMeterID, batch.ElectricityReadings)
	metrics.ObserveStore(metrics.SourceKafka, status, len(batch.ElectricityReadings), err)
	if err != nil {
		level := slog.LevelError
		if readings.IsRejection(err) {
			level = slog.LevelWarn
		}
		log.Ctx(ctx).Log(
			ctx,
			level,
			"failed to store readings from message",
			slog.String("meterID", batch.SmartMeterID),
			slog.Any("error", err),
		)
		return
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"stored readings from message",
		slog.String("meterID", batch.SmartMeterID),
		slog.String("status", string(status)),
		slog.Int("count", len(batch.ElectricityReadings)),
	)
}

func decodeMessage(raw []byte) (types.MeterReadings, error) {
	var batch types.MeterReadings
	if err := json.Unmarshal(raw, &batch); err != nil {
		return types.MeterReadings{}, fmt.Errorf("decode readings payload: %w", err)
	}
	if batch.SmartMeterID == "" {
		return types.MeterReadings{}, errors.New("smartMeterId missing or empty")
	}
	if batch.ElectricityReadings == nil {
		return types.MeterReadings{}, errors.New("electricityReadings missing")
	}
	return batch, nil
}
