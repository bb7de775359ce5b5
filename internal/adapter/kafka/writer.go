package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/basinhydro/precip-disagg/internal/config"
	"github.com/basinhydro/precip-disagg/internal/domain"
)

// Writer produces hourly results to a Kafka topic.
// It implements pipeline.Mirror.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the hourly results to the sink topic
// in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.HourlyResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an HourlyResult into a Kafka message. The key
// combines cell and hour so results for the same cell-hour land on the same
// partition across runs.
func serializeToMessage(r domain.HourlyResult) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hourly result: %w", err)
	}
	key := strconv.FormatInt(r.CellID, 10) + "|" + r.Hour.UTC().Format(time.RFC3339)
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(r.RunID)},
			{Key: "match_level", Value: []byte(r.Match)},
		},
	}, nil
}
