// Package kafka publishes condensed vessel detections to a Kafka topic, one
// message per vessel, for downstream consumers that want the sightings as a
// stream rather than a CSV.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/vessel-detect-etl/internal/config"
	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// detectionRecord is the wire form of one condensed vessel sighting.
type detectionRecord struct {
	Date       string  `json:"date"`
	Class      string  `json:"class"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Confidence float64 `json:"confidence"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Sources    string  `json:"sources"`
}

// Writer produces detection messages. It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one acquisition day's condensed detections and writes
// them in a single WriteMessages call. Messages are keyed by day so one
// day's sightings land in one partition, in order.
func (w *Writer) Publish(ctx context.Context, day string, dets []domain.Detection) error {
	if len(dets) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(dets))
	for i := range dets {
		msg, err := serializeToMessage(day, dets[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	w.logger.Debug("publishing detections", "day", day, "count", len(msgs))
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(day string, d domain.Detection) (kafkago.Message, error) {
	rec := detectionRecord{
		Date:       day,
		Class:      d.Class.String(),
		Latitude:   d.Y,
		Longitude:  d.X,
		Confidence: d.Confidence,
		Width:      d.Width,
		Height:     d.Height,
		Sources:    d.Sources.String(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize detection: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(day),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "class", Value: []byte(rec.Class)},
		},
	}, nil
}
