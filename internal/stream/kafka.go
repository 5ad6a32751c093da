package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
)

// KafkaSource consumes agent events published to a broker topic. Each record
// value is one JSON event with an embedded "type" field.
type KafkaSource struct {
	reader *kafka.Reader
}

// OpenKafka creates a source reading the given topic.
func OpenKafka(brokers, topic, groupID string) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaSource{reader: reader}
}

// Recv reads records until one decodes into an event. Undecodable records
// are logged and skipped so a bad producer cannot wedge the session.
func (s *KafkaSource) Recv(ctx context.Context) (protocol.Event, error) {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read broker event: %w", err)
		}
		ev, err := protocol.ParseEmbedded(msg.Value)
		if err != nil {
			slog.Warn("skipping undecodable broker event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			continue
		}
		return ev, nil
	}
}

// Close closes the underlying reader.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
