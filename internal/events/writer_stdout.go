package events

import (
	"context"

	"go.uber.org/zap"
)

// StdoutWriter logs events. It is the default writer.
type StdoutWriter struct{}

func (s *StdoutWriter) Write(ctx context.Context, topic string, e Event) error {
	zap.S().Named("stdout_writer").Infow("event wrote", "topic", topic, "type", e.Type, "id", e.ID, "data", string(e.Data))
	return nil
}

func (s *StdoutWriter) Close(_ context.Context) error {
	return nil
}
