package messaging

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const memoryQueueSize = 256

// memoryClient is a buffered in-process queue. Messages do not survive a
// restart and are only visible to consumers in the same process.
type memoryClient struct {
	topic  string
	queue  chan Message
	logger *zap.Logger
}

// NewMemoryClient returns a Client backed by a channel of the given capacity.
func NewMemoryClient(topic string, size int, logger *zap.Logger) Client {
	if size <= 0 {
		size = memoryQueueSize
	}
	return &memoryClient{topic: topic, queue: make(chan Message, size), logger: logger}
}

func (m *memoryClient) Publish(ctx context.Context, key []byte, value []byte) error {
	msg := Message{
		Topic: m.topic,
		Key:   append([]byte(nil), key...),
		Value: append([]byte(nil), value...),
		Time:  time.Now().UTC(),
	}
	select {
	case m.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *memoryClient) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.queue:
			if err := handler(ctx, msg); err != nil {
				m.logger.Error("message handler failed", zap.Error(err), zap.ByteString("key", msg.Key))
			}
		}
	}
}

func (m *memoryClient) Topic() string { return m.topic }
