package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMemoryClientDeliversInOrder(t *testing.T) {
	client := NewMemoryClient("ordering.jobs", 4, zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, client.Publish(ctx, []byte("a"), []byte("first")))
	require.NoError(t, client.Publish(ctx, []byte("b"), []byte("second")))

	var got []string
	err := client.Consume(ctx, func(_ context.Context, msg Message) error {
		got = append(got, string(msg.Value))
		assert.Equal(t, "ordering.jobs", msg.Topic)
		if len(got) == 2 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestMemoryClientPublishHonoursContext(t *testing.T) {
	client := NewMemoryClient("ordering.jobs", 1, zaptest.NewLogger(t))
	require.NoError(t, client.Publish(context.Background(), nil, []byte("fill")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, client.Publish(ctx, nil, []byte("blocked")), context.Canceled)
}
