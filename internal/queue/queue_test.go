package queue

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/pkg/models"
)

func testInitLogger(t *testing.T) {
	t.Helper()
	settings := models.ApplicationSettings{LogLevel: "error", LogFormat: "text"}
	err := logger.Init(settings, io.Discard)
	require.NoError(t, err, "Failed to initialize logger for test")
}

func TestEnqueueDequeue(t *testing.T) {
	testInitLogger(t)
	eq := NewEventQueue(10)

	require.NoError(t, eq.Enqueue(models.Event{Type: models.EventOcrText, Text: "one"}))
	require.NoError(t, eq.Enqueue(models.Event{Type: models.EventOcrText, Text: "two"}))
	assert.Equal(t, 2, eq.Len())

	event, err := eq.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "one", event.Text, "FIFO order")
}

func TestEnqueue_DropsOldestWhenFull(t *testing.T) {
	testInitLogger(t)
	eq := NewEventQueue(2)

	require.NoError(t, eq.Enqueue(models.Event{Text: "one"}))
	require.NoError(t, eq.Enqueue(models.Event{Text: "two"}))
	require.NoError(t, eq.Enqueue(models.Event{Text: "three"}))

	assert.Equal(t, 2, eq.Len())
	event, err := eq.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "two", event.Text, "the oldest event was dropped")
}

func TestDequeue_ContextCancelled(t *testing.T) {
	testInitLogger(t)
	eq := NewEventQueue(2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := eq.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStop(t *testing.T) {
	testInitLogger(t)
	eq := NewEventQueue(5)
	require.NoError(t, eq.Enqueue(models.Event{Text: "pending"}))

	eq.Stop()
	eq.Stop() // idempotent

	err := eq.Enqueue(models.Event{Text: "late"})
	assert.Error(t, err, "stopped queue rejects new events")

	event, err := eq.Dequeue(context.Background())
	require.NoError(t, err, "pending events drain after stop")
	assert.Equal(t, "pending", event.Text)

	_, err = eq.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}
