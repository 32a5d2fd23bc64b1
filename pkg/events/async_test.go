package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	mu        sync.Mutex
	failures  int
	delivered []Event
	attempts  int
	closed    bool
}

func (f *flakyPublisher) Publish(ctx context.Context, evt Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.delivered = append(f.delivered, evt)
	return nil
}

func (f *flakyPublisher) Close() error {
	f.closed = true
	return nil
}

func TestAsyncPublisherRetriesAndDrainsOnClose(t *testing.T) {
	inner := &flakyPublisher{failures: 2}
	pub := NewAsync(inner, AsyncConfig{Workers: 1, BufferSize: 8, MaxRetries: 3, RetryDelay: time.Millisecond}, nil)

	require.NoError(t, pub.Publish(context.Background(), Event{Type: TypeRequestCreated, RequestID: "r1"}))
	require.NoError(t, pub.Publish(context.Background(), Event{Type: TypeRequestUpdated, RequestID: "r1"}))
	require.NoError(t, pub.Close())

	assert.True(t, inner.closed)
	require.Len(t, inner.delivered, 2)
	assert.Equal(t, TypeRequestCreated, inner.delivered[0].Type)
	assert.Equal(t, 4, inner.attempts)
	assert.False(t, inner.delivered[0].OccurredAt.IsZero())
}

func TestAsyncPublisherDropsAfterRetries(t *testing.T) {
	inner := &flakyPublisher{failures: 10}
	pub := NewAsync(inner, AsyncConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Millisecond}, nil)

	require.NoError(t, pub.Publish(context.Background(), Event{Type: TypeRequestCreated}))
	require.NoError(t, pub.Close())

	assert.Empty(t, inner.delivered)
	assert.Equal(t, 2, inner.attempts)
}

func TestAsyncPublisherRejectsAfterClose(t *testing.T) {
	pub := NewAsync(&flakyPublisher{}, AsyncConfig{}, nil)
	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())

	err := pub.Publish(context.Background(), Event{})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}
