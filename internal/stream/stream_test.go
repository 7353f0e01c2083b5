package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFiltersByJournal(t *testing.T) {
	s := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all := s.Subscribe(ctx, "")
	only := s.Subscribe(ctx, "jnl_b")
	require.Equal(t, 2, s.Subscribers())

	s.Publish(PostingEvent{JournalID: "jnl_a", Sequence: 1})
	s.Publish(PostingEvent{JournalID: "jnl_b", Sequence: 2})

	assert.Equal(t, uint64(1), (<-all).Sequence)
	assert.Equal(t, uint64(2), (<-all).Sequence)
	assert.Equal(t, uint64(2), (<-only).Sequence)
	select {
	case evt := <-only:
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	s := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx, "")

	s.Publish(PostingEvent{Sequence: 1})
	s.Publish(PostingEvent{Sequence: 2})
	assert.Equal(t, uint64(1), (<-ch).Sequence)
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	s := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx, "")
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	assert.Eventually(t, func() bool { return s.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}
