// Package stream fans journal posting events out to live subscribers.
package stream

import (
	"context"
	"sync"
	"time"
)

// PostingEvent describes one accepted posting.
type PostingEvent struct {
	JournalID string    `json:"journal_id"`
	AccountID string    `json:"account_id"`
	PostingID string    `json:"posting_id"`
	Kind      string    `json:"kind"`
	T         string    `json:"t"`
	Balanced  bool      `json:"balanced"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

type subscriber struct {
	ch        chan PostingEvent
	journalID string
}

// Stream fan-outs posting events to all active subscribers (SSE clients).
type Stream struct {
	mu     sync.RWMutex
	subs   map[int]subscriber
	next   int
	buffer int
}

// New creates a stream whose subscriber channels hold buffer events.
func New(buffer int) *Stream {
	if buffer < 1 {
		buffer = 16
	}
	return &Stream{
		subs:   make(map[int]subscriber),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber for one journal, or all journals when
// journalID is empty. The channel is closed when ctx ends.
func (s *Stream) Subscribe(ctx context.Context, journalID string) <-chan PostingEvent {
	ch := make(chan PostingEvent, s.buffer)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = subscriber{ch: ch, journalID: journalID}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish delivers evt to every matching subscriber without blocking; slow
// subscribers miss events.
func (s *Stream) Publish(evt PostingEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.journalID != "" && sub.journalID != evt.JournalID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (s *Stream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
