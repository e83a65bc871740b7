package chat

import (
	"sync"

	"makefoods"
)

// Timeline is the append-only conversation. Every append publishes a new
// immutable snapshot; published slices are never written to again.
type Timeline struct {
	mu   sync.Mutex
	feed *makefoods.Feed[[]makefoods.Message]
}

func NewTimeline() *Timeline {
	return &Timeline{feed: makefoods.NewFeed([]makefoods.Message{})}
}

// Append adds msgs and returns the snapshot that includes them.
func (t *Timeline) Append(msgs ...makefoods.Message) []makefoods.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.feed.Load()
	next := make([]makefoods.Message, 0, len(cur)+len(msgs))
	next = append(next, cur...)
	next = append(next, msgs...)
	t.feed.Publish(next)
	return next
}

func (t *Timeline) Snapshot() []makefoods.Message {
	return t.feed.Load()
}

// Since returns the messages after the first n.
func (t *Timeline) Since(n int) []makefoods.Message {
	snap := t.feed.Load()
	if n < 0 {
		n = 0
	}
	if n >= len(snap) {
		return []makefoods.Message{}
	}
	return snap[n:]
}

// Subscribe delivers the current snapshot and every later one, latest-wins.
func (t *Timeline) Subscribe() (<-chan []makefoods.Message, func()) {
	return t.feed.Subscribe()
}
