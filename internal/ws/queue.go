package ws

import "github.com/liaptui/backend/internal/game"

type queuedMessage struct {
	priority game.Priority
	data     []byte
}

// OfflineQueue buffers messages for a player whose socket is gone. It holds at most
// limit messages in arrival order. When full, the oldest message of the lowest queued
// priority makes room; a message ranked below everything queued is dropped instead.
type OfflineQueue struct {
	limit   int
	items   []queuedMessage
	dropped int
}

// NewOfflineQueue creates a queue holding at most limit messages
func NewOfflineQueue(limit int) *OfflineQueue {
	if limit <= 0 {
		limit = 100
	}
	return &OfflineQueue{limit: limit}
}

// Push enqueues a message. It returns false when the message itself was dropped.
func (q *OfflineQueue) Push(priority game.Priority, data []byte) bool {
	if len(q.items) < q.limit {
		q.items = append(q.items, queuedMessage{priority: priority, data: data})
		return true
	}

	victim := 0
	for i, m := range q.items {
		if m.priority < q.items[victim].priority {
			victim = i
		}
	}
	q.dropped++
	if priority < q.items[victim].priority {
		return false
	}
	q.items = append(q.items[:victim], q.items[victim+1:]...)
	q.items = append(q.items, queuedMessage{priority: priority, data: data})
	return true
}

// Drain returns every queued message in order and empties the queue
func (q *OfflineQueue) Drain() [][]byte {
	out := make([][]byte, len(q.items))
	for i, m := range q.items {
		out[i] = m.data
	}
	q.items = nil
	return out
}

// Len returns the number of queued messages
func (q *OfflineQueue) Len() int {
	return len(q.items)
}

// Dropped returns how many messages overflow has discarded
func (q *OfflineQueue) Dropped() int {
	return q.dropped
}
