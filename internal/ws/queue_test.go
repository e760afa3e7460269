package ws

import (
	"strconv"
	"testing"

	"github.com/liaptui/backend/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priorityOf(i int) game.Priority {
	switch i % 10 {
	case 0:
		return game.PriorityLow
	case 5:
		return game.PriorityCritical
	default:
		return game.PriorityNormal
	}
}

func TestOfflineQueueOverflowEvictsLowestPriority(t *testing.T) {
	q := NewOfflineQueue(100)
	for i := 0; i < 105; i++ {
		assert.True(t, q.Push(priorityOf(i), []byte(strconv.Itoa(i))), "message %d", i)
	}
	assert.Equal(t, 100, q.Len())
	assert.Equal(t, 5, q.Dropped())

	// the five oldest low-priority messages made room
	evicted := map[int]bool{0: true, 10: true, 20: true, 30: true, 40: true}
	var want []string
	for i := 0; i < 105; i++ {
		if !evicted[i] {
			want = append(want, strconv.Itoa(i))
		}
	}

	drained := q.Drain()
	require.Len(t, drained, 100)
	got := make([]string, len(drained))
	for i, d := range drained {
		got[i] = string(d)
	}
	assert.Equal(t, want, got, "delivery order is arrival order")
	assert.Zero(t, q.Len())
}

func TestOfflineQueueDropsIncomingBelowEverything(t *testing.T) {
	q := NewOfflineQueue(3)
	for i := 0; i < 3; i++ {
		require.True(t, q.Push(game.PriorityCritical, []byte{byte(i)}))
	}
	assert.False(t, q.Push(game.PriorityNormal, []byte{9}))
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 1, q.Dropped())

	assert.True(t, q.Push(game.PriorityCritical, []byte{3}), "equal priority replaces the oldest")
	assert.Equal(t, [][]byte{{1}, {2}, {3}}, q.Drain())
}

func TestOfflineQueueDefaultLimit(t *testing.T) {
	q := NewOfflineQueue(0)
	for i := 0; i < 150; i++ {
		q.Push(game.PriorityNormal, nil)
	}
	assert.Equal(t, 100, q.Len())
}
