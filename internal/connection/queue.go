package connection

import (
	"encoding/json"
	"sync"
)

// QueuedSend is a send made before the connection was open.
type QueuedSend struct {
	Action      string
	MessageData json.RawMessage
	Callback    ResponseHandler
}

// Queue holds sends until the handshake completes.
type Queue struct {
	mu    sync.Mutex
	items []QueuedSend
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends q.
func (q *Queue) Enqueue(s QueuedSend) {
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()
}

// Flush takes every queued send and replays it through send in order. Sends
// enqueued while replaying are kept for the next Flush. It returns the number
// replayed.
func (q *Queue) Flush(send func(QueuedSend)) int {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	for _, s := range items {
		send(s)
	}
	return len(items)
}

// Len returns the number of queued sends.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
