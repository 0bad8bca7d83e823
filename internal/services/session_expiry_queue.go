package services

import (
	"container/heap"
	"time"
)

// expiryEntry schedules a session token for the sweep at its end time.
type expiryEntry struct {
	token string
	end   time.Time
}

// expiryQueue is a min-heap of expiry entries ordered by end time.
type expiryQueue []expiryEntry

func (q expiryQueue) Len() int { return len(q) }

func (q expiryQueue) Less(i, j int) bool {
	if q[i].end.Equal(q[j].end) {
		return q[i].token < q[j].token
	}
	return q[i].end.Before(q[j].end)
}

func (q expiryQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *expiryQueue) Push(x any) {
	*q = append(*q, x.(expiryEntry))
}

func (q *expiryQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	old[n-1] = expiryEntry{}
	*q = old[:n-1]
	return entry
}

func (q *expiryQueue) schedule(token string, end time.Time) {
	heap.Push(q, expiryEntry{token: token, end: end})
}

// popDue removes and returns the earliest entry when it is due at now.
func (q *expiryQueue) popDue(now time.Time) (expiryEntry, bool) {
	if q.Len() == 0 || (*q)[0].end.After(now) {
		return expiryEntry{}, false
	}
	return heap.Pop(q).(expiryEntry), true
}
