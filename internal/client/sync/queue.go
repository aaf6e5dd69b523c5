package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/arcanadev/arcana/internal/client/models"
	"github.com/arcanadev/arcana/internal/client/store"
)

// queueScope is the storage scope the pending-operations collection lives
// under. The queue is owner-agnostic at enqueue time: operations are
// resolved against whichever owner is active when they are replayed.
const queueScope = "local"

// Queue is the durable FIFO of not-yet-acknowledged mutations. Every
// mutation of the queue is written through to the local store before the
// call returns, so a crash never loses a queued operation.
type Queue struct {
	st *store.Store

	mu    sync.Mutex
	items []models.PendingOperation
}

// NewQueue loads any persisted pending operations from the store.
func NewQueue(ctx context.Context, st *store.Store) (*Queue, error) {
	q := &Queue{st: st}

	data, err := st.Get(ctx, queueScope, store.CollectionPendingOps)
	if err != nil {
		return nil, fmt.Errorf("queue load error: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &q.items); err != nil {
			return nil, fmt.Errorf("queue decode error: %w", err)
		}
	}
	return q, nil
}

// Enqueue appends op and persists the queue.
func (q *Queue) Enqueue(ctx context.Context, op models.PendingOperation) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, op)
	if err := q.saveLocked(ctx); err != nil {
		q.items = q.items[:len(q.items)-1]
		return err
	}
	return nil
}

// Head returns the oldest operation without removing it.
func (q *Queue) Head() (models.PendingOperation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return models.PendingOperation{}, false
	}
	return q.items[0], true
}

// PopFront removes the oldest operation and persists the queue. Called
// only after the operation's dispatch has settled, success or failure.
func (q *Queue) PopFront(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}

	head := q.items[0]
	q.items = q.items[1:]
	if err := q.saveLocked(ctx); err != nil {
		q.items = append([]models.PendingOperation{head}, q.items...)
		return err
	}
	return nil
}

// Len returns the number of queued operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the queued operations in enqueue order.
func (q *Queue) Snapshot() []models.PendingOperation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.PendingOperation(nil), q.items...)
}

func (q *Queue) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(q.items)
	if err != nil {
		return err
	}
	return q.st.Set(ctx, queueScope, store.CollectionPendingOps, data)
}
