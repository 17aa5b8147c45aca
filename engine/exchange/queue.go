/*
Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

 http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package exchange

import (
	"context"
	"io"
	"sync"

	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// SharedQueue connects one sink channel to one source handle in the same
// process. Producers block once the queued bytes reach the reservation cap,
// a single batch larger than the cap is still accepted into an empty queue.
type SharedQueue struct {
	planNodeID string
	instance   FragmentInstanceID

	mu       sync.Mutex
	batches  []*types.Batch
	bytes    int64
	maxBytes int64
	noMore   bool
	err      error
	changed  chan struct{}
	closed   bool
}

func NewSharedQueue(instance FragmentInstanceID, planNodeID string, maxBytes int64) *SharedQueue {
	return &SharedQueue{
		planNodeID: planNodeID,
		instance:   instance,
		maxBytes:   maxBytes,
		changed:    make(chan struct{}),
	}
}

func (q *SharedQueue) PlanNodeID() string {
	return q.planNodeID
}

func (q *SharedQueue) Instance() FragmentInstanceID {
	return q.instance
}

func (q *SharedQueue) SetMaxBytesCanReserve(n int64) {
	q.mu.Lock()
	q.maxBytes = n
	q.notify()
	q.mu.Unlock()
}

func (q *SharedQueue) MaxBytesCanReserve() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maxBytes
}

// BufferedBytes is the size of the batches waiting to be polled.
func (q *SharedQueue) BufferedBytes() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.bytes
}

// notify wakes up every waiter, q.mu must be held.
func (q *SharedQueue) notify() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// wait releases q.mu until the queue changes or ctx is done.
func (q *SharedQueue) wait(ctx context.Context) error {
	ch := q.changed
	q.mu.Unlock()
	defer q.mu.Lock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *SharedQueue) Put(ctx context.Context, b *types.Batch) error {
	size := b.SizeInBytes()
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.err == nil && !q.noMore && !q.closed && len(q.batches) > 0 && q.bytes+size > q.maxBytes {
		if err := q.wait(ctx); err != nil {
			return err
		}
	}
	if q.err != nil {
		return q.err
	}
	if q.noMore || q.closed {
		return errno.NewError(errno.ExchangeQueueClosed, q.planNodeID)
	}
	q.batches = append(q.batches, b)
	q.bytes += size
	q.notify()
	return nil
}

// Poll returns the next batch, io.EOF once the producer is done and the
// queue is drained.
func (q *SharedQueue) Poll(ctx context.Context) (*types.Batch, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.err == nil && !q.noMore && !q.closed && len(q.batches) == 0 {
		if err := q.wait(ctx); err != nil {
			return nil, err
		}
	}
	if q.err != nil {
		return nil, q.err
	}
	if len(q.batches) == 0 {
		return nil, io.EOF
	}
	b := q.batches[0]
	q.batches[0] = nil
	q.batches = q.batches[1:]
	q.bytes -= b.SizeInBytes()
	q.notify()
	return b, nil
}

// SetNoMoreBlocks marks the end of the producer side.
func (q *SharedQueue) SetNoMoreBlocks() {
	q.mu.Lock()
	q.noMore = true
	q.notify()
	q.mu.Unlock()
}

// Abort fails both sides with err.
func (q *SharedQueue) Abort(err error) {
	q.mu.Lock()
	if q.err == nil {
		q.err = err
	}
	q.batches = nil
	q.bytes = 0
	q.notify()
	q.mu.Unlock()
}

// Close drops what is left, the consumer is gone.
func (q *SharedQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.batches = nil
	q.bytes = 0
	q.notify()
	q.mu.Unlock()
}

func (q *SharedQueue) IsFinished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err != nil || q.closed || (q.noMore && len(q.batches) == 0)
}
