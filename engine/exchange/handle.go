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
	"sync/atomic"

	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// FailureCallback is invoked once when the transport of a remote handle
// fails. It is wired to the fragment instance owning the handle.
type FailureCallback func(err error)

type SourceHandle interface {
	// Receive returns the next batch, io.EOF when the upstream is done.
	Receive(ctx context.Context) (*types.Batch, error)
	SetMaxBytesCanReserve(n int64)
	MaxBytesCanReserve() int64
	IsFinished() bool
	PlanNodeID() string
	Close()
}

type SinkChannel interface {
	Send(ctx context.Context, b *types.Batch) error
	SetNoMoreBlocks()
	Abort(err error)
	SetMaxBytesCanReserve(n int64)
	MaxBytesCanReserve() int64
}

type ShuffleStrategy uint8

const (
	// Plain writes the channels one after another.
	Plain ShuffleStrategy = iota
	// RoundRobin spreads batches over all channels.
	RoundRobin
)

func (s ShuffleStrategy) String() string {
	if s == RoundRobin {
		return "ROUND_ROBIN"
	}
	return "PLAIN"
}

// SinkHandle is the producer end of a fragment, fanning out to the
// downstream channels.
type SinkHandle interface {
	SinkChannel
	Channels() []SinkChannel
	Strategy() ShuffleStrategy
	// NextChannel ends the current channel of a plain sink and moves on.
	NextChannel()
}

// LocalSourceHandle reads a shared queue of the same process.
type LocalSourceHandle struct {
	queue *SharedQueue
}

func NewLocalSourceHandle(queue *SharedQueue) *LocalSourceHandle {
	return &LocalSourceHandle{queue: queue}
}

func (h *LocalSourceHandle) Receive(ctx context.Context) (*types.Batch, error) {
	return h.queue.Poll(ctx)
}

func (h *LocalSourceHandle) SetMaxBytesCanReserve(n int64) { h.queue.SetMaxBytesCanReserve(n) }
func (h *LocalSourceHandle) MaxBytesCanReserve() int64     { return h.queue.MaxBytesCanReserve() }
func (h *LocalSourceHandle) IsFinished() bool              { return h.queue.IsFinished() }
func (h *LocalSourceHandle) PlanNodeID() string            { return h.queue.PlanNodeID() }
func (h *LocalSourceHandle) Close()                        { h.queue.Close() }
func (h *LocalSourceHandle) Queue() *SharedQueue           { return h.queue }

// LocalSinkChannel writes a shared queue of the same process.
type LocalSinkChannel struct {
	queue *SharedQueue
}

func NewLocalSinkChannel(queue *SharedQueue) *LocalSinkChannel {
	return &LocalSinkChannel{queue: queue}
}

func (c *LocalSinkChannel) Send(ctx context.Context, b *types.Batch) error {
	return c.queue.Put(ctx, b)
}

func (c *LocalSinkChannel) SetNoMoreBlocks()              { c.queue.SetNoMoreBlocks() }
func (c *LocalSinkChannel) Abort(err error)               { c.queue.Abort(err) }
func (c *LocalSinkChannel) SetMaxBytesCanReserve(n int64) { c.queue.SetMaxBytesCanReserve(n) }
func (c *LocalSinkChannel) MaxBytesCanReserve() int64     { return c.queue.MaxBytesCanReserve() }
func (c *LocalSinkChannel) SharedQueue() *SharedQueue     { return c.queue }

// RemoteSourceHandle is the consumer end of a remote upstream. The transport
// is not part of this process: Deliver and Fail stand in for it.
type RemoteSourceHandle struct {
	Upstream         TEndPoint
	UpstreamInstance FragmentInstanceID
	IndexOfSink      int

	queue     *SharedQueue
	onFailure FailureCallback
	failed    sync.Once
}

func (h *RemoteSourceHandle) Receive(ctx context.Context) (*types.Batch, error) {
	return h.queue.Poll(ctx)
}

// Deliver hands over a batch received from the upstream.
func (h *RemoteSourceHandle) Deliver(ctx context.Context, b *types.Batch) error {
	return h.queue.Put(ctx, b)
}

// Finish marks the upstream as done.
func (h *RemoteSourceHandle) Finish() {
	h.queue.SetNoMoreBlocks()
}

// Fail reports a transport error. The handle is aborted and the failure
// callback runs once.
func (h *RemoteSourceHandle) Fail(cause error) {
	err := errno.Wrap(cause, errno.RemoteTransportFail, h.Upstream.String())
	h.queue.Abort(err)
	h.failed.Do(func() {
		if h.onFailure != nil {
			h.onFailure(err)
		}
	})
}

func (h *RemoteSourceHandle) SetMaxBytesCanReserve(n int64) { h.queue.SetMaxBytesCanReserve(n) }
func (h *RemoteSourceHandle) MaxBytesCanReserve() int64     { return h.queue.MaxBytesCanReserve() }
func (h *RemoteSourceHandle) IsFinished() bool              { return h.queue.IsFinished() }
func (h *RemoteSourceHandle) PlanNodeID() string            { return h.queue.PlanNodeID() }
func (h *RemoteSourceHandle) Close()                        { h.queue.Close() }

// remoteSinkChannel counts what would be sent to a remote consumer.
type remoteSinkChannel struct {
	location DownStreamChannelLocation
	maxBytes int64
	rows     int64
	done     int32
}

func (c *remoteSinkChannel) Send(_ context.Context, b *types.Batch) error {
	if atomic.LoadInt32(&c.done) == 1 {
		return errno.NewError(errno.ExchangeQueueClosed, c.location.RemotePlanNodeID)
	}
	atomic.AddInt64(&c.rows, int64(b.RowCount()))
	return nil
}

func (c *remoteSinkChannel) SetNoMoreBlocks()              { atomic.StoreInt32(&c.done, 1) }
func (c *remoteSinkChannel) Abort(error)                   { atomic.StoreInt32(&c.done, 1) }
func (c *remoteSinkChannel) SetMaxBytesCanReserve(n int64) { atomic.StoreInt64(&c.maxBytes, n) }
func (c *remoteSinkChannel) MaxBytesCanReserve() int64     { return atomic.LoadInt64(&c.maxBytes) }

// ShuffleSinkHandle distributes batches over its channels by strategy.
type ShuffleSinkHandle struct {
	channels []SinkChannel
	strategy ShuffleStrategy

	mu      sync.Mutex
	current int
}

func NewShuffleSinkHandle(channels []SinkChannel, strategy ShuffleStrategy) *ShuffleSinkHandle {
	return &ShuffleSinkHandle{channels: channels, strategy: strategy}
}

func (h *ShuffleSinkHandle) Channels() []SinkChannel   { return h.channels }
func (h *ShuffleSinkHandle) Strategy() ShuffleStrategy { return h.strategy }

func (h *ShuffleSinkHandle) Send(ctx context.Context, b *types.Batch) error {
	h.mu.Lock()
	if h.current >= len(h.channels) {
		h.mu.Unlock()
		return io.ErrClosedPipe
	}
	ch := h.channels[h.current]
	if h.strategy == RoundRobin {
		h.current = (h.current + 1) % len(h.channels)
	}
	h.mu.Unlock()
	return ch.Send(ctx, b)
}

func (h *ShuffleSinkHandle) NextChannel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.strategy != Plain || h.current >= len(h.channels) {
		return
	}
	h.channels[h.current].SetNoMoreBlocks()
	h.current++
}

func (h *ShuffleSinkHandle) SetNoMoreBlocks() {
	for _, c := range h.channels {
		c.SetNoMoreBlocks()
	}
}

func (h *ShuffleSinkHandle) Abort(err error) {
	for _, c := range h.channels {
		c.Abort(err)
	}
}

func (h *ShuffleSinkHandle) SetMaxBytesCanReserve(n int64) {
	for _, c := range h.channels {
		c.SetMaxBytesCanReserve(n)
	}
}

func (h *ShuffleSinkHandle) MaxBytesCanReserve() int64 {
	var n int64
	for _, c := range h.channels {
		n += c.MaxBytesCanReserve()
	}
	return n
}
