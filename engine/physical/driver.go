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

package physical

import (
	"context"
	"io"
	"sync"

	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/pipeline"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/openGemini/ts-planner/lib/logger"
	"github.com/openGemini/ts-planner/lib/tracing"
	"go.uber.org/zap"
)

// Driver runs the pipelines of a compiled fragment instance without a
// storage engine. Scans produce no rows, exchanges are drained and every
// batch received is forwarded to the sink of the pipeline, so that the
// dependency order and the channel wiring can be observed end to end.
type Driver struct {
	logger *logger.Logger

	mu     sync.Mutex
	output []*types.Batch
	rows   map[int]int
}

func NewDriver(res *Result) *Driver {
	return &Driver{
		logger: logger.NewLogger(errno.ModulePipeline).With(zap.String("instance", res.Fragment.Instance.FullID())),
		rows:   make(map[int]int),
	}
}

// Output returns the batches reaching the root pipeline when it has no sink.
func (d *Driver) Output() []*types.Batch {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.output
}

// Rows returns the rows each pipeline emitted.
func (d *Driver) Rows() map[int]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := make(map[int]int, len(d.rows))
	for k, v := range d.rows {
		m[k] = v
	}
	return m
}

// FinishUpstreams ends the exchanges reading other fragment instances, which
// are not running in a standalone build.
func (r *Result) FinishUpstreams() {
	for _, op := range r.Fragment.ExchangeOperators() {
		if op.Context().PlanNodeID == "" {
			// fed by a pipeline of this instance
			continue
		}
		switch h := op.Source.(type) {
		case *exchange.RemoteSourceHandle:
			h.Finish()
		case *exchange.LocalSourceHandle:
			h.Queue().SetNoMoreBlocks()
		}
	}
}

// Run is a pipeline.RunFunc.
func (d *Driver) Run(ctx context.Context, desc *pipeline.Descriptor) error {
	root, ok := desc.Root.(Operator)
	if !ok {
		return errno.NewError(errno.InvalidPlan, desc.String())
	}
	span := tracing.Start(tracing.SpanFromContext(ctx), "pipeline")
	if span != nil {
		span.AppendNameValue("id", desc.ID)
		span.AddStringField("root", root.Name())
		span.CreateCounter("rows", "")
		span.CreateCounter("batches", "")
		defer span.Finish()
	}
	var (
		sources []exchange.SourceHandle
		updates []*UpdateLastCacheOperator
		cached  []CachedLastValue
	)
	Walk(root, func(op Operator) {
		switch o := op.(type) {
		case *ExchangeOperator:
			sources = append(sources, o.Source)
		case *UpdateLastCacheOperator:
			updates = append(updates, o)
		case *LastQueryOperator:
			cached = append(cached, o.CachedRows...)
		}
	})

	var batches []*types.Batch
	if len(cached) > 0 {
		batches = append(batches, cachedRowsBatch(cached))
	}
	for _, src := range sources {
		for {
			b, err := src.Receive(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				d.abort(desc, err)
				return err
			}
			batches = append(batches, b)
		}
	}
	// no scan reads data, the cache is released unchanged
	releaseLastCache(updates)

	if span != nil {
		span.Count("batches", int64(len(batches)))
	}
	if err := d.emit(ctx, desc, batches, span); err != nil {
		d.abort(desc, err)
		return err
	}
	return nil
}

func (d *Driver) emit(ctx context.Context, desc *pipeline.Descriptor, batches []*types.Batch, span *tracing.Span) error {
	rows := 0
	for _, b := range batches {
		rows += b.RowCount()
	}
	if span != nil {
		span.Count("rows", int64(rows))
	}
	d.mu.Lock()
	d.rows[desc.ID] += rows
	if desc.Sink == nil {
		d.output = append(d.output, batches...)
	}
	d.mu.Unlock()

	if desc.Sink == nil {
		return nil
	}
	for _, b := range batches {
		if err := desc.Sink.Send(ctx, b); err != nil {
			return err
		}
	}
	desc.Sink.SetNoMoreBlocks()
	d.logger.Debug("pipeline drained", zap.Int("pipeline", desc.ID), zap.Int("rows", rows))
	return nil
}

func (d *Driver) abort(desc *pipeline.Descriptor, err error) {
	if desc.Sink != nil {
		desc.Sink.Abort(err)
	}
}

func releaseLastCache(updates []*UpdateLastCacheOperator) {
	for _, op := range updates {
		for _, path := range op.Paths {
			op.Gate.Release(op.QueryID, path)
		}
	}
}

// cachedRowsBatch lays the rows answered by the last cache out as
// Timeseries, Value and DataType columns.
func cachedRowsBatch(rows []CachedLastValue) *types.Batch {
	b := types.NewBatch(3)
	for _, r := range rows {
		b.AppendRow(r.Timestamp, r.Path, r.Value, r.DataType.String())
	}
	return b
}

var _ pipeline.RunFunc = (&Driver{}).Run

// ReleaseLastCache gives back the paths every update operator of res holds
// in the gate, for a build that is never run.
func (r *Result) ReleaseLastCache() {
	var updates []*UpdateLastCacheOperator
	for _, d := range r.Pipelines {
		if root, ok := d.Root.(Operator); ok {
			Walk(root, func(op Operator) {
				if u, ok := op.(*UpdateLastCacheOperator); ok {
					updates = append(updates, u)
				}
			})
		}
	}
	releaseLastCache(updates)
}
