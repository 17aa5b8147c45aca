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

package aggregation

import (
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

type subWindow struct {
	tr      timerange.TimeRange
	partial []interface{}
}

// windowCombiner keeps the partial results of the sub windows covered by the
// current sliding window.
type windowCombiner interface {
	push(w subWindow)
	// evictFront drops the oldest sub window.
	evictFront()
	front() (subWindow, bool)
	combine(acc Accumulator)
}

// SlidingWindowAggregator re-aggregates the partial results of fine grained
// windows over a coarser sliding window.
type SlidingWindowAggregator struct {
	*Aggregator
	combiner windowCombiner
}

// NewSlidingWindowAggregator picks the combiner of the aggregation: additive
// functions keep running totals, selectors keep a monotonic queue and the
// rest recompute from the kept sub windows.
func NewSlidingWindowAggregator(acc Accumulator, step plan.AggregationStep, locations [][]types.InputLocation) (*SlidingWindowAggregator, error) {
	if step.IsInputRaw() {
		return nil, errno.NewError(errno.InvalidPlan, "sliding window aggregation reads partial results, got step "+step.String())
	}
	s := &SlidingWindowAggregator{Aggregator: NewAggregator(acc, step, locations)}
	switch acc.Type() {
	case plan.AggCount, plan.AggSum, plan.AggAvg:
		s.combiner = newSmoothCombiner(acc.IntermediateTypes())
	case plan.AggMaxValue:
		s.combiner = &monotonicCombiner{better: maxBetter}
	case plan.AggMinValue:
		s.combiner = &monotonicCombiner{better: minBetter}
	case plan.AggExtreme:
		s.combiner = &monotonicCombiner{better: extremeBetter}
	default:
		s.combiner = &normalCombiner{}
	}
	return s, nil
}

// ProcessPartial appends the partial result of the next sub window.
func (s *SlidingWindowAggregator) ProcessPartial(tr timerange.TimeRange, partial []interface{}) {
	s.combiner.push(subWindow{tr: tr, partial: partial})
}

// Window evicts the sub windows that left tr and returns the aggregate of
// the rest.
func (s *SlidingWindowAggregator) Window(tr timerange.TimeRange) []interface{} {
	for {
		w, ok := s.combiner.front()
		if !ok || (w.tr.Min >= tr.Min && w.tr.Max <= tr.Max) {
			break
		}
		s.combiner.evictFront()
	}
	s.acc.Reset()
	s.combiner.combine(s.acc)
	return s.Outputs()
}

type normalCombiner struct {
	queue []subWindow
}

func (c *normalCombiner) push(w subWindow) { c.queue = append(c.queue, w) }
func (c *normalCombiner) evictFront()      { c.queue = c.queue[1:] }

func (c *normalCombiner) front() (subWindow, bool) {
	if len(c.queue) == 0 {
		return subWindow{}, false
	}
	return c.queue[0], true
}

func (c *normalCombiner) combine(acc Accumulator) {
	for _, w := range c.queue {
		acc.AddIntermediate(w.partial)
	}
}

// smoothCombiner keeps column totals of additive partial results so a slide
// costs one addition and one subtraction.
type smoothCombiner struct {
	normalCombiner
	dataTypes []types.DataType
	totals    []float64
	nonNull   []int
}

func newSmoothCombiner(dataTypes []types.DataType) *smoothCombiner {
	return &smoothCombiner{
		dataTypes: dataTypes,
		totals:    make([]float64, len(dataTypes)),
		nonNull:   make([]int, len(dataTypes)),
	}
}

func (c *smoothCombiner) apply(partial []interface{}, sign float64, n int) {
	for i := range c.totals {
		if v, ok := toFloat(partial[i]); ok {
			c.totals[i] += sign * v
			c.nonNull[i] += n
		}
	}
}

func (c *smoothCombiner) push(w subWindow) {
	c.normalCombiner.push(w)
	c.apply(w.partial, 1, 1)
}

func (c *smoothCombiner) evictFront() {
	c.apply(c.queue[0].partial, -1, -1)
	c.normalCombiner.evictFront()
}

func (c *smoothCombiner) combine(acc Accumulator) {
	partial := make([]interface{}, len(c.totals))
	for i, t := range c.totals {
		if c.nonNull[i] == 0 {
			continue
		}
		if c.dataTypes[i] == types.Int64 {
			partial[i] = int64(t)
		} else {
			partial[i] = t
		}
	}
	acc.AddIntermediate(partial)
}

// monotonicCombiner keeps the sub windows that may still become the best
// value, best first.
type monotonicCombiner struct {
	better betterFunc
	// all sub windows in arrival order, the front is the eviction cursor
	all   []subWindow
	deque []subWindow
}

func (c *monotonicCombiner) push(w subWindow) {
	c.all = append(c.all, w)
	v, ok := toFloat(w.partial[0])
	if !ok {
		return
	}
	for len(c.deque) > 0 {
		tail, _ := toFloat(c.deque[len(c.deque)-1].partial[0])
		if c.better(tail, v) {
			break
		}
		c.deque = c.deque[:len(c.deque)-1]
	}
	c.deque = append(c.deque, w)
}

func (c *monotonicCombiner) evictFront() {
	w := c.all[0]
	c.all = c.all[1:]
	if len(c.deque) > 0 && c.deque[0].tr == w.tr {
		c.deque = c.deque[1:]
	}
}

func (c *monotonicCombiner) front() (subWindow, bool) {
	if len(c.all) == 0 {
		return subWindow{}, false
	}
	return c.all[0], true
}

func (c *monotonicCombiner) combine(acc Accumulator) {
	if len(c.deque) > 0 {
		acc.AddIntermediate(c.deque[0].partial)
	}
}
