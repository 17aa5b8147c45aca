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

package join

import (
	"sort"

	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
)

// ColumnMerger produces one output column of a time join.
type ColumnMerger interface {
	// Merge fills out, index aligned with times, from the batches of the
	// children. times must be ordered by the join comparator.
	Merge(times []int64, batches []*types.Batch, out []interface{})
	Locations() []types.InputLocation
	Name() string
}

type mergerBase struct {
	locations  []types.InputLocation
	comparator TimeComparator
}

func (m *mergerBase) Locations() []types.InputLocation {
	return m.locations
}

// cursor walks the rows of one location while the output times advance.
type cursor struct {
	batch  *types.Batch
	column int
	row    int
}

func (m *mergerBase) cursor(batches []*types.Batch, loc types.InputLocation) *cursor {
	if loc.TsBlockIndex >= len(batches) || batches[loc.TsBlockIndex] == nil {
		return nil
	}
	return &cursor{batch: batches[loc.TsBlockIndex], column: loc.ValueColumnIndex}
}

// valueAt advances c to ts and returns the value of the row at ts.
func (c *cursor) valueAt(ts int64, cmp TimeComparator) (interface{}, bool) {
	for c.row < len(c.batch.Times) && cmp.Satisfy(c.batch.Times[c.row], ts) {
		c.row++
	}
	if c.row >= len(c.batch.Times) || c.batch.Times[c.row] != ts {
		return nil, false
	}
	if c.column == types.TimeColumnIndex {
		return ts, true
	}
	return c.batch.Columns[c.column][c.row], true
}

func (c *cursor) endsBefore(ts int64, cmp TimeComparator) bool {
	n := len(c.batch.Times)
	return n == 0 || cmp.Satisfy(c.batch.Times[n-1], ts)
}

// SingleColumnMerger copies the column of the only child producing it.
type SingleColumnMerger struct {
	mergerBase
}

func NewSingleColumnMerger(loc types.InputLocation, cmp TimeComparator) *SingleColumnMerger {
	return &SingleColumnMerger{mergerBase{locations: []types.InputLocation{loc}, comparator: cmp}}
}

func (m *SingleColumnMerger) Merge(times []int64, batches []*types.Batch, out []interface{}) {
	c := m.cursor(batches, m.locations[0])
	if c == nil {
		return
	}
	for i, ts := range times {
		out[i], _ = c.valueAt(ts, m.comparator)
	}
}

func (m *SingleColumnMerger) Name() string { return "single" }

// MultiColumnMerger merge sorts the column of several children, the first
// child with a non null value at a time wins.
type MultiColumnMerger struct {
	mergerBase
}

func NewMultiColumnMerger(locs []types.InputLocation, cmp TimeComparator) *MultiColumnMerger {
	return &MultiColumnMerger{mergerBase{locations: locs, comparator: cmp}}
}

func (m *MultiColumnMerger) Merge(times []int64, batches []*types.Batch, out []interface{}) {
	cursors := make([]*cursor, 0, len(m.locations))
	for _, loc := range m.locations {
		if c := m.cursor(batches, loc); c != nil {
			cursors = append(cursors, c)
		}
	}
	for i, ts := range times {
		for _, c := range cursors {
			if v, ok := c.valueAt(ts, m.comparator); ok && v != nil {
				out[i] = v
				break
			}
		}
	}
}

func (m *MultiColumnMerger) Name() string { return "multi" }

// NonOverlappedMultiColumnMerger concatenates the column of children whose
// times never overlap, reading one child at a time in join order.
type NonOverlappedMultiColumnMerger struct {
	mergerBase
}

func NewNonOverlappedMultiColumnMerger(locs []types.InputLocation, cmp TimeComparator) *NonOverlappedMultiColumnMerger {
	return &NonOverlappedMultiColumnMerger{mergerBase{locations: locs, comparator: cmp}}
}

func (m *NonOverlappedMultiColumnMerger) Merge(times []int64, batches []*types.Batch, out []interface{}) {
	cursors := make([]*cursor, 0, len(m.locations))
	for _, loc := range m.locations {
		if c := m.cursor(batches, loc); c != nil {
			cursors = append(cursors, c)
		}
	}
	cur := 0
	for i, ts := range times {
		for cur < len(cursors)-1 && cursors[cur].endsBefore(ts, m.comparator) {
			cur++
		}
		if cur < len(cursors) {
			out[i], _ = cursors[cur].valueAt(ts, m.comparator)
		}
	}
}

func (m *NonOverlappedMultiColumnMerger) Name() string { return "non-overlapped" }

// NewColumnMerger chooses the merger of a column produced at locs. ranges,
// index aligned with the children, proves time disjointness. Missing ranges
// mean the children may overlap.
func NewColumnMerger(locs []types.InputLocation, ranges []*timerange.TimeRange, cmp TimeComparator) ColumnMerger {
	if len(locs) == 1 {
		return NewSingleColumnMerger(locs[0], cmp)
	}
	if disjoint(locs, ranges) {
		ordered := make([]types.InputLocation, len(locs))
		copy(ordered, locs)
		sort.SliceStable(ordered, func(i, j int) bool {
			a, b := ranges[ordered[i].TsBlockIndex], ranges[ordered[j].TsBlockIndex]
			if cmp.Ascending() {
				return a.Min < b.Min
			}
			return a.Max > b.Max
		})
		return NewNonOverlappedMultiColumnMerger(ordered, cmp)
	}
	return NewMultiColumnMerger(locs, cmp)
}

func disjoint(locs []types.InputLocation, ranges []*timerange.TimeRange) bool {
	bounds := make([]timerange.TimeRange, 0, len(locs))
	for _, loc := range locs {
		if loc.TsBlockIndex >= len(ranges) || ranges[loc.TsBlockIndex] == nil {
			return false
		}
		bounds = append(bounds, *ranges[loc.TsBlockIndex])
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].Min < bounds[j].Min })
	for i := 1; i < len(bounds); i++ {
		if bounds[i].Overlaps(bounds[i-1]) {
			return false
		}
	}
	return true
}

// MergeTimes is the ordered union of the times of batches.
func MergeTimes(batches []*types.Batch, cmp TimeComparator) []int64 {
	seen := make(map[int64]struct{})
	var times []int64
	for _, b := range batches {
		if b == nil {
			continue
		}
		for _, ts := range b.Times {
			if _, ok := seen[ts]; ok {
				continue
			}
			seen[ts] = struct{}{}
			times = append(times, ts)
		}
	}
	sort.Slice(times, func(i, j int) bool { return cmp.Satisfy(times[i], times[j]) })
	return times
}

// InnerJoinOutputColumnMap maps every consumed child column to its output
// column index. Without explicit output columns the children are laid out
// one after another, otherwise each output name takes its first location.
func InnerJoinOutputColumnMap(childColumns [][]string, outputColumns []string, layout *types.Layout) map[types.InputLocation]int {
	m := make(map[types.InputLocation]int)
	if outputColumns == nil {
		idx := 0
		for i, cols := range childColumns {
			for j := range cols {
				m[types.NewInputLocation(i, j)] = idx
				idx++
			}
		}
		return m
	}
	for i, name := range outputColumns {
		if loc, ok := layout.First(name); ok {
			m[loc] = i
		}
	}
	return m
}
