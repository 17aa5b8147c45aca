// Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package join_test

import (
	"testing"

	"github.com/openGemini/ts-planner/engine/join"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/stretchr/testify/assert"
)

func loc(block, column int) types.InputLocation {
	return types.NewInputLocation(block, column)
}

func TestComparator(t *testing.T) {
	asc, desc := join.NewTimeComparator(true), join.NewTimeComparator(false)
	assert.True(t, asc.Satisfy(1, 2))
	assert.False(t, desc.Satisfy(1, 2))
	assert.Equal(t, int64(1), asc.Current(1, 2))
	assert.Equal(t, int64(2), desc.Current(1, 2))
	assert.Equal(t, join.AscTimeComparator, asc)
}

func TestMergerSelection(t *testing.T) {
	cmp := join.AscTimeComparator
	two := []types.InputLocation{loc(0, 0), loc(1, 0)}

	assert.Equal(t, "single", join.NewColumnMerger(two[:1], nil, cmp).Name())
	assert.Equal(t, "multi", join.NewColumnMerger(two, nil, cmp).Name())

	disjoint := []*timerange.TimeRange{{Min: 0, Max: 9}, {Min: 10, Max: 19}}
	assert.Equal(t, "non-overlapped", join.NewColumnMerger(two, disjoint, cmp).Name())

	overlapped := []*timerange.TimeRange{{Min: 0, Max: 10}, {Min: 10, Max: 19}}
	assert.Equal(t, "multi", join.NewColumnMerger(two, overlapped, cmp).Name())

	partial := []*timerange.TimeRange{{Min: 0, Max: 9}, nil}
	assert.Equal(t, "multi", join.NewColumnMerger(two, partial, cmp).Name())
}

func TestMerge(t *testing.T) {
	batches := []*types.Batch{
		{Times: []int64{1, 3}, Columns: [][]interface{}{{"a1", "a3"}}},
		{Times: []int64{2, 3, 4}, Columns: [][]interface{}{{"b2", nil, "b4"}, {1.0, 2.0, 3.0}}},
	}
	times := join.MergeTimes(batches, join.AscTimeComparator)
	assert.Equal(t, []int64{1, 2, 3, 4}, times)

	out := make([]interface{}, len(times))
	join.NewColumnMerger([]types.InputLocation{loc(0, 0), loc(1, 0)}, nil, join.AscTimeComparator).
		Merge(times, batches, out)
	assert.Equal(t, []interface{}{"a1", "b2", "a3", "b4"}, out)

	out = make([]interface{}, len(times))
	join.NewColumnMerger([]types.InputLocation{loc(1, 1)}, nil, join.AscTimeComparator).Merge(times, batches, out)
	assert.Equal(t, []interface{}{nil, 1.0, 2.0, 3.0}, out)

	desc := join.MergeTimes(batches, join.DescTimeComparator)
	assert.Equal(t, []int64{4, 3, 2, 1}, desc)
}

func TestNonOverlappedMerge(t *testing.T) {
	batches := []*types.Batch{
		{Times: []int64{10, 11}, Columns: [][]interface{}{{int64(10), int64(11)}}},
		{Times: []int64{1, 2}, Columns: [][]interface{}{{int64(1), int64(2)}}},
	}
	ranges := []*timerange.TimeRange{{Min: 10, Max: 19}, {Min: 0, Max: 9}}
	merger := join.NewColumnMerger([]types.InputLocation{loc(0, 0), loc(1, 0)}, ranges, join.AscTimeComparator)
	assert.Equal(t, []types.InputLocation{loc(1, 0), loc(0, 0)}, merger.Locations())

	times := join.MergeTimes(batches, join.AscTimeComparator)
	out := make([]interface{}, len(times))
	merger.Merge(times, batches, out)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(10), int64(11)}, out)
}

func TestInnerJoinOutputColumnMap(t *testing.T) {
	children := [][]string{{"s1", "s2"}, {"s3"}}
	m := join.InnerJoinOutputColumnMap(children, nil, nil)
	assert.Equal(t, map[types.InputLocation]int{loc(0, 0): 0, loc(0, 1): 1, loc(1, 0): 2}, m)

	layout := types.NewLayout()
	layout.Add("s1", loc(0, 0))
	layout.Add("s2", loc(0, 1))
	layout.Add("s3", loc(1, 0))
	m = join.InnerJoinOutputColumnMap(children, []string{"s3", "s1"}, layout)
	assert.Equal(t, map[types.InputLocation]int{loc(1, 0): 0, loc(0, 0): 1}, m)
}
