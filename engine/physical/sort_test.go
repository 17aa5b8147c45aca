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

package physical_test

import (
	"path/filepath"
	"testing"

	"github.com/openGemini/ts-planner/engine/physical"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderBy(items ...plan.SortItem) plan.OrderByParameter {
	return plan.OrderByParameter{SortItems: items}
}

func TestBuildSort(t *testing.T) {
	e := newEnv(t, 1)
	join := plan.NewFullOuterTimeJoinNode("10", plan.Asc, scans(1, 2)...)
	sort := plan.NewSortNode("20", orderBy(
		plan.SortItem{Key: plan.OrderByTime, Ordering: plan.Desc},
		plan.SortItem{Key: "ROOT.SG.D2.S1", Ordering: plan.Asc},
		plan.SortItem{Key: "root.sg.d9.s1", Ordering: plan.Asc},
	), join)
	res := e.plan(t, sort, 1)

	op, ok := res.Root.(*physical.SortOperator)
	require.True(t, ok)
	assert.Equal(t, physical.KindSort, op.Name())
	assert.Equal(t, []types.DataType{types.Double, types.Double}, op.DataTypes)
	assert.Equal(t, []physical.SortKey{
		{Name: plan.OrderByTime, Index: physical.SortKeyTime, DataType: types.Int64, Ordering: plan.Desc},
		{Name: "ROOT.SG.D2.S1", Index: 1, DataType: types.Double, Ordering: plan.Asc},
		{Name: "root.sg.d9.s1", Index: physical.SortKeyMissing, DataType: types.Unknown, Ordering: plan.Asc},
	}, op.Keys)

	want := filepath.Join(e.planner.Config().SortTmpDir, instanceID.FullID(), "0") + string(filepath.Separator)
	assert.Equal(t, want, op.FilePrefix())
}

func TestBuildMergeSortAndTopK(t *testing.T) {
	cases := []struct {
		name        string
		node        plan.Node
		kind        string
		keys        []physical.SortKey
		topValue    int
		timeOrdered bool
	}{
		{
			name: "merge sort by value",
			node: plan.NewMergeSortNode("30", orderBy(plan.SortItem{Key: "root.sg.d1.s1", Ordering: plan.Desc}),
				nil, scans(1, 2)...),
			kind: physical.KindMergeSort,
			keys: []physical.SortKey{{Name: "root.sg.d1.s1", Index: 0, DataType: types.Double, Ordering: plan.Desc}},
		},
		{
			name: "empty output columns",
			node: plan.NewMergeSortNode("30", orderBy(
				plan.SortItem{Key: "root.sg.d1.s1", Ordering: plan.Asc},
				plan.SortItem{Key: plan.OrderByTime, Ordering: plan.Desc},
			), []string{}, scans(1, 2)...),
			kind: physical.KindMergeSort,
			keys: []physical.SortKey{
				{Name: "root.sg.d1.s1", Index: physical.SortKeyMissing, DataType: types.Unknown, Ordering: plan.Asc},
				{Name: plan.OrderByTime, Index: physical.SortKeyTime, DataType: types.Int64, Ordering: plan.Desc},
			},
		},
		{
			name: "top k by time and device",
			node: plan.NewTopKNode("31", 5, orderBy(
				plan.SortItem{Key: plan.OrderByTime, Ordering: plan.Asc},
				plan.SortItem{Key: plan.OrderByDevice, Ordering: plan.Asc},
			), nil, scans(1, 2)...),
			kind: physical.KindTopK,
			keys: []physical.SortKey{
				{Name: plan.OrderByTime, Index: physical.SortKeyTime, DataType: types.Int64, Ordering: plan.Asc},
				{Name: plan.OrderByDevice, Index: physical.SortKeyMissing, DataType: types.Unknown, Ordering: plan.Asc},
			},
			topValue:    5,
			timeOrdered: true,
		},
		{
			name: "top k by value",
			node: plan.NewTopKNode("31", 3, orderBy(plan.SortItem{Key: "root.sg.d1.s1", Ordering: plan.Asc}),
				[]string{"root.sg.d1.s1"}, scans(1, 2)...),
			kind:     physical.KindTopK,
			keys:     []physical.SortKey{{Name: "root.sg.d1.s1", Index: 0, DataType: types.Double, Ordering: plan.Asc}},
			topValue: 3,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEnv(t, 1)
			res := e.plan(t, c.node, 1)

			op, ok := res.Root.(*physical.MergeSortOperator)
			require.True(t, ok)
			assert.Equal(t, c.kind, op.Name())
			assert.Equal(t, c.keys, op.Keys)
			assert.Equal(t, c.topValue, op.TopValue)
			assert.Equal(t, c.timeOrdered, op.TimeOrdered)
			assert.Len(t, op.Children(), 2)
		})
	}
}
