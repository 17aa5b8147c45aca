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
	"testing"

	"github.com/openGemini/ts-planner/engine/physical"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInnerTimeJoin(t *testing.T) {
	loc := types.NewInputLocation
	cases := []struct {
		name      string
		order     plan.Ordering
		columns   []string
		want      map[types.InputLocation]int
		dataTypes []types.DataType
	}{
		{
			name:      "children in order",
			order:     plan.Asc,
			want:      map[types.InputLocation]int{loc(0, 0): 0, loc(1, 0): 1},
			dataTypes: []types.DataType{types.Double, types.Double},
		},
		{
			name:      "reordered output",
			order:     plan.Desc,
			columns:   []string{"root.sg.d2.s1", "root.sg.d1.s1"},
			want:      map[types.InputLocation]int{loc(1, 0): 0, loc(0, 0): 1},
			dataTypes: []types.DataType{types.Double, types.Double},
		},
		{
			name:      "projected output",
			order:     plan.Asc,
			columns:   []string{"root.sg.d2.s1"},
			want:      map[types.InputLocation]int{loc(1, 0): 0},
			dataTypes: []types.DataType{types.Double},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEnv(t, 1)
			res := e.plan(t, plan.NewInnerTimeJoinNode("10", c.order, c.columns, scans(1, 2)...), 1)

			op, ok := res.Root.(*physical.InnerTimeJoinOperator)
			require.True(t, ok)
			assert.Equal(t, physical.KindInnerTimeJoin, op.Name())
			assert.Equal(t, c.want, op.OutputColumnMap)
			assert.Equal(t, c.dataTypes, op.DataTypes)
			assert.Equal(t, c.order.IsAscending(), op.Comparator.Ascending())
			assert.Len(t, op.Children(), 2)
		})
	}
}
