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
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crossSeries(typ plan.AggregationType, input, output string) *plan.CrossSeriesAggregationDescriptor {
	return &plan.CrossSeriesAggregationDescriptor{
		AggregationDescriptor: plan.AggregationDescriptor{
			Type:             typ,
			Step:             plan.StepSingle,
			InputExpressions: []plan.Expression{plan.Column(input)},
		},
		OutputExpression: plan.Column(output),
	}
}

func TestBuildGroupByTag(t *testing.T) {
	groups := []plan.TagGroup{
		{TagValues: []string{"bj"}, Descriptors: []*plan.CrossSeriesAggregationDescriptor{
			crossSeries(plan.AggCount, "root.sg.d1.s1", "count_bj"),
			crossSeries(plan.AggSum, "root.sg.d1.s1", "sum_bj"),
		}},
		{TagValues: []string{"sh"}, Descriptors: []*plan.CrossSeriesAggregationDescriptor{
			crossSeries(plan.AggCount, "root.sg.d2.s1", "count_sh"),
			nil,
			crossSeries(plan.AggSum, "root.sg.d2.s1", "sum_sh"),
		}},
	}
	e := newEnv(t, 1)
	res := e.plan(t, plan.NewGroupByTagNode("20", []string{"city"}, groups, nil, plan.Asc, scans(1, 2)...), 1)

	op, ok := res.Root.(*physical.TagAggregationOperator)
	require.True(t, ok)
	assert.Equal(t, physical.KindTagAggregation, op.Name())
	assert.Equal(t, []string{"city"}, op.TagKeys)
	assert.Equal(t, [][]string{{"bj"}, {"sh"}}, op.TagValues)
	assert.Equal(t, []uint64{physical.GroupKey([]string{"bj"}), physical.GroupKey([]string{"sh"})}, op.GroupKeys)
	assert.NotEqual(t, op.GroupKeys[0], op.GroupKeys[1])

	require.Len(t, op.Aggregators, 2)
	assert.Len(t, op.Aggregators[0], 2)
	require.Len(t, op.Aggregators[1], 3)
	assert.NotNil(t, op.Aggregators[1][0])
	assert.Nil(t, op.Aggregators[1][1], "an absent aggregation keeps its slot")
	assert.NotNil(t, op.Aggregators[1][2])
	assert.Equal(t, int64(1), op.TimeRanges.TotalTimeRangeCount())
	assert.Positive(t, op.MaxReturnSize())
}

func TestBuildGroupByTagErrors(t *testing.T) {
	group := plan.TagGroup{TagValues: []string{"bj"}, Descriptors: []*plan.CrossSeriesAggregationDescriptor{
		crossSeries(plan.AggCount, "root.sg.d1.s1", "count_bj"),
	}}
	cases := []struct {
		name   string
		keys   []string
		groups []plan.TagGroup
		code   errno.Errno
	}{
		{"no tag keys", nil, []plan.TagGroup{group}, errno.EmptyDescriptors},
		{"no groups", []string{"city"}, nil, errno.EmptyDescriptors},
	}
	e := newEnv(t, 1)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n := plan.NewGroupByTagNode("20", c.keys, c.groups, nil, plan.Asc, scans(1, 1)...)
			_, err := e.planner.Plan(newFragment(n), 1)
			require.Error(t, err)
			assert.True(t, errno.Equal(err, c.code), err.Error())
		})
	}
}

func rawAggregation(group *plan.GroupByParameter, expr *plan.Expression) *plan.AggregationNode {
	descs := []plan.AggregationDescriptor{{
		Type:             plan.AggCount,
		Step:             plan.StepSingle,
		InputExpressions: []plan.Expression{plan.Column("root.sg.d1.s1")},
	}}
	n := plan.NewAggregationNode("20", descs, nil, plan.Asc, scan(1, "root.sg.d1.s1"))
	n.GroupBy = group
	n.GroupByExpression = expr
	return n
}

func TestBuildRawDataAggregationWindows(t *testing.T) {
	control := plan.Column("root.sg.d1.s1")
	keep := plan.MustParseExpression(`"root.sg.d1.s1" > 1`)
	at := types.NewInputLocation(0, 0)

	cases := []struct {
		name  string
		group *plan.GroupByParameter
		expr  *plan.Expression
		want  physical.WindowParameter
	}{
		{
			name: "time",
			want: physical.WindowParameter{Type: plan.TimeWindow},
		},
		{
			name:  "variation",
			group: &plan.GroupByParameter{WindowType: plan.VariationWindow, Delta: 2.5, IgnoreNull: true},
			expr:  &control,
			want: physical.WindowParameter{Type: plan.VariationWindow, IgnoreNull: true,
				ControlColumn: at, ControlType: types.Double, Delta: 2.5},
		},
		{
			name:  "condition",
			group: &plan.GroupByParameter{WindowType: plan.ConditionWindow, KeepExpression: keep},
			expr:  &control,
			want: physical.WindowParameter{Type: plan.ConditionWindow,
				ControlColumn: at, ControlType: types.Double, Keep: keep},
		},
		{
			name:  "session",
			group: &plan.GroupByParameter{WindowType: plan.SessionWindow, TimeInterval: 100},
			want:  physical.WindowParameter{Type: plan.SessionWindow, TimeInterval: 100},
		},
		{
			name:  "count",
			group: &plan.GroupByParameter{WindowType: plan.CountWindow, CountNumber: 3},
			expr:  &control,
			want: physical.WindowParameter{Type: plan.CountWindow,
				ControlColumn: at, ControlType: types.Double, CountNumber: 3},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEnv(t, 1)
			res := e.plan(t, rawAggregation(c.group, c.expr), 1)

			op, ok := res.Root.(*physical.RawDataAggregationOperator)
			require.True(t, ok)
			assert.Equal(t, physical.KindRawDataAggregation, op.Name())
			assert.Len(t, op.Aggregators, 1)
			assert.True(t, op.Ascending)
			assert.Equal(t, c.want, op.Window)
		})
	}
}

func TestBuildRawDataAggregationWindowErrors(t *testing.T) {
	unknown := plan.Column("root.sg.d9.s1")
	cases := []struct {
		name  string
		group *plan.GroupByParameter
		expr  *plan.Expression
		code  errno.Errno
	}{
		{"variation without expression", &plan.GroupByParameter{WindowType: plan.VariationWindow}, nil, errno.InvalidPlan},
		{"condition without expression", &plan.GroupByParameter{WindowType: plan.ConditionWindow}, nil, errno.InvalidPlan},
		{"count without expression", &plan.GroupByParameter{WindowType: plan.CountWindow}, nil, errno.InvalidPlan},
		{"unknown control column", &plan.GroupByParameter{WindowType: plan.CountWindow}, &unknown, errno.UnknownColumn},
		{"unsupported window", &plan.GroupByParameter{WindowType: plan.WindowType(9)}, nil, errno.UnsupportedWindowType},
	}
	e := newEnv(t, 1)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := e.planner.Plan(newFragment(rawAggregation(c.group, c.expr)), 1)
			require.Error(t, err)
			assert.True(t, errno.Equal(err, c.code), err.Error())
		})
	}
}

func TestBuildSlidingWindowAggregation(t *testing.T) {
	path := plan.NewMeasurementPath("root.sg.d1.s1", types.Double)
	input := []plan.Expression{plan.Column("root.sg.d1.s1")}
	partial := plan.NewSeriesAggregationScanNode("1", path, []plan.AggregationDescriptor{
		{Type: plan.AggCount, Step: plan.StepPartial, InputExpressions: input},
		{Type: plan.AggMaxValue, Step: plan.StepPartial, InputExpressions: input},
	}, plan.Asc)
	groupByTime := &plan.GroupByTimeParameter{
		StartTime:   0,
		EndTime:     100,
		Interval:    timerange.NewTimeDuration(0, 20),
		SlidingStep: timerange.NewTimeDuration(0, 10),
	}
	n := plan.NewSlidingWindowAggregationNode("20", []plan.AggregationDescriptor{
		{Type: plan.AggCount, Step: plan.StepFinal, InputExpressions: input},
		{Type: plan.AggMaxValue, Step: plan.StepFinal, InputExpressions: input},
	}, groupByTime, plan.Asc, partial)

	e := newEnv(t, 1)
	res := e.plan(t, n, 1)
	op, ok := res.Root.(*physical.SlidingWindowAggregationOperator)
	require.True(t, ok)
	assert.Equal(t, physical.KindSlidingWindowAggregation, op.Name())
	assert.Len(t, op.Aggregators, 2)
	assert.Same(t, groupByTime, op.GroupByTime)
	assert.True(t, op.Ascending)
	assert.Positive(t, op.TimeRanges.TotalTimeRangeCount())
	require.Len(t, op.Children(), 1)
	assert.Equal(t, physical.KindSeriesAggregationScan, op.Children()[0].Name())
}

func TestBuildSlidingWindowAggregationErrors(t *testing.T) {
	groupByTime := &plan.GroupByTimeParameter{EndTime: 100, Interval: timerange.NewTimeDuration(0, 20),
		SlidingStep: timerange.NewTimeDuration(0, 10)}
	raw := []plan.AggregationDescriptor{{Type: plan.AggCount, Step: plan.StepSingle,
		InputExpressions: []plan.Expression{plan.Column("root.sg.d1.s1")}}}
	cases := []struct {
		name  string
		descs []plan.AggregationDescriptor
		code  errno.Errno
	}{
		{"no descriptors", nil, errno.EmptyDescriptors},
		{"raw input", raw, errno.InvalidPlan},
	}
	e := newEnv(t, 1)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n := plan.NewSlidingWindowAggregationNode("20", c.descs, groupByTime, plan.Asc, scan(1, "root.sg.d1.s1"))
			_, err := e.planner.Plan(newFragment(n), 1)
			require.Error(t, err)
			assert.True(t, errno.Equal(err, c.code), err.Error())
		})
	}
}
