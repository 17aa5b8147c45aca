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

package plan_test

import (
	"testing"

	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesScan(id, path string) *plan.SeriesScanNode {
	return plan.NewSeriesScanNode(plan.NodeID(id), plan.NewMeasurementPath(path, types.Double), plan.Asc)
}

func TestAggregationColumnNames(t *testing.T) {
	avg := plan.AggregationDescriptor{
		Type:             plan.AggAvg,
		Step:             plan.StepPartial,
		InputExpressions: []plan.Expression{plan.Column("root.sg.d1.s1")},
	}
	assert.Equal(t, []string{"count(root.sg.d1.s1)", "sum(root.sg.d1.s1)"}, avg.OutputColumnNames())
	assert.Equal(t, [][]string{{"root.sg.d1.s1"}}, avg.InputColumnNamesList())

	avg.Step = plan.StepFinal
	assert.Equal(t, []string{"avg(root.sg.d1.s1)"}, avg.OutputColumnNames())
	assert.Equal(t, [][]string{{"count(root.sg.d1.s1)", "sum(root.sg.d1.s1)"}}, avg.InputColumnNamesList())

	last := plan.AggregationDescriptor{Type: plan.AggLastValue, Step: plan.StepIntermediate,
		InputExpressions: []plan.Expression{plan.Column("s1")}}
	assert.Equal(t, []string{"last_value(s1)", "max_time(s1)"}, last.OutputColumnNames())

	assert.True(t, plan.StepSingle.IsInputRaw())
	assert.True(t, plan.StepPartial.IsInputRaw())
	assert.False(t, plan.StepFinal.IsInputRaw())
	assert.True(t, plan.StepIntermediate.IsOutputPartial())
	assert.False(t, plan.StepSingle.IsOutputPartial())
}

func TestCrossSeriesInputColumns(t *testing.T) {
	d := plan.CrossSeriesAggregationDescriptor{
		AggregationDescriptor: plan.AggregationDescriptor{
			Type: plan.AggCount,
			Step: plan.StepFinal,
			InputExpressions: []plan.Expression{
				plan.Column("root.sg.d1.s1"), plan.Column("root.sg.d2.s1"),
			},
		},
		OutputExpression: plan.Column("root.sg.*.s1"),
	}
	assert.Equal(t, []string{"count(root.sg.*.s1)"}, d.OutputColumnNames())
	assert.Equal(t, [][]string{{"count(root.sg.d1.s1)"}, {"count(root.sg.d2.s1)"}}, d.InputColumnNamesList())

	d.Type = plan.AggMaxBy
	d.Step = plan.StepSingle
	assert.Equal(t, [][]string{{"root.sg.d1.s1", "root.sg.d2.s1"}}, d.InputColumnNamesList())
}

func TestTimeFilter(t *testing.T) {
	f := plan.And(plan.TimeGtEq(10), plan.TimeLt(20))
	assert.True(t, f.Satisfy(10))
	assert.False(t, f.Satisfy(20))
	assert.False(t, f.IsLowerBound())
	assert.True(t, plan.TimeGt(1).IsLowerBound())

	c := f.Copy()
	require.NotSame(t, f, c)
	require.NotSame(t, f.Left, c.Left)
	c.Left.Value = 0
	assert.Equal(t, int64(10), f.Left.Value)

	var none *plan.TimeFilter
	assert.True(t, none.Satisfy(1))
	assert.Nil(t, none.Copy())
	assert.True(t, plan.TimeBetween(1, 3).Satisfy(3))
	assert.True(t, plan.Or(plan.TimeEq(1), plan.TimeGt(5)).Satisfy(6))
}

func TestWithChildrenKeepsOriginal(t *testing.T) {
	a, b, c := seriesScan("1", "root.sg.d1.s1"), seriesScan("2", "root.sg.d1.s2"), seriesScan("3", "root.sg.d2.s1")
	join := plan.NewFullOuterTimeJoinNode("4", plan.Asc, a, b, c)
	join.TimeRanges = []*timerange.TimeRange{{Min: 0, Max: 9}, {Min: 10, Max: 19}, {Min: 20, Max: 29}}

	rebuilt := join.WithChildren([]plan.Node{c, a}).(*plan.FullOuterTimeJoinNode)
	assert.Len(t, join.Children(), 3)
	assert.Equal(t, plan.NodeID("4"), rebuilt.ID())
	assert.Equal(t, []string{"root.sg.d2.s1", "root.sg.d1.s1"}, rebuilt.OutputColumnNames())
	assert.Nil(t, rebuilt.TimeRanges)
	assert.Len(t, join.TimeRanges, 3)

	sub := plan.SubNode(join, "5", 1, 3).(*plan.FullOuterTimeJoinNode)
	assert.Equal(t, plan.NodeID("5"), sub.ID())
	assert.Equal(t, []string{"root.sg.d1.s2", "root.sg.d2.s1"}, sub.OutputColumnNames())
	assert.Equal(t, int64(10), sub.TimeRanges[0].Min)
	assert.Equal(t, plan.NodeID("4"), join.ID())

	merge := plan.NewHorizontallyConcatNode("6", a, b, c)
	subMerge := plan.SubNode(merge, "7", 0, 2)
	assert.Equal(t, plan.NodeID("7"), subMerge.ID())
	assert.Len(t, subMerge.Children(), 2)
	assert.Equal(t, plan.NodeID("6"), merge.ID())
}

func TestColumnInjectOutput(t *testing.T) {
	agg := plan.NewSeriesAggregationScanNode("1", plan.NewMeasurementPath("root.sg.d1.s1", types.Int32),
		[]plan.AggregationDescriptor{{Type: plan.AggCount, Step: plan.StepSingle,
			InputExpressions: []plan.Expression{plan.Column("root.sg.d1.s1")}}}, plan.Asc)
	inject := plan.NewColumnInjectNode("2", 0, plan.ColumnGeneratorParameter{}, []string{plan.EndTimeColumn},
		[]types.DataType{types.Int64}, agg)
	assert.Equal(t, []string{plan.EndTimeColumn, "count(root.sg.d1.s1)"}, inject.OutputColumnNames())
}

func TestExpressionName(t *testing.T) {
	e := plan.MustParseExpression(`"root.sg.d1.s1" + 1`)
	assert.Equal(t, "root.sg.d1.s1 + 1", e.Name())
	assert.True(t, plan.Timestamp().IsTimestamp())
	assert.False(t, plan.Timestamp().IsColumn())
	assert.Equal(t, "derivative(root.sg.d1.s1)", plan.MustParseExpression(`derivative("root.sg.d1.s1")`).Name())
}

func TestCodec(t *testing.T) {
	order := plan.Desc
	scan := plan.NewLastQueryScanNode("1", plan.NewMeasurementPath("root.sg.d1.s1", types.Int64))
	ex := plan.NewExchangeNode("2", exchange.TEndPoint{IP: "127.0.0.1", Port: 10740},
		exchange.FragmentInstanceID{QueryID: "q", FragmentID: 1, InstanceID: "i"}, "9", plan.LastQueryColumns)
	filter := plan.NewFilterNode("3", plan.MustParseExpression(`"root.sg.d1.s1" > 10`),
		[]plan.Expression{plan.Column("root.sg.d1.s1")}, seriesScan("4", "root.sg.d1.s1"))
	fill := plan.NewFillNode("5", plan.FillDescriptor{Policy: plan.FillPrevious,
		TimeDurationThreshold: &timerange.TimeDuration{MonthDuration: 1}}, filter)
	root := plan.NewLastQueryNode("6", &order, scan, ex, fill)

	frag := &plan.Fragment{
		InstanceID:       exchange.FragmentInstanceID{QueryID: "q", FragmentID: 0, InstanceID: "0"},
		Root:             root,
		Types:            types.TypeMap{"root.sg.d1.s1": types.Int64},
		GlobalTimeFilter: plan.TimeGt(5),
	}
	data, err := frag.MarshalJSON()
	require.NoError(t, err)

	got := &plan.Fragment{}
	require.NoError(t, got.UnmarshalJSON(data))
	assert.Equal(t, types.Int64, got.Types["root.sg.d1.s1"])
	assert.Equal(t, plan.FilterGt, got.GlobalTimeFilter.Kind)

	last, ok := got.Root.(*plan.LastQueryNode)
	require.True(t, ok)
	require.Len(t, last.Children(), 3)
	assert.Equal(t, plan.Desc, *last.TimeseriesOrdering)
	assert.Equal(t, "root.sg.d1.s1", last.Children()[0].(*plan.LastQueryScanNode).Path.FullPath())
	assert.Equal(t, 10740, last.Children()[1].(*plan.ExchangeNode).UpstreamEndpoint.Port)

	gotFill := last.Children()[2].(*plan.FillNode)
	assert.Equal(t, plan.FillPrevious, gotFill.Descriptor.Policy)
	assert.Equal(t, 1, gotFill.Descriptor.TimeDurationThreshold.MonthDuration)
	gotFilter := gotFill.Children()[0].(*plan.FilterNode)
	assert.Equal(t, "root.sg.d1.s1 > 10", gotFilter.Predicate.Name())
	assert.Equal(t, plan.NodeID("4"), gotFilter.Children()[0].ID())

	_, err = plan.UnmarshalNode([]byte(`{"kind":"NoSuchNode","id":"1"}`))
	require.Error(t, err)
}
