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

package aggregation_test

import (
	"math"
	"testing"

	"github.com/openGemini/ts-planner/engine/aggregation"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAcc(t *testing.T, aggType plan.AggregationType, inputs ...types.DataType) aggregation.Accumulator {
	acc, err := aggregation.NewAccumulator(aggType, inputs, nil)
	require.NoError(t, err)
	return acc
}

func feed(acc aggregation.Accumulator, values ...interface{}) {
	for i, v := range values {
		acc.AddInput(int64(i+1), []interface{}{v})
	}
}

func TestUnsupportedInputTypes(t *testing.T) {
	cases := []struct {
		agg    plan.AggregationType
		inputs []types.DataType
	}{
		{plan.AggSum, []types.DataType{types.Text}},
		{plan.AggAvg, []types.DataType{types.Boolean}},
		{plan.AggMaxValue, []types.DataType{types.Text}},
		{plan.AggCountIf, []types.DataType{types.Int32}},
		{plan.AggCount, []types.DataType{types.Vector}},
		{plan.AggVariance, []types.DataType{types.Boolean}},
	}
	for _, c := range cases {
		_, err := aggregation.NewAccumulator(c.agg, c.inputs, nil)
		assert.True(t, errno.Equal(err, errno.UnsupportedAggregation), c.agg.String())
	}

	_, err := aggregation.NewAccumulator(plan.AggMaxBy, []types.DataType{types.Int32}, nil)
	assert.True(t, errno.Equal(err, errno.InvalidPlan))
	_, err = aggregation.NewAccumulator(plan.AggUnknown, []types.DataType{types.Int32}, nil)
	assert.True(t, errno.Equal(err, errno.UnsupportedAggregation))
}

func TestAccumulators(t *testing.T) {
	count := newAcc(t, plan.AggCount, types.Text)
	feed(count, "a", nil, "b")
	assert.Equal(t, int64(2), count.Final())

	sum := newAcc(t, plan.AggSum, types.Int32)
	assert.Nil(t, sum.Final())
	feed(sum, int32(1), nil, int32(4))
	assert.Equal(t, 5.0, sum.Final())

	avg := newAcc(t, plan.AggAvg, types.Double)
	feed(avg, 1.0, 2.0, 6.0)
	assert.Equal(t, 3.0, avg.Final())
	assert.Equal(t, []interface{}{int64(3), 9.0}, avg.Partial())

	extreme := newAcc(t, plan.AggExtreme, types.Int64)
	feed(extreme, int64(3), int64(-7), int64(7), int64(-2))
	assert.Equal(t, int64(7), extreme.Final())

	minValue := newAcc(t, plan.AggMinValue, types.Float)
	feed(minValue, float32(2), float32(-1), nil)
	assert.Equal(t, float32(-1), minValue.Final())

	first := newAcc(t, plan.AggFirstValue, types.Boolean)
	first.AddInput(5, []interface{}{true})
	first.AddInput(2, []interface{}{false})
	assert.Equal(t, false, first.Final())
	assert.Equal(t, []interface{}{false, int64(2)}, first.Partial())

	last := newAcc(t, plan.AggLastValue, types.Text)
	last.AddIntermediate([]interface{}{"x", int64(10)})
	last.AddIntermediate([]interface{}{"y", int64(3)})
	assert.Equal(t, "x", last.Final())

	duration := newAcc(t, plan.AggTimeDuration, types.Double)
	feed(duration, 1.0, 2.0, 3.0)
	assert.Equal(t, int64(2), duration.Final())

	mode := newAcc(t, plan.AggMode, types.Int32)
	feed(mode, int32(1), int32(2), int32(2), int32(1), int32(3))
	assert.Equal(t, int32(1), mode.Final())
	merged := newAcc(t, plan.AggMode, types.Int32)
	merged.AddIntermediate(mode.Partial())
	merged.AddInput(9, []interface{}{int32(2)})
	assert.Equal(t, int32(2), merged.Final())
}

func TestCountIf(t *testing.T) {
	acc, err := aggregation.NewAccumulator(plan.AggCountIf, []types.DataType{types.Boolean},
		map[string]string{aggregation.AttrKeep: "2"})
	require.NoError(t, err)
	feed(acc, true, true, false, true, nil, true, false, true)
	// runs: [t t] [t _ t] [t], nulls skipped
	assert.Equal(t, int64(2), acc.Final())

	acc, err = aggregation.NewAccumulator(plan.AggCountIf, []types.DataType{types.Boolean},
		map[string]string{aggregation.AttrKeep: "2", aggregation.AttrIgnoreNull: "false"})
	require.NoError(t, err)
	feed(acc, true, true, false, true, nil, true, false, true)
	assert.Equal(t, int64(1), acc.Final())
}

func TestVarianceMerge(t *testing.T) {
	whole := newAcc(t, plan.AggVarSamp, types.Double)
	left := newAcc(t, plan.AggVarSamp, types.Double)
	right := newAcc(t, plan.AggVarSamp, types.Double)
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	for i, v := range values {
		whole.AddInput(int64(i), []interface{}{v})
		if i < 3 {
			left.AddInput(int64(i), []interface{}{v})
		} else {
			right.AddInput(int64(i), []interface{}{v})
		}
	}
	final := newAcc(t, plan.AggVarSamp, types.Double)
	final.AddIntermediate(left.Partial())
	final.AddIntermediate(right.Partial())
	assert.InDelta(t, whole.Final().(float64), final.Final().(float64), 1e-9)

	pop := newAcc(t, plan.AggStddevPop, types.Double)
	pop.AddIntermediate(final.Partial())
	assert.InDelta(t, 2.0, pop.Final().(float64), 1e-9)

	single := newAcc(t, plan.AggStddev, types.Int32)
	feed(single, int32(1))
	assert.Nil(t, single.Final())
	assert.False(t, math.IsNaN(pop.Final().(float64)))
}

func TestMaxBy(t *testing.T) {
	acc := newAcc(t, plan.AggMaxBy, types.Text, types.Int64)
	acc.AddInput(1, []interface{}{"a", int64(3)})
	acc.AddInput(2, []interface{}{"b", int64(9)})
	acc.AddInput(3, []interface{}{"c", nil})
	assert.Equal(t, "b", acc.Final())

	other := newAcc(t, plan.AggMaxBy, types.Text, types.Int64)
	other.AddInput(4, []interface{}{"d", int64(5)})
	other.AddIntermediate(acc.Partial())
	assert.Equal(t, "b", other.Final())
}

func TestAggregatorLocations(t *testing.T) {
	acc := newAcc(t, plan.AggAvg, types.Double)
	partial := aggregation.NewAggregator(acc, plan.StepPartial, [][]types.InputLocation{
		{types.NewInputLocation(0, 0)},
		{types.NewInputLocation(1, 2)},
	})
	rows := map[types.InputLocation]interface{}{
		types.NewInputLocation(0, 0): 2.0,
		types.NewInputLocation(1, 2): 4.0,
	}
	partial.ProcessRow(1, func(loc types.InputLocation) interface{} { return rows[loc] })
	assert.Equal(t, []types.DataType{types.Int64, types.Double}, partial.OutputTypes())
	assert.Equal(t, []interface{}{int64(2), 6.0}, partial.Outputs())

	final := aggregation.NewAggregator(newAcc(t, plan.AggAvg, types.Double), plan.StepFinal,
		[][]types.InputLocation{{types.NewInputLocation(0, 0), types.NewInputLocation(0, 1)}})
	out := partial.Outputs()
	final.ProcessRow(1, func(loc types.InputLocation) interface{} { return out[loc.ValueColumnIndex] })
	assert.Equal(t, 1, final.OutputColumnCount())
	assert.Equal(t, []interface{}{3.0}, final.Outputs())

	maxTime := aggregation.NewAggregator(newAcc(t, plan.AggMaxTime, types.Int64), plan.StepSingle,
		[][]types.InputLocation{{types.NewInputLocation(0, types.TimeColumnIndex)}})
	maxTime.ProcessRow(42, func(types.InputLocation) interface{} { return nil })
	assert.Equal(t, []interface{}{int64(42)}, maxTime.Outputs())
}

func TestSlidingWindow(t *testing.T) {
	loc := [][]types.InputLocation{{types.NewInputLocation(0, 0)}}
	_, err := aggregation.NewSlidingWindowAggregator(newAcc(t, plan.AggSum, types.Double), plan.StepSingle, loc)
	require.Error(t, err)

	sum, err := aggregation.NewSlidingWindowAggregator(newAcc(t, plan.AggSum, types.Double), plan.StepFinal, loc)
	require.NoError(t, err)
	max, err := aggregation.NewSlidingWindowAggregator(newAcc(t, plan.AggMaxValue, types.Double), plan.StepFinal, loc)
	require.NoError(t, err)
	first, err := aggregation.NewSlidingWindowAggregator(newAcc(t, plan.AggFirstValue, types.Double), plan.StepFinal,
		[][]types.InputLocation{{types.NewInputLocation(0, 0), types.NewInputLocation(0, 1)}})
	require.NoError(t, err)

	// sub windows of 10, sliding windows of 30 moving by 10
	values := []float64{5, 1, 3, 2, 8}
	var sums, maxes, firsts []interface{}
	for i, v := range values {
		sub := timerange.TimeRange{Min: int64(i * 10), Max: int64(i*10 + 9)}
		sum.ProcessPartial(sub, []interface{}{v})
		max.ProcessPartial(sub, []interface{}{v})
		first.ProcessPartial(sub, []interface{}{v, int64(i * 10)})
		if i < 2 {
			continue
		}
		win := timerange.TimeRange{Min: int64((i - 2) * 10), Max: int64(i*10 + 9)}
		sums = append(sums, sum.Window(win)[0])
		maxes = append(maxes, max.Window(win)[0])
		firsts = append(firsts, first.Window(win)[0])
	}
	assert.Equal(t, []interface{}{9.0, 6.0, 13.0}, sums)
	assert.Equal(t, []interface{}{5.0, 3.0, 8.0}, maxes)
	assert.Equal(t, []interface{}{5.0, 1.0, 3.0}, firsts)
}
