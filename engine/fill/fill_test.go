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

package fill_test

import (
	"testing"
	"time"

	"github.com/openGemini/ts-planner/engine/fill"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTypes = []types.DataType{types.Boolean, types.Text, types.Int32, types.Int64, types.Float, types.Double}

func TestFillSelection(t *testing.T) {
	expected := map[plan.FillPolicy]map[types.DataType]string{
		plan.FillPrevious: {
			types.Boolean: "BOOLEAN previous", types.Text: "TEXT previous", types.Int32: "INT32 previous",
			types.Int64: "INT64 previous", types.Float: "FLOAT previous", types.Double: "DOUBLE previous",
		},
		plan.FillLinear: {
			types.Boolean: "identity", types.Text: "identity", types.Int32: "INT32 linear",
			types.Int64: "INT64 linear", types.Float: "FLOAT linear", types.Double: "DOUBLE linear",
		},
		plan.FillValue: {
			types.Boolean: "identity", types.Text: "TEXT value", types.Int32: "INT32 value",
			types.Int64: "INT64 value", types.Float: "FLOAT value", types.Double: "DOUBLE value",
		},
	}
	for policy, byType := range expected {
		desc := plan.FillDescriptor{Policy: policy, Value: plan.MustParseExpression("7")}
		fills, err := fill.NewFills(desc, allTypes, timerange.Millisecond, time.UTC)
		require.NoError(t, err)
		for i, dt := range allTypes {
			assert.Equal(t, byType[dt], fills[i].Name(), "%s %s", policy, dt)
		}
	}
}

func TestFillUnknownType(t *testing.T) {
	for _, policy := range []plan.FillPolicy{plan.FillValue, plan.FillPrevious, plan.FillLinear} {
		desc := plan.FillDescriptor{Policy: policy, Value: plan.MustParseExpression("true")}
		_, err := fill.NewFills(desc, []types.DataType{types.Int32, types.Vector}, timerange.Millisecond, time.UTC)
		require.Error(t, err)
		assert.True(t, errno.Equal(err, errno.UnknownDataType))
		assert.Equal(t, "Unknown data type: VECTOR", err.Error())
	}

	_, err := fill.NewFills(plan.FillDescriptor{Policy: plan.FillPolicy(9)}, nil, timerange.Millisecond, time.UTC)
	assert.True(t, errno.Equal(err, errno.UnsupportedFillPolicy))
}

func TestValueFillLiteral(t *testing.T) {
	f, err := fill.NewValueFill(types.Int32, plan.MustParseExpression("1.5"))
	require.NoError(t, err)
	assert.Equal(t, "identity", f.Name())

	f, err = fill.NewValueFill(types.Int32, plan.MustParseExpression("4294967296"))
	require.NoError(t, err)
	assert.Equal(t, "identity", f.Name())

	f, err = fill.NewValueFill(types.Float, plan.MustParseExpression("3"))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{float32(1), float32(3)}, f.Fill([]int64{1, 2}, []interface{}{float32(1), nil}))

	f, err = fill.NewValueFill(types.Text, plan.MustParseExpression("'n/a'"))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"n/a"}, f.Fill([]int64{1}, []interface{}{nil}))
}

func TestPreviousFill(t *testing.T) {
	f, err := fill.NewPreviousFill(types.Int64, fill.NewFixedIntervalFilter(10))
	require.NoError(t, err)
	out := f.Fill([]int64{1, 5, 20}, []interface{}{int64(3), nil, nil})
	assert.Equal(t, []interface{}{int64(3), int64(3), nil}, out)

	// the previous value survives the batch boundary
	out = f.Fill([]int64{21, 30}, []interface{}{nil, int64(4)})
	assert.Equal(t, []interface{}{nil, int64(4)}, out)
	out = f.Fill([]int64{35}, []interface{}{nil})
	assert.Equal(t, []interface{}{int64(4)}, out)
}

func TestLinearFill(t *testing.T) {
	f, err := fill.NewLinearFill(types.Int32)
	require.NoError(t, err)
	out := f.Fill([]int64{0, 1, 2, 4, 5}, []interface{}{int32(0), nil, nil, int32(8), nil})
	assert.Equal(t, []interface{}{int32(0), int32(2), int32(4), int32(8), nil}, out)

	f, err = fill.NewLinearFill(types.Double)
	require.NoError(t, err)
	out = f.Fill([]int64{0, 1}, []interface{}{nil, 1.0})
	assert.Equal(t, []interface{}{nil, 1.0}, out)
	out = f.Fill([]int64{2, 3}, []interface{}{nil, 3.0})
	assert.Equal(t, []interface{}{2.0, 3.0}, out)
}

func TestPreviousFillFilter(t *testing.T) {
	none := fill.NewFilter(nil, timerange.Millisecond, time.UTC)
	assert.True(t, none.NeedFill(1<<40, 0))

	day := int64(24 * time.Hour / time.Millisecond)
	fixed := fill.NewFilter(&timerange.TimeDuration{NonMonthDuration: 30 * day}, timerange.Millisecond, time.UTC)
	require.IsType(t, &fill.FixedIntervalFilter{}, fixed)

	month := fill.NewFilter(&timerange.TimeDuration{MonthDuration: 1}, timerange.Millisecond, time.UTC)
	require.IsType(t, &fill.MonthIntervalMSFilter{}, month)

	// February 2024 has 29 days, one month is shorter than 30 days here
	prev := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	assert.True(t, fixed.NeedFill(ts, prev))
	assert.False(t, month.NeedFill(ts, prev))
	assert.True(t, month.NeedFill(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), prev))
}

func TestMonthFilterTimeZone(t *testing.T) {
	threshold := &timerange.TimeDuration{MonthDuration: 1}
	east := time.FixedZone("UTC+8", 8*3600)
	// Jan 31 in UTC+8 is still Jan 30 in UTC
	prev := time.Date(2024, 1, 31, 0, 0, 0, 0, east)
	ts := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	for _, p := range []timerange.Precision{timerange.Millisecond, timerange.Microsecond, timerange.Nanosecond} {
		utc := fill.NewFilter(threshold, p, time.UTC)
		local := fill.NewFilter(threshold, p, east)
		assert.True(t, utc.NeedFill(p.FromTime(ts), p.FromTime(prev)), p.String())
		assert.False(t, local.NeedFill(p.FromTime(ts), p.FromTime(prev)), p.String())
	}
	assert.IsType(t, &fill.MonthIntervalUSFilter{}, fill.NewFilter(threshold, timerange.Microsecond, east))
	assert.IsType(t, &fill.MonthIntervalNSFilter{}, fill.NewFilter(threshold, timerange.Nanosecond, east))
}
