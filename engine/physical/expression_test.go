// Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
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
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// row returns the values of s1 and s2 of intoSource.
func row(s1, s2 interface{}) func(types.InputLocation) interface{} {
	return func(loc types.InputLocation) interface{} {
		switch loc.ValueColumnIndex {
		case 0:
			return s1
		case 1:
			return s2
		}
		return nil
	}
}

func projections(t *testing.T, outputs ...string) []physical.Transformer {
	e := newEnv(t, 1)
	res := e.plan(t, plan.NewTransformNode("20", exprs(outputs...), intoSource()), 1)
	switch op := res.Root.(type) {
	case *physical.TransformOperator:
		return op.Projections
	case *physical.FilterAndProjectOperator:
		return op.Projections
	}
	t.Fatalf("unexpected root %s", res.Root.Name())
	return nil
}

func TestEvaluateMappable(t *testing.T) {
	cases := []struct {
		expr string
		want interface{}
	}{
		{`"root.sg.d1.s1" + "root.sg.d1.s2"`, 5.5},
		{`"root.sg.d1.s2" % 2`, 1.0},
		{`"root.sg.d1.s1" / 0`, nil},
		{`abs("root.sg.d1.s1" - 10)`, 7.5},
		{`"root.sg.d1.s1" > "root.sg.d1.s2"`, false},
		{`"root.sg.d1.s1" >= 2.5 AND "root.sg.d1.s2" = 3`, true},
		{`("root.sg.d1.s1" > 1) != true`, false},
		{`time`, int64(42)},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			ts := projections(t, c.expr)
			require.Len(t, ts, 1)
			assert.True(t, ts[0].Mappable())
			assert.Equal(t, c.want, ts[0].Evaluate(42, row(2.5, int32(3))))
		})
	}

	ts := projections(t, `"root.sg.d1.s1" * 2`)
	assert.Nil(t, ts[0].Evaluate(1, row(nil, int32(3))))
}

func TestEvaluateStateful(t *testing.T) {
	times := []int64{10, 20, 30}
	values := []float64{1, 4, 2}
	cases := []struct {
		expr string
		want []interface{}
	}{
		{`difference("root.sg.d1.s1")`, []interface{}{nil, 3.0, -2.0}},
		{`non_negative_difference("root.sg.d1.s1")`, []interface{}{nil, 3.0, nil}},
		{`cumulative_sum("root.sg.d1.s1")`, []interface{}{1.0, 5.0, 7.0}},
		{`moving_average("root.sg.d1.s1", 2)`, []interface{}{nil, 2.5, 3.0}},
		{`derivative("root.sg.d1.s1")`, []interface{}{nil, 0.3, -0.2}},
		{`elapsed("root.sg.d1.s1")`, []interface{}{nil, int64(10), int64(10)}},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			ts := projections(t, c.expr)
			require.Len(t, ts, 1)
			assert.False(t, ts[0].Mappable())
			got := make([]interface{}, len(times))
			for i := range times {
				got[i] = ts[0].Evaluate(times[i], row(values[i], nil))
			}
			assert.Equal(t, c.want, got)
		})
	}
}

func TestStatefulSubExpressionsEvaluateOncePerRow(t *testing.T) {
	ts := projections(t, `difference("root.sg.d1.s1")`, `difference("root.sg.d1.s1") * 2`,
		`difference("root.sg.d1.s1")`)
	require.Len(t, ts, 3)
	assert.NotSame(t, ts[0], ts[2])

	var got [][]interface{}
	for i, v := range []float64{1, 4, 10} {
		out := make([]interface{}, len(ts))
		for j, p := range ts {
			out[j] = p.Evaluate(int64(i), row(v, nil))
		}
		got = append(got, out)
	}
	assert.Equal(t, [][]interface{}{
		{nil, nil, nil},
		{3.0, 6.0, 3.0},
		{6.0, 12.0, 6.0},
	}, got)
}

func TestOrderedBooleanComparisonIsRejected(t *testing.T) {
	e := newEnv(t, 1)
	for _, expr := range []string{`("root.sg.d1.s1" > 1) < true`, `("root.sg.d1.s1" > 1) >= false`} {
		t.Run(expr, func(t *testing.T) {
			_, err := e.planner.Plan(newFragment(plan.NewTransformNode("20", exprs(expr), intoSource())), 1)
			require.Error(t, err)
			assert.True(t, errno.Equal(err, errno.ExpressionCompileFail), err.Error())
			assert.Contains(t, err.Error(), "BOOLEAN only supports = and !=")
		})
	}
}
