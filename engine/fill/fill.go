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

package fill

import (
	"math"

	"github.com/influxdata/influxql"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// Fill synthesizes values for the nulls of one column. Values are boxed the
// way the aggregation package boxes them, nil is null.
type Fill interface {
	// Fill returns the filled column, times are the times of the rows.
	Fill(times []int64, values []interface{}) []interface{}
	Name() string
}

func supported(dt types.DataType) bool {
	switch dt {
	case types.Boolean, types.Text, types.Int32, types.Int64, types.Float, types.Double:
		return true
	}
	return false
}

func unknownType(dt types.DataType) error {
	return errno.NewError(errno.UnknownDataType, dt.String())
}

// IdentityFill leaves the column untouched.
type IdentityFill struct{}

func (IdentityFill) Fill(_ []int64, values []interface{}) []interface{} { return values }
func (IdentityFill) Name() string                                       { return "identity" }

// ValueFill replaces every null by one constant of the column type.
type ValueFill struct {
	dataType types.DataType
	value    interface{}
}

// NewValueFill converts literal to dt. A literal that can not represent a
// value of dt gives an IdentityFill.
func NewValueFill(dt types.DataType, literal plan.Expression) (Fill, error) {
	if !supported(dt) {
		return nil, unknownType(dt)
	}
	v, ok := convertLiteral(literal.Expr, dt)
	if !ok {
		return IdentityFill{}, nil
	}
	return &ValueFill{dataType: dt, value: v}, nil
}

func (f *ValueFill) Fill(_ []int64, values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if v == nil {
			v = f.value
		}
		out[i] = v
	}
	return out
}

func (f *ValueFill) Name() string { return f.dataType.String() + " value" }

func (f *ValueFill) Value() interface{} { return f.value }

func convertLiteral(expr influxql.Expr, dt types.DataType) (interface{}, bool) {
	switch lit := expr.(type) {
	case *influxql.ParenExpr:
		return convertLiteral(lit.Expr, dt)
	case *influxql.IntegerLiteral:
		switch dt {
		case types.Int32:
			if lit.Val < math.MinInt32 || lit.Val > math.MaxInt32 {
				return nil, false
			}
			return int32(lit.Val), true
		case types.Int64:
			return lit.Val, true
		case types.Float:
			return float32(lit.Val), true
		case types.Double:
			return float64(lit.Val), true
		case types.Text:
			return lit.String(), true
		}
	case *influxql.NumberLiteral:
		switch dt {
		case types.Float:
			return float32(lit.Val), true
		case types.Double:
			return lit.Val, true
		case types.Text:
			return lit.String(), true
		}
	case *influxql.BooleanLiteral:
		switch dt {
		case types.Boolean:
			return lit.Val, true
		case types.Text:
			return lit.String(), true
		}
	case *influxql.StringLiteral:
		if dt == types.Text {
			return lit.Val, true
		}
	}
	return nil, false
}
