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

package physical

import (
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/influxdata/influxql"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// Transformer evaluates one expression row by row. Values are boxed the way
// batches box them, nil is null.
type Transformer interface {
	Name() string
	DataType() types.DataType
	// Mappable reports whether the output of a row depends on that row only.
	Mappable() bool
	Evaluate(ts int64, value func(types.InputLocation) interface{}) interface{}
}

var mathFunctions = map[string]func(float64) float64{
	"abs":   math.Abs,
	"ceil":  math.Ceil,
	"floor": math.Floor,
	"round": math.Round,
	"sqrt":  math.Sqrt,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"ln":    math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
}

// stateful functions, their output depends on the rows before
var statefulFunctions = map[string]types.DataType{
	"difference":              types.Double,
	"non_negative_difference": types.Double,
	"derivative":              types.Double,
	"non_negative_derivative": types.Double,
	"moving_average":          types.Double,
	"cumulative_sum":          types.Double,
	"elapsed":                 types.Int64,
	"diff":                    types.Double,
}

// exprCompiler turns influxql expressions into transformers. Mappable sub
// expressions with the same text share one transformer, a stateful one is
// built for every reference since each evaluation advances its state.
type exprCompiler struct {
	layout *types.Layout
	typeOf func(string) (types.DataType, bool)
	cache  map[uint64][]Transformer
}

func newExprCompiler(layout *types.Layout, typeOf func(string) (types.DataType, bool)) *exprCompiler {
	return &exprCompiler{layout: layout, typeOf: typeOf, cache: make(map[uint64][]Transformer)}
}

func (c *exprCompiler) compile(expr influxql.Expr) (Transformer, error) {
	name := plan.ExprName(expr)
	key := xxhash.Sum64String(name)
	for _, t := range c.cache[key] {
		if t.Name() == name {
			return t, nil
		}
	}
	t, err := c.build(expr, name)
	if err != nil {
		return nil, err
	}
	if t.Mappable() {
		c.cache[key] = append(c.cache[key], t)
	}
	return t, nil
}

func (c *exprCompiler) build(expr influxql.Expr, name string) (Transformer, error) {
	switch e := expr.(type) {
	case *influxql.ParenExpr:
		return c.compile(e.Expr)
	case *influxql.VarRef:
		if strings.EqualFold(e.Val, plan.TimestampName) {
			return &timeTransformer{}, nil
		}
		loc, ok := c.layout.First(e.Val)
		if !ok {
			return nil, errno.NewError(errno.UnknownColumn, e.Val)
		}
		dt, ok := c.typeOf(e.Val)
		if !ok {
			return nil, errno.NewError(errno.UnknownColumn, e.Val)
		}
		return &columnTransformer{name: name, loc: loc, dataType: dt}, nil
	case *influxql.IntegerLiteral:
		return &constantTransformer{name: name, value: e.Val, dataType: types.Int64}, nil
	case *influxql.NumberLiteral:
		return &constantTransformer{name: name, value: e.Val, dataType: types.Double}, nil
	case *influxql.StringLiteral:
		return &constantTransformer{name: name, value: e.Val, dataType: types.Text}, nil
	case *influxql.BooleanLiteral:
		return &constantTransformer{name: name, value: e.Val, dataType: types.Boolean}, nil
	case *influxql.BinaryExpr:
		return c.buildBinary(e, name)
	case *influxql.Call:
		return c.buildCall(e, name)
	}
	return nil, errno.NewError(errno.UnsupportedExpression, name, "expression kind")
}

func (c *exprCompiler) buildBinary(e *influxql.BinaryExpr, name string) (Transformer, error) {
	left, err := c.compile(e.LHS)
	if err != nil {
		return nil, err
	}
	right, err := c.compile(e.RHS)
	if err != nil {
		return nil, err
	}
	base := binaryTransformer{name: name, op: e.Op, left: left, right: right}
	switch e.Op {
	case influxql.ADD, influxql.SUB, influxql.MUL, influxql.DIV, influxql.MOD:
		if !left.DataType().IsNumeric() || !right.DataType().IsNumeric() {
			return nil, errno.NewError(errno.TypeMismatch, name, "arithmetic needs numeric operands")
		}
		return &arithmeticTransformer{base}, nil
	case influxql.EQ, influxql.NEQ, influxql.LT, influxql.LTE, influxql.GT, influxql.GTE:
		l, r := left.DataType(), right.DataType()
		if l != r && !(l.IsNumeric() && r.IsNumeric()) {
			return nil, errno.NewError(errno.TypeMismatch, name, "can not compare "+l.String()+" with "+r.String())
		}
		if l == types.Boolean && e.Op != influxql.EQ && e.Op != influxql.NEQ {
			return nil, errno.NewError(errno.TypeMismatch, name, "BOOLEAN only supports = and !=")
		}
		return &compareTransformer{base}, nil
	case influxql.AND, influxql.OR:
		if left.DataType() != types.Boolean || right.DataType() != types.Boolean {
			return nil, errno.NewError(errno.TypeMismatch, name, "logic operands must be BOOLEAN")
		}
		return &logicTransformer{base}, nil
	}
	return nil, errno.NewError(errno.UnsupportedExpression, name, "operator "+e.Op.String())
}

func (c *exprCompiler) buildCall(e *influxql.Call, name string) (Transformer, error) {
	fn := strings.ToLower(e.Name)
	if len(e.Args) == 0 {
		return nil, errno.NewError(errno.UnsupportedExpression, name, "function without arguments")
	}
	arg, err := c.compile(e.Args[0])
	if err != nil {
		return nil, err
	}
	if f, ok := mathFunctions[fn]; ok {
		if len(e.Args) != 1 || !arg.DataType().IsNumeric() {
			return nil, errno.NewError(errno.TypeMismatch, name, fn+" takes one numeric argument")
		}
		return &mathTransformer{name: name, fn: f, arg: arg}, nil
	}
	dt, ok := statefulFunctions[fn]
	if !ok {
		return nil, errno.NewError(errno.UnsupportedExpression, name, "unknown function "+e.Name)
	}
	if fn != "elapsed" && !arg.DataType().IsNumeric() {
		return nil, errno.NewError(errno.TypeMismatch, name, fn+" takes a numeric argument")
	}
	t := &statefulTransformer{name: name, fn: fn, arg: arg, dataType: dt, window: 1}
	if fn == "moving_average" {
		if len(e.Args) != 2 {
			return nil, errno.NewError(errno.UnsupportedExpression, name, "moving_average needs a window size")
		}
		n, ok := e.Args[1].(*influxql.IntegerLiteral)
		if !ok || n.Val < 1 {
			return nil, errno.NewError(errno.UnsupportedExpression, name, "moving_average window must be a positive integer")
		}
		t.window = int(n.Val)
	}
	return t, nil
}

// compileExpressions compiles exprs for node. Failures are raised as one
// compile error of node.
func compileExpressions(c *exprCompiler, node plan.Node, exprs []plan.Expression) ([]Transformer, error) {
	out := make([]Transformer, len(exprs))
	for i, expr := range exprs {
		if expr.IsNil() {
			return nil, errno.NewError(errno.ExpressionCompileFail, plan.String(node))
		}
		t, err := c.compile(expr.Expr)
		if err != nil {
			return nil, errno.Wrap(errors.Wrapf(err, "compile %s", expr.Name()), errno.ExpressionCompileFail, plan.String(node))
		}
		out[i] = t
	}
	return out, nil
}

func allMappable(ts []Transformer) bool {
	for _, t := range ts {
		if !t.Mappable() {
			return false
		}
	}
	return true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

type timeTransformer struct{}

func (t *timeTransformer) Name() string             { return plan.TimestampName }
func (t *timeTransformer) DataType() types.DataType { return types.Int64 }
func (t *timeTransformer) Mappable() bool           { return true }
func (t *timeTransformer) Evaluate(ts int64, _ func(types.InputLocation) interface{}) interface{} {
	return ts
}

type columnTransformer struct {
	name     string
	loc      types.InputLocation
	dataType types.DataType
}

func (t *columnTransformer) Name() string             { return t.name }
func (t *columnTransformer) DataType() types.DataType { return t.dataType }
func (t *columnTransformer) Mappable() bool           { return true }
func (t *columnTransformer) Evaluate(_ int64, value func(types.InputLocation) interface{}) interface{} {
	return value(t.loc)
}

type constantTransformer struct {
	name     string
	value    interface{}
	dataType types.DataType
}

func (t *constantTransformer) Name() string             { return t.name }
func (t *constantTransformer) DataType() types.DataType { return t.dataType }
func (t *constantTransformer) Mappable() bool           { return true }
func (t *constantTransformer) Evaluate(int64, func(types.InputLocation) interface{}) interface{} {
	return t.value
}

type binaryTransformer struct {
	name        string
	op          influxql.Token
	left, right Transformer
}

func (t *binaryTransformer) Name() string   { return t.name }
func (t *binaryTransformer) Mappable() bool { return t.left.Mappable() && t.right.Mappable() }

type arithmeticTransformer struct{ binaryTransformer }

func (t *arithmeticTransformer) DataType() types.DataType { return types.Double }

func (t *arithmeticTransformer) Evaluate(ts int64, value func(types.InputLocation) interface{}) interface{} {
	l, ok1 := toFloat(t.left.Evaluate(ts, value))
	r, ok2 := toFloat(t.right.Evaluate(ts, value))
	if !ok1 || !ok2 {
		return nil
	}
	switch t.op {
	case influxql.ADD:
		return l + r
	case influxql.SUB:
		return l - r
	case influxql.MUL:
		return l * r
	case influxql.DIV:
		if r == 0 {
			return nil
		}
		return l / r
	case influxql.MOD:
		if r == 0 {
			return nil
		}
		return math.Mod(l, r)
	}
	return nil
}

type compareTransformer struct{ binaryTransformer }

func (t *compareTransformer) DataType() types.DataType { return types.Boolean }

func (t *compareTransformer) Evaluate(ts int64, value func(types.InputLocation) interface{}) interface{} {
	lv, rv := t.left.Evaluate(ts, value), t.right.Evaluate(ts, value)
	if lv == nil || rv == nil {
		return nil
	}
	var cmp int
	if l, ok := toFloat(lv); ok {
		r, _ := toFloat(rv)
		switch {
		case l < r:
			cmp = -1
		case l > r:
			cmp = 1
		}
	} else if ls, ok := lv.(string); ok {
		cmp = strings.Compare(ls, rv.(string))
	} else {
		if lv.(bool) != rv.(bool) {
			cmp = 1
		}
	}
	switch t.op {
	case influxql.EQ:
		return cmp == 0
	case influxql.NEQ:
		return cmp != 0
	case influxql.LT:
		return cmp < 0
	case influxql.LTE:
		return cmp <= 0
	case influxql.GT:
		return cmp > 0
	case influxql.GTE:
		return cmp >= 0
	}
	return nil
}

type logicTransformer struct{ binaryTransformer }

func (t *logicTransformer) DataType() types.DataType { return types.Boolean }

func (t *logicTransformer) Evaluate(ts int64, value func(types.InputLocation) interface{}) interface{} {
	l, _ := t.left.Evaluate(ts, value).(bool)
	r, _ := t.right.Evaluate(ts, value).(bool)
	if t.op == influxql.AND {
		return l && r
	}
	return l || r
}

type mathTransformer struct {
	name string
	fn   func(float64) float64
	arg  Transformer
}

func (t *mathTransformer) Name() string             { return t.name }
func (t *mathTransformer) DataType() types.DataType { return types.Double }
func (t *mathTransformer) Mappable() bool           { return t.arg.Mappable() }
func (t *mathTransformer) Evaluate(ts int64, value func(types.InputLocation) interface{}) interface{} {
	v, ok := toFloat(t.arg.Evaluate(ts, value))
	if !ok {
		return nil
	}
	return t.fn(v)
}

// statefulTransformer computes a function of the current row and the rows
// before it. Rows must be evaluated in output order.
type statefulTransformer struct {
	name     string
	fn       string
	arg      Transformer
	dataType types.DataType
	window   int

	hasPrev  bool
	prevTime int64
	prev     float64
	sum      float64
	ring     []float64
}

func (t *statefulTransformer) Name() string             { return t.name }
func (t *statefulTransformer) DataType() types.DataType { return t.dataType }
func (t *statefulTransformer) Mappable() bool           { return false }

func (t *statefulTransformer) Evaluate(ts int64, value func(types.InputLocation) interface{}) interface{} {
	raw := t.arg.Evaluate(ts, value)
	if raw == nil {
		return nil
	}
	if t.fn == "elapsed" {
		defer func() { t.hasPrev, t.prevTime = true, ts }()
		if !t.hasPrev {
			return nil
		}
		return ts - t.prevTime
	}
	v, ok := toFloat(raw)
	if !ok {
		return nil
	}
	switch t.fn {
	case "cumulative_sum":
		t.sum += v
		return t.sum
	case "moving_average":
		t.ring = append(t.ring, v)
		t.sum += v
		if len(t.ring) > t.window {
			t.sum -= t.ring[0]
			t.ring = t.ring[1:]
		}
		if len(t.ring) < t.window {
			return nil
		}
		return t.sum / float64(t.window)
	}

	defer func() { t.hasPrev, t.prevTime, t.prev = true, ts, v }()
	if !t.hasPrev {
		return nil
	}
	var out float64
	switch t.fn {
	case "difference", "non_negative_difference", "diff":
		out = v - t.prev
	case "derivative", "non_negative_derivative":
		if ts == t.prevTime {
			return nil
		}
		out = (v - t.prev) / float64(ts-t.prevTime)
	}
	if strings.HasPrefix(t.fn, "non_negative") && out < 0 {
		return nil
	}
	return out
}
