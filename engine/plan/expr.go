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

package plan

import (
	"strings"

	"github.com/influxdata/influxql"
)

// TimestampName is the reserved column name of the implicit time column.
const TimestampName = "time"

// Expression is an influxql expression that marshals as its text form.
type Expression struct {
	influxql.Expr
}

func NewExpression(expr influxql.Expr) Expression {
	return Expression{Expr: expr}
}

func ParseExpression(s string) (Expression, error) {
	expr, err := influxql.ParseExpr(s)
	if err != nil {
		return Expression{}, err
	}
	return Expression{Expr: expr}, nil
}

func MustParseExpression(s string) Expression {
	e, err := ParseExpression(s)
	if err != nil {
		panic(err)
	}
	return e
}

// Column is the expression reading the column called name.
func Column(name string) Expression {
	return Expression{Expr: &influxql.VarRef{Val: name}}
}

func Timestamp() Expression {
	return Column(TimestampName)
}

func (e Expression) IsNil() bool {
	return e.Expr == nil
}

// Name is the column name the expression is stored under. References use
// their raw name, everything else its canonical text.
func (e Expression) Name() string {
	if e.Expr == nil {
		return ""
	}
	return ExprName(e.Expr)
}

func ExprName(expr influxql.Expr) string {
	switch v := expr.(type) {
	case *influxql.VarRef:
		return v.Val
	case *influxql.ParenExpr:
		return ExprName(v.Expr)
	case *influxql.Call:
		args := make([]string, len(v.Args))
		for i := range v.Args {
			args[i] = ExprName(v.Args[i])
		}
		return v.Name + "(" + strings.Join(args, ", ") + ")"
	case *influxql.BinaryExpr:
		return ExprName(v.LHS) + " " + v.Op.String() + " " + ExprName(v.RHS)
	}
	return expr.String()
}

// IsTimestamp reports whether expr is the time operand.
func (e Expression) IsTimestamp() bool {
	ref, ok := e.Expr.(*influxql.VarRef)
	return ok && strings.EqualFold(ref.Val, TimestampName)
}

// IsColumn reports whether expr is a plain reference to a value column.
func (e Expression) IsColumn() bool {
	_, ok := e.Expr.(*influxql.VarRef)
	return ok && !e.IsTimestamp()
}

func (e Expression) MarshalText() ([]byte, error) {
	if e.Expr == nil {
		return []byte{}, nil
	}
	return []byte(e.Expr.String()), nil
}

func (e *Expression) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		e.Expr = nil
		return nil
	}
	expr, err := influxql.ParseExpr(string(b))
	if err != nil {
		return err
	}
	e.Expr = expr
	return nil
}

func ExpressionNames(exprs []Expression) []string {
	names := make([]string, len(exprs))
	for i := range exprs {
		names[i] = exprs[i].Name()
	}
	return names
}
