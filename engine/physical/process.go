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
	"github.com/openGemini/ts-planner/engine/fill"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

type FillOperator struct {
	BaseOperator
	Fills []fill.Fill
}

func (op *FillOperator) Explain() []ValuePair {
	names := make([]string, len(op.Fills))
	for i, f := range op.Fills {
		names[i] = f.Name()
	}
	return []ValuePair{{First: "fills", Second: names}}
}

func (b *Builder) buildFill(n *plan.FillNode, ctx *BuildContext) (Operator, error) {
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	frag := ctx.frag
	dataTypes := frag.typesOf(n.Child().OutputColumnNames())
	kind := KindFill
	if n.Descriptor.Policy == plan.FillLinear {
		kind = KindLinearFill
	}
	fills, err := fill.NewFills(n.Descriptor, dataTypes, frag.precision, frag.loc)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), kind)
	return &FillOperator{BaseOperator: newBaseOperator(opCtx, child), Fills: fills}, nil
}

// FilterAndProjectOperator drops the rows failing Predicate and evaluates
// Projections over the others. Without projections the input columns pass
// through, a TransformOperator above computes them.
type FilterAndProjectOperator struct {
	BaseOperator
	InputTypes  []types.DataType
	Predicate   Transformer
	Projections []Transformer
	PassThrough bool
}

func (op *FilterAndProjectOperator) Explain() []ValuePair {
	var pairs []ValuePair
	if op.Predicate != nil {
		pairs = append(pairs, ValuePair{First: "predicate", Second: op.Predicate.Name()})
	}
	if !op.PassThrough {
		pairs = append(pairs, ValuePair{First: "projections", Second: transformerNames(op.Projections)})
	}
	return pairs
}

// TransformOperator evaluates projections holding stateful functions.
type TransformOperator struct {
	BaseOperator
	InputTypes  []types.DataType
	Projections []Transformer
	KeepNull    bool
	Ascending   bool
}

func (op *TransformOperator) Explain() []ValuePair {
	return []ValuePair{{First: "projections", Second: transformerNames(op.Projections)}}
}

func transformerNames(ts []Transformer) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name()
	}
	return names
}

func (b *Builder) buildFilter(n *plan.FilterNode, ctx *BuildContext) (Operator, error) {
	frag := ctx.frag
	if frag.templated != nil && frag.templated.Predicate != nil {
		return b.buildTemplatedFilter(n, ctx)
	}
	compiler := newExprCompiler(MakeLayout(n), frag.typeOf)
	predicate, err := compilePredicate(compiler, n, n.Predicate)
	if err != nil {
		return nil, err
	}
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	inputTypes := frag.typesOf(plan.ChildrenOutputColumnNames(n))
	opCtx := ctx.addOperatorContext(n.ID(), KindFilterAndProject)
	projections, err := compileExpressions(compiler, n, n.OutputExpressions)
	if err != nil {
		return nil, err
	}
	return b.filterAndProject(n, ctx, opCtx, child, inputTypes, predicate, projections), nil
}

// buildTemplatedFilter builds the filter of one device of a templated align
// by device query. Every device shares the layout and types of the template.
func (b *Builder) buildTemplatedFilter(n *plan.FilterNode, ctx *BuildContext) (Operator, error) {
	frag := ctx.frag
	tmpl := frag.templated
	compiler := newExprCompiler(frag.templatedLayout(), frag.typeOf)
	predicateExpr := n.Predicate
	if predicateExpr.IsNil() {
		predicateExpr = *tmpl.Predicate
	}
	predicate, err := compilePredicate(compiler, n, predicateExpr)
	if err != nil {
		return nil, err
	}
	exprs := tmpl.ProjectExpressions
	if len(exprs) == 0 {
		exprs = make([]plan.Expression, len(tmpl.Measurements))
		for i, m := range tmpl.Measurements {
			exprs[i] = plan.Column(m)
		}
	}
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindFilterAndProject)
	projections, err := compileExpressions(compiler, n, exprs)
	if err != nil {
		return nil, err
	}
	return b.filterAndProject(n, ctx, opCtx, child, tmpl.DataTypes, predicate, projections), nil
}

func compilePredicate(c *exprCompiler, n plan.Node, expr plan.Expression) (Transformer, error) {
	ts, err := compileExpressions(c, n, []plan.Expression{expr})
	if err != nil {
		return nil, err
	}
	if ts[0].DataType() != types.Boolean {
		return nil, errno.NewError(errno.TypeMismatch, plan.String(n), "predicate "+expr.Name()+" is not BOOLEAN")
	}
	if !ts[0].Mappable() {
		return nil, errno.NewError(errno.UnsupportedExpression, expr.Name(), "Filter can not contain Non-Mappable UDF")
	}
	return ts[0], nil
}

func (b *Builder) filterAndProject(n *plan.FilterNode, ctx *BuildContext, opCtx *OperatorContext, child Operator,
	inputTypes []types.DataType, predicate Transformer, projections []Transformer) Operator {
	mappable := allMappable(projections)
	filter := &FilterAndProjectOperator{
		BaseOperator: newBaseOperator(opCtx, child),
		InputTypes:   inputTypes,
		Predicate:    predicate,
		PassThrough:  !mappable,
	}
	if mappable {
		filter.Projections = projections
		return filter
	}
	transformCtx := ctx.addOperatorContext(n.ID(), KindTransform)
	return &TransformOperator{
		BaseOperator: newBaseOperator(transformCtx, filter),
		InputTypes:   inputTypes,
		Projections:  projections,
		KeepNull:     n.KeepNull,
		Ascending:    n.ScanOrder.IsAscending(),
	}
}

func (b *Builder) buildTransform(n *plan.TransformNode, ctx *BuildContext) (Operator, error) {
	frag := ctx.frag
	compiler := newExprCompiler(MakeLayout(n), frag.typeOf)
	projections, err := compileExpressions(compiler, n, n.OutputExpressions)
	if err != nil {
		return nil, err
	}
	if allMappable(projections) {
		opCtx := ctx.addOperatorContext(n.ID(), KindFilterAndProject)
		child, err := b.buildOnlyChild(n, ctx)
		if err != nil {
			return nil, err
		}
		return &FilterAndProjectOperator{
			BaseOperator: newBaseOperator(opCtx, child),
			InputTypes:   frag.typesOf(plan.ChildrenOutputColumnNames(n)),
			Projections:  projections,
		}, nil
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindTransform)
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	return &TransformOperator{
		BaseOperator: newBaseOperator(opCtx, child),
		InputTypes:   frag.typesOf(plan.ChildrenOutputColumnNames(n)),
		Projections:  projections,
		KeepNull:     n.KeepNull,
		Ascending:    n.ScanOrder.IsAscending(),
	}, nil
}

// LimitOperator passes at most Limit rows, OffsetOperator skips the first
// Offset rows.
type LimitOperator struct {
	BaseOperator
	Limit int64
}

func (op *LimitOperator) Explain() []ValuePair {
	return []ValuePair{{First: "limit", Second: op.Limit}}
}

type OffsetOperator struct {
	BaseOperator
	Offset int64
}

func (op *OffsetOperator) Explain() []ValuePair {
	return []ValuePair{{First: "offset", Second: op.Offset}}
}

func (b *Builder) buildLimit(n *plan.LimitNode, ctx *BuildContext) (Operator, error) {
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindLimit)
	return &LimitOperator{BaseOperator: newBaseOperator(opCtx, child), Limit: n.Limit}, nil
}

func (b *Builder) buildOffset(n *plan.OffsetNode, ctx *BuildContext) (Operator, error) {
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindOffset)
	return &OffsetOperator{BaseOperator: newBaseOperator(opCtx, child), Offset: n.Offset}, nil
}

// SlidingTimeColumnGenerator produces the end time of the window each row
// belongs to.
type SlidingTimeColumnGenerator struct {
	TimeRanges timerange.Iterator
}

// ColumnInjectOperator inserts generated columns at TargetIndex.
type ColumnInjectOperator struct {
	BaseOperator
	Generator          *SlidingTimeColumnGenerator
	TargetIndex        int
	MaxExtraColumnSize int64
}

func (op *ColumnInjectOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "target index", Second: op.TargetIndex},
		{First: "windows", Second: op.Generator.TimeRanges.TotalTimeRangeCount()},
	}
}

func (b *Builder) buildColumnInject(n *plan.ColumnInjectNode, ctx *BuildContext) (Operator, error) {
	opCtx := ctx.addOperatorContext(n.ID(), KindColumnInject)
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	frag := ctx.frag
	param := n.Generator
	if param.Type != plan.SlidingTimeGenerator {
		return nil, errno.NewError(errno.InvalidPlan, "unsupported column generator of "+plan.String(n))
	}
	generator := &SlidingTimeColumnGenerator{
		TimeRanges: frag.timeRangeIterator(param.GroupByTime, param.Ascending, false),
	}
	var extra int64
	for _, dt := range n.GeneratedTypes {
		size, err := frag.columnSize(dt)
		if err != nil {
			return nil, err
		}
		extra += size
	}
	extra *= MaxLinesPerBatch
	op := &ColumnInjectOperator{
		BaseOperator:       newBaseOperator(opCtx, child),
		Generator:          generator,
		TargetIndex:        n.TargetIndex,
		MaxExtraColumnSize: extra,
	}
	op.maxReturnSize = child.MaxReturnSize() + extra
	return op, nil
}

type HorizontallyConcatOperator struct {
	BaseOperator
	DataTypes []types.DataType
}

func (b *Builder) buildHorizontallyConcat(n *plan.HorizontallyConcatNode, ctx *BuildContext) (Operator, error) {
	children, _, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindHorizontallyConcat)
	return &HorizontallyConcatOperator{
		BaseOperator: newBaseOperator(opCtx, children...),
		DataTypes:    ctx.frag.typesOf(n.OutputColumnNames()),
	}, nil
}
