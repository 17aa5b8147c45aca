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
	"github.com/openGemini/ts-planner/engine/join"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// FullOuterTimeJoinOperator outputs every time of any child. Each output
// column is filled by the merger of the child columns carrying its name.
type FullOuterTimeJoinOperator struct {
	BaseOperator
	DataTypes  []types.DataType
	Comparator join.TimeComparator
	Mergers    []join.ColumnMerger
}

func (op *FullOuterTimeJoinOperator) Explain() []ValuePair {
	names := make([]string, len(op.Mergers))
	for i, m := range op.Mergers {
		names[i] = m.Name()
	}
	return []ValuePair{
		{First: "ascending", Second: op.Comparator.Ascending()},
		{First: "mergers", Second: names},
	}
}

func (b *Builder) buildFullOuterTimeJoin(n *plan.FullOuterTimeJoinNode, ctx *BuildContext) (Operator, error) {
	children, rebuilt, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindFullOuterTimeJoin)
	joined := rebuilt.(*plan.FullOuterTimeJoinNode)
	layout := MakeLayout(joined)
	cmp := join.NewTimeComparator(n.MergeOrder.IsAscending())
	outputs := joined.OutputColumnNames()
	mergers := make([]join.ColumnMerger, 0, len(outputs))
	for _, name := range outputs {
		locs, ok := layout.Get(name)
		if !ok {
			return nil, errno.NewError(errno.UnknownColumn, name)
		}
		mergers = append(mergers, join.NewColumnMerger(locs, joined.TimeRanges, cmp))
	}
	return &FullOuterTimeJoinOperator{
		BaseOperator: newBaseOperator(opCtx, children...),
		DataTypes:    ctx.frag.typesOf(outputs),
		Comparator:   cmp,
		Mergers:      mergers,
	}, nil
}

// InnerTimeJoinOperator outputs only the times present in every child.
type InnerTimeJoinOperator struct {
	BaseOperator
	DataTypes       []types.DataType
	Comparator      join.TimeComparator
	OutputColumnMap map[types.InputLocation]int
}

func (op *InnerTimeJoinOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "ascending", Second: op.Comparator.Ascending()},
		{First: "columns", Second: len(op.OutputColumnMap)},
	}
}

func (b *Builder) buildInnerTimeJoin(n *plan.InnerTimeJoinNode, ctx *BuildContext) (Operator, error) {
	children, rebuilt, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindInnerTimeJoin)
	childColumns := make([][]string, 0, len(rebuilt.Children()))
	for _, child := range rebuilt.Children() {
		childColumns = append(childColumns, child.OutputColumnNames())
	}
	return &InnerTimeJoinOperator{
		BaseOperator:    newBaseOperator(opCtx, children...),
		DataTypes:       ctx.frag.typesOf(rebuilt.OutputColumnNames()),
		Comparator:      join.NewTimeComparator(n.MergeOrder.IsAscending()),
		OutputColumnMap: join.InnerJoinOutputColumnMap(childColumns, n.OutputColumns, MakeLayout(rebuilt)),
	}, nil
}

// LeftOuterTimeJoinOperator keeps every time of the left child.
type LeftOuterTimeJoinOperator struct {
	BaseOperator
	DataTypes       []types.DataType
	Comparator      join.TimeComparator
	LeftColumnCount int
}

func (op *LeftOuterTimeJoinOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "ascending", Second: op.Comparator.Ascending()},
		{First: "left columns", Second: op.LeftColumnCount},
	}
}

func (b *Builder) buildLeftOuterTimeJoin(n *plan.LeftOuterTimeJoinNode, ctx *BuildContext) (Operator, error) {
	children, rebuilt, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	if len(children) != 2 {
		return nil, errno.NewError(errno.InvalidChildCount, plan.String(n), "2", len(children))
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindLeftOuterTimeJoin)
	return &LeftOuterTimeJoinOperator{
		BaseOperator:    newBaseOperator(opCtx, children...),
		DataTypes:       ctx.frag.typesOf(n.OutputColumnNames()),
		Comparator:      join.NewTimeComparator(n.MergeOrder.IsAscending()),
		LeftColumnCount: len(rebuilt.Children()[0].OutputColumnNames()),
	}, nil
}
