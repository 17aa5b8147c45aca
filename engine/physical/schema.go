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
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/lib/errno"
)

// SchemaScanOperator reads metadata of the local schema region.
type SchemaScanOperator struct {
	BaseOperator
	Scope         plan.SchemaScanKind
	PathPatterns  []string
	PrefixPath    bool
	Limit         int64
	Offset        int64
	Level         int
	HasSgCol      bool
	SchemaFilter  string
	TemplateID    int
	WithTags      bool
	WithTemplate  bool
	OutputColumns []string
}

func (op *SchemaScanOperator) Explain() []ValuePair {
	pairs := []ValuePair{
		{First: "scope", Second: op.Scope.String()},
		{First: "patterns", Second: op.PathPatterns},
	}
	if op.Limit > 0 {
		pairs = append(pairs, ValuePair{First: "limit", Second: op.Limit})
	}
	return pairs
}

func schemaScanKind(scope plan.SchemaScanKind) (string, bool) {
	switch scope {
	case plan.SchemaTimeSeries, plan.SchemaDevices, plan.SchemaPathsUsingTemplate, plan.SchemaLogicalView:
		return KindSchemaQueryScan, true
	case plan.SchemaDevicesCount, plan.SchemaTimeSeriesCount:
		return KindSchemaCount, true
	case plan.SchemaLevelTimeSeriesCount:
		return KindLevelTimeSeriesCount, true
	case plan.SchemaNodePaths:
		return KindNodePathsSchemaScan, true
	case plan.SchemaFetch:
		return KindSchemaFetchScan, true
	}
	return "", false
}

func (b *Builder) buildSchemaScan(n *plan.SchemaScanNode, ctx *BuildContext) (Operator, error) {
	kind, ok := schemaScanKind(n.Scope)
	if !ok {
		return nil, errno.NewError(errno.UnsupportedSchemaScan, n.Scope.String())
	}
	opCtx := ctx.addOperatorContext(n.ID(), kind)
	patterns := n.PathPatterns
	if len(patterns) == 0 && n.PathPattern != "" {
		patterns = []string{n.PathPattern}
	}
	ctx.pipeline.InputDriver = true
	return &SchemaScanOperator{
		BaseOperator:  newBaseOperator(opCtx),
		Scope:         n.Scope,
		PathPatterns:  patterns,
		PrefixPath:    n.PrefixPath,
		Limit:         n.Limit,
		Offset:        n.Offset,
		Level:         n.Level,
		HasSgCol:      n.HasSgCol,
		SchemaFilter:  n.SchemaFilter,
		TemplateID:    n.TemplateID,
		WithTags:      n.WithTags,
		WithTemplate:  n.WithTemplate,
		OutputColumns: n.OutputColumns,
	}, nil
}

// SchemaMergeOperator unions the rows of its children. Data holds rows known
// before reading any child, StorageGroups the databases a fetch covers.
type SchemaMergeOperator struct {
	BaseOperator
	Data          []string
	StorageGroups []string
}

func (op *SchemaMergeOperator) Explain() []ValuePair {
	var pairs []ValuePair
	if len(op.StorageGroups) > 0 {
		pairs = append(pairs, ValuePair{First: "storage groups", Second: op.StorageGroups})
	}
	if len(op.Data) > 0 {
		pairs = append(pairs, ValuePair{First: "memory rows", Second: len(op.Data)})
	}
	return pairs
}

func (b *Builder) buildSchemaQueryMerge(n *plan.SchemaQueryMergeNode, ctx *BuildContext) (Operator, error) {
	children, err := b.consumeChildrenOneByOne(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindSchemaQueryMerge)
	return &SchemaMergeOperator{BaseOperator: newBaseOperator(opCtx, children...)}, nil
}

func (b *Builder) buildSchemaFetchMerge(n *plan.SchemaFetchMergeNode, ctx *BuildContext) (Operator, error) {
	children, err := b.consumeChildrenOneByOne(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindSchemaFetchMerge)
	return &SchemaMergeOperator{
		BaseOperator:  newBaseOperator(opCtx, children...),
		StorageGroups: n.StorageGroups,
	}, nil
}

func (b *Builder) buildCountMerge(n *plan.CountMergeNode, ctx *BuildContext) (Operator, error) {
	children, err := b.consumeChildrenOneByOne(n, ctx)
	if err != nil {
		return nil, err
	}
	kind := KindCountMerge
	if n.ByLevel() {
		kind = KindCountGroupByLevelMerge
	}
	opCtx := ctx.addOperatorContext(n.ID(), kind)
	return &SchemaMergeOperator{BaseOperator: newBaseOperator(opCtx, children...)}, nil
}

func (b *Builder) buildNodeManagementMemoryMerge(n *plan.NodeManagementMemoryMergeNode, ctx *BuildContext) (Operator, error) {
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindNodeManageMemoryMerge)
	return &SchemaMergeOperator{
		BaseOperator: newBaseOperator(opCtx, child),
		Data:         n.Data,
	}, nil
}

// buildSingleChildSchema builds the schema nodes rewriting the rows of one
// child: path conversion and path counting.
func (b *Builder) buildSingleChildSchema(n plan.Node, kind string, ctx *BuildContext) (Operator, error) {
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), kind)
	return &SchemaMergeOperator{BaseOperator: newBaseOperator(opCtx, child)}, nil
}

func (b *Builder) buildSchemaQueryOrderByHeat(n *plan.SchemaQueryOrderByHeatNode, ctx *BuildContext) (Operator, error) {
	children, err := b.buildInline(n.Children(), ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindSchemaQueryOrderByHeat)
	return &SchemaMergeOperator{BaseOperator: newBaseOperator(opCtx, children...)}, nil
}
