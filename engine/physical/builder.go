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
	"github.com/openGemini/ts-planner/lib/logger"
)

// Builder turns plan nodes into operators. It keeps no state of its own,
// everything a build needs travels in the BuildContext.
type Builder struct {
	logger *logger.Logger
}

func NewBuilder() *Builder {
	return &Builder{logger: logger.NewLogger(errno.ModulePlanner)}
}

// Build returns the operator computing node inside the pipeline of ctx. A
// nil operator without error means the node produces nothing at run time.
func (b *Builder) Build(node plan.Node, ctx *BuildContext) (Operator, error) {
	switch n := node.(type) {
	case *plan.SeriesScanNode:
		return b.buildSeriesScan(n, ctx)
	case *plan.AlignedSeriesScanNode:
		return b.buildAlignedSeriesScan(n, ctx)
	case *plan.SeriesAggregationScanNode:
		return b.buildSeriesAggregationScan(n, ctx)
	case *plan.AlignedSeriesAggregationScanNode:
		return b.buildAlignedSeriesAggregationScan(n, ctx)
	case *plan.SchemaScanNode:
		return b.buildSchemaScan(n, ctx)
	case *plan.SchemaQueryMergeNode:
		return b.buildSchemaQueryMerge(n, ctx)
	case *plan.SchemaFetchMergeNode:
		return b.buildSchemaFetchMerge(n, ctx)
	case *plan.CountMergeNode:
		return b.buildCountMerge(n, ctx)
	case *plan.NodeManagementMemoryMergeNode:
		return b.buildNodeManagementMemoryMerge(n, ctx)
	case *plan.NodePathConvertNode:
		return b.buildSingleChildSchema(n, KindNodePathsConvert, ctx)
	case *plan.NodePathsCountNode:
		return b.buildSingleChildSchema(n, KindNodePathsCount, ctx)
	case *plan.SchemaQueryOrderByHeatNode:
		return b.buildSchemaQueryOrderByHeat(n, ctx)
	case *plan.SingleDeviceViewNode:
		return b.buildSingleDeviceView(n, ctx)
	case *plan.DeviceViewNode:
		return b.buildDeviceView(n, ctx)
	case *plan.MergeSortNode:
		return b.buildMergeSort(n, ctx)
	case *plan.TopKNode:
		return b.buildTopK(n, ctx)
	case *plan.SortNode:
		return b.buildSort(n, ctx)
	case *plan.FillNode:
		return b.buildFill(n, ctx)
	case *plan.FilterNode:
		return b.buildFilter(n, ctx)
	case *plan.TransformNode:
		return b.buildTransform(n, ctx)
	case *plan.LimitNode:
		return b.buildLimit(n, ctx)
	case *plan.OffsetNode:
		return b.buildOffset(n, ctx)
	case *plan.ColumnInjectNode:
		return b.buildColumnInject(n, ctx)
	case *plan.AggregationNode:
		return b.buildAggregation(n, ctx)
	case *plan.GroupByLevelNode:
		return b.buildGroupByLevel(n, ctx)
	case *plan.GroupByTagNode:
		return b.buildGroupByTag(n, ctx)
	case *plan.SlidingWindowAggregationNode:
		return b.buildSlidingWindow(n, ctx)
	case *plan.FullOuterTimeJoinNode:
		return b.buildFullOuterTimeJoin(n, ctx)
	case *plan.InnerTimeJoinNode:
		return b.buildInnerTimeJoin(n, ctx)
	case *plan.LeftOuterTimeJoinNode:
		return b.buildLeftOuterTimeJoin(n, ctx)
	case *plan.HorizontallyConcatNode:
		return b.buildHorizontallyConcat(n, ctx)
	case *plan.ExchangeNode:
		return b.buildExchange(n, ctx)
	case *plan.IdentitySinkNode:
		return b.buildIdentitySink(n, ctx)
	case *plan.ShuffleSinkNode:
		return b.buildShuffleSink(n, ctx)
	case *plan.LastQueryScanNode:
		return b.buildLastQueryScan(n, ctx)
	case *plan.AlignedLastQueryScanNode:
		return b.buildAlignedLastQueryScan(n, ctx)
	case *plan.LastQueryNode:
		return b.buildLastQuery(n, ctx)
	case *plan.LastQueryMergeNode:
		return b.buildLastQueryMerge(n, ctx)
	case *plan.LastQueryCollectNode:
		return b.buildLastQueryCollect(n, ctx)
	case *plan.LastQueryTransformNode:
		return b.buildLastQueryTransform(n, ctx)
	case *plan.IntoNode:
		return b.buildInto(n, ctx)
	case *plan.DeviceViewIntoNode:
		return b.buildDeviceViewInto(n, ctx)
	case nil:
		return nil, errno.NewError(errno.InvalidPlan, "nil plan node")
	default:
		return nil, errno.NewError(errno.UnsupportedPlanNode, plan.String(node))
	}
}

// buildOnlyChild builds the single child of a one-input node inline.
func (b *Builder) buildOnlyChild(node plan.Node, ctx *BuildContext) (Operator, error) {
	children := node.Children()
	if len(children) != 1 {
		return nil, errno.NewError(errno.InvalidChildCount, plan.String(node), "1", len(children))
	}
	op, err := b.Build(children[0], ctx)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, errno.NewError(errno.InvalidPlan, plan.String(children[0])+" produces no operator")
	}
	return op, nil
}
