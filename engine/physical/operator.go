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
	"github.com/docker/go-units"
	"github.com/openGemini/ts-planner/engine/plan"
)

const (
	// DefaultMaxReturnSize is the byte budget of one output batch.
	DefaultMaxReturnSize int64 = units.MiB
	// MaxLinesPerBatch bounds the rows of one output batch.
	MaxLinesPerBatch int64 = 1000
	// timeColumnSize is the width of the time column of every batch.
	timeColumnSize int64 = 8
)

const (
	KindSeriesScan                     = "SeriesScanOperator"
	KindAlignedSeriesScan              = "AlignedSeriesScanOperator"
	KindSeriesAggregationScan          = "SeriesAggregationScanOperator"
	KindAlignedSeriesAggregationScan   = "AlignedSeriesAggregationScanOperator"
	KindSchemaQueryScan                = "SchemaQueryScanOperator"
	KindSchemaCount                    = "SchemaCountOperator"
	KindLevelTimeSeriesCount           = "LevelTimeSeriesCountOperator"
	KindNodePathsSchemaScan            = "NodePathsSchemaScanOperator"
	KindSchemaFetchScan                = "SchemaFetchScanOperator"
	KindSchemaQueryMerge               = "SchemaQueryMergeOperator"
	KindSchemaFetchMerge               = "SchemaFetchMergeOperator"
	KindCountMerge                     = "CountMergeOperator"
	KindCountGroupByLevelMerge         = "CountGroupByLevelMergeOperator"
	KindNodeManageMemoryMerge          = "NodeManageMemoryMergeOperator"
	KindNodePathsConvert               = "NodePathsConvertOperator"
	KindNodePathsCount                 = "NodePathsCountOperator"
	KindSchemaQueryOrderByHeat         = "SchemaQueryOrderByHeatOperator"
	KindSingleDeviceView               = "SingleDeviceViewOperator"
	KindDeviceView                     = "DeviceViewOperator"
	KindMergeSort                      = "MergeSortOperator"
	KindTopK                           = "TopKOperator"
	KindSort                           = "SortOperator"
	KindFill                           = "FillOperator"
	KindLinearFill                     = "LinearFillOperator"
	KindFilterAndProject               = "FilterAndProjectOperator"
	KindTransform                      = "TransformOperator"
	KindLimit                          = "LimitOperator"
	KindOffset                         = "OffsetOperator"
	KindColumnInject                   = "ColumnInjectOperator"
	KindAggregation                    = "AggregationOperator"
	KindRawDataAggregation             = "RawDataAggregationOperator"
	KindTagAggregation                 = "TagAggregationOperator"
	KindSlidingWindowAggregation       = "SlidingWindowAggregationOperator"
	KindFullOuterTimeJoin              = "FullOuterTimeJoinOperator"
	KindInnerTimeJoin                  = "InnerTimeJoinOperator"
	KindLeftOuterTimeJoin              = "LeftOuterTimeJoinOperator"
	KindHorizontallyConcat             = "HorizontallyConcatOperator"
	KindExchange                       = "ExchangeOperator"
	KindIdentitySink                   = "IdentitySinkOperator"
	KindShuffleHelper                  = "ShuffleHelperOperator"
	KindUpdateLastCache                = "UpdateLastCacheOperator"
	KindUpdateViewPathLastCache        = "UpdateViewPathLastCacheOperator"
	KindAlignedUpdateLastCache         = "AlignedUpdateLastCacheOperator"
	KindAlignedUpdateViewPathLastCache = "AlignedUpdateViewPathLastCacheOperator"
	KindLastQuery                      = "LastQueryOperator"
	KindLastQuerySort                  = "LastQuerySortOperator"
	KindLastQueryMerge                 = "LastQueryMergeOperator"
	KindLastQueryCollect               = "LastQueryCollectOperator"
	KindLastQueryTransform             = "LastQueryTransformOperator"
	KindInto                           = "IntoOperator"
	KindDeviceViewInto                 = "DeviceViewIntoOperator"
)

type ValuePair struct {
	First  string
	Second interface{}
}

// Operator is one vertex of the executable tree. Operators are built once
// per fragment instance and never shared between pipelines.
type Operator interface {
	Name() string
	Context() *OperatorContext
	Children() []Operator
	// MaxReturnSize is the largest batch in bytes the operator may emit.
	MaxReturnSize() int64
	Explain() []ValuePair
}

// OperatorContext identifies an operator inside its fragment instance. The
// operator id is unique per fragment and assigned in creation order.
type OperatorContext struct {
	OperatorID int
	PlanNodeID plan.NodeID
	Kind       string
	Pipeline   *PipelineContext
}

type BaseOperator struct {
	ctx           *OperatorContext
	children      []Operator
	maxReturnSize int64
}

func newBaseOperator(ctx *OperatorContext, children ...Operator) BaseOperator {
	return BaseOperator{ctx: ctx, children: children}
}

func (op *BaseOperator) Name() string {
	return op.ctx.Kind
}

func (op *BaseOperator) Context() *OperatorContext {
	return op.ctx
}

func (op *BaseOperator) Children() []Operator {
	return op.children
}

func (op *BaseOperator) MaxReturnSize() int64 {
	if op.maxReturnSize > 0 {
		return op.maxReturnSize
	}
	return DefaultMaxReturnSize
}

func (op *BaseOperator) Explain() []ValuePair {
	return nil
}

// Walk visits op and its descendants in pre-order.
func Walk(op Operator, fn func(Operator)) {
	if op == nil {
		return
	}
	fn(op)
	for _, c := range op.Children() {
		Walk(c, fn)
	}
}
