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
	"github.com/RoaringBitmap/roaring"
	"github.com/openGemini/ts-planner/engine/aggregation"
	"github.com/openGemini/ts-planner/engine/lastcache"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
	"go.uber.org/zap"
)

// UpdateLastCacheOperator reports the last point read by its scan and writes
// it back to the last cache. Aligned is set for the scans of an aligned
// device, Paths then holds one path per measurement.
type UpdateLastCacheOperator struct {
	BaseOperator
	Paths               []string
	DataTypes           []types.DataType
	OutputViewPath      string
	Gate                *lastcache.Gate
	QueryID             string
	NeedUpdateCache     bool
	NeedUpdateNullEntry bool
	Aligned             bool
}

func (op *UpdateLastCacheOperator) Explain() []ValuePair {
	pairs := []ValuePair{{First: "paths", Second: op.Paths}}
	if op.OutputViewPath != "" {
		pairs = append(pairs, ValuePair{First: "view", Second: op.OutputViewPath})
	}
	return append(pairs, ValuePair{First: "update cache", Second: op.NeedUpdateCache})
}

// lastValueAggregators reads the newest point of every column of a scan:
// max_time then last_value, column after column.
func lastValueAggregators(dataTypes []types.DataType) ([]*aggregation.Aggregator, error) {
	aggregators := make([]*aggregation.Aggregator, 0, 2*len(dataTypes))
	for i, dt := range dataTypes {
		loc := [][]types.InputLocation{{types.NewInputLocation(0, i)}}
		for _, aggType := range []plan.AggregationType{plan.AggMaxTime, plan.AggLastValue} {
			acc, err := aggregation.NewAccumulator(aggType, []types.DataType{dt}, nil)
			if err != nil {
				return nil, err
			}
			aggregators = append(aggregators, aggregation.NewAggregator(acc, plan.StepSingle, loc))
		}
	}
	return aggregators, nil
}

// newLastQueryScan builds the descending aggregation scan reading the last
// point of paths, over a single window covering all time.
func (b *Builder) newLastQueryScan(n plan.Node, kind, device string, paths []string, dataTypes []types.DataType,
	ctx *BuildContext) (*AggregationScanOperator, error) {
	aggregators, err := lastValueAggregators(dataTypes)
	if err != nil {
		return nil, err
	}
	it := ctx.frag.timeRangeIterator(nil, false, true)
	opCtx := ctx.addOperatorContext(n.ID(), kind)
	ctx.pipeline.InputDriver = true
	return &AggregationScanOperator{
		BaseOperator: newBaseOperator(opCtx),
		Device:       device,
		Paths:        paths,
		Order:        plan.Desc,
		Options: ScanOptions{
			AllSensors:       ctx.frag.allSensors[device],
			GlobalTimeFilter: ctx.frag.timeFilter.Copy(),
		},
		Aggregators: aggregators,
		TimeRanges:  it,
	}, nil
}

// lookupLastValue consults the last cache for path. The scan is needed when
// nothing is cached, or when the cached point fails a filter that is not a
// lower bound. A satisfying point is recorded as a cached row.
func (s *FragmentState) lookupLastValue(path, outputPath string, dt types.DataType, scans int) (needScan bool) {
	entry := s.gate.Lookup(s.Instance.QueryID, path, scans)
	switch {
	case entry == nil:
		s.lastCacheMisses++
		return true
	case entry.Value == nil:
		// the series has no data
		s.lastCacheHits++
		return false
	case !s.timeFilter.Satisfy(entry.Timestamp):
		s.lastCacheStale++
		return !s.timeFilter.IsLowerBound()
	}
	s.lastCacheHits++
	s.cachedLastValues = append(s.cachedLastValues, CachedLastValue{
		Path:      outputPath,
		Timestamp: entry.Timestamp,
		Value:     entry.Value,
		DataType:  dt,
	})
	return false
}

func (b *Builder) buildLastQueryScan(n *plan.LastQueryScanNode, ctx *BuildContext) (Operator, error) {
	frag := ctx.frag
	path := n.Path.FullPath()
	if !frag.lookupLastValue(path, n.OutputPath(), n.Path.DataType, n.SeriesScanNum) {
		return nil, nil
	}
	dataTypes := []types.DataType{n.Path.DataType}
	scan, err := b.newLastQueryScan(n, KindSeriesAggregationScan, n.Path.Device, []string{path}, dataTypes, ctx)
	if err != nil {
		return nil, err
	}
	scan.Options.AllSensors = frag.allSensorsOf(n.Path.Device, n.Path.Measurement)
	kind := KindUpdateLastCache
	if n.OutputViewPath != "" {
		kind = KindUpdateViewPathLastCache
	}
	opCtx := ctx.addOperatorContext(n.ID(), kind)
	return &UpdateLastCacheOperator{
		BaseOperator:        newBaseOperator(opCtx, scan),
		Paths:               []string{path},
		DataTypes:           dataTypes,
		OutputViewPath:      n.OutputViewPath,
		Gate:                frag.gate,
		QueryID:             frag.Instance.QueryID,
		NeedUpdateCache:     frag.needUpdateLastCache,
		NeedUpdateNullEntry: frag.needUpdateNullEntry,
	}, nil
}

func (b *Builder) buildAlignedLastQueryScan(n *plan.AlignedLastQueryScanNode, ctx *BuildContext) (Operator, error) {
	frag := ctx.frag
	uncached := roaring.New()
	for i := range n.Path.Measurements {
		outputPath := n.Path.FullPath(i)
		if n.OutputViewPath != "" {
			outputPath = n.OutputViewPath
		}
		if frag.lookupLastValue(n.Path.FullPath(i), outputPath, n.Path.DataTypes[i], n.SeriesScanNum) {
			uncached.Add(uint32(i))
		}
	}
	if uncached.IsEmpty() {
		return nil, nil
	}
	indexes := make([]int, 0, uncached.GetCardinality())
	for _, i := range uncached.ToArray() {
		indexes = append(indexes, int(i))
	}
	path := n.Path.Sub(indexes)
	b.logger.Debug("aligned last query reads uncached measurements",
		zap.String("device", path.Device), zap.Strings("measurements", path.Measurements))

	scan, err := b.newLastQueryScan(n, KindAlignedSeriesAggregationScan, path.Device, path.FullPaths(), path.DataTypes, ctx)
	if err != nil {
		return nil, err
	}
	kind := KindAlignedUpdateLastCache
	if n.OutputViewPath != "" {
		kind = KindAlignedUpdateViewPathLastCache
	}
	opCtx := ctx.addOperatorContext(n.ID(), kind)
	return &UpdateLastCacheOperator{
		BaseOperator:        newBaseOperator(opCtx, scan),
		Paths:               path.FullPaths(),
		DataTypes:           path.DataTypes,
		OutputViewPath:      n.OutputViewPath,
		Gate:                frag.gate,
		QueryID:             frag.Instance.QueryID,
		NeedUpdateCache:     frag.needUpdateLastCache,
		NeedUpdateNullEntry: frag.needUpdateNullEntry,
		Aligned:             true,
	}, nil
}

// LastQueryOperator outputs the rows of its children after the rows answered
// by the cache. SortedByPath is set when the rows are ordered by path.
type LastQueryOperator struct {
	BaseOperator
	CachedRows   []CachedLastValue
	Ordering     *plan.Ordering
	SortedByPath bool
}

func (op *LastQueryOperator) Explain() []ValuePair {
	pairs := []ValuePair{{First: "cached rows", Second: len(op.CachedRows)}}
	if op.Ordering != nil {
		pairs = append(pairs, ValuePair{First: "order by timeseries", Second: op.Ordering.String()})
	}
	return pairs
}

func (b *Builder) buildLastQuery(n *plan.LastQueryNode, ctx *BuildContext) (Operator, error) {
	frag := ctx.frag
	frag.needUpdateLastCache = frag.timeFilter == nil || frag.timeFilter.IsLowerBound()
	frag.needUpdateNullEntry = frag.timeFilter == nil
	start := len(frag.cachedLastValues)
	children, err := b.buildInline(n.Children(), ctx)
	if err != nil {
		return nil, err
	}
	rows := append([]CachedLastValue(nil), frag.cachedLastValues[start:]...)
	kind := KindLastQuery
	if n.NeedOrderByTimeseries() {
		kind = KindLastQuerySort
	}
	opCtx := ctx.addOperatorContext(n.ID(), kind)
	return &LastQueryOperator{
		BaseOperator: newBaseOperator(opCtx, children...),
		CachedRows:   rows,
		Ordering:     n.TimeseriesOrdering,
		SortedByPath: n.NeedOrderByTimeseries(),
	}, nil
}

// LastQueryMergeOperator merges children sorted by path.
type LastQueryMergeOperator struct {
	BaseOperator
	Ascending bool
}

func (op *LastQueryMergeOperator) Explain() []ValuePair {
	return []ValuePair{{First: "ascending", Second: op.Ascending}}
}

func (b *Builder) buildLastQueryMerge(n *plan.LastQueryMergeNode, ctx *BuildContext) (Operator, error) {
	children, _, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindLastQueryMerge)
	return &LastQueryMergeOperator{
		BaseOperator: newBaseOperator(opCtx, children...),
		Ascending:    n.TimeseriesOrdering == nil || n.TimeseriesOrdering.IsAscending(),
	}, nil
}

type LastQueryCollectOperator struct {
	BaseOperator
}

func (b *Builder) buildLastQueryCollect(n *plan.LastQueryCollectNode, ctx *BuildContext) (Operator, error) {
	children, err := b.consumeChildrenOneByOne(n, ctx)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindLastQueryCollect)
	return &LastQueryCollectOperator{BaseOperator: newBaseOperator(opCtx, children...)}, nil
}

// LastQueryTransformOperator renames the rows of its child to a view path.
type LastQueryTransformOperator struct {
	BaseOperator
	ViewPath string
	DataType types.DataType
}

func (op *LastQueryTransformOperator) Explain() []ValuePair {
	return []ValuePair{{First: "view", Second: op.ViewPath}}
}

func (b *Builder) buildLastQueryTransform(n *plan.LastQueryTransformNode, ctx *BuildContext) (Operator, error) {
	if len(n.Children()) != 1 {
		return nil, errno.NewError(errno.InvalidChildCount, plan.String(n), "1", len(n.Children()))
	}
	// a child answered by the cache leaves nothing to rename
	child, err := b.Build(n.Child(), ctx)
	if err != nil || child == nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindLastQueryTransform)
	return &LastQueryTransformOperator{
		BaseOperator: newBaseOperator(opCtx, child),
		ViewPath:     n.ViewPath,
		DataType:     n.DataType,
	}, nil
}
