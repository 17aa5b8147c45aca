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
	"github.com/openGemini/ts-planner/engine/aggregation"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// ScanOptions is what a storage scan needs besides the series it reads.
type ScanOptions struct {
	PushDownLimit    int64
	PushDownOffset   int64
	AllSensors       []string
	GlobalTimeFilter *plan.TimeFilter
}

func (b *Builder) scanOptions(node plan.Node, base *plan.ScanBase, device, measurement string, ctx *BuildContext) (ScanOptions, error) {
	if base.PushDownPredicate != nil {
		return ScanOptions{}, errno.NewError(errno.UnsupportedExpression, base.PushDownPredicate.Name(),
			"predicate push down into "+plan.String(node))
	}
	return ScanOptions{
		PushDownLimit:    base.PushDownLimit,
		PushDownOffset:   base.PushDownOffset,
		AllSensors:       ctx.frag.allSensorsOf(device, measurement),
		GlobalTimeFilter: ctx.frag.timeFilter.Copy(),
	}, nil
}

type SeriesScanOperator struct {
	BaseOperator
	Path    plan.MeasurementPath
	Order   plan.Ordering
	Options ScanOptions
}

func (op *SeriesScanOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "path", Second: op.Path.FullPath()},
		{First: "order", Second: op.Order.String()},
	}
}

type AlignedSeriesScanOperator struct {
	BaseOperator
	Path            plan.AlignedPath
	Order           plan.Ordering
	Options         ScanOptions
	QueryAllSensors bool
}

func (op *AlignedSeriesScanOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "device", Second: op.Path.Device},
		{First: "measurements", Second: op.Path.Measurements},
		{First: "order", Second: op.Order.String()},
	}
}

// AggregationScanOperator aggregates while reading one series, or several
// series of an aligned device.
type AggregationScanOperator struct {
	BaseOperator
	Device        string
	Paths         []string
	Order         plan.Ordering
	Options       ScanOptions
	Aggregators   []*aggregation.Aggregator
	TimeRanges    timerange.Iterator
	GroupByTime   *plan.GroupByTimeParameter
	OutputEndTime bool
}

func (op *AggregationScanOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "paths", Second: op.Paths},
		{First: "aggregators", Second: len(op.Aggregators)},
		{First: "windows", Second: op.TimeRanges.TotalTimeRangeCount()},
		{First: "order", Second: op.Order.String()},
	}
}

func (b *Builder) buildSeriesScan(n *plan.SeriesScanNode, ctx *BuildContext) (Operator, error) {
	opCtx := ctx.addOperatorContext(n.ID(), KindSeriesScan)
	options, err := b.scanOptions(n, &n.ScanBase, n.Path.Device, n.Path.Measurement, ctx)
	if err != nil {
		return nil, err
	}
	ctx.pipeline.InputDriver = true
	return &SeriesScanOperator{
		BaseOperator: newBaseOperator(opCtx),
		Path:         n.Path,
		Order:        n.ScanOrder,
		Options:      options,
	}, nil
}

func (b *Builder) buildAlignedSeriesScan(n *plan.AlignedSeriesScanNode, ctx *BuildContext) (Operator, error) {
	opCtx := ctx.addOperatorContext(n.ID(), KindAlignedSeriesScan)
	options, err := b.scanOptions(n, &n.ScanBase, n.Path.Device, "", ctx)
	if err != nil {
		return nil, err
	}
	if len(n.Path.Measurements) > 0 {
		options.AllSensors = ctx.frag.allSensors[n.Path.Device]
		for _, m := range n.Path.Measurements {
			options.AllSensors = appendMissing(options.AllSensors, m)
		}
	}
	ctx.pipeline.InputDriver = true
	return &AlignedSeriesScanOperator{
		BaseOperator:    newBaseOperator(opCtx),
		Path:            n.Path,
		Order:           n.ScanOrder,
		Options:         options,
		QueryAllSensors: n.QueryAllSensors,
	}, nil
}

func appendMissing(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list[:len(list):len(list)], s)
}

func (b *Builder) buildSeriesAggregationScan(n *plan.SeriesAggregationScanNode, ctx *BuildContext) (Operator, error) {
	ascending := n.ScanOrder.IsAscending()
	aggregators := make([]*aggregation.Aggregator, 0, len(n.Descriptors))
	for i := range n.Descriptors {
		desc := &n.Descriptors[i]
		acc, err := aggregation.NewAccumulator(desc.Type, []types.DataType{n.Path.DataType}, desc.Attributes)
		if err != nil {
			return nil, err
		}
		aggregators = append(aggregators, aggregation.NewAggregator(acc, desc.Step,
			[][]types.InputLocation{{types.NewInputLocation(0, 0)}}))
	}
	return b.newAggregationScan(n, KindSeriesAggregationScan, &n.AggregationScanBase, n.Path.Device,
		[]string{n.Path.FullPath()}, n.Path.Measurement, aggregators, ascending, ctx)
}

func (b *Builder) buildAlignedSeriesAggregationScan(n *plan.AlignedSeriesAggregationScanNode, ctx *BuildContext) (Operator, error) {
	ascending := n.ScanOrder.IsAscending()
	aggregators := make([]*aggregation.Aggregator, 0, len(n.Descriptors))
	for i := range n.Descriptors {
		desc := &n.Descriptors[i]
		if len(desc.InputExpressions) != 1 {
			return nil, errno.NewError(errno.InvalidAggregationInput, desc.Type, len(desc.InputExpressions))
		}
		input := desc.InputExpressions[0]
		var (
			loc types.InputLocation
			dt  types.DataType
		)
		switch {
		case input.IsTimestamp():
			loc, dt = types.NewInputLocation(0, types.TimeColumnIndex), types.Int64
		case input.IsColumn():
			idx := n.Path.MeasurementIndex(n.Path.Measurement(input.Name()))
			if idx < 0 {
				return nil, errno.NewError(errno.UnknownColumn, input.Name())
			}
			loc, dt = types.NewInputLocation(0, idx), n.Path.DataTypes[idx]
		default:
			return nil, errno.NewError(errno.UnsupportedExpression, input.Name(), "aggregation input of an aligned scan")
		}
		acc, err := aggregation.NewAccumulator(desc.Type, []types.DataType{dt}, desc.Attributes)
		if err != nil {
			return nil, err
		}
		aggregators = append(aggregators, aggregation.NewAggregator(acc, desc.Step, [][]types.InputLocation{{loc}}))
	}
	return b.newAggregationScan(n, KindAlignedSeriesAggregationScan, &n.AggregationScanBase, n.Path.Device,
		n.Path.FullPaths(), "", aggregators, ascending, ctx)
}

func (b *Builder) newAggregationScan(n plan.Node, kind string, base *plan.AggregationScanBase, device string, paths []string,
	measurement string, aggregators []*aggregation.Aggregator, ascending bool, ctx *BuildContext) (Operator, error) {
	it := ctx.frag.timeRangeIterator(base.GroupByTime, ascending, true)
	maxReturnSize, err := ctx.frag.aggregationResultSize(descriptorOutputNames(base.Descriptors), aggregatorOutputTypes(aggregators), it)
	if err != nil {
		return nil, err
	}
	options, err := b.scanOptions(n, &base.ScanBase, device, measurement, ctx)
	if err != nil {
		return nil, err
	}
	if measurement == "" {
		options.AllSensors = ctx.frag.allSensors[device]
	}
	opCtx := ctx.addOperatorContext(n.ID(), kind)
	ctx.pipeline.InputDriver = true
	op := &AggregationScanOperator{
		BaseOperator:  newBaseOperator(opCtx),
		Device:        device,
		Paths:         paths,
		Order:         base.ScanOrder,
		Options:       options,
		Aggregators:   aggregators,
		TimeRanges:    it,
		GroupByTime:   base.GroupByTime,
		OutputEndTime: base.OutputEndTime,
	}
	op.maxReturnSize = maxReturnSize
	return op, nil
}
