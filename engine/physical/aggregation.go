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
	"github.com/openGemini/ts-planner/engine/aggregation"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// timeRangeIterator returns the windows an aggregation walks through. A
// missing group by clause yields one window covering all time. When the
// output is partial and the windows slide, they are cut into windows of the
// greatest common divisor of interval and step, so that every sliding window
// is a union of whole sub windows.
func (s *FragmentState) timeRangeIterator(param *plan.GroupByTimeParameter, ascending, outputPartial bool) timerange.Iterator {
	if param == nil {
		return timerange.NewSingleWindowIterator(math.MinInt64, math.MaxInt64)
	}
	window := param.WindowParameter()
	if outputPartial && needSplit(window) {
		g := gcd(window.Interval.NonMonthDuration, window.SlidingStep.NonMonthDuration)
		window.Interval = timerange.NewTimeDuration(0, g)
		window.SlidingStep = window.Interval
	}
	return timerange.NewIterator(window, ascending, s.precision, s.loc)
}

func needSplit(w timerange.WindowParameter) bool {
	if w.Interval.ContainsMonth() || w.SlidingStep.ContainsMonth() {
		return false
	}
	step := w.SlidingStep.NonMonthDuration
	return step > 0 && step < w.Interval.NonMonthDuration
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// aggregationResultSize bounds the bytes of one output batch: at most
// MaxLinesPerBatch windows of a time column and the aggregation columns.
// Columns the type provider does not know take the type their aggregator
// produces.
func (s *FragmentState) aggregationResultSize(outputNames []string, fallback []types.DataType, it timerange.Iterator) (int64, error) {
	perLine := int64(timeColumnSize)
	for i, name := range outputNames {
		dt, ok := s.typeOf(name)
		if !ok && i < len(fallback) {
			dt = fallback[i]
		}
		size, err := s.columnSize(dt)
		if err != nil {
			return 0, err
		}
		perLine += size
	}
	lines := min(int64(MaxLinesPerBatch), it.TotalTimeRangeCount())
	return min(int64(DefaultMaxReturnSize), lines*perLine), nil
}

func descriptorOutputNames(descs []plan.AggregationDescriptor) []string {
	var names []string
	for i := range descs {
		names = append(names, descs[i].OutputColumnNames()...)
	}
	return names
}

func crossSeriesOutputNames(descs []*plan.CrossSeriesAggregationDescriptor) []string {
	var names []string
	for _, desc := range descs {
		if desc != nil {
			names = append(names, desc.OutputColumnNames()...)
		}
	}
	return names
}

func aggregatorOutputTypes(aggregators []*aggregation.Aggregator) []types.DataType {
	var out []types.DataType
	for _, agg := range aggregators {
		if agg != nil {
			out = append(out, agg.OutputTypes()...)
		}
	}
	return out
}

// expressionTypes resolves the input types of an accumulator, the time
// operand reads as Int64.
func (s *FragmentState) expressionTypes(exprs []plan.Expression) ([]types.DataType, error) {
	out := make([]types.DataType, len(exprs))
	for i, expr := range exprs {
		if expr.IsTimestamp() {
			out[i] = types.Int64
			continue
		}
		dt, ok := s.typeOf(expr.Name())
		if !ok {
			return nil, errno.NewError(errno.UnknownColumn, expr.Name())
		}
		out[i] = dt
	}
	return out, nil
}

func (s *FragmentState) newAggregator(desc *plan.AggregationDescriptor, inputs []plan.Expression, layout *types.Layout, inputColumns [][]string) (*aggregation.Aggregator, error) {
	inputTypes, err := s.expressionTypes(inputs)
	if err != nil {
		return nil, err
	}
	acc, err := aggregation.NewAccumulator(desc.Type, inputTypes, desc.Attributes)
	if err != nil {
		return nil, err
	}
	locs, err := inputLocationList(inputColumns, layout)
	if err != nil {
		return nil, err
	}
	return aggregation.NewAggregator(acc, desc.Step, locs), nil
}

// AggregationOperator merges the partial results of its children window by
// window.
type AggregationOperator struct {
	BaseOperator
	Aggregators   []*aggregation.Aggregator
	TimeRanges    timerange.Iterator
	OutputEndTime bool
}

func (op *AggregationOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "aggregators", Second: len(op.Aggregators)},
		{First: "windows", Second: op.TimeRanges.TotalTimeRangeCount()},
	}
}

// WindowParameter describes how a raw aggregation cuts rows into windows.
// Only the fields of Type are set.
type WindowParameter struct {
	Type          plan.WindowType
	OutputEndTime bool
	IgnoreNull    bool
	// variation, condition and count windows watch one column
	ControlColumn types.InputLocation
	ControlType   types.DataType
	Delta         float64
	Keep          plan.Expression
	TimeInterval  int64
	CountNumber   int64
}

type RawDataAggregationOperator struct {
	BaseOperator
	Aggregators []*aggregation.Aggregator
	TimeRanges  timerange.Iterator
	Ascending   bool
	Window      WindowParameter
}

func (op *RawDataAggregationOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "aggregators", Second: len(op.Aggregators)},
		{First: "window", Second: op.Window.Type.String()},
		{First: "windows", Second: op.TimeRanges.TotalTimeRangeCount()},
	}
}

// TagAggregationOperator aggregates one row per tag group. A nil aggregator
// keeps the column of an aggregation the group has no series for.
type TagAggregationOperator struct {
	BaseOperator
	TagKeys     []string
	GroupKeys   []uint64
	TagValues   [][]string
	Aggregators [][]*aggregation.Aggregator
	TimeRanges  timerange.Iterator
}

func (op *TagAggregationOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "tags", Second: strings.Join(op.TagKeys, ", ")},
		{First: "groups", Second: len(op.Aggregators)},
	}
}

type SlidingWindowAggregationOperator struct {
	BaseOperator
	Aggregators   []*aggregation.SlidingWindowAggregator
	TimeRanges    timerange.Iterator
	Ascending     bool
	OutputEndTime bool
	GroupByTime   *plan.GroupByTimeParameter
}

func (op *SlidingWindowAggregationOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "aggregators", Second: len(op.Aggregators)},
		{First: "windows", Second: op.TimeRanges.TotalTimeRangeCount()},
	}
}

func (b *Builder) buildAggregation(n *plan.AggregationNode, ctx *BuildContext) (Operator, error) {
	if len(n.Descriptors) == 0 {
		return nil, errno.NewError(errno.EmptyDescriptors, "aggregation descriptors", plan.String(n))
	}
	children, rebuilt, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	frag := ctx.frag
	layout := MakeLayout(rebuilt)
	aggregators := make([]*aggregation.Aggregator, 0, len(n.Descriptors))
	for i := range n.Descriptors {
		desc := &n.Descriptors[i]
		agg, err := frag.newAggregator(desc, desc.InputExpressions, layout, desc.InputColumnNamesList())
		if err != nil {
			return nil, err
		}
		aggregators = append(aggregators, agg)
	}

	ascending := n.ScanOrder.IsAscending()
	it := frag.timeRangeIterator(n.GroupByTime, ascending, true)
	maxReturnSize, err := frag.aggregationResultSize(descriptorOutputNames(n.Descriptors), aggregatorOutputTypes(aggregators), it)
	if err != nil {
		return nil, err
	}

	if !n.Descriptors[0].Step.IsInputRaw() {
		opCtx := ctx.addOperatorContext(n.ID(), KindAggregation)
		op := &AggregationOperator{
			BaseOperator:  newBaseOperator(opCtx, children...),
			Aggregators:   aggregators,
			TimeRanges:    it,
			OutputEndTime: n.OutputEndTime,
		}
		op.maxReturnSize = maxReturnSize
		return op, nil
	}

	if len(children) != 1 {
		return nil, errno.NewError(errno.InvalidChildCount, plan.String(n), "1", len(children))
	}
	window, err := frag.windowParameter(n, layout)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindRawDataAggregation)
	op := &RawDataAggregationOperator{
		BaseOperator: newBaseOperator(opCtx, children...),
		Aggregators:  aggregators,
		TimeRanges:   it,
		Ascending:    ascending,
		Window:       window,
	}
	op.maxReturnSize = maxReturnSize
	return op, nil
}

func (s *FragmentState) windowParameter(n *plan.AggregationNode, layout *types.Layout) (WindowParameter, error) {
	if n.GroupBy == nil {
		return WindowParameter{Type: plan.TimeWindow, OutputEndTime: n.OutputEndTime}, nil
	}
	param := WindowParameter{
		Type:          n.GroupBy.WindowType,
		OutputEndTime: n.OutputEndTime,
		IgnoreNull:    n.GroupBy.IgnoreNull,
	}
	controlColumn := func() error {
		if n.GroupByExpression == nil {
			return errno.NewError(errno.InvalidPlan, n.GroupBy.WindowType.String()+" window without group by expression")
		}
		name := n.GroupByExpression.Name()
		loc, ok := layout.First(name)
		if !ok {
			return errno.NewError(errno.UnknownColumn, name)
		}
		dt, ok := s.typeOf(name)
		if !ok {
			return errno.NewError(errno.UnknownColumn, name)
		}
		param.ControlColumn, param.ControlType = loc, dt
		return nil
	}
	switch n.GroupBy.WindowType {
	case plan.VariationWindow:
		if err := controlColumn(); err != nil {
			return param, err
		}
		param.Delta = n.GroupBy.Delta
	case plan.ConditionWindow:
		if err := controlColumn(); err != nil {
			return param, err
		}
		param.Keep = n.GroupBy.KeepExpression
	case plan.SessionWindow:
		param.TimeInterval = n.GroupBy.TimeInterval
	case plan.CountWindow:
		if err := controlColumn(); err != nil {
			return param, err
		}
		param.CountNumber = n.GroupBy.CountNumber
	default:
		return param, errno.NewError(errno.UnsupportedWindowType, n.GroupBy.WindowType.String())
	}
	return param, nil
}

func (b *Builder) buildGroupByLevel(n *plan.GroupByLevelNode, ctx *BuildContext) (Operator, error) {
	if len(n.Descriptors) == 0 {
		return nil, errno.NewError(errno.EmptyDescriptors, "aggregation descriptors", plan.String(n))
	}
	children, rebuilt, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	frag := ctx.frag
	layout := MakeLayout(rebuilt)
	aggregators := make([]*aggregation.Aggregator, 0, len(n.Descriptors))
	var outputNames []string
	for i := range n.Descriptors {
		desc := &n.Descriptors[i]
		inputs := desc.InputExpressions[:min(desc.ExpressionNumOfOneInput(), len(desc.InputExpressions))]
		agg, err := frag.newAggregator(&desc.AggregationDescriptor, inputs, layout, desc.InputColumnNamesList())
		if err != nil {
			return nil, err
		}
		aggregators = append(aggregators, agg)
		outputNames = append(outputNames, desc.OutputColumnNames()...)
	}
	it := frag.timeRangeIterator(n.GroupByTime, n.ScanOrder.IsAscending(), false)
	maxReturnSize, err := frag.aggregationResultSize(outputNames, aggregatorOutputTypes(aggregators), it)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindAggregation)
	op := &AggregationOperator{
		BaseOperator: newBaseOperator(opCtx, children...),
		Aggregators:  aggregators,
		TimeRanges:   it,
	}
	op.maxReturnSize = maxReturnSize
	return op, nil
}

// GroupKey identifies a tag group by its values.
func GroupKey(tagValues []string) uint64 {
	d := xxhash.New()
	for _, v := range tagValues {
		_, _ = d.WriteString(v)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

func (b *Builder) buildGroupByTag(n *plan.GroupByTagNode, ctx *BuildContext) (Operator, error) {
	if len(n.TagKeys) == 0 {
		return nil, errno.NewError(errno.EmptyDescriptors, "tag keys", plan.String(n))
	}
	if len(n.Groups) == 0 {
		return nil, errno.NewError(errno.EmptyDescriptors, "tag groups", plan.String(n))
	}
	children, rebuilt, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	frag := ctx.frag
	layout := MakeLayout(rebuilt)
	grouped := make([][]*aggregation.Aggregator, 0, len(n.Groups))
	groupKeys := make([]uint64, 0, len(n.Groups))
	tagValues := make([][]string, 0, len(n.Groups))
	var (
		outputNames []string
		fallback    []types.DataType
	)
	for _, group := range n.Groups {
		aggregators := make([]*aggregation.Aggregator, 0, len(group.Descriptors))
		for _, desc := range group.Descriptors {
			if desc == nil {
				aggregators = append(aggregators, nil)
				continue
			}
			inputs := desc.InputExpressions[:min(desc.ExpressionNumOfOneInput(), len(desc.InputExpressions))]
			agg, err := frag.newAggregator(&desc.AggregationDescriptor, inputs, layout, desc.InputColumnNamesList())
			if err != nil {
				return nil, err
			}
			aggregators = append(aggregators, agg)
			fallback = append(fallback, agg.OutputTypes()...)
		}
		outputNames = append(outputNames, crossSeriesOutputNames(group.Descriptors)...)
		grouped = append(grouped, aggregators)
		groupKeys = append(groupKeys, GroupKey(group.TagValues))
		tagValues = append(tagValues, group.TagValues)
	}
	it := frag.timeRangeIterator(n.GroupByTime, n.ScanOrder.IsAscending(), false)
	maxReturnSize, err := frag.aggregationResultSize(outputNames, fallback, it)
	if err != nil {
		return nil, err
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindTagAggregation)
	op := &TagAggregationOperator{
		BaseOperator: newBaseOperator(opCtx, children...),
		TagKeys:      n.TagKeys,
		GroupKeys:    groupKeys,
		TagValues:    tagValues,
		Aggregators:  grouped,
		TimeRanges:   it,
	}
	op.maxReturnSize = maxReturnSize
	return op, nil
}

func (b *Builder) buildSlidingWindow(n *plan.SlidingWindowAggregationNode, ctx *BuildContext) (Operator, error) {
	if len(n.Descriptors) == 0 {
		return nil, errno.NewError(errno.EmptyDescriptors, "aggregation descriptors", plan.String(n))
	}
	opCtx := ctx.addOperatorContext(n.ID(), KindSlidingWindowAggregation)
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	frag := ctx.frag
	layout := MakeLayout(n)
	aggregators := make([]*aggregation.SlidingWindowAggregator, 0, len(n.Descriptors))
	var fallback []types.DataType
	for i := range n.Descriptors {
		desc := &n.Descriptors[i]
		inputTypes, err := frag.expressionTypes(desc.InputExpressions)
		if err != nil {
			return nil, err
		}
		acc, err := aggregation.NewAccumulator(desc.Type, inputTypes, desc.Attributes)
		if err != nil {
			return nil, err
		}
		locs, err := inputLocationList(desc.InputColumnNamesList(), layout)
		if err != nil {
			return nil, err
		}
		agg, err := aggregation.NewSlidingWindowAggregator(acc, desc.Step, locs)
		if err != nil {
			return nil, err
		}
		aggregators = append(aggregators, agg)
		fallback = append(fallback, agg.OutputTypes()...)
	}
	ascending := n.ScanOrder.IsAscending()
	it := frag.timeRangeIterator(n.GroupByTime, ascending, false)
	maxReturnSize, err := frag.aggregationResultSize(descriptorOutputNames(n.Descriptors), fallback, it)
	if err != nil {
		return nil, err
	}
	op := &SlidingWindowAggregationOperator{
		BaseOperator:  newBaseOperator(opCtx, child),
		Aggregators:   aggregators,
		TimeRanges:    it,
		Ascending:     ascending,
		OutputEndTime: n.OutputEndTime,
		GroupByTime:   n.GroupByTime,
	}
	op.maxReturnSize = maxReturnSize
	return op, nil
}
