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
	"fmt"
	"strings"

	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
)

type AggregationType uint8

const (
	AggUnknown AggregationType = iota
	AggCount
	AggAvg
	AggSum
	AggExtreme
	AggMaxTime
	AggMinTime
	AggMaxValue
	AggMinValue
	AggFirstValue
	AggLastValue
	AggCountIf
	AggTimeDuration
	AggMode
	AggStddev
	AggStddevPop
	AggStddevSamp
	AggVariance
	AggVarPop
	AggVarSamp
	AggMaxBy
	AggMinBy
	aggEnd
)

var aggregationNames = [...]string{
	AggUnknown:      "unknown",
	AggCount:        "count",
	AggAvg:          "avg",
	AggSum:          "sum",
	AggExtreme:      "extreme",
	AggMaxTime:      "max_time",
	AggMinTime:      "min_time",
	AggMaxValue:     "max_value",
	AggMinValue:     "min_value",
	AggFirstValue:   "first_value",
	AggLastValue:    "last_value",
	AggCountIf:      "count_if",
	AggTimeDuration: "time_duration",
	AggMode:         "mode",
	AggStddev:       "stddev",
	AggStddevPop:    "stddev_pop",
	AggStddevSamp:   "stddev_samp",
	AggVariance:     "variance",
	AggVarPop:       "var_pop",
	AggVarSamp:      "var_samp",
	AggMaxBy:        "max_by",
	AggMinBy:        "min_by",
}

func (t AggregationType) String() string {
	if t < aggEnd {
		return aggregationNames[t]
	}
	return aggregationNames[AggUnknown]
}

func ParseAggregationType(s string) AggregationType {
	s = strings.ToLower(s)
	for i := AggUnknown + 1; i < aggEnd; i++ {
		if aggregationNames[i] == s {
			return i
		}
	}
	return AggUnknown
}

func (t AggregationType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *AggregationType) UnmarshalText(b []byte) error {
	*t = ParseAggregationType(string(b))
	if *t == AggUnknown {
		return fmt.Errorf("unknown aggregation %q", string(b))
	}
	return nil
}

// PartialNames lists the intermediate results an aggregation is split into
// when it runs in several steps.
func (t AggregationType) PartialNames() []string {
	switch t {
	case AggAvg:
		return []string{AggCount.String(), AggSum.String()}
	case AggFirstValue:
		return []string{AggFirstValue.String(), AggMinTime.String()}
	case AggLastValue:
		return []string{AggLastValue.String(), AggMaxTime.String()}
	case AggTimeDuration:
		return []string{AggMaxTime.String(), AggMinTime.String()}
	}
	return []string{t.String()}
}

// InputNum is the number of expressions forming one input of t.
func (t AggregationType) InputNum() int {
	switch t {
	case AggMaxBy, AggMinBy:
		return 2
	}
	return 1
}

type AggregationStep uint8

const (
	StepSingle AggregationStep = iota
	StepPartial
	StepIntermediate
	StepFinal
)

var stepNames = [...]string{
	StepSingle:       "SINGLE",
	StepPartial:      "PARTIAL",
	StepIntermediate: "INTERMEDIATE",
	StepFinal:        "FINAL",
}

func (s AggregationStep) String() string {
	if int(s) < len(stepNames) {
		return stepNames[s]
	}
	return "UNKNOWN"
}

func (s AggregationStep) IsInputRaw() bool {
	return s == StepPartial || s == StepSingle
}

func (s AggregationStep) IsOutputPartial() bool {
	return s == StepPartial || s == StepIntermediate
}

func (s AggregationStep) IsInputPartial() bool {
	return !s.IsInputRaw()
}

func (s AggregationStep) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AggregationStep) UnmarshalText(b []byte) error {
	for i, name := range stepNames {
		if strings.EqualFold(name, string(b)) {
			*s = AggregationStep(i)
			return nil
		}
	}
	return fmt.Errorf("unknown aggregation step %q", string(b))
}

// AggregationDescriptor describes one aggregation function call of a node.
type AggregationDescriptor struct {
	Type             AggregationType   `json:"type"`
	Step             AggregationStep   `json:"step"`
	InputExpressions []Expression      `json:"inputs"`
	Attributes       map[string]string `json:"attributes,omitempty"`
}

func (d *AggregationDescriptor) parametersString() string {
	return strings.Join(ExpressionNames(d.InputExpressions), ", ")
}

func (d *AggregationDescriptor) actualNames(partial bool) []string {
	if partial {
		return d.Type.PartialNames()
	}
	return []string{d.Type.String()}
}

// OutputColumnNames are the columns the aggregation writes, one per partial
// result when the step hands its output to another step.
func (d *AggregationDescriptor) OutputColumnNames() []string {
	return d.columnNames(d.Step.IsOutputPartial(), d.parametersString())
}

func (d *AggregationDescriptor) columnNames(partial bool, params string) []string {
	names := d.actualNames(partial)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + "(" + params + ")"
	}
	return out
}

// InputColumnNamesList groups the column names read by the aggregation. Each
// group is one input, the members of a group are read side by side.
func (d *AggregationDescriptor) InputColumnNamesList() [][]string {
	if d.Step.IsInputRaw() {
		return [][]string{ExpressionNames(d.InputExpressions)}
	}
	return [][]string{d.columnNames(true, d.parametersString())}
}

// CrossSeriesAggregationDescriptor aggregates the same function over several
// series into one output expression.
type CrossSeriesAggregationDescriptor struct {
	AggregationDescriptor
	OutputExpression Expression `json:"output"`
}

func (d *CrossSeriesAggregationDescriptor) ExpressionNumOfOneInput() int {
	return d.Type.InputNum()
}

func (d *CrossSeriesAggregationDescriptor) OutputColumnNames() []string {
	return d.columnNames(d.Step.IsOutputPartial(), d.OutputExpression.Name())
}

func (d *CrossSeriesAggregationDescriptor) InputColumnNamesList() [][]string {
	num := d.ExpressionNumOfOneInput()
	var lists [][]string
	if d.Step.IsInputRaw() {
		names := ExpressionNames(d.InputExpressions)
		for i := 0; i+num <= len(names); i += num {
			lists = append(lists, names[i:i+num])
		}
		return lists
	}
	for i := 0; i+num <= len(d.InputExpressions); i += num {
		params := strings.Join(ExpressionNames(d.InputExpressions[i:i+num]), ", ")
		lists = append(lists, d.columnNames(true, params))
	}
	return lists
}

// GroupByTimeParameter is the time window clause of an aggregation.
type GroupByTimeParameter struct {
	StartTime   int64                  `json:"start"`
	EndTime     int64                  `json:"end"`
	Interval    timerange.TimeDuration `json:"interval"`
	SlidingStep timerange.TimeDuration `json:"sliding_step"`
	LeftCRightO bool                   `json:"left_closed"`
}

func (p *GroupByTimeParameter) WindowParameter() timerange.WindowParameter {
	return timerange.WindowParameter{
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Interval:    p.Interval,
		SlidingStep: p.SlidingStep,
		LeftCRightO: p.LeftCRightO,
	}
}

type WindowType uint8

const (
	TimeWindow WindowType = iota
	VariationWindow
	ConditionWindow
	SessionWindow
	CountWindow
)

var windowNames = [...]string{
	TimeWindow:      "time",
	VariationWindow: "variation",
	ConditionWindow: "condition",
	SessionWindow:   "session",
	CountWindow:     "count",
}

func (t WindowType) String() string {
	if int(t) < len(windowNames) {
		return windowNames[t]
	}
	return "unknown"
}

func (t WindowType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *WindowType) UnmarshalText(b []byte) error {
	for i, name := range windowNames {
		if name == string(b) {
			*t = WindowType(i)
			return nil
		}
	}
	*t = WindowType(len(windowNames))
	return nil
}

// GroupByParameter carries the settings of every non time window. Only the
// fields of WindowType are read.
type GroupByParameter struct {
	WindowType WindowType `json:"window"`
	IgnoreNull bool       `json:"ignore_null,omitempty"`
	// variation
	Delta float64 `json:"delta,omitempty"`
	// condition
	KeepExpression Expression `json:"keep,omitempty"`
	// session, in ticks
	TimeInterval int64 `json:"time_interval,omitempty"`
	// count
	CountNumber int64 `json:"count_number,omitempty"`
}

type FillPolicy uint8

const (
	FillValue FillPolicy = iota
	FillPrevious
	FillLinear
)

var fillNames = [...]string{
	FillValue:    "value",
	FillPrevious: "previous",
	FillLinear:   "linear",
}

func (p FillPolicy) String() string {
	if int(p) < len(fillNames) {
		return fillNames[p]
	}
	return "unknown"
}

func (p FillPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *FillPolicy) UnmarshalText(b []byte) error {
	for i, name := range fillNames {
		if name == string(b) {
			*p = FillPolicy(i)
			return nil
		}
	}
	*p = FillPolicy(len(fillNames))
	return nil
}

type FillDescriptor struct {
	Policy FillPolicy `json:"policy"`
	// Value is the literal of a value fill.
	Value Expression `json:"value,omitempty"`
	// TimeDurationThreshold bounds how far back a previous fill may look.
	TimeDurationThreshold *timerange.TimeDuration `json:"threshold,omitempty"`
}

const (
	OrderByTime       = "TIME"
	OrderByDevice     = "DEVICE"
	OrderByTimeseries = "TIMESERIES"
)

type SortItem struct {
	Key      string   `json:"key"`
	Ordering Ordering `json:"ordering"`
}

func (s SortItem) IsTime() bool {
	return strings.EqualFold(s.Key, OrderByTime)
}

func (s SortItem) IsDevice() bool {
	return strings.EqualFold(s.Key, OrderByDevice)
}

type OrderByParameter struct {
	SortItems []SortItem `json:"sort_items"`
}

// IsTimeOrdered reports whether the order is led by time and only uses time
// and device keys.
func (p *OrderByParameter) IsTimeOrdered() bool {
	if len(p.SortItems) == 0 || !p.SortItems[0].IsTime() {
		return false
	}
	for _, item := range p.SortItems {
		if !item.IsTime() && !item.IsDevice() {
			return false
		}
	}
	return true
}

type ColumnGeneratorType uint8

const (
	SlidingTimeGenerator ColumnGeneratorType = iota
)

type ColumnGeneratorParameter struct {
	Type        ColumnGeneratorType   `json:"type"`
	GroupByTime *GroupByTimeParameter `json:"group_by_time,omitempty"`
	Ascending   bool                  `json:"ascending"`
}

// IntoPathDescriptor maps the source columns of a select into onto target
// devices and measurements.
type IntoPathDescriptor struct {
	// target device -> target measurement -> source column
	TargetPathToSource map[string]map[string]string `json:"target_to_source"`
	// target device -> target measurement -> data type
	TargetPathToDataType map[string]map[string]types.DataType `json:"target_to_type"`
	TargetDeviceAligned  map[string]bool                      `json:"target_aligned,omitempty"`
	SourceTargetPairs    [][2]string                          `json:"source_target_pairs,omitempty"`
	// SourceColumnToView renames a source column by position when it is a view.
	SourceColumnToView []string `json:"source_to_view,omitempty"`
}

// DeviceViewIntoPathDescriptor is IntoPathDescriptor for every source device.
type DeviceViewIntoPathDescriptor struct {
	SourceDeviceToTargetPath     map[string]map[string]map[string]string         `json:"device_target_to_source"`
	SourceDeviceToTargetDataType map[string]map[string]map[string]types.DataType `json:"device_target_to_type"`
	TargetDeviceAligned          map[string]bool                                 `json:"target_aligned,omitempty"`
	DeviceToSourceTargetPairs    map[string][][2]string                          `json:"device_source_target_pairs,omitempty"`
}
