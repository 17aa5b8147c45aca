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

package aggregation

import (
	"math"

	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
)

type countAccumulator struct {
	count int64
}

func newCount(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
	if !isKnown(inputTypes[0]) {
		return nil, unsupported(plan.AggCount, inputTypes)
	}
	return &countAccumulator{}, nil
}

func (a *countAccumulator) Type() plan.AggregationType { return plan.AggCount }

func (a *countAccumulator) AddInput(_ int64, args []interface{}) {
	if args[0] != nil {
		a.count++
	}
}

func (a *countAccumulator) AddIntermediate(partial []interface{}) {
	if n, ok := toInt(partial[0]); ok {
		a.count += n
	}
}

func (a *countAccumulator) Partial() []interface{}              { return []interface{}{a.count} }
func (a *countAccumulator) Final() interface{}                  { return a.count }
func (a *countAccumulator) IntermediateTypes() []types.DataType { return []types.DataType{types.Int64} }
func (a *countAccumulator) FinalType() types.DataType           { return types.Int64 }
func (a *countAccumulator) Reset()                              { a.count = 0 }

// countIfAccumulator counts the runs of true values at least keep rows long.
type countIfAccumulator struct {
	keep       int64
	ignoreNull bool
	count      int64
	run        int64
}

func newCountIf(inputTypes []types.DataType, attrs map[string]string) (Accumulator, error) {
	if inputTypes[0] != types.Boolean {
		return nil, unsupported(plan.AggCountIf, inputTypes)
	}
	return &countIfAccumulator{
		keep:       attrInt(attrs, AttrKeep, 1),
		ignoreNull: attrBool(attrs, AttrIgnoreNull, true),
	}, nil
}

func (a *countIfAccumulator) Type() plan.AggregationType { return plan.AggCountIf }

func (a *countIfAccumulator) AddInput(_ int64, args []interface{}) {
	if args[0] == nil {
		if !a.ignoreNull {
			a.closeRun()
		}
		return
	}
	if b, _ := args[0].(bool); b {
		a.run++
		return
	}
	a.closeRun()
}

func (a *countIfAccumulator) closeRun() {
	if a.run > 0 && a.run >= a.keep {
		a.count++
	}
	a.run = 0
}

func (a *countIfAccumulator) AddIntermediate(partial []interface{}) {
	if n, ok := toInt(partial[0]); ok {
		a.count += n
	}
}

func (a *countIfAccumulator) Partial() []interface{} {
	a.closeRun()
	return []interface{}{a.count}
}

func (a *countIfAccumulator) Final() interface{} {
	a.closeRun()
	return a.count
}

func (a *countIfAccumulator) IntermediateTypes() []types.DataType {
	return []types.DataType{types.Int64}
}
func (a *countIfAccumulator) FinalType() types.DataType { return types.Int64 }
func (a *countIfAccumulator) Reset()                    { a.count, a.run = 0, 0 }

type sumAccumulator struct {
	sum     float64
	hasData bool
}

func newSum(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
	if !inputTypes[0].IsNumeric() {
		return nil, unsupported(plan.AggSum, inputTypes)
	}
	return &sumAccumulator{}, nil
}

func (a *sumAccumulator) Type() plan.AggregationType { return plan.AggSum }

func (a *sumAccumulator) AddInput(_ int64, args []interface{}) {
	if v, ok := toFloat(args[0]); ok {
		a.sum += v
		a.hasData = true
	}
}

func (a *sumAccumulator) AddIntermediate(partial []interface{}) {
	a.AddInput(0, partial)
}

func (a *sumAccumulator) Partial() []interface{} { return []interface{}{a.Final()} }

func (a *sumAccumulator) Final() interface{} {
	if !a.hasData {
		return nil
	}
	return a.sum
}

func (a *sumAccumulator) IntermediateTypes() []types.DataType { return []types.DataType{types.Double} }
func (a *sumAccumulator) FinalType() types.DataType           { return types.Double }
func (a *sumAccumulator) Reset()                              { a.sum, a.hasData = 0, false }

type avgAccumulator struct {
	count int64
	sum   float64
}

func newAvg(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
	if !inputTypes[0].IsNumeric() {
		return nil, unsupported(plan.AggAvg, inputTypes)
	}
	return &avgAccumulator{}, nil
}

func (a *avgAccumulator) Type() plan.AggregationType { return plan.AggAvg }

func (a *avgAccumulator) AddInput(_ int64, args []interface{}) {
	if v, ok := toFloat(args[0]); ok {
		a.count++
		a.sum += v
	}
}

// AddIntermediate reads the (count, sum) pair.
func (a *avgAccumulator) AddIntermediate(partial []interface{}) {
	n, ok := toInt(partial[0])
	if !ok || n == 0 {
		return
	}
	v, _ := toFloat(partial[1])
	a.count += n
	a.sum += v
}

func (a *avgAccumulator) Partial() []interface{} {
	if a.count == 0 {
		return []interface{}{int64(0), nil}
	}
	return []interface{}{a.count, a.sum}
}

func (a *avgAccumulator) Final() interface{} {
	if a.count == 0 {
		return nil
	}
	return a.sum / float64(a.count)
}

func (a *avgAccumulator) IntermediateTypes() []types.DataType {
	return []types.DataType{types.Int64, types.Double}
}
func (a *avgAccumulator) FinalType() types.DataType { return types.Double }
func (a *avgAccumulator) Reset()                    { a.count, a.sum = 0, 0 }

// betterFunc reports whether a should replace b as the selected value.
type betterFunc func(a, b float64) bool

func maxBetter(a, b float64) bool { return a > b }
func minBetter(a, b float64) bool { return a < b }

// extremeBetter prefers the larger magnitude, the positive value on a tie.
func extremeBetter(a, b float64) bool {
	if math.Abs(a) != math.Abs(b) {
		return math.Abs(a) > math.Abs(b)
	}
	return a > b
}

// selectorAccumulator keeps one input value chosen by better.
type selectorAccumulator struct {
	aggType  plan.AggregationType
	dataType types.DataType
	better   betterFunc
	value    interface{}
	key      float64
}

func selectorCreator(t plan.AggregationType, better betterFunc) AccumulatorCreator {
	return CreatorFunc(func(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
		if !inputTypes[0].IsNumeric() {
			return nil, unsupported(t, inputTypes)
		}
		return &selectorAccumulator{aggType: t, dataType: inputTypes[0], better: better}, nil
	})
}

func (a *selectorAccumulator) Type() plan.AggregationType { return a.aggType }

func (a *selectorAccumulator) AddInput(_ int64, args []interface{}) {
	v, ok := toFloat(args[0])
	if !ok {
		return
	}
	if a.value == nil || a.better(v, a.key) {
		a.value, a.key = args[0], v
	}
}

func (a *selectorAccumulator) AddIntermediate(partial []interface{}) {
	a.AddInput(0, partial)
}

func (a *selectorAccumulator) Partial() []interface{} { return []interface{}{a.value} }
func (a *selectorAccumulator) Final() interface{}     { return a.value }
func (a *selectorAccumulator) IntermediateTypes() []types.DataType {
	return []types.DataType{a.dataType}
}
func (a *selectorAccumulator) FinalType() types.DataType { return a.dataType }
func (a *selectorAccumulator) Reset()                    { a.value, a.key = nil, 0 }

// timedValueAccumulator keeps the value of the earliest or the latest row.
type timedValueAccumulator struct {
	aggType  plan.AggregationType
	dataType types.DataType
	latest   bool
	value    interface{}
	time     int64
	hasData  bool
}

func newFirstValue(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
	if !isKnown(inputTypes[0]) {
		return nil, unsupported(plan.AggFirstValue, inputTypes)
	}
	return &timedValueAccumulator{aggType: plan.AggFirstValue, dataType: inputTypes[0]}, nil
}

func newLastValue(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
	if !isKnown(inputTypes[0]) {
		return nil, unsupported(plan.AggLastValue, inputTypes)
	}
	return &timedValueAccumulator{aggType: plan.AggLastValue, dataType: inputTypes[0], latest: true}, nil
}

func (a *timedValueAccumulator) Type() plan.AggregationType { return a.aggType }

func (a *timedValueAccumulator) update(ts int64, v interface{}) {
	if v == nil {
		return
	}
	if !a.hasData || (a.latest && ts > a.time) || (!a.latest && ts < a.time) {
		a.value, a.time, a.hasData = v, ts, true
	}
}

func (a *timedValueAccumulator) AddInput(ts int64, args []interface{}) {
	a.update(ts, args[0])
}

// AddIntermediate reads the (value, time) pair.
func (a *timedValueAccumulator) AddIntermediate(partial []interface{}) {
	ts, ok := toInt(partial[1])
	if !ok {
		return
	}
	a.update(ts, partial[0])
}

func (a *timedValueAccumulator) Partial() []interface{} {
	if !a.hasData {
		return []interface{}{nil, nil}
	}
	return []interface{}{a.value, a.time}
}

func (a *timedValueAccumulator) Final() interface{} { return a.value }
func (a *timedValueAccumulator) IntermediateTypes() []types.DataType {
	return []types.DataType{a.dataType, types.Int64}
}
func (a *timedValueAccumulator) FinalType() types.DataType { return a.dataType }
func (a *timedValueAccumulator) Reset()                    { a.value, a.time, a.hasData = nil, 0, false }

type timeAccumulator struct {
	aggType plan.AggregationType
	latest  bool
	time    int64
	hasData bool
}

func newMaxTime(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
	if !isKnown(inputTypes[0]) {
		return nil, unsupported(plan.AggMaxTime, inputTypes)
	}
	return &timeAccumulator{aggType: plan.AggMaxTime, latest: true}, nil
}

func newMinTime(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
	if !isKnown(inputTypes[0]) {
		return nil, unsupported(plan.AggMinTime, inputTypes)
	}
	return &timeAccumulator{aggType: plan.AggMinTime}, nil
}

func (a *timeAccumulator) Type() plan.AggregationType { return a.aggType }

func (a *timeAccumulator) update(ts int64) {
	if !a.hasData || (a.latest && ts > a.time) || (!a.latest && ts < a.time) {
		a.time, a.hasData = ts, true
	}
}

func (a *timeAccumulator) AddInput(ts int64, args []interface{}) {
	if args[0] != nil {
		a.update(ts)
	}
}

func (a *timeAccumulator) AddIntermediate(partial []interface{}) {
	if ts, ok := toInt(partial[0]); ok {
		a.update(ts)
	}
}

func (a *timeAccumulator) Partial() []interface{} { return []interface{}{a.Final()} }

func (a *timeAccumulator) Final() interface{} {
	if !a.hasData {
		return nil
	}
	return a.time
}

func (a *timeAccumulator) IntermediateTypes() []types.DataType { return []types.DataType{types.Int64} }
func (a *timeAccumulator) FinalType() types.DataType           { return types.Int64 }
func (a *timeAccumulator) Reset()                              { a.time, a.hasData = 0, false }

type timeDurationAccumulator struct {
	max, min timeAccumulator
}

func newTimeDuration(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
	if !isKnown(inputTypes[0]) {
		return nil, unsupported(plan.AggTimeDuration, inputTypes)
	}
	return &timeDurationAccumulator{
		max: timeAccumulator{aggType: plan.AggMaxTime, latest: true},
		min: timeAccumulator{aggType: plan.AggMinTime},
	}, nil
}

func (a *timeDurationAccumulator) Type() plan.AggregationType { return plan.AggTimeDuration }

func (a *timeDurationAccumulator) AddInput(ts int64, args []interface{}) {
	a.max.AddInput(ts, args)
	a.min.AddInput(ts, args)
}

// AddIntermediate reads the (max_time, min_time) pair.
func (a *timeDurationAccumulator) AddIntermediate(partial []interface{}) {
	a.max.AddIntermediate(partial[:1])
	a.min.AddIntermediate(partial[1:])
}

func (a *timeDurationAccumulator) Partial() []interface{} {
	return []interface{}{a.max.Final(), a.min.Final()}
}

func (a *timeDurationAccumulator) Final() interface{} {
	if !a.max.hasData {
		return nil
	}
	return a.max.time - a.min.time
}

func (a *timeDurationAccumulator) IntermediateTypes() []types.DataType {
	return []types.DataType{types.Int64, types.Int64}
}
func (a *timeDurationAccumulator) FinalType() types.DataType { return types.Int64 }
func (a *timeDurationAccumulator) Reset() {
	a.max.Reset()
	a.min.Reset()
}

// modeAccumulator returns the most frequent value, the first seen on a tie.
// Its partial result is the whole frequency table.
type modeAccumulator struct {
	dataType types.DataType
	counts   map[interface{}]int64
	order    []interface{}
}

func newMode(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
	if !isKnown(inputTypes[0]) {
		return nil, unsupported(plan.AggMode, inputTypes)
	}
	return &modeAccumulator{dataType: inputTypes[0], counts: make(map[interface{}]int64)}, nil
}

func (a *modeAccumulator) Type() plan.AggregationType { return plan.AggMode }

func (a *modeAccumulator) add(v interface{}, n int64) {
	if _, ok := a.counts[v]; !ok {
		a.order = append(a.order, v)
	}
	a.counts[v] += n
}

func (a *modeAccumulator) AddInput(_ int64, args []interface{}) {
	if args[0] != nil {
		a.add(args[0], 1)
	}
}

func (a *modeAccumulator) AddIntermediate(partial []interface{}) {
	other, ok := partial[0].(*modeAccumulator)
	if !ok {
		return
	}
	for _, v := range other.order {
		a.add(v, other.counts[v])
	}
}

func (a *modeAccumulator) Partial() []interface{} {
	c := &modeAccumulator{dataType: a.dataType, counts: make(map[interface{}]int64, len(a.counts))}
	for _, v := range a.order {
		c.add(v, a.counts[v])
	}
	return []interface{}{c}
}

func (a *modeAccumulator) Final() interface{} {
	var best interface{}
	var max int64
	for _, v := range a.order {
		if a.counts[v] > max {
			best, max = v, a.counts[v]
		}
	}
	return best
}

func (a *modeAccumulator) IntermediateTypes() []types.DataType { return []types.DataType{types.Text} }
func (a *modeAccumulator) FinalType() types.DataType           { return a.dataType }
func (a *modeAccumulator) Reset() {
	a.counts = make(map[interface{}]int64)
	a.order = a.order[:0]
}

// VarianceState is the partial result of the variance family, merged with
// the parallel form of Welford's update.
type VarianceState struct {
	Count int64
	Mean  float64
	M2    float64
}

func (s *VarianceState) add(v float64) {
	s.Count++
	delta := v - s.Mean
	s.Mean += delta / float64(s.Count)
	s.M2 += delta * (v - s.Mean)
}

func (s *VarianceState) merge(o VarianceState) {
	if o.Count == 0 {
		return
	}
	if s.Count == 0 {
		*s = o
		return
	}
	n := s.Count + o.Count
	delta := o.Mean - s.Mean
	s.M2 += o.M2 + delta*delta*float64(s.Count)*float64(o.Count)/float64(n)
	s.Mean += delta * float64(o.Count) / float64(n)
	s.Count = n
}

type varianceAccumulator struct {
	aggType plan.AggregationType
	state   VarianceState
}

func varianceCreator(t plan.AggregationType) AccumulatorCreator {
	return CreatorFunc(func(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
		if !inputTypes[0].IsNumeric() {
			return nil, unsupported(t, inputTypes)
		}
		return &varianceAccumulator{aggType: t}, nil
	})
}

func (a *varianceAccumulator) Type() plan.AggregationType { return a.aggType }

func (a *varianceAccumulator) AddInput(_ int64, args []interface{}) {
	if v, ok := toFloat(args[0]); ok {
		a.state.add(v)
	}
}

func (a *varianceAccumulator) AddIntermediate(partial []interface{}) {
	if s, ok := partial[0].(VarianceState); ok {
		a.state.merge(s)
	}
}

func (a *varianceAccumulator) Partial() []interface{} { return []interface{}{a.state} }

func (a *varianceAccumulator) Final() interface{} {
	n := a.state.Count
	switch a.aggType {
	case plan.AggVarPop, plan.AggStddevPop:
		if n == 0 {
			return nil
		}
	default:
		if n < 2 {
			return nil
		}
		n--
	}
	v := a.state.M2 / float64(n)
	switch a.aggType {
	case plan.AggStddev, plan.AggStddevPop, plan.AggStddevSamp:
		return math.Sqrt(v)
	}
	return v
}

func (a *varianceAccumulator) IntermediateTypes() []types.DataType {
	return []types.DataType{types.Text}
}

func (a *varianceAccumulator) FinalType() types.DataType { return types.Double }
func (a *varianceAccumulator) Reset()                    { a.state = VarianceState{} }

// byAccumulator returns x of the row whose y is selected by better.
type byAccumulator struct {
	aggType plan.AggregationType
	xType   types.DataType
	better  betterFunc
	x, y    interface{}
	key     float64
	hasData bool
}

func byCreator(t plan.AggregationType, better betterFunc) AccumulatorCreator {
	return CreatorFunc(func(inputTypes []types.DataType, _ map[string]string) (Accumulator, error) {
		if !isKnown(inputTypes[0]) || !inputTypes[1].IsNumeric() {
			return nil, unsupported(t, inputTypes)
		}
		return &byAccumulator{aggType: t, xType: inputTypes[0], better: better}, nil
	})
}

func (a *byAccumulator) Type() plan.AggregationType { return a.aggType }

func (a *byAccumulator) AddInput(_ int64, args []interface{}) {
	k, ok := toFloat(args[1])
	if !ok {
		return
	}
	if !a.hasData || a.better(k, a.key) {
		a.x, a.y, a.key, a.hasData = args[0], args[1], k, true
	}
}

// ByState is the partial result of max_by and min_by.
type ByState struct {
	X, Y interface{}
}

func (a *byAccumulator) AddIntermediate(partial []interface{}) {
	if s, ok := partial[0].(ByState); ok {
		a.AddInput(0, []interface{}{s.X, s.Y})
	}
}

func (a *byAccumulator) Partial() []interface{} {
	if !a.hasData {
		return []interface{}{nil}
	}
	return []interface{}{ByState{X: a.x, Y: a.y}}
}

func (a *byAccumulator) Final() interface{}                  { return a.x }
func (a *byAccumulator) IntermediateTypes() []types.DataType { return []types.DataType{types.Text} }
func (a *byAccumulator) FinalType() types.DataType           { return a.xType }
func (a *byAccumulator) Reset() {
	a.x, a.y, a.key, a.hasData = nil, nil, 0, false
}
