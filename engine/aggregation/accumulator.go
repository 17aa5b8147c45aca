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
	"strconv"
	"strings"

	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

const (
	// AttrKeep is the minimum length of a run of true values counted by count_if.
	AttrKeep = "keep"
	// AttrIgnoreNull makes count_if skip nulls instead of ending the current run.
	AttrIgnoreNull = "ignoreNull"
)

// Accumulator is the running state of one aggregation function. Values are
// boxed as bool, int32, int64, float32, float64 or string, nil is null.
type Accumulator interface {
	Type() plan.AggregationType
	// AddInput folds one raw row, args are index aligned with the inputs.
	AddInput(ts int64, args []interface{})
	// AddIntermediate folds a partial result produced by Partial.
	AddIntermediate(partial []interface{})
	Partial() []interface{}
	Final() interface{}
	IntermediateTypes() []types.DataType
	FinalType() types.DataType
	Reset()
}

type AccumulatorCreator interface {
	Create(inputTypes []types.DataType, attrs map[string]string) (Accumulator, error)
}

// CreatorFunc adapts a plain function to AccumulatorCreator.
type CreatorFunc func(inputTypes []types.DataType, attrs map[string]string) (Accumulator, error)

func (f CreatorFunc) Create(inputTypes []types.DataType, attrs map[string]string) (Accumulator, error) {
	return f(inputTypes, attrs)
}

var factoryInstance = make(map[plan.AggregationType]AccumulatorCreator)

func GetAccumulatorCreator(t plan.AggregationType) AccumulatorCreator {
	return factoryInstance[t]
}

func RegistryAccumulator(t plan.AggregationType, creator AccumulatorCreator) {
	_, ok := factoryInstance[t]
	if ok {
		return
	}
	factoryInstance[t] = creator
}

func init() {
	RegistryAccumulator(plan.AggCount, CreatorFunc(newCount))
	RegistryAccumulator(plan.AggCountIf, CreatorFunc(newCountIf))
	RegistryAccumulator(plan.AggSum, CreatorFunc(newSum))
	RegistryAccumulator(plan.AggAvg, CreatorFunc(newAvg))
	RegistryAccumulator(plan.AggExtreme, selectorCreator(plan.AggExtreme, extremeBetter))
	RegistryAccumulator(plan.AggMaxValue, selectorCreator(plan.AggMaxValue, maxBetter))
	RegistryAccumulator(plan.AggMinValue, selectorCreator(plan.AggMinValue, minBetter))
	RegistryAccumulator(plan.AggFirstValue, CreatorFunc(newFirstValue))
	RegistryAccumulator(plan.AggLastValue, CreatorFunc(newLastValue))
	RegistryAccumulator(plan.AggMaxTime, CreatorFunc(newMaxTime))
	RegistryAccumulator(plan.AggMinTime, CreatorFunc(newMinTime))
	RegistryAccumulator(plan.AggTimeDuration, CreatorFunc(newTimeDuration))
	RegistryAccumulator(plan.AggMode, CreatorFunc(newMode))
	for _, t := range []plan.AggregationType{plan.AggStddev, plan.AggStddevPop, plan.AggStddevSamp,
		plan.AggVariance, plan.AggVarPop, plan.AggVarSamp} {
		RegistryAccumulator(t, varianceCreator(t))
	}
	RegistryAccumulator(plan.AggMaxBy, byCreator(plan.AggMaxBy, maxBetter))
	RegistryAccumulator(plan.AggMinBy, byCreator(plan.AggMinBy, minBetter))
}

// NewAccumulator selects the accumulator of aggType specialized for the
// resolved input types.
func NewAccumulator(aggType plan.AggregationType, inputTypes []types.DataType, attrs map[string]string) (Accumulator, error) {
	creator := GetAccumulatorCreator(aggType)
	if creator == nil {
		return nil, errno.NewError(errno.UnsupportedAggregation, aggType, typeNames(inputTypes))
	}
	if len(inputTypes) != aggType.InputNum() {
		return nil, errno.NewError(errno.InvalidPlan,
			aggType.String()+" expects "+strconv.Itoa(aggType.InputNum())+" input types")
	}
	return creator.Create(inputTypes, attrs)
}

func typeNames(ts []types.DataType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

func unsupported(t plan.AggregationType, inputTypes []types.DataType) error {
	return errno.NewError(errno.UnsupportedAggregation, t, typeNames(inputTypes))
}

func isKnown(t types.DataType) bool {
	switch t {
	case types.Boolean, types.Int32, types.Int64, types.Float, types.Double, types.Text:
		return true
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	}
	return 0, false
}

func attrInt(attrs map[string]string, key string, def int64) int64 {
	s, ok := attrs[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func attrBool(attrs map[string]string, key string, def bool) bool {
	s, ok := attrs[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}
