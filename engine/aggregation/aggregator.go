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
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
)

// Aggregator binds an accumulator to the columns it reads. Every entry of
// InputLocations is one input: the raw columns of one series, or the partial
// columns written by a previous step.
type Aggregator struct {
	acc            Accumulator
	step           plan.AggregationStep
	inputLocations [][]types.InputLocation
}

func NewAggregator(acc Accumulator, step plan.AggregationStep, locations [][]types.InputLocation) *Aggregator {
	return &Aggregator{acc: acc, step: step, inputLocations: locations}
}

func (a *Aggregator) Accumulator() Accumulator {
	return a.acc
}

func (a *Aggregator) Step() plan.AggregationStep {
	return a.step
}

func (a *Aggregator) InputLocations() [][]types.InputLocation {
	return a.inputLocations
}

func (a *Aggregator) OutputTypes() []types.DataType {
	if a.step.IsOutputPartial() {
		return a.acc.IntermediateTypes()
	}
	return []types.DataType{a.acc.FinalType()}
}

func (a *Aggregator) OutputColumnCount() int {
	return len(a.OutputTypes())
}

// ProcessRow folds one row, value returns the cell at a location.
func (a *Aggregator) ProcessRow(ts int64, value func(types.InputLocation) interface{}) {
	for _, locs := range a.inputLocations {
		args := make([]interface{}, len(locs))
		for i, loc := range locs {
			if loc.IsTime() {
				args[i] = ts
				continue
			}
			args[i] = value(loc)
		}
		if a.step.IsInputRaw() {
			a.acc.AddInput(ts, args)
		} else {
			a.acc.AddIntermediate(args)
		}
	}
}

func (a *Aggregator) Outputs() []interface{} {
	if a.step.IsOutputPartial() {
		return a.acc.Partial()
	}
	return []interface{}{a.acc.Final()}
}

func (a *Aggregator) Reset() {
	a.acc.Reset()
}
