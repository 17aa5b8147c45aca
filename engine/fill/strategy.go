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

package fill

import (
	"time"

	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// PreviousFill carries the last non null value forward, across batches too,
// as long as filter accepts the gap.
type PreviousFill struct {
	dataType     types.DataType
	filter       Filter
	previous     interface{}
	previousTime int64
}

func NewPreviousFill(dt types.DataType, filter Filter) (Fill, error) {
	if !supported(dt) {
		return nil, unknownType(dt)
	}
	if filter == nil {
		filter = trueFilter{}
	}
	return &PreviousFill{dataType: dt, filter: filter}, nil
}

func (f *PreviousFill) Fill(times []int64, values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if v != nil {
			f.previous, f.previousTime = v, times[i]
			out[i] = v
			continue
		}
		if f.previous != nil && f.filter.NeedFill(times[i], f.previousTime) {
			out[i] = f.previous
		}
	}
	return out
}

func (f *PreviousFill) Name() string { return f.dataType.String() + " previous" }

func (f *PreviousFill) Filter() Filter { return f.filter }

// LinearFill interpolates a null from the closest non null rows around it.
// Nulls after the last value of a batch stay null until the next value is
// known.
type LinearFill struct {
	dataType     types.DataType
	previous     float64
	previousTime int64
	hasPrevious  bool
}

// NewLinearFill interpolates numeric columns. Boolean and text columns have
// nothing to interpolate and are left as they are.
func NewLinearFill(dt types.DataType) (Fill, error) {
	switch dt {
	case types.Int32, types.Int64, types.Float, types.Double:
		return &LinearFill{dataType: dt}, nil
	case types.Boolean, types.Text:
		return IdentityFill{}, nil
	}
	return nil, unknownType(dt)
}

func (f *LinearFill) Fill(times []int64, values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	next := -1
	for i, v := range values {
		cur, ok := numeric(v)
		if ok {
			f.previous, f.previousTime, f.hasPrevious = cur, times[i], true
			out[i] = v
			continue
		}
		if !f.hasPrevious {
			continue
		}
		if next < i {
			next = nextValue(values, i)
		}
		if next < 0 {
			continue
		}
		nv, _ := numeric(values[next])
		ratio := float64(times[i]-f.previousTime) / float64(times[next]-f.previousTime)
		out[i] = f.cast(f.previous + (nv-f.previous)*ratio)
	}
	return out
}

func nextValue(values []interface{}, from int) int {
	for j := from; j < len(values); j++ {
		if values[j] != nil {
			return j
		}
	}
	return -1
}

func (f *LinearFill) cast(v float64) interface{} {
	switch f.dataType {
	case types.Int32:
		return int32(v)
	case types.Int64:
		return int64(v)
	case types.Float:
		return float32(v)
	}
	return v
}

func (f *LinearFill) Name() string { return f.dataType.String() + " linear" }

func numeric(v interface{}) (float64, bool) {
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

// NewFills selects one fill per output column.
func NewFills(desc plan.FillDescriptor, dataTypes []types.DataType, p timerange.Precision, loc *time.Location) ([]Fill, error) {
	var filter Filter
	switch desc.Policy {
	case plan.FillValue, plan.FillLinear:
	case plan.FillPrevious:
		filter = NewFilter(desc.TimeDurationThreshold, p, loc)
	default:
		return nil, errno.NewError(errno.UnsupportedFillPolicy, desc.Policy.String())
	}
	fills := make([]Fill, len(dataTypes))
	for i, dt := range dataTypes {
		var err error
		switch desc.Policy {
		case plan.FillValue:
			fills[i], err = NewValueFill(dt, desc.Value)
		case plan.FillPrevious:
			fills[i], err = NewPreviousFill(dt, filter)
		case plan.FillLinear:
			fills[i], err = NewLinearFill(dt)
		}
		if err != nil {
			return nil, err
		}
	}
	return fills, nil
}
