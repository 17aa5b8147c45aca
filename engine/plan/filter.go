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
)

type FilterKind uint8

const (
	FilterGt FilterKind = iota
	FilterGtEq
	FilterLt
	FilterLtEq
	FilterEq
	FilterBetween
	FilterAnd
	FilterOr
)

var filterKindNames = [...]string{
	FilterGt:      "gt",
	FilterGtEq:    "gteq",
	FilterLt:      "lt",
	FilterLtEq:    "lteq",
	FilterEq:      "eq",
	FilterBetween: "between",
	FilterAnd:     "and",
	FilterOr:      "or",
}

func (k FilterKind) String() string {
	if int(k) < len(filterKindNames) {
		return filterKindNames[k]
	}
	return "unknown"
}

func (k FilterKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FilterKind) UnmarshalText(b []byte) error {
	for i, name := range filterKindNames {
		if name == string(b) {
			*k = FilterKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown time filter kind %q", string(b))
}

// TimeFilter is the global time predicate of a fragment. A scan keeps its
// own copy since a filter is consumed while rows are read.
type TimeFilter struct {
	Kind  FilterKind  `json:"kind"`
	Value int64       `json:"value,omitempty"`
	Upper int64       `json:"upper,omitempty"`
	Left  *TimeFilter `json:"left,omitempty"`
	Right *TimeFilter `json:"right,omitempty"`
}

func TimeGt(v int64) *TimeFilter   { return &TimeFilter{Kind: FilterGt, Value: v} }
func TimeGtEq(v int64) *TimeFilter { return &TimeFilter{Kind: FilterGtEq, Value: v} }
func TimeLt(v int64) *TimeFilter   { return &TimeFilter{Kind: FilterLt, Value: v} }
func TimeLtEq(v int64) *TimeFilter { return &TimeFilter{Kind: FilterLtEq, Value: v} }
func TimeEq(v int64) *TimeFilter   { return &TimeFilter{Kind: FilterEq, Value: v} }

func TimeBetween(lower, upper int64) *TimeFilter {
	return &TimeFilter{Kind: FilterBetween, Value: lower, Upper: upper}
}

func And(l, r *TimeFilter) *TimeFilter {
	return &TimeFilter{Kind: FilterAnd, Left: l, Right: r}
}

func Or(l, r *TimeFilter) *TimeFilter {
	return &TimeFilter{Kind: FilterOr, Left: l, Right: r}
}

// Copy returns a deep copy, nil for a nil filter.
func (f *TimeFilter) Copy() *TimeFilter {
	if f == nil {
		return nil
	}
	c := *f
	c.Left = f.Left.Copy()
	c.Right = f.Right.Copy()
	return &c
}

// Satisfy reports whether ts passes the filter. A nil filter passes everything.
func (f *TimeFilter) Satisfy(ts int64) bool {
	if f == nil {
		return true
	}
	switch f.Kind {
	case FilterGt:
		return ts > f.Value
	case FilterGtEq:
		return ts >= f.Value
	case FilterLt:
		return ts < f.Value
	case FilterLtEq:
		return ts <= f.Value
	case FilterEq:
		return ts == f.Value
	case FilterBetween:
		return ts >= f.Value && ts <= f.Upper
	case FilterAnd:
		return f.Left.Satisfy(ts) && f.Right.Satisfy(ts)
	case FilterOr:
		return f.Left.Satisfy(ts) || f.Right.Satisfy(ts)
	}
	return false
}

// IsLowerBound reports whether the filter is a bare "time >" or "time >=".
func (f *TimeFilter) IsLowerBound() bool {
	return f != nil && (f.Kind == FilterGt || f.Kind == FilterGtEq)
}

func (f *TimeFilter) String() string {
	if f == nil {
		return "<nil>"
	}
	switch f.Kind {
	case FilterGt:
		return fmt.Sprintf("time > %d", f.Value)
	case FilterGtEq:
		return fmt.Sprintf("time >= %d", f.Value)
	case FilterLt:
		return fmt.Sprintf("time < %d", f.Value)
	case FilterLtEq:
		return fmt.Sprintf("time <= %d", f.Value)
	case FilterEq:
		return fmt.Sprintf("time == %d", f.Value)
	case FilterBetween:
		return fmt.Sprintf("time between %d and %d", f.Value, f.Upper)
	case FilterAnd:
		return fmt.Sprintf("(%s && %s)", f.Left, f.Right)
	case FilterOr:
		return fmt.Sprintf("(%s || %s)", f.Left, f.Right)
	}
	return "unknown"
}
