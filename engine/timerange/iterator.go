/*
Copyright 2024 Huawei Cloud Computing Technologies Co., Ltd.

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

package timerange

import (
	"fmt"
	"math"
	"time"
)

// TimeRange is the closed interval [Min, Max].
type TimeRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

func (r TimeRange) Contains(ts int64) bool {
	return ts >= r.Min && ts <= r.Max
}

// Overlaps reports whether r and o share at least one timestamp.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}

// Span returns the smallest range holding every range of ranges, nil when
// ranges is empty or any of them is unknown.
func Span(ranges []*TimeRange) *TimeRange {
	if len(ranges) == 0 {
		return nil
	}
	var out *TimeRange
	for _, r := range ranges {
		if r == nil {
			return nil
		}
		if out == nil {
			out = &TimeRange{Min: r.Min, Max: r.Max}
			continue
		}
		out.Min = min(out.Min, r.Min)
		out.Max = max(out.Max, r.Max)
	}
	return out
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Iterator produces the aggregation windows of a query lazily.
type Iterator interface {
	HasNextTimeRange() bool
	NextTimeRange() TimeRange
	IsAscending() bool
	Reset()
	TotalTimeRangeCount() int64
}

// WindowParameter describes the windows of a group by time clause.
type WindowParameter struct {
	StartTime   int64
	EndTime     int64
	Interval    TimeDuration
	SlidingStep TimeDuration
	LeftCRightO bool
}

type windowIterator struct {
	param     WindowParameter
	ascending bool
	precision Precision
	loc       *time.Location

	total int64
	next  int64
}

// NewIterator returns the iterator over the windows of param. An interval
// without any duration yields one window spanning the whole query.
func NewIterator(param WindowParameter, ascending bool, p Precision, loc *time.Location) Iterator {
	if param.Interval.IsZero() {
		return NewSingleWindowIterator(param.StartTime, param.EndTime)
	}
	if param.SlidingStep.IsZero() {
		param.SlidingStep = param.Interval
	}
	if loc == nil {
		loc = time.UTC
	}
	it := &windowIterator{
		param:     param,
		ascending: ascending,
		precision: p,
		loc:       loc,
	}
	it.total = it.count()
	it.Reset()
	return it
}

func (it *windowIterator) count() int64 {
	span := it.param.EndTime - it.param.StartTime
	if span <= 0 {
		return 0
	}
	step := it.param.SlidingStep
	if !step.ContainsMonth() {
		return (span + step.NonMonthDuration - 1) / step.NonMonthDuration
	}
	var n int64
	for it.windowStart(n) < it.param.EndTime {
		n++
	}
	return n
}

// windowStart is computed from StartTime each time so calendar steps never drift.
func (it *windowIterator) windowStart(n int64) int64 {
	return it.param.SlidingStep.AddTo(it.param.StartTime, int(n), it.precision, it.loc)
}

func (it *windowIterator) window(n int64) TimeRange {
	start := it.windowStart(n)
	end := it.param.Interval.AddTo(start, 1, it.precision, it.loc)
	if end > it.param.EndTime {
		end = it.param.EndTime
	}
	if it.param.LeftCRightO {
		return TimeRange{Min: start, Max: end - 1}
	}
	return TimeRange{Min: start + 1, Max: end}
}

func (it *windowIterator) HasNextTimeRange() bool {
	if it.ascending {
		return it.next < it.total
	}
	return it.next >= 0
}

func (it *windowIterator) NextTimeRange() TimeRange {
	r := it.window(it.next)
	if it.ascending {
		it.next++
	} else {
		it.next--
	}
	return r
}

func (it *windowIterator) IsAscending() bool {
	return it.ascending
}

func (it *windowIterator) Reset() {
	if it.ascending {
		it.next = 0
	} else {
		it.next = it.total - 1
	}
}

func (it *windowIterator) TotalTimeRangeCount() int64 {
	return it.total
}

type singleWindowIterator struct {
	r    TimeRange
	used bool
}

// NewSingleWindowIterator yields [min, max) once.
func NewSingleWindowIterator(min, max int64) Iterator {
	if max != math.MaxInt64 {
		max--
	}
	return &singleWindowIterator{r: TimeRange{Min: min, Max: max}}
}

func (it *singleWindowIterator) HasNextTimeRange() bool {
	return !it.used
}

func (it *singleWindowIterator) NextTimeRange() TimeRange {
	it.used = true
	return it.r
}

func (it *singleWindowIterator) IsAscending() bool {
	return true
}

func (it *singleWindowIterator) Reset() {
	it.used = false
}

func (it *singleWindowIterator) TotalTimeRangeCount() int64 {
	return 1
}
