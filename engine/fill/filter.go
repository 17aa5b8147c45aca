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

	"github.com/openGemini/ts-planner/engine/timerange"
)

// Filter decides whether the previous value seen at previousTime may still
// fill a null at ts.
type Filter interface {
	NeedFill(ts, previousTime int64) bool
}

type trueFilter struct{}

func (trueFilter) NeedFill(int64, int64) bool { return true }

// FixedIntervalFilter bounds the look back by a constant number of ticks.
type FixedIntervalFilter struct {
	interval int64
}

func NewFixedIntervalFilter(interval int64) *FixedIntervalFilter {
	return &FixedIntervalFilter{interval: interval}
}

func (f *FixedIntervalFilter) NeedFill(ts, previousTime int64) bool {
	return ts-previousTime <= f.interval
}

// monthInterval bounds the look back by a calendar aware duration.
type monthInterval struct {
	months    int
	nonMonth  int64
	precision timerange.Precision
	loc       *time.Location
}

func newMonthInterval(d timerange.TimeDuration, p timerange.Precision, loc *time.Location) monthInterval {
	return monthInterval{months: d.MonthDuration, nonMonth: d.NonMonthDuration, precision: p, loc: loc}
}

func (m *monthInterval) deadline(previousTime int64) int64 {
	return timerange.AddMonths(previousTime, m.months, m.precision, m.loc) + m.nonMonth
}

func (m *monthInterval) NeedFill(ts, previousTime int64) bool {
	return ts <= m.deadline(previousTime)
}

type MonthIntervalMSFilter struct{ monthInterval }

func NewMonthIntervalMSFilter(d timerange.TimeDuration, loc *time.Location) *MonthIntervalMSFilter {
	return &MonthIntervalMSFilter{newMonthInterval(d, timerange.Millisecond, loc)}
}

type MonthIntervalUSFilter struct{ monthInterval }

func NewMonthIntervalUSFilter(d timerange.TimeDuration, loc *time.Location) *MonthIntervalUSFilter {
	return &MonthIntervalUSFilter{newMonthInterval(d, timerange.Microsecond, loc)}
}

type MonthIntervalNSFilter struct{ monthInterval }

func NewMonthIntervalNSFilter(d timerange.TimeDuration, loc *time.Location) *MonthIntervalNSFilter {
	return &MonthIntervalNSFilter{newMonthInterval(d, timerange.Nanosecond, loc)}
}

// NewFilter builds the look back filter of a previous fill. No threshold
// always fills.
func NewFilter(threshold *timerange.TimeDuration, p timerange.Precision, loc *time.Location) Filter {
	if threshold == nil {
		return trueFilter{}
	}
	if !threshold.ContainsMonth() {
		return NewFixedIntervalFilter(threshold.NonMonthDuration)
	}
	if loc == nil {
		loc = time.UTC
	}
	switch p {
	case timerange.Microsecond:
		return NewMonthIntervalUSFilter(*threshold, loc)
	case timerange.Nanosecond:
		return NewMonthIntervalNSFilter(*threshold, loc)
	}
	return NewMonthIntervalMSFilter(*threshold, loc)
}
