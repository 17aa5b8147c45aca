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
	"time"

	"github.com/openGemini/ts-planner/lib/errno"
)

// Precision is the unit of the int64 timestamps of a database.
type Precision uint8

const (
	Millisecond Precision = iota
	Microsecond
	Nanosecond
)

func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "ms", "":
		return Millisecond, nil
	case "us", "u":
		return Microsecond, nil
	case "ns", "n":
		return Nanosecond, nil
	}
	return Millisecond, errno.NewError(errno.InvalidConfig, "unknown time precision "+s)
}

func (p Precision) String() string {
	switch p {
	case Microsecond:
		return "us"
	case Nanosecond:
		return "ns"
	}
	return "ms"
}

// PerSecond is the number of ticks in one second.
func (p Precision) PerSecond() int64 {
	switch p {
	case Microsecond:
		return 1000_000
	case Nanosecond:
		return 1000_000_000
	}
	return 1000
}

// FromDuration converts d into ticks, truncating what is below one tick.
func (p Precision) FromDuration(d time.Duration) int64 {
	switch p {
	case Microsecond:
		return int64(d / time.Microsecond)
	case Nanosecond:
		return int64(d)
	}
	return int64(d / time.Millisecond)
}

// ToTime converts a timestamp into a wall clock time of loc.
func (p Precision) ToTime(ts int64, loc *time.Location) time.Time {
	per := p.PerSecond()
	sec, rem := ts/per, ts%per
	if rem < 0 {
		sec--
		rem += per
	}
	return time.Unix(sec, rem*(int64(time.Second)/per)).In(loc)
}

// FromTime is the inverse of ToTime.
func (p Precision) FromTime(t time.Time) int64 {
	per := p.PerSecond()
	return t.Unix()*per + int64(t.Nanosecond())/(int64(time.Second)/per)
}

// AddMonths moves ts by months calendar months in loc. A day of month past
// the end of the target month is clamped to its last day, so Jan 31 plus one
// month is Feb 28 (or 29). Sub-second ticks are kept as they are.
func AddMonths(ts int64, months int, p Precision, loc *time.Location) int64 {
	if months == 0 {
		return ts
	}
	if loc == nil {
		loc = time.UTC
	}
	t := p.ToTime(ts, loc)
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, loc)
	if last := daysIn(first.Year(), first.Month(), loc); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return p.FromTime(time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), loc))
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
