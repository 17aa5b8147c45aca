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
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/influxdata/influxql"
	"github.com/openGemini/ts-planner/lib/errno"
)

// MonthApproximation is the fixed length of a month when no calendar is at hand.
const MonthApproximation = 30 * 24 * time.Hour

// TimeDuration keeps calendar months apart from the fixed part of a duration;
// the fixed part is in ticks of the database precision.
type TimeDuration struct {
	MonthDuration    int   `json:"monthDuration"`
	NonMonthDuration int64 `json:"nonMonthDuration"`
}

func NewTimeDuration(months int, nonMonth int64) TimeDuration {
	return TimeDuration{MonthDuration: months, NonMonthDuration: nonMonth}
}

func (d TimeDuration) ContainsMonth() bool {
	return d.MonthDuration != 0
}

func (d TimeDuration) IsZero() bool {
	return d.MonthDuration == 0 && d.NonMonthDuration == 0
}

// Approximate is the duration in ticks with every month counted as 30 days.
func (d TimeDuration) Approximate(p Precision) int64 {
	return int64(d.MonthDuration)*p.FromDuration(MonthApproximation) + d.NonMonthDuration
}

// AddTo returns ts moved forward times times by d.
func (d TimeDuration) AddTo(ts int64, times int, p Precision, loc *time.Location) int64 {
	return AddMonths(ts, d.MonthDuration*times, p, loc) + d.NonMonthDuration*int64(times)
}

func (d TimeDuration) String() string {
	if !d.ContainsMonth() {
		return strconv.FormatInt(d.NonMonthDuration, 10)
	}
	return fmt.Sprintf("%dmo%d", d.MonthDuration, d.NonMonthDuration)
}

// ParseDuration parses strings like 1y2mo3d4h. y and mo make up the month
// part, the rest is parsed as an influxql duration and converted into ticks.
func ParseDuration(s string, p Precision) (TimeDuration, error) {
	var d TimeDuration
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return d, errno.NewError(errno.InvalidDuration, s)
	}

	for i := 0; i < len(s); {
		start := i
		for i < len(s) && unicode.IsDigit(rune(s[i])) {
			i++
		}
		if i == start || i == len(s) {
			return d, errno.NewError(errno.InvalidDuration, s)
		}
		value, err := strconv.Atoi(s[start:i])
		if err != nil {
			return d, errno.Wrap(err, errno.InvalidDuration, s)
		}

		unitStart := i
		for i < len(s) && !unicode.IsDigit(rune(s[i])) {
			i++
		}
		unit := s[unitStart:i]

		switch unit {
		case "y":
			d.MonthDuration += value * 12
		case "mo":
			d.MonthDuration += value
		default:
			if unit == "us" {
				// influxql spells microseconds u
				unit = "u"
			}
			fixed, err := influxql.ParseDuration(s[start:unitStart] + unit)
			if err != nil {
				return d, errno.Wrap(err, errno.InvalidDuration, s)
			}
			d.NonMonthDuration += p.FromDuration(fixed)
		}
	}
	return d, nil
}
