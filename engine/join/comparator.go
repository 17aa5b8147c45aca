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

package join

import "math"

// TimeComparator orders the timestamps of a time join.
type TimeComparator interface {
	// Satisfy reports whether a comes strictly before b.
	Satisfy(a, b int64) bool
	// Current is the earlier of a and b.
	Current(a, b int64) int64
	// Bound is the time no row can come before.
	Bound() int64
	Ascending() bool
}

type ascTimeComparator struct{}

func (ascTimeComparator) Satisfy(a, b int64) bool { return a < b }
func (ascTimeComparator) Current(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
func (ascTimeComparator) Bound() int64    { return math.MinInt64 }
func (ascTimeComparator) Ascending() bool { return true }

type descTimeComparator struct{}

func (descTimeComparator) Satisfy(a, b int64) bool { return a > b }
func (descTimeComparator) Current(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
func (descTimeComparator) Bound() int64    { return math.MaxInt64 }
func (descTimeComparator) Ascending() bool { return false }

var (
	AscTimeComparator  TimeComparator = ascTimeComparator{}
	DescTimeComparator TimeComparator = descTimeComparator{}
)

func NewTimeComparator(ascending bool) TimeComparator {
	if ascending {
		return AscTimeComparator
	}
	return DescTimeComparator
}
