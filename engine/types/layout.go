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

package types

import "fmt"

const (
	// TimeColumnIndex is the value column index addressing the time column of a block.
	TimeColumnIndex = -1

	// TimeColumnName is the layout key of the time column.
	TimeColumnName = "Time"
)

// InputLocation addresses one column of one child's row batch.
type InputLocation struct {
	TsBlockIndex     int `json:"tsBlockIndex"`
	ValueColumnIndex int `json:"valueColumnIndex"`
}

func NewInputLocation(block, column int) InputLocation {
	return InputLocation{TsBlockIndex: block, ValueColumnIndex: column}
}

func (l InputLocation) IsTime() bool {
	return l.ValueColumnIndex == TimeColumnIndex
}

func (l InputLocation) String() string {
	return fmt.Sprintf("(%d,%d)", l.TsBlockIndex, l.ValueColumnIndex)
}

// Layout maps column names to the locations producing them, in insertion order.
type Layout struct {
	names []string
	locs  map[string][]InputLocation
}

func NewLayout() *Layout {
	return &Layout{locs: make(map[string][]InputLocation)}
}

func (l *Layout) Add(name string, loc InputLocation) {
	if _, ok := l.locs[name]; !ok {
		l.names = append(l.names, name)
	}
	l.locs[name] = append(l.locs[name], loc)
}

func (l *Layout) Get(name string) ([]InputLocation, bool) {
	locs, ok := l.locs[name]
	return locs, ok
}

// First returns the first location of name.
func (l *Layout) First(name string) (InputLocation, bool) {
	locs := l.locs[name]
	if len(locs) == 0 {
		return InputLocation{}, false
	}
	return locs[0], true
}

func (l *Layout) Names() []string {
	return l.names
}

func (l *Layout) Len() int {
	return len(l.names)
}

// Walk visits entries in insertion order.
func (l *Layout) Walk(fn func(name string, locs []InputLocation)) {
	for _, n := range l.names {
		fn(n, l.locs[n])
	}
}
