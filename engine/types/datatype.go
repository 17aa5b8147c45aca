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

import (
	"strings"
)

type DataType uint8

const (
	Unknown DataType = iota
	Boolean
	Int32
	Int64
	Float
	Double
	Text
	Vector
)

var dataTypeNames = [...]string{
	Unknown: "UNKNOWN",
	Boolean: "BOOLEAN",
	Int32:   "INT32",
	Int64:   "INT64",
	Float:   "FLOAT",
	Double:  "DOUBLE",
	Text:    "TEXT",
	Vector:  "VECTOR",
}

func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return dataTypeNames[Unknown]
}

// ParseDataType is the inverse of String, case insensitive.
func ParseDataType(s string) DataType {
	s = strings.ToUpper(s)
	for i, name := range dataTypeNames {
		if name == s {
			return DataType(i)
		}
	}
	return Unknown
}

func (t DataType) IsNumeric() bool {
	switch t {
	case Int32, Int64, Float, Double:
		return true
	}
	return false
}

// FixedSize is the width of one value in bytes, 0 for variable width types.
func (t DataType) FixedSize() int64 {
	switch t {
	case Int32, Float:
		return 4
	case Int64, Double:
		return 8
	case Boolean:
		return 1
	}
	return 0
}

func (t DataType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *DataType) UnmarshalText(b []byte) error {
	*t = ParseDataType(string(b))
	return nil
}

// TypeProvider resolves the data type of a column by its name.
type TypeProvider interface {
	GetType(name string) (DataType, bool)
}

// TypeMap is the plain TypeProvider.
type TypeMap map[string]DataType

func (m TypeMap) GetType(name string) (DataType, bool) {
	t, ok := m[name]
	return t, ok
}

// Types resolves names in order, Unknown for every missing name.
func Types(p TypeProvider, names []string) []DataType {
	ts := make([]DataType, len(names))
	for i, n := range names {
		if t, ok := p.GetType(n); ok {
			ts[i] = t
		}
	}
	return ts
}
