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
	"strings"

	"github.com/openGemini/ts-planner/engine/types"
)

const PathSeparator = "."

// MeasurementPath addresses one non aligned time series.
type MeasurementPath struct {
	Device      string         `json:"device"`
	Measurement string         `json:"measurement"`
	DataType    types.DataType `json:"data_type"`
}

func NewMeasurementPath(fullPath string, dt types.DataType) MeasurementPath {
	idx := strings.LastIndex(fullPath, PathSeparator)
	if idx < 0 {
		return MeasurementPath{Measurement: fullPath, DataType: dt}
	}
	return MeasurementPath{Device: fullPath[:idx], Measurement: fullPath[idx+1:], DataType: dt}
}

func (p MeasurementPath) FullPath() string {
	if p.Device == "" {
		return p.Measurement
	}
	return p.Device + PathSeparator + p.Measurement
}

// AlignedPath addresses the measurements of one aligned device.
type AlignedPath struct {
	Device       string           `json:"device"`
	Measurements []string         `json:"measurements"`
	DataTypes    []types.DataType `json:"data_types"`
}

func (p AlignedPath) MeasurementIndex(measurement string) int {
	for i, m := range p.Measurements {
		if m == measurement {
			return i
		}
	}
	return -1
}

func (p AlignedPath) FullPath(i int) string {
	return p.Device + PathSeparator + p.Measurements[i]
}

func (p AlignedPath) FullPaths() []string {
	paths := make([]string, len(p.Measurements))
	for i := range p.Measurements {
		paths[i] = p.FullPath(i)
	}
	return paths
}

// Sub keeps the measurements at the given indexes, in order.
func (p AlignedPath) Sub(indexes []int) AlignedPath {
	sub := AlignedPath{Device: p.Device}
	for _, i := range indexes {
		sub.Measurements = append(sub.Measurements, p.Measurements[i])
		sub.DataTypes = append(sub.DataTypes, p.DataTypes[i])
	}
	return sub
}

// Measurement resolves a full path or a bare measurement name against the device.
func (p AlignedPath) Measurement(name string) string {
	prefix := p.Device + PathSeparator
	if strings.HasPrefix(name, prefix) {
		return name[len(prefix):]
	}
	return name
}
