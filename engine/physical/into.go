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

package physical

import (
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// TargetColumns maps target device -> target measurement -> value.
type TargetColumns[T any] map[string]map[string]T

// IntoOperator writes the rows of its child into the target series and
// reports one row per written column.
type IntoOperator struct {
	BaseOperator
	InputTypes           []types.DataType
	SourceLocations      map[string]types.InputLocation
	TargetLocations      TargetColumns[types.InputLocation]
	TargetTypes          TargetColumns[types.DataType]
	TargetDeviceAligned  map[string]bool
	SourceTargetPairs    [][2]string
	StatementSizePerLine int64
}

func (op *IntoOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "targets", Second: len(op.TargetLocations)},
		{First: "statement size", Second: op.StatementSizePerLine},
	}
}

// DeviceViewIntoOperator is IntoOperator with targets chosen per source device.
type DeviceViewIntoOperator struct {
	BaseOperator
	InputTypes             []types.DataType
	SourceLocations        map[string]types.InputLocation
	DeviceTargetLocations  map[string]TargetColumns[types.InputLocation]
	DeviceTargetTypes      map[string]TargetColumns[types.DataType]
	TargetDeviceAligned    map[string]bool
	DeviceSourceTargetPair map[string][][2]string
	StatementSizePerLine   int64
}

func (op *DeviceViewIntoOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "devices", Second: len(op.DeviceTargetLocations)},
		{First: "statement size", Second: op.StatementSizePerLine},
	}
}

// sourceColumnLocations maps every column of the child of node to its first
// location.
func sourceColumnLocations(node plan.Node) map[string]types.InputLocation {
	layout := MakeLayout(node)
	m := make(map[string]types.InputLocation, layout.Len())
	layout.Walk(func(name string, locs []types.InputLocation) {
		m[name] = locs[0]
	})
	return m
}

// resolveTargets binds each target column to the location of its source
// column. The type is the declared target type, else the source column type.
func (s *FragmentState) resolveTargets(targetToSource map[string]map[string]string, targetTypes map[string]map[string]types.DataType,
	sources map[string]types.InputLocation) (TargetColumns[types.InputLocation], TargetColumns[types.DataType], error) {
	locations := make(TargetColumns[types.InputLocation], len(targetToSource))
	dataTypes := make(TargetColumns[types.DataType], len(targetToSource))
	for device, measurements := range targetToSource {
		locations[device] = make(map[string]types.InputLocation, len(measurements))
		dataTypes[device] = make(map[string]types.DataType, len(measurements))
		for measurement, source := range measurements {
			loc, ok := sources[source]
			if !ok {
				return nil, nil, errno.NewError(errno.UnknownColumn, source)
			}
			locations[device][measurement] = loc
			dt, ok := targetTypes[device][measurement]
			if !ok {
				dt, _ = s.typeOf(source)
			}
			dataTypes[device][measurement] = dt
		}
	}
	return locations, dataTypes, nil
}

// statementSizePerLine is the size of one written row: for every set of
// targets, the timestamp and one value per target column.
func (s *FragmentState) statementSizePerLine(targets ...TargetColumns[types.DataType]) (int64, error) {
	var size int64
	for _, t := range targets {
		size += timeColumnSize
		for _, measurements := range t {
			for _, dt := range measurements {
				n, err := s.columnSize(dt)
				if err != nil {
					return 0, err
				}
				size += n
			}
		}
	}
	return size, nil
}

func (b *Builder) buildInto(n *plan.IntoNode, ctx *BuildContext) (Operator, error) {
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	frag := ctx.frag
	opCtx := ctx.addOperatorContext(n.ID(), KindInto)
	desc := n.Descriptor
	sources := sourceColumnLocations(n)
	locations, dataTypes, err := frag.resolveTargets(desc.TargetPathToSource, desc.TargetPathToDataType, sources)
	if err != nil {
		return nil, err
	}
	size, err := frag.statementSizePerLine(dataTypes)
	if err != nil {
		return nil, err
	}
	return &IntoOperator{
		BaseOperator:         newBaseOperator(opCtx, child),
		InputTypes:           frag.typesOf(plan.ChildrenOutputColumnNames(n)),
		SourceLocations:      sources,
		TargetLocations:      locations,
		TargetTypes:          dataTypes,
		TargetDeviceAligned:  desc.TargetDeviceAligned,
		SourceTargetPairs:    desc.SourceTargetPairs,
		StatementSizePerLine: size,
	}, nil
}

func (b *Builder) buildDeviceViewInto(n *plan.DeviceViewIntoNode, ctx *BuildContext) (Operator, error) {
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	frag := ctx.frag
	opCtx := ctx.addOperatorContext(n.ID(), KindDeviceViewInto)
	desc := n.Descriptor
	sources := sourceColumnLocations(n)
	deviceLocations := make(map[string]TargetColumns[types.InputLocation], len(desc.SourceDeviceToTargetPath))
	deviceTypes := make(map[string]TargetColumns[types.DataType], len(desc.SourceDeviceToTargetPath))
	all := make([]TargetColumns[types.DataType], 0, len(desc.SourceDeviceToTargetPath))
	for device, targets := range desc.SourceDeviceToTargetPath {
		locations, dataTypes, err := frag.resolveTargets(targets, desc.SourceDeviceToTargetDataType[device], sources)
		if err != nil {
			return nil, err
		}
		deviceLocations[device] = locations
		deviceTypes[device] = dataTypes
		all = append(all, dataTypes)
	}
	size, err := frag.statementSizePerLine(all...)
	if err != nil {
		return nil, err
	}
	return &DeviceViewIntoOperator{
		BaseOperator:           newBaseOperator(opCtx, child),
		InputTypes:             frag.typesOf(plan.ChildrenOutputColumnNames(n)),
		SourceLocations:        sources,
		DeviceTargetLocations:  deviceLocations,
		DeviceTargetTypes:      deviceTypes,
		TargetDeviceAligned:    desc.TargetDeviceAligned,
		DeviceSourceTargetPair: desc.DeviceToSourceTargetPairs,
		StatementSizePerLine:   size,
	}, nil
}
