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
	"path/filepath"
	"strconv"
	"strings"

	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

const (
	// SortKeyTime is the column index of a time sort key.
	SortKeyTime = -1
	// SortKeyMissing marks a sort key matching no output column.
	SortKeyMissing = -2
)

// SortKey is one resolved order by item.
type SortKey struct {
	Name     string
	Index    int
	DataType types.DataType
	Ordering plan.Ordering
}

func (k SortKey) String() string {
	return k.Name + " " + k.Ordering.String()
}

// genSortInformation resolves every sort item against the output columns.
// Time sorts on the time column, other keys match a column name ignoring
// case.
func genSortInformation(outputColumns []string, dataTypes []types.DataType, items []plan.SortItem) []SortKey {
	keys := make([]SortKey, 0, len(items))
	for _, item := range items {
		if item.Key == plan.OrderByTime {
			keys = append(keys, SortKey{Name: item.Key, Index: SortKeyTime, DataType: types.Int64, Ordering: item.Ordering})
			continue
		}
		key := SortKey{Name: item.Key, Index: SortKeyMissing, DataType: types.Unknown, Ordering: item.Ordering}
		for i, name := range outputColumns {
			if strings.EqualFold(item.Key, name) {
				key.Index, key.DataType = i, dataTypes[i]
				break
			}
		}
		keys = append(keys, key)
	}
	return keys
}

func sortKeyNames(keys []SortKey) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}

type SingleDeviceViewOperator struct {
	BaseOperator
	Device             string
	MeasurementIndexes []int
	DataTypes          []types.DataType
}

func (op *SingleDeviceViewOperator) Explain() []ValuePair {
	return []ValuePair{{First: "device", Second: op.Device}}
}

type DeviceViewOperator struct {
	BaseOperator
	Devices            []string
	MeasurementIndexes [][]int
	DataTypes          []types.DataType
}

func (op *DeviceViewOperator) Explain() []ValuePair {
	return []ValuePair{{First: "devices", Second: len(op.Devices)}}
}

// MergeSortOperator merges children already sorted by Keys. TopK keeps only
// the first TopValue rows.
type MergeSortOperator struct {
	BaseOperator
	DataTypes   []types.DataType
	Keys        []SortKey
	TopValue    int
	TimeOrdered bool
}

func (op *MergeSortOperator) Explain() []ValuePair {
	pairs := []ValuePair{{First: "order by", Second: sortKeyNames(op.Keys)}}
	if op.TopValue > 0 {
		pairs = append(pairs, ValuePair{First: "top", Second: op.TopValue})
	}
	return pairs
}

// SortOperator sorts all rows of its child and may spill to temporary files.
type SortOperator struct {
	BaseOperator
	DataTypes []types.DataType
	Keys      []SortKey
	tmpDir    string
}

// FilePrefix is the directory receiving the spilled runs of the operator,
// unique per fragment instance and pipeline.
func (op *SortOperator) FilePrefix() string {
	ctx := op.Context()
	return filepath.Join(op.tmpDir, ctx.Pipeline.frag.Instance.FullID(), strconv.Itoa(ctx.Pipeline.ID)) + string(filepath.Separator)
}

func (op *SortOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "order by", Second: sortKeyNames(op.Keys)},
		{First: "spill", Second: op.FilePrefix()},
	}
}

func (b *Builder) buildSingleDeviceView(n *plan.SingleDeviceViewNode, ctx *BuildContext) (Operator, error) {
	opCtx := ctx.addOperatorContext(n.ID(), KindSingleDeviceView)
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	dataTypes := ctx.frag.cachedDataTypes
	if n.CacheOutputColumnNames {
		dataTypes = ctx.frag.typesOf(n.OutputColumnNames())
	}
	if len(dataTypes) == 0 {
		return nil, errno.NewError(errno.InvalidPlan, "output column types of "+plan.String(n)+" should not be empty")
	}
	return &SingleDeviceViewOperator{
		BaseOperator:       newBaseOperator(opCtx, child),
		Device:             n.Device,
		MeasurementIndexes: n.DeviceToMeasurementIndexes,
		DataTypes:          dataTypes,
	}, nil
}

func (b *Builder) buildDeviceView(n *plan.DeviceViewNode, ctx *BuildContext) (Operator, error) {
	opCtx := ctx.addOperatorContext(n.ID(), KindDeviceView)
	children, err := b.consumeChildrenOneByOne(n, ctx)
	if err != nil {
		return nil, err
	}
	indexes := make([][]int, len(n.Devices))
	for i, device := range n.Devices {
		indexes[i] = n.DeviceToMeasurementIndexes[device]
	}
	return &DeviceViewOperator{
		BaseOperator:       newBaseOperator(opCtx, children...),
		Devices:            n.Devices,
		MeasurementIndexes: indexes,
		DataTypes:          ctx.frag.typesOf(n.OutputColumnNames()),
	}, nil
}

func (b *Builder) buildMergeSort(n *plan.MergeSortNode, ctx *BuildContext) (Operator, error) {
	opCtx := ctx.addOperatorContext(n.ID(), KindMergeSort)
	dataTypes := ctx.frag.typesOf(n.OutputColumnNames())
	ctx.frag.cachedDataTypes = dataTypes
	children, _, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	return &MergeSortOperator{
		BaseOperator: newBaseOperator(opCtx, children...),
		DataTypes:    dataTypes,
		Keys:         genSortInformation(n.OutputColumnNames(), dataTypes, n.OrderBy.SortItems),
	}, nil
}

func (b *Builder) buildTopK(n *plan.TopKNode, ctx *BuildContext) (Operator, error) {
	opCtx := ctx.addOperatorContext(n.ID(), KindTopK)
	dataTypes := ctx.frag.typesOf(n.OutputColumnNames())
	ctx.frag.cachedDataTypes = dataTypes
	children, _, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	return &MergeSortOperator{
		BaseOperator: newBaseOperator(opCtx, children...),
		DataTypes:    dataTypes,
		Keys:         genSortInformation(n.OutputColumnNames(), dataTypes, n.OrderBy.SortItems),
		TopValue:     n.TopValue,
		TimeOrdered:  n.OrderBy.IsTimeOrdered(),
	}, nil
}

func (b *Builder) buildSort(n *plan.SortNode, ctx *BuildContext) (Operator, error) {
	opCtx := ctx.addOperatorContext(n.ID(), KindSort)
	dataTypes := ctx.frag.typesOf(n.OutputColumnNames())
	keys := genSortInformation(n.OutputColumnNames(), dataTypes, n.OrderBy.SortItems)
	ctx.pipeline.HasTempFile = true
	ctx.frag.hasTempFile = true
	child, err := b.buildOnlyChild(n, ctx)
	if err != nil {
		return nil, err
	}
	return &SortOperator{
		BaseOperator: newBaseOperator(opCtx, child),
		DataTypes:    dataTypes,
		Keys:         keys,
		tmpDir:       ctx.frag.conf.SortTmpDir,
	}, nil
}
