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
	"github.com/openGemini/ts-planner/engine/types"
)

func firstChildColumns(b *NodeBase) []string {
	if c := b.Child(); c != nil {
		return c.OutputColumnNames()
	}
	return nil
}

type SchemaQueryMergeNode struct {
	NodeBase `json:"-"`
}

func NewSchemaQueryMergeNode(id NodeID, children ...Node) *SchemaQueryMergeNode {
	return &SchemaQueryMergeNode{NodeBase: NewNodeBase(id, children...)}
}

func (n *SchemaQueryMergeNode) Kind() NodeKind              { return KindSchemaQueryMerge }
func (n *SchemaQueryMergeNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *SchemaQueryMergeNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type SchemaFetchMergeNode struct {
	NodeBase      `json:"-"`
	StorageGroups []string `json:"storage_groups"`
}

func NewSchemaFetchMergeNode(id NodeID, storageGroups []string, children ...Node) *SchemaFetchMergeNode {
	return &SchemaFetchMergeNode{NodeBase: NewNodeBase(id, children...), StorageGroups: storageGroups}
}

func (n *SchemaFetchMergeNode) Kind() NodeKind              { return KindSchemaFetchMerge }
func (n *SchemaFetchMergeNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *SchemaFetchMergeNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type CountMergeNode struct {
	NodeBase `json:"-"`
}

func NewCountMergeNode(id NodeID, children ...Node) *CountMergeNode {
	return &CountMergeNode{NodeBase: NewNodeBase(id, children...)}
}

func (n *CountMergeNode) Kind() NodeKind              { return KindCountMerge }
func (n *CountMergeNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *CountMergeNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// ByLevel reports whether the merged counts are grouped by path level.
func (n *CountMergeNode) ByLevel() bool {
	s, ok := n.Child().(*SchemaScanNode)
	return ok && s.Scope == SchemaLevelTimeSeriesCount
}

type NodeManagementMemoryMergeNode struct {
	NodeBase `json:"-"`
	// Data holds the child paths already resolved from memory.
	Data []string `json:"data,omitempty"`
}

func NewNodeManagementMemoryMergeNode(id NodeID, data []string, child Node) *NodeManagementMemoryMergeNode {
	return &NodeManagementMemoryMergeNode{NodeBase: NewNodeBase(id, child), Data: data}
}

func (n *NodeManagementMemoryMergeNode) Kind() NodeKind { return KindNodeManagementMemoryMerge }
func (n *NodeManagementMemoryMergeNode) OutputColumnNames() []string {
	return firstChildColumns(&n.NodeBase)
}
func (n *NodeManagementMemoryMergeNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type NodePathConvertNode struct {
	NodeBase `json:"-"`
}

func NewNodePathConvertNode(id NodeID, child Node) *NodePathConvertNode {
	return &NodePathConvertNode{NodeBase: NewNodeBase(id, child)}
}

func (n *NodePathConvertNode) Kind() NodeKind              { return KindNodePathConvert }
func (n *NodePathConvertNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *NodePathConvertNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type NodePathsCountNode struct {
	NodeBase `json:"-"`
}

func NewNodePathsCountNode(id NodeID, child Node) *NodePathsCountNode {
	return &NodePathsCountNode{NodeBase: NewNodeBase(id, child)}
}

func (n *NodePathsCountNode) Kind() NodeKind              { return KindNodePathsCount }
func (n *NodePathsCountNode) OutputColumnNames() []string { return []string{"count"} }
func (n *NodePathsCountNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type SchemaQueryOrderByHeatNode struct {
	NodeBase `json:"-"`
}

func NewSchemaQueryOrderByHeatNode(id NodeID, children ...Node) *SchemaQueryOrderByHeatNode {
	return &SchemaQueryOrderByHeatNode{NodeBase: NewNodeBase(id, children...)}
}

func (n *SchemaQueryOrderByHeatNode) Kind() NodeKind { return KindSchemaQueryOrderByHeat }
func (n *SchemaQueryOrderByHeatNode) OutputColumnNames() []string {
	return firstChildColumns(&n.NodeBase)
}
func (n *SchemaQueryOrderByHeatNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type SingleDeviceViewNode struct {
	NodeBase                   `json:"-"`
	Device                     string   `json:"device"`
	DeviceToMeasurementIndexes []int    `json:"measurement_indexes"`
	OutputColumns              []string `json:"output_columns"`
	// CacheOutputColumnNames is set on the first device of a templated query,
	// the others reuse the types resolved for it.
	CacheOutputColumnNames bool `json:"cache_output_column_names,omitempty"`
}

func NewSingleDeviceViewNode(id NodeID, device string, columns []string, indexes []int, child Node) *SingleDeviceViewNode {
	return &SingleDeviceViewNode{
		NodeBase:                   NewNodeBase(id, child),
		Device:                     device,
		DeviceToMeasurementIndexes: indexes,
		OutputColumns:              columns,
		CacheOutputColumnNames:     true,
	}
}

func (n *SingleDeviceViewNode) Kind() NodeKind              { return KindSingleDeviceView }
func (n *SingleDeviceViewNode) OutputColumnNames() []string { return n.OutputColumns }
func (n *SingleDeviceViewNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type DeviceViewNode struct {
	NodeBase                   `json:"-"`
	Devices                    []string         `json:"devices"`
	DeviceToMeasurementIndexes map[string][]int `json:"measurement_indexes"`
	OutputColumns              []string         `json:"output_columns"`
	MergeOrder                 OrderByParameter `json:"merge_order"`
}

func NewDeviceViewNode(id NodeID, devices []string, indexes map[string][]int, columns []string, children ...Node) *DeviceViewNode {
	return &DeviceViewNode{
		NodeBase:                   NewNodeBase(id, children...),
		Devices:                    devices,
		DeviceToMeasurementIndexes: indexes,
		OutputColumns:              columns,
	}
}

func (n *DeviceViewNode) Kind() NodeKind              { return KindDeviceView }
func (n *DeviceViewNode) OutputColumnNames() []string { return n.OutputColumns }
func (n *DeviceViewNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type MergeSortNode struct {
	NodeBase      `json:"-"`
	OrderBy       OrderByParameter `json:"order_by"`
	OutputColumns []string         `json:"output_columns"`
}

func NewMergeSortNode(id NodeID, orderBy OrderByParameter, columns []string, children ...Node) *MergeSortNode {
	return &MergeSortNode{NodeBase: NewNodeBase(id, children...), OrderBy: orderBy, OutputColumns: columns}
}

func (n *MergeSortNode) Kind() NodeKind { return KindMergeSort }
func (n *MergeSortNode) OutputColumnNames() []string {
	if n.OutputColumns != nil {
		return n.OutputColumns
	}
	return firstChildColumns(&n.NodeBase)
}
func (n *MergeSortNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type TopKNode struct {
	NodeBase      `json:"-"`
	OrderBy       OrderByParameter `json:"order_by"`
	TopValue      int              `json:"top_value"`
	OutputColumns []string         `json:"output_columns"`
}

func NewTopKNode(id NodeID, topValue int, orderBy OrderByParameter, columns []string, children ...Node) *TopKNode {
	return &TopKNode{NodeBase: NewNodeBase(id, children...), TopValue: topValue, OrderBy: orderBy, OutputColumns: columns}
}

func (n *TopKNode) Kind() NodeKind { return KindTopK }
func (n *TopKNode) OutputColumnNames() []string {
	if n.OutputColumns != nil {
		return n.OutputColumns
	}
	return firstChildColumns(&n.NodeBase)
}
func (n *TopKNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type SortNode struct {
	NodeBase `json:"-"`
	OrderBy  OrderByParameter `json:"order_by"`
}

func NewSortNode(id NodeID, orderBy OrderByParameter, child Node) *SortNode {
	return &SortNode{NodeBase: NewNodeBase(id, child), OrderBy: orderBy}
}

func (n *SortNode) Kind() NodeKind              { return KindSort }
func (n *SortNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *SortNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type FillNode struct {
	NodeBase   `json:"-"`
	Descriptor FillDescriptor `json:"descriptor"`
}

func NewFillNode(id NodeID, descriptor FillDescriptor, child Node) *FillNode {
	return &FillNode{NodeBase: NewNodeBase(id, child), Descriptor: descriptor}
}

func (n *FillNode) Kind() NodeKind              { return KindFill }
func (n *FillNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *FillNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// ProjectBase is shared by the expression evaluating nodes.
type ProjectBase struct {
	OutputExpressions []Expression `json:"output_expressions"`
	KeepNull          bool         `json:"keep_null,omitempty"`
	ScanOrder         Ordering     `json:"scan_order"`
	ZoneID            string       `json:"zone_id,omitempty"`
}

type FilterNode struct {
	NodeBase `json:"-"`
	ProjectBase
	Predicate Expression `json:"predicate"`
}

func NewFilterNode(id NodeID, predicate Expression, outputs []Expression, child Node) *FilterNode {
	return &FilterNode{
		NodeBase:    NewNodeBase(id, child),
		ProjectBase: ProjectBase{OutputExpressions: outputs},
		Predicate:   predicate,
	}
}

func (n *FilterNode) Kind() NodeKind { return KindFilter }
func (n *FilterNode) OutputColumnNames() []string {
	return ExpressionNames(n.OutputExpressions)
}
func (n *FilterNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type TransformNode struct {
	NodeBase `json:"-"`
	ProjectBase
}

func NewTransformNode(id NodeID, outputs []Expression, child Node) *TransformNode {
	return &TransformNode{
		NodeBase:    NewNodeBase(id, child),
		ProjectBase: ProjectBase{OutputExpressions: outputs},
	}
}

func (n *TransformNode) Kind() NodeKind { return KindTransform }
func (n *TransformNode) OutputColumnNames() []string {
	return ExpressionNames(n.OutputExpressions)
}
func (n *TransformNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type LimitNode struct {
	NodeBase `json:"-"`
	Limit    int64 `json:"limit"`
}

func NewLimitNode(id NodeID, limit int64, child Node) *LimitNode {
	return &LimitNode{NodeBase: NewNodeBase(id, child), Limit: limit}
}

func (n *LimitNode) Kind() NodeKind              { return KindLimit }
func (n *LimitNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *LimitNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type OffsetNode struct {
	NodeBase `json:"-"`
	Offset   int64 `json:"offset"`
}

func NewOffsetNode(id NodeID, offset int64, child Node) *OffsetNode {
	return &OffsetNode{NodeBase: NewNodeBase(id, child), Offset: offset}
}

func (n *OffsetNode) Kind() NodeKind              { return KindOffset }
func (n *OffsetNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *OffsetNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// ColumnInjectNode inserts generated columns into the rows of its child.
type ColumnInjectNode struct {
	NodeBase         `json:"-"`
	TargetIndex      int                      `json:"target_index"`
	Generator        ColumnGeneratorParameter `json:"generator"`
	GeneratedColumns []string                 `json:"generated_columns"`
	GeneratedTypes   []types.DataType         `json:"generated_types"`
}

func NewColumnInjectNode(id NodeID, target int, generator ColumnGeneratorParameter, columns []string, dataTypes []types.DataType, child Node) *ColumnInjectNode {
	return &ColumnInjectNode{
		NodeBase:         NewNodeBase(id, child),
		TargetIndex:      target,
		Generator:        generator,
		GeneratedColumns: columns,
		GeneratedTypes:   dataTypes,
	}
}

func (n *ColumnInjectNode) Kind() NodeKind { return KindColumnInject }
func (n *ColumnInjectNode) OutputColumnNames() []string {
	src := firstChildColumns(&n.NodeBase)
	idx := n.TargetIndex
	if idx < 0 || idx > len(src) {
		idx = len(src)
	}
	out := make([]string, 0, len(src)+len(n.GeneratedColumns))
	out = append(out, src[:idx]...)
	out = append(out, n.GeneratedColumns...)
	return append(out, src[idx:]...)
}
func (n *ColumnInjectNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type HorizontallyConcatNode struct {
	NodeBase `json:"-"`
}

func NewHorizontallyConcatNode(id NodeID, children ...Node) *HorizontallyConcatNode {
	return &HorizontallyConcatNode{NodeBase: NewNodeBase(id, children...)}
}

func (n *HorizontallyConcatNode) Kind() NodeKind              { return KindHorizontallyConcat }
func (n *HorizontallyConcatNode) OutputColumnNames() []string { return ChildrenOutputColumnNames(n) }
func (n *HorizontallyConcatNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// IntoColumns is the output of the select into nodes.
var IntoColumns = []string{"SourceColumn", "TargetTimeseries", "Written"}

type IntoNode struct {
	NodeBase   `json:"-"`
	Descriptor IntoPathDescriptor `json:"descriptor"`
}

func NewIntoNode(id NodeID, descriptor IntoPathDescriptor, child Node) *IntoNode {
	return &IntoNode{NodeBase: NewNodeBase(id, child), Descriptor: descriptor}
}

func (n *IntoNode) Kind() NodeKind              { return KindInto }
func (n *IntoNode) OutputColumnNames() []string { return IntoColumns }
func (n *IntoNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type DeviceViewIntoNode struct {
	NodeBase   `json:"-"`
	Descriptor DeviceViewIntoPathDescriptor `json:"descriptor"`
}

func NewDeviceViewIntoNode(id NodeID, descriptor DeviceViewIntoPathDescriptor, child Node) *DeviceViewIntoNode {
	return &DeviceViewIntoNode{NodeBase: NewNodeBase(id, child), Descriptor: descriptor}
}

func (n *DeviceViewIntoNode) Kind() NodeKind              { return KindDeviceViewInto }
func (n *DeviceViewIntoNode) OutputColumnNames() []string { return IntoColumns }
func (n *DeviceViewIntoNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}
