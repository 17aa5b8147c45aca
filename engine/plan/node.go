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
	"fmt"
)

type NodeID string

// Ordering is the time or path order a node produces its rows in.
type Ordering uint8

const (
	Asc Ordering = iota
	Desc
)

func (o Ordering) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

func (o Ordering) IsAscending() bool {
	return o == Asc
}

func (o Ordering) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Ordering) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ASC", "asc", "":
		*o = Asc
	case "DESC", "desc":
		*o = Desc
	default:
		return fmt.Errorf("unknown ordering %q", string(b))
	}
	return nil
}

type NodeKind uint8

const (
	KindUnknown NodeKind = iota
	KindSeriesScan
	KindAlignedSeriesScan
	KindSeriesAggregationScan
	KindAlignedSeriesAggregationScan
	KindSchemaScan
	KindSchemaQueryMerge
	KindSchemaFetchMerge
	KindCountMerge
	KindNodeManagementMemoryMerge
	KindNodePathConvert
	KindNodePathsCount
	KindSchemaQueryOrderByHeat
	KindSingleDeviceView
	KindDeviceView
	KindMergeSort
	KindTopK
	KindSort
	KindFill
	KindFilter
	KindTransform
	KindLimit
	KindOffset
	KindColumnInject
	KindAggregation
	KindGroupByLevel
	KindGroupByTag
	KindSlidingWindow
	KindFullOuterTimeJoin
	KindInnerTimeJoin
	KindLeftOuterTimeJoin
	KindHorizontallyConcat
	KindExchange
	KindIdentitySink
	KindShuffleSink
	KindLastQueryScan
	KindAlignedLastQueryScan
	KindLastQuery
	KindLastQueryMerge
	KindLastQueryCollect
	KindLastQueryTransform
	KindInto
	KindDeviceViewInto
	kindEnd
)

var kindNames = [...]string{
	KindUnknown:                      "Unknown",
	KindSeriesScan:                   "SeriesScan",
	KindAlignedSeriesScan:            "AlignedSeriesScan",
	KindSeriesAggregationScan:        "SeriesAggregationScan",
	KindAlignedSeriesAggregationScan: "AlignedSeriesAggregationScan",
	KindSchemaScan:                   "SchemaScan",
	KindSchemaQueryMerge:             "SchemaQueryMerge",
	KindSchemaFetchMerge:             "SchemaFetchMerge",
	KindCountMerge:                   "CountMerge",
	KindNodeManagementMemoryMerge:    "NodeManagementMemoryMerge",
	KindNodePathConvert:              "NodePathConvert",
	KindNodePathsCount:               "NodePathsCount",
	KindSchemaQueryOrderByHeat:       "SchemaQueryOrderByHeat",
	KindSingleDeviceView:             "SingleDeviceView",
	KindDeviceView:                   "DeviceView",
	KindMergeSort:                    "MergeSort",
	KindTopK:                         "TopK",
	KindSort:                         "Sort",
	KindFill:                         "Fill",
	KindFilter:                       "Filter",
	KindTransform:                    "Transform",
	KindLimit:                        "Limit",
	KindOffset:                       "Offset",
	KindColumnInject:                 "ColumnInject",
	KindAggregation:                  "Aggregation",
	KindGroupByLevel:                 "GroupByLevel",
	KindGroupByTag:                   "GroupByTag",
	KindSlidingWindow:                "SlidingWindow",
	KindFullOuterTimeJoin:            "FullOuterTimeJoin",
	KindInnerTimeJoin:                "InnerTimeJoin",
	KindLeftOuterTimeJoin:            "LeftOuterTimeJoin",
	KindHorizontallyConcat:           "HorizontallyConcat",
	KindExchange:                     "Exchange",
	KindIdentitySink:                 "IdentitySink",
	KindShuffleSink:                  "ShuffleSink",
	KindLastQueryScan:                "LastQueryScan",
	KindAlignedLastQueryScan:         "AlignedLastQueryScan",
	KindLastQuery:                    "LastQuery",
	KindLastQueryMerge:               "LastQueryMerge",
	KindLastQueryCollect:             "LastQueryCollect",
	KindLastQueryTransform:           "LastQueryTransform",
	KindInto:                         "Into",
	KindDeviceViewInto:               "DeviceViewInto",
}

func (k NodeKind) String() string {
	if k < kindEnd {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

func ParseNodeKind(s string) NodeKind {
	for i := KindUnknown + 1; i < kindEnd; i++ {
		if kindNames[i] == s {
			return i
		}
	}
	return KindUnknown
}

// Node is one vertex of an immutable logical plan tree. Nodes are never
// mutated after construction, WithChildren returns a rebuilt copy.
type Node interface {
	ID() NodeID
	Kind() NodeKind
	Children() []Node
	OutputColumnNames() []string
	WithChildren(children []Node) Node
}

// NodeBase carries the identity and the children shared by every node.
type NodeBase struct {
	id       NodeID
	children []Node
}

func NewNodeBase(id NodeID, children ...Node) NodeBase {
	return NodeBase{id: id, children: children}
}

func (b *NodeBase) ID() NodeID {
	return b.id
}

func (b *NodeBase) Children() []Node {
	return b.children
}

func (b *NodeBase) rebase(children []Node) NodeBase {
	c := make([]Node, len(children))
	copy(c, children)
	return NodeBase{id: b.id, children: c}
}

// Child returns the single child of a one-input node, nil if there is none.
func (b *NodeBase) Child() Node {
	if len(b.children) == 0 {
		return nil
	}
	return b.children[0]
}

// ChildrenOutputColumnNames concatenates the outputs of children in order.
func ChildrenOutputColumnNames(n Node) []string {
	var names []string
	for _, c := range n.Children() {
		names = append(names, c.OutputColumnNames()...)
	}
	return names
}

// Walk visits n and all of its descendants in pre-order. Returning false
// from fn skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

func String(n Node) string {
	return fmt.Sprintf("%s(%s)", n.Kind(), n.ID())
}

// SubNode returns a copy of n reading only children [start, end), used when a
// multi child node is split across pipelines.
func SubNode(n Node, id NodeID, start, end int) Node {
	if s, ok := n.(interface {
		SubNode(id NodeID, start, end int) Node
	}); ok {
		return s.SubNode(id, start, end)
	}
	return withID(n.WithChildren(n.Children()[start:end]), id)
}

// Regroup rebuilds n over children, where children[i] stands for the
// original children in spans[i]. Nodes holding per child state merge it
// over each span.
func Regroup(n Node, children []Node, spans [][2]int) Node {
	if r, ok := n.(interface {
		Regroup(children []Node, spans [][2]int) Node
	}); ok {
		return r.Regroup(children, spans)
	}
	return n.WithChildren(children)
}

func withID(n Node, id NodeID) Node {
	if b, ok := n.(interface{ base() *NodeBase }); ok {
		b.base().id = id
	}
	return n
}

func (b *NodeBase) base() *NodeBase {
	return b
}
