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
	"github.com/openGemini/ts-planner/engine/timerange"
)

type FullOuterTimeJoinNode struct {
	NodeBase   `json:"-"`
	MergeOrder Ordering `json:"merge_order"`
	// TimeRanges optionally bounds the time of every child, index aligned
	// with the children. Missing bounds mean the children may overlap.
	TimeRanges []*timerange.TimeRange `json:"time_ranges,omitempty"`
}

func NewFullOuterTimeJoinNode(id NodeID, order Ordering, children ...Node) *FullOuterTimeJoinNode {
	return &FullOuterTimeJoinNode{NodeBase: NewNodeBase(id, children...), MergeOrder: order}
}

func (n *FullOuterTimeJoinNode) Kind() NodeKind { return KindFullOuterTimeJoin }

// OutputColumnNames keeps one column per name, in first seen order.
func (n *FullOuterTimeJoinNode) OutputColumnNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, name := range ChildrenOutputColumnNames(n) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func (n *FullOuterTimeJoinNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	if len(c.TimeRanges) != len(children) {
		// ranges are positional and no longer match the children
		c.TimeRanges = nil
	}
	return &c
}

type InnerTimeJoinNode struct {
	NodeBase   `json:"-"`
	MergeOrder Ordering `json:"merge_order"`
	// OutputColumns reorders the joined columns by name when set.
	OutputColumns []string `json:"output_columns,omitempty"`
}

func NewInnerTimeJoinNode(id NodeID, order Ordering, columns []string, children ...Node) *InnerTimeJoinNode {
	return &InnerTimeJoinNode{NodeBase: NewNodeBase(id, children...), MergeOrder: order, OutputColumns: columns}
}

func (n *InnerTimeJoinNode) Kind() NodeKind { return KindInnerTimeJoin }

func (n *InnerTimeJoinNode) OutputColumnNamesIsNull() bool {
	return n.OutputColumns == nil
}

func (n *InnerTimeJoinNode) OutputColumnNames() []string {
	if n.OutputColumns != nil {
		return n.OutputColumns
	}
	return ChildrenOutputColumnNames(n)
}

func (n *InnerTimeJoinNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type LeftOuterTimeJoinNode struct {
	NodeBase   `json:"-"`
	MergeOrder Ordering `json:"merge_order"`
}

func NewLeftOuterTimeJoinNode(id NodeID, order Ordering, left, right Node) *LeftOuterTimeJoinNode {
	return &LeftOuterTimeJoinNode{NodeBase: NewNodeBase(id, left, right), MergeOrder: order}
}

func (n *LeftOuterTimeJoinNode) Kind() NodeKind              { return KindLeftOuterTimeJoin }
func (n *LeftOuterTimeJoinNode) OutputColumnNames() []string { return ChildrenOutputColumnNames(n) }

func (n *LeftOuterTimeJoinNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// Regroup bounds each new child by the span of the ranges it replaces.
func (n *FullOuterTimeJoinNode) Regroup(children []Node, spans [][2]int) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	c.TimeRanges = nil
	if len(n.TimeRanges) != len(n.children) || len(spans) != len(children) {
		return &c
	}
	ranges := make([]*timerange.TimeRange, len(spans))
	for i, s := range spans {
		if ranges[i] = timerange.Span(n.TimeRanges[s[0]:s[1]]); ranges[i] == nil {
			return &c
		}
	}
	c.TimeRanges = ranges
	return &c
}

// SubNode keeps the children in [start, end) along with their time ranges.
func (n *FullOuterTimeJoinNode) SubNode(id NodeID, start, end int) Node {
	c := *n
	c.NodeBase = NewNodeBase(id, n.children[start:end:end]...)
	if len(n.TimeRanges) == len(n.children) {
		c.TimeRanges = append([]*timerange.TimeRange(nil), n.TimeRanges[start:end]...)
	}
	return &c
}
