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

type AggregationNode struct {
	NodeBase          `json:"-"`
	Descriptors       []AggregationDescriptor `json:"descriptors"`
	GroupByTime       *GroupByTimeParameter   `json:"group_by_time,omitempty"`
	GroupBy           *GroupByParameter       `json:"group_by,omitempty"`
	GroupByExpression *Expression             `json:"group_by_expression,omitempty"`
	OutputEndTime     bool                    `json:"output_end_time,omitempty"`
	ScanOrder         Ordering                `json:"scan_order"`
}

func NewAggregationNode(id NodeID, descriptors []AggregationDescriptor, groupByTime *GroupByTimeParameter, order Ordering, children ...Node) *AggregationNode {
	return &AggregationNode{
		NodeBase:    NewNodeBase(id, children...),
		Descriptors: descriptors,
		GroupByTime: groupByTime,
		ScanOrder:   order,
	}
}

func (n *AggregationNode) Kind() NodeKind { return KindAggregation }

func (n *AggregationNode) OutputColumnNames() []string {
	var names []string
	if n.OutputEndTime {
		names = append(names, EndTimeColumn)
	}
	for i := range n.Descriptors {
		names = append(names, n.Descriptors[i].OutputColumnNames()...)
	}
	return names
}

func (n *AggregationNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type GroupByLevelNode struct {
	NodeBase    `json:"-"`
	Descriptors []CrossSeriesAggregationDescriptor `json:"descriptors"`
	GroupByTime *GroupByTimeParameter              `json:"group_by_time,omitempty"`
	ScanOrder   Ordering                           `json:"scan_order"`
}

func NewGroupByLevelNode(id NodeID, descriptors []CrossSeriesAggregationDescriptor, groupByTime *GroupByTimeParameter, order Ordering, children ...Node) *GroupByLevelNode {
	return &GroupByLevelNode{
		NodeBase:    NewNodeBase(id, children...),
		Descriptors: descriptors,
		GroupByTime: groupByTime,
		ScanOrder:   order,
	}
}

func (n *GroupByLevelNode) Kind() NodeKind { return KindGroupByLevel }

func (n *GroupByLevelNode) OutputColumnNames() []string {
	var names []string
	for i := range n.Descriptors {
		names = append(names, n.Descriptors[i].OutputColumnNames()...)
	}
	return names
}

func (n *GroupByLevelNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// TagGroup is one distinct combination of tag values. A nil descriptor keeps
// the slot of an aggregation the group has no series for.
type TagGroup struct {
	TagValues   []string                            `json:"tag_values"`
	Descriptors []*CrossSeriesAggregationDescriptor `json:"descriptors"`
}

type GroupByTagNode struct {
	NodeBase      `json:"-"`
	TagKeys       []string              `json:"tag_keys"`
	Groups        []TagGroup            `json:"groups"`
	GroupByTime   *GroupByTimeParameter `json:"group_by_time,omitempty"`
	ScanOrder     Ordering              `json:"scan_order"`
	OutputColumns []string              `json:"output_columns"`
}

func NewGroupByTagNode(id NodeID, tagKeys []string, groups []TagGroup, columns []string, order Ordering, children ...Node) *GroupByTagNode {
	return &GroupByTagNode{
		NodeBase:      NewNodeBase(id, children...),
		TagKeys:       tagKeys,
		Groups:        groups,
		OutputColumns: columns,
		ScanOrder:     order,
	}
}

func (n *GroupByTagNode) Kind() NodeKind              { return KindGroupByTag }
func (n *GroupByTagNode) OutputColumnNames() []string { return n.OutputColumns }

func (n *GroupByTagNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type SlidingWindowAggregationNode struct {
	NodeBase      `json:"-"`
	Descriptors   []AggregationDescriptor `json:"descriptors"`
	GroupByTime   *GroupByTimeParameter   `json:"group_by_time"`
	ScanOrder     Ordering                `json:"scan_order"`
	OutputEndTime bool                    `json:"output_end_time,omitempty"`
}

func NewSlidingWindowAggregationNode(id NodeID, descriptors []AggregationDescriptor, groupByTime *GroupByTimeParameter, order Ordering, child Node) *SlidingWindowAggregationNode {
	return &SlidingWindowAggregationNode{
		NodeBase:    NewNodeBase(id, child),
		Descriptors: descriptors,
		GroupByTime: groupByTime,
		ScanOrder:   order,
	}
}

func (n *SlidingWindowAggregationNode) Kind() NodeKind { return KindSlidingWindow }

func (n *SlidingWindowAggregationNode) OutputColumnNames() []string {
	var names []string
	if n.OutputEndTime {
		names = append(names, EndTimeColumn)
	}
	for i := range n.Descriptors {
		names = append(names, n.Descriptors[i].OutputColumnNames()...)
	}
	return names
}

func (n *SlidingWindowAggregationNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}
