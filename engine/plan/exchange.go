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
	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/types"
)

// ExchangeNode is the consumer end of data produced by another fragment
// instance. Its upstream is not part of the local tree.
type ExchangeNode struct {
	NodeBase                  `json:"-"`
	UpstreamEndpoint          exchange.TEndPoint          `json:"upstream_endpoint"`
	UpstreamInstanceID        exchange.FragmentInstanceID `json:"upstream_instance_id"`
	UpstreamPlanNodeID        NodeID                      `json:"upstream_plan_node_id"`
	IndexOfUpstreamSinkHandle int                         `json:"index_of_upstream_sink_handle"`
	OutputColumns             []string                    `json:"output_columns"`
}

func NewExchangeNode(id NodeID, upstream exchange.TEndPoint, instance exchange.FragmentInstanceID, upstreamNode NodeID, columns []string) *ExchangeNode {
	return &ExchangeNode{
		NodeBase:           NewNodeBase(id),
		UpstreamEndpoint:   upstream,
		UpstreamInstanceID: instance,
		UpstreamPlanNodeID: upstreamNode,
		OutputColumns:      columns,
	}
}

func (n *ExchangeNode) Kind() NodeKind              { return KindExchange }
func (n *ExchangeNode) OutputColumnNames() []string { return n.OutputColumns }
func (n *ExchangeNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

func IsExchange(n Node) bool {
	return n.Kind() == KindExchange
}

type IdentitySinkNode struct {
	NodeBase           `json:"-"`
	DownStreamChannels []exchange.DownStreamChannelLocation `json:"downstream_channels"`
}

func NewIdentitySinkNode(id NodeID, channels []exchange.DownStreamChannelLocation, children ...Node) *IdentitySinkNode {
	return &IdentitySinkNode{NodeBase: NewNodeBase(id, children...), DownStreamChannels: channels}
}

func (n *IdentitySinkNode) Kind() NodeKind              { return KindIdentitySink }
func (n *IdentitySinkNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *IdentitySinkNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type ShuffleSinkNode struct {
	NodeBase           `json:"-"`
	DownStreamChannels []exchange.DownStreamChannelLocation `json:"downstream_channels"`
}

func NewShuffleSinkNode(id NodeID, channels []exchange.DownStreamChannelLocation, children ...Node) *ShuffleSinkNode {
	return &ShuffleSinkNode{NodeBase: NewNodeBase(id, children...), DownStreamChannels: channels}
}

func (n *ShuffleSinkNode) Kind() NodeKind              { return KindShuffleSink }
func (n *ShuffleSinkNode) OutputColumnNames() []string { return firstChildColumns(&n.NodeBase) }
func (n *ShuffleSinkNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// LastQueryNode collects the last values of its children and of the cache.
type LastQueryNode struct {
	NodeBase `json:"-"`
	// TimeseriesOrdering sorts the result by path when set.
	TimeseriesOrdering *Ordering `json:"timeseries_ordering,omitempty"`
}

func NewLastQueryNode(id NodeID, ordering *Ordering, children ...Node) *LastQueryNode {
	return &LastQueryNode{NodeBase: NewNodeBase(id, children...), TimeseriesOrdering: ordering}
}

func (n *LastQueryNode) NeedOrderByTimeseries() bool {
	return n.TimeseriesOrdering != nil
}

func (n *LastQueryNode) Kind() NodeKind              { return KindLastQuery }
func (n *LastQueryNode) OutputColumnNames() []string { return LastQueryColumns }
func (n *LastQueryNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type LastQueryMergeNode struct {
	NodeBase           `json:"-"`
	TimeseriesOrdering *Ordering `json:"timeseries_ordering,omitempty"`
}

func NewLastQueryMergeNode(id NodeID, ordering *Ordering, children ...Node) *LastQueryMergeNode {
	return &LastQueryMergeNode{NodeBase: NewNodeBase(id, children...), TimeseriesOrdering: ordering}
}

func (n *LastQueryMergeNode) Kind() NodeKind              { return KindLastQueryMerge }
func (n *LastQueryMergeNode) OutputColumnNames() []string { return LastQueryColumns }
func (n *LastQueryMergeNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type LastQueryCollectNode struct {
	NodeBase `json:"-"`
}

func NewLastQueryCollectNode(id NodeID, children ...Node) *LastQueryCollectNode {
	return &LastQueryCollectNode{NodeBase: NewNodeBase(id, children...)}
}

func (n *LastQueryCollectNode) Kind() NodeKind              { return KindLastQueryCollect }
func (n *LastQueryCollectNode) OutputColumnNames() []string { return LastQueryColumns }
func (n *LastQueryCollectNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// LastQueryTransformNode reports the last value of a series under a view path.
type LastQueryTransformNode struct {
	NodeBase `json:"-"`
	ViewPath string         `json:"view_path"`
	DataType types.DataType `json:"data_type"`
}

func NewLastQueryTransformNode(id NodeID, viewPath string, dt types.DataType, child Node) *LastQueryTransformNode {
	return &LastQueryTransformNode{NodeBase: NewNodeBase(id, child), ViewPath: viewPath, DataType: dt}
}

func (n *LastQueryTransformNode) Kind() NodeKind              { return KindLastQueryTransform }
func (n *LastQueryTransformNode) OutputColumnNames() []string { return LastQueryColumns }
func (n *LastQueryTransformNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}
