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
	jsoniter "github.com/json-iterator/go"
	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var nodeFactory = map[NodeKind]func() Node{
	KindSeriesScan:                   func() Node { return &SeriesScanNode{} },
	KindAlignedSeriesScan:            func() Node { return &AlignedSeriesScanNode{} },
	KindSeriesAggregationScan:        func() Node { return &SeriesAggregationScanNode{} },
	KindAlignedSeriesAggregationScan: func() Node { return &AlignedSeriesAggregationScanNode{} },
	KindSchemaScan:                   func() Node { return &SchemaScanNode{} },
	KindSchemaQueryMerge:             func() Node { return &SchemaQueryMergeNode{} },
	KindSchemaFetchMerge:             func() Node { return &SchemaFetchMergeNode{} },
	KindCountMerge:                   func() Node { return &CountMergeNode{} },
	KindNodeManagementMemoryMerge:    func() Node { return &NodeManagementMemoryMergeNode{} },
	KindNodePathConvert:              func() Node { return &NodePathConvertNode{} },
	KindNodePathsCount:               func() Node { return &NodePathsCountNode{} },
	KindSchemaQueryOrderByHeat:       func() Node { return &SchemaQueryOrderByHeatNode{} },
	KindSingleDeviceView:             func() Node { return &SingleDeviceViewNode{} },
	KindDeviceView:                   func() Node { return &DeviceViewNode{} },
	KindMergeSort:                    func() Node { return &MergeSortNode{} },
	KindTopK:                         func() Node { return &TopKNode{} },
	KindSort:                         func() Node { return &SortNode{} },
	KindFill:                         func() Node { return &FillNode{} },
	KindFilter:                       func() Node { return &FilterNode{} },
	KindTransform:                    func() Node { return &TransformNode{} },
	KindLimit:                        func() Node { return &LimitNode{} },
	KindOffset:                       func() Node { return &OffsetNode{} },
	KindColumnInject:                 func() Node { return &ColumnInjectNode{} },
	KindAggregation:                  func() Node { return &AggregationNode{} },
	KindGroupByLevel:                 func() Node { return &GroupByLevelNode{} },
	KindGroupByTag:                   func() Node { return &GroupByTagNode{} },
	KindSlidingWindow:                func() Node { return &SlidingWindowAggregationNode{} },
	KindFullOuterTimeJoin:            func() Node { return &FullOuterTimeJoinNode{} },
	KindInnerTimeJoin:                func() Node { return &InnerTimeJoinNode{} },
	KindLeftOuterTimeJoin:            func() Node { return &LeftOuterTimeJoinNode{} },
	KindHorizontallyConcat:           func() Node { return &HorizontallyConcatNode{} },
	KindExchange:                     func() Node { return &ExchangeNode{} },
	KindIdentitySink:                 func() Node { return &IdentitySinkNode{} },
	KindShuffleSink:                  func() Node { return &ShuffleSinkNode{} },
	KindLastQueryScan:                func() Node { return &LastQueryScanNode{} },
	KindAlignedLastQueryScan:         func() Node { return &AlignedLastQueryScanNode{} },
	KindLastQuery:                    func() Node { return &LastQueryNode{} },
	KindLastQueryMerge:               func() Node { return &LastQueryMergeNode{} },
	KindLastQueryCollect:             func() Node { return &LastQueryCollectNode{} },
	KindLastQueryTransform:           func() Node { return &LastQueryTransformNode{} },
	KindInto:                         func() Node { return &IntoNode{} },
	KindDeviceViewInto:               func() Node { return &DeviceViewIntoNode{} },
}

type nodeEnvelope struct {
	Kind     string                `json:"kind"`
	ID       NodeID                `json:"id"`
	Params   jsoniter.RawMessage   `json:"params,omitempty"`
	Children []jsoniter.RawMessage `json:"children,omitempty"`
}

// MarshalNode encodes a plan tree as nested kind tagged objects.
func MarshalNode(n Node) ([]byte, error) {
	env, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func encodeNode(n Node) (*nodeEnvelope, error) {
	params, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	env := &nodeEnvelope{Kind: n.Kind().String(), ID: n.ID(), Params: params}
	for _, c := range n.Children() {
		child, err := MarshalNode(c)
		if err != nil {
			return nil, err
		}
		env.Children = append(env.Children, child)
	}
	return env, nil
}

// UnmarshalNode decodes a tree written by MarshalNode.
func UnmarshalNode(data []byte) (Node, error) {
	env := &nodeEnvelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, errno.Wrap(err, errno.PlanDecodeFail)
	}
	kind := ParseNodeKind(env.Kind)
	factory, ok := nodeFactory[kind]
	if !ok {
		return nil, errno.NewError(errno.UnsupportedPlanNode, env.Kind)
	}

	n := factory()
	if len(env.Params) > 0 {
		if err := json.Unmarshal(env.Params, n); err != nil {
			return nil, errno.Wrap(err, errno.PlanDecodeFail)
		}
	}
	children := make([]Node, 0, len(env.Children))
	for _, raw := range env.Children {
		c, err := UnmarshalNode(raw)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}

	b := n.(interface{ base() *NodeBase }).base()
	b.id = env.ID
	b.children = children
	return n, nil
}

// Fragment is the unit the planner compiles: one plan tree together with the
// column types and time predicate of the fragment instance running it.
type Fragment struct {
	InstanceID       exchange.FragmentInstanceID
	Root             Node
	Types            types.TypeMap
	GlobalTimeFilter *TimeFilter
	// AllSensors lists the measurements the query reads, per device.
	AllSensors map[string][]string
	Templated  *TemplatedInfo
}

// TemplatedInfo describes the columns shared by every device of an align by
// device query whose devices use one schema template. Filters of such a
// fragment read it instead of looking up each device.
type TemplatedInfo struct {
	Measurements       []string         `json:"measurements"`
	DataTypes          []types.DataType `json:"data_types"`
	ProjectExpressions []Expression     `json:"project_expressions,omitempty"`
	Predicate          *Expression      `json:"predicate,omitempty"`
	KeepNull           bool             `json:"keep_null,omitempty"`
}

// TypeMap returns the data type of each templated measurement.
func (t *TemplatedInfo) TypeMap() types.TypeMap {
	m := make(types.TypeMap, len(t.Measurements))
	for i, name := range t.Measurements {
		if i < len(t.DataTypes) {
			m[name] = t.DataTypes[i]
		}
	}
	return m
}

type fragmentEnvelope struct {
	InstanceID       exchange.FragmentInstanceID `json:"instance_id"`
	Root             jsoniter.RawMessage         `json:"root"`
	Types            types.TypeMap               `json:"types"`
	GlobalTimeFilter *TimeFilter                 `json:"global_time_filter,omitempty"`
	AllSensors       map[string][]string         `json:"all_sensors,omitempty"`
	Templated        *TemplatedInfo              `json:"templated,omitempty"`
}

func (f *Fragment) MarshalJSON() ([]byte, error) {
	root, err := MarshalNode(f.Root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&fragmentEnvelope{
		InstanceID:       f.InstanceID,
		Root:             root,
		Types:            f.Types,
		GlobalTimeFilter: f.GlobalTimeFilter,
		AllSensors:       f.AllSensors,
		Templated:        f.Templated,
	})
}

func (f *Fragment) UnmarshalJSON(data []byte) error {
	env := &fragmentEnvelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return errno.Wrap(err, errno.PlanDecodeFail)
	}
	root, err := UnmarshalNode(env.Root)
	if err != nil {
		return err
	}
	f.InstanceID = env.InstanceID
	f.Root = root
	f.Types = env.Types
	f.GlobalTimeFilter = env.GlobalTimeFilter
	f.AllSensors = env.AllSensors
	f.Templated = env.Templated
	return nil
}
