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

// LastQueryColumns is the output of every last query node besides time.
var LastQueryColumns = []string{"Timeseries", "Value", "DataType"}

// ScanBase is embedded by the series scan nodes.
type ScanBase struct {
	ScanOrder         Ordering    `json:"scan_order"`
	PushDownLimit     int64       `json:"push_down_limit,omitempty"`
	PushDownOffset    int64       `json:"push_down_offset,omitempty"`
	PushDownPredicate *Expression `json:"push_down_predicate,omitempty"`
}

type SeriesScanNode struct {
	NodeBase `json:"-"`
	ScanBase
	Path MeasurementPath `json:"path"`
}

func NewSeriesScanNode(id NodeID, path MeasurementPath, order Ordering) *SeriesScanNode {
	return &SeriesScanNode{NodeBase: NewNodeBase(id), ScanBase: ScanBase{ScanOrder: order}, Path: path}
}

func (n *SeriesScanNode) Kind() NodeKind { return KindSeriesScan }

func (n *SeriesScanNode) OutputColumnNames() []string {
	return []string{n.Path.FullPath()}
}

func (n *SeriesScanNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type AlignedSeriesScanNode struct {
	NodeBase `json:"-"`
	ScanBase
	Path            AlignedPath `json:"path"`
	QueryAllSensors bool        `json:"query_all_sensors,omitempty"`
}

func NewAlignedSeriesScanNode(id NodeID, path AlignedPath, order Ordering) *AlignedSeriesScanNode {
	return &AlignedSeriesScanNode{NodeBase: NewNodeBase(id), ScanBase: ScanBase{ScanOrder: order}, Path: path}
}

func (n *AlignedSeriesScanNode) Kind() NodeKind { return KindAlignedSeriesScan }

func (n *AlignedSeriesScanNode) OutputColumnNames() []string {
	return n.Path.FullPaths()
}

func (n *AlignedSeriesScanNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// AggregationScanBase is embedded by the scans that aggregate while reading.
type AggregationScanBase struct {
	ScanBase
	Descriptors   []AggregationDescriptor `json:"descriptors"`
	GroupByTime   *GroupByTimeParameter   `json:"group_by_time,omitempty"`
	OutputEndTime bool                    `json:"output_end_time,omitempty"`
}

func (b *AggregationScanBase) outputColumnNames() []string {
	var names []string
	if b.OutputEndTime {
		names = append(names, EndTimeColumn)
	}
	for i := range b.Descriptors {
		names = append(names, b.Descriptors[i].OutputColumnNames()...)
	}
	return names
}

// EndTimeColumn is the extra column holding the end of each window.
const EndTimeColumn = "_endTime"

type SeriesAggregationScanNode struct {
	NodeBase `json:"-"`
	AggregationScanBase
	Path MeasurementPath `json:"path"`
}

func NewSeriesAggregationScanNode(id NodeID, path MeasurementPath, descriptors []AggregationDescriptor, order Ordering) *SeriesAggregationScanNode {
	n := &SeriesAggregationScanNode{NodeBase: NewNodeBase(id), Path: path}
	n.Descriptors = descriptors
	n.ScanOrder = order
	return n
}

func (n *SeriesAggregationScanNode) Kind() NodeKind { return KindSeriesAggregationScan }

func (n *SeriesAggregationScanNode) OutputColumnNames() []string {
	return n.outputColumnNames()
}

func (n *SeriesAggregationScanNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type AlignedSeriesAggregationScanNode struct {
	NodeBase `json:"-"`
	AggregationScanBase
	Path AlignedPath `json:"path"`
}

func NewAlignedSeriesAggregationScanNode(id NodeID, path AlignedPath, descriptors []AggregationDescriptor, order Ordering) *AlignedSeriesAggregationScanNode {
	n := &AlignedSeriesAggregationScanNode{NodeBase: NewNodeBase(id), Path: path}
	n.Descriptors = descriptors
	n.ScanOrder = order
	return n
}

func (n *AlignedSeriesAggregationScanNode) Kind() NodeKind { return KindAlignedSeriesAggregationScan }

func (n *AlignedSeriesAggregationScanNode) OutputColumnNames() []string {
	return n.outputColumnNames()
}

func (n *AlignedSeriesAggregationScanNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type LastQueryScanNode struct {
	NodeBase       `json:"-"`
	Path           MeasurementPath `json:"path"`
	OutputViewPath string          `json:"output_view_path,omitempty"`
	// SeriesScanNum is how many scans of the query on this node read the path.
	SeriesScanNum int `json:"series_scan_num,omitempty"`
}

func NewLastQueryScanNode(id NodeID, path MeasurementPath) *LastQueryScanNode {
	return &LastQueryScanNode{NodeBase: NewNodeBase(id), Path: path, SeriesScanNum: 1}
}

func (n *LastQueryScanNode) Kind() NodeKind { return KindLastQueryScan }

func (n *LastQueryScanNode) OutputColumnNames() []string { return LastQueryColumns }

// OutputPath is the path reported for the series, the view path if any.
func (n *LastQueryScanNode) OutputPath() string {
	if n.OutputViewPath != "" {
		return n.OutputViewPath
	}
	return n.Path.FullPath()
}

func (n *LastQueryScanNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type AlignedLastQueryScanNode struct {
	NodeBase       `json:"-"`
	Path           AlignedPath `json:"path"`
	OutputViewPath string      `json:"output_view_path,omitempty"`
	SeriesScanNum  int         `json:"series_scan_num,omitempty"`
}

func NewAlignedLastQueryScanNode(id NodeID, path AlignedPath) *AlignedLastQueryScanNode {
	return &AlignedLastQueryScanNode{NodeBase: NewNodeBase(id), Path: path, SeriesScanNum: 1}
}

func (n *AlignedLastQueryScanNode) Kind() NodeKind { return KindAlignedLastQueryScan }

func (n *AlignedLastQueryScanNode) OutputColumnNames() []string { return LastQueryColumns }

func (n *AlignedLastQueryScanNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

type SchemaScanKind uint8

const (
	SchemaTimeSeries SchemaScanKind = iota
	SchemaDevices
	SchemaDevicesCount
	SchemaTimeSeriesCount
	SchemaLevelTimeSeriesCount
	SchemaNodePaths
	SchemaPathsUsingTemplate
	SchemaLogicalView
	SchemaFetch
)

var schemaScanNames = [...]string{
	SchemaTimeSeries:           "TimeSeries",
	SchemaDevices:              "Devices",
	SchemaDevicesCount:         "DevicesCount",
	SchemaTimeSeriesCount:      "TimeSeriesCount",
	SchemaLevelTimeSeriesCount: "LevelTimeSeriesCount",
	SchemaNodePaths:            "NodePaths",
	SchemaPathsUsingTemplate:   "PathsUsingTemplate",
	SchemaLogicalView:          "LogicalView",
	SchemaFetch:                "SchemaFetch",
}

func (k SchemaScanKind) String() string {
	if int(k) < len(schemaScanNames) {
		return schemaScanNames[k]
	}
	return "Unknown"
}

func (k SchemaScanKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *SchemaScanKind) UnmarshalText(b []byte) error {
	for i, name := range schemaScanNames {
		if name == string(b) {
			*k = SchemaScanKind(i)
			return nil
		}
	}
	*k = SchemaScanKind(len(schemaScanNames))
	return nil
}

// SchemaScanNode reads metadata of one schema region. Scope selects which
// listing or count it produces.
type SchemaScanNode struct {
	NodeBase      `json:"-"`
	Scope         SchemaScanKind `json:"scope"`
	PathPattern   string         `json:"path_pattern"`
	PathPatterns  []string       `json:"path_patterns,omitempty"`
	PrefixPath    bool           `json:"prefix_path,omitempty"`
	Limit         int64          `json:"limit,omitempty"`
	Offset        int64          `json:"offset,omitempty"`
	Level         int            `json:"level,omitempty"`
	HasSgCol      bool           `json:"has_sg_col,omitempty"`
	SchemaFilter  string         `json:"schema_filter,omitempty"`
	TemplateID    int            `json:"template_id,omitempty"`
	WithTags      bool           `json:"with_tags,omitempty"`
	WithTemplate  bool           `json:"with_template,omitempty"`
	OutputColumns []string       `json:"output_columns"`
}

func NewSchemaScanNode(id NodeID, scope SchemaScanKind, pattern string, columns []string) *SchemaScanNode {
	return &SchemaScanNode{NodeBase: NewNodeBase(id), Scope: scope, PathPattern: pattern, OutputColumns: columns}
}

func (n *SchemaScanNode) Kind() NodeKind { return KindSchemaScan }

func (n *SchemaScanNode) OutputColumnNames() []string { return n.OutputColumns }

func (n *SchemaScanNode) WithChildren(children []Node) Node {
	c := *n
	c.NodeBase = n.rebase(children)
	return &c
}

// SourcePaths returns the series read by a data source node.
func SourcePaths(n Node) []string {
	switch s := n.(type) {
	case *SeriesScanNode:
		return []string{s.Path.FullPath()}
	case *SeriesAggregationScanNode:
		return []string{s.Path.FullPath()}
	case *LastQueryScanNode:
		return []string{s.Path.FullPath()}
	case *AlignedSeriesScanNode:
		return s.Path.FullPaths()
	case *AlignedSeriesAggregationScanNode:
		return s.Path.FullPaths()
	case *AlignedLastQueryScanNode:
		return s.Path.FullPaths()
	}
	return nil
}

// SeriesType returns the data type of the series read by a single series scan.
func SeriesType(n Node) (types.DataType, bool) {
	switch s := n.(type) {
	case *SeriesScanNode:
		return s.Path.DataType, true
	case *SeriesAggregationScanNode:
		return s.Path.DataType, true
	case *LastQueryScanNode:
		return s.Path.DataType, true
	}
	return types.Unknown, false
}
