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
	"fmt"
	"strings"

	"github.com/docker/go-units"
	jsoniter "github.com/json-iterator/go"
	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/xlab/treeprint"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OperatorInfo is the printable form of an operator.
type OperatorInfo struct {
	ID            int                    `json:"id"`
	Kind          string                 `json:"kind"`
	PlanNodeID    string                 `json:"plan_node_id,omitempty"`
	Pipeline      int                    `json:"pipeline"`
	MaxReturnSize int64                  `json:"max_return_size"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	Children      []*OperatorInfo        `json:"children,omitempty"`

	attrOrder []string
}

// PipelineInfo is the printable form of a pipeline descriptor.
type PipelineInfo struct {
	ID           int    `json:"id"`
	Root         string `json:"root"`
	DOP          int    `json:"dop"`
	DependencyID int    `json:"dependency_id"`
	Sink         string `json:"sink,omitempty"`
	MaxBytes     int64  `json:"sink_max_bytes,omitempty"`
}

type Explanation struct {
	Instance    string          `json:"instance"`
	ExchangeSum int             `json:"exchange_sum"`
	HasTempFile bool            `json:"has_temp_file"`
	Pipelines   []*PipelineInfo `json:"pipelines"`
	Root        *OperatorInfo   `json:"root"`
}

// Explain describes every operator reachable from the root of each pipeline.
// Pipelines feeding an exchange show up as children of that exchange.
func Explain(res *Result) *Explanation {
	e := &Explanation{
		Instance:    res.Fragment.Instance.FullID(),
		ExchangeSum: res.ExchangeSum,
		HasTempFile: res.HasTempFile,
	}
	roots := make(map[*exchange.SharedQueue]Operator, len(res.Pipelines))
	for _, d := range res.Pipelines {
		info := &PipelineInfo{ID: d.ID, DOP: d.DOP, DependencyID: d.DependencyID}
		if d.Root != nil {
			info.Root = d.Root.Name()
		}
		switch sink := d.Sink.(type) {
		case *exchange.LocalSinkChannel:
			info.Sink = "pipeline exchange " + sink.SharedQueue().PlanNodeID()
			if op, ok := d.Root.(Operator); ok {
				roots[sink.SharedQueue()] = op
			}
		case exchange.SinkHandle:
			info.Sink = fmt.Sprintf("%s over %d channels", sink.Strategy(), len(sink.Channels()))
		}
		if d.Sink != nil {
			info.MaxBytes = d.Sink.MaxBytesCanReserve()
		}
		e.Pipelines = append(e.Pipelines, info)
	}
	e.Root = describe(res.Root, roots)
	return e
}

func describe(op Operator, pipelineRoots map[*exchange.SharedQueue]Operator) *OperatorInfo {
	ctx := op.Context()
	info := &OperatorInfo{
		ID:            ctx.OperatorID,
		Kind:          ctx.Kind,
		PlanNodeID:    string(ctx.PlanNodeID),
		Pipeline:      ctx.Pipeline.ID,
		MaxReturnSize: op.MaxReturnSize(),
	}
	if pairs := op.Explain(); len(pairs) > 0 {
		info.Attributes = make(map[string]interface{}, len(pairs))
		for _, p := range pairs {
			info.Attributes[p.First] = p.Second
			info.attrOrder = append(info.attrOrder, p.First)
		}
	}
	for _, c := range op.Children() {
		info.Children = append(info.Children, describe(c, pipelineRoots))
	}
	if ex, ok := op.(*ExchangeOperator); ok {
		if h, ok := ex.Source.(*exchange.LocalSourceHandle); ok {
			if upstream, ok := pipelineRoots[h.Queue()]; ok {
				info.Children = append(info.Children, describe(upstream, pipelineRoots))
			}
		}
	}
	return info
}

func (e *Explanation) JSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

func (e *Explanation) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fragment instance %s, exchanges=%d, temp file=%v\n", e.Instance, e.ExchangeSum, e.HasTempFile)
	for _, p := range e.Pipelines {
		fmt.Fprintf(&sb, "  pipeline %d: %s dop=%d", p.ID, p.Root, p.DOP)
		if p.DependencyID >= 0 {
			fmt.Fprintf(&sb, " after=%d", p.DependencyID)
		}
		if p.Sink != "" {
			fmt.Fprintf(&sb, " sink=%s budget=%s", p.Sink, units.BytesSize(float64(p.MaxBytes)))
		}
		sb.WriteByte('\n')
	}

	root := treeprint.New()
	addOperator(root, e.Root)
	sb.WriteString(root.String())
	return sb.String()
}

func addOperator(tree treeprint.Tree, info *OperatorInfo) {
	if info == nil {
		return
	}
	name := fmt.Sprintf("%s#%d", info.Kind, info.ID)
	if info.PlanNodeID != "" {
		name += "[" + info.PlanNodeID + "]"
	}
	name += fmt.Sprintf(" pipeline=%d max=%s", info.Pipeline, units.BytesSize(float64(info.MaxReturnSize)))
	branch := tree.AddBranch(name)
	for _, k := range info.attrOrder {
		branch.AddNode(fmt.Sprintf("%s: %v", k, info.Attributes[k]))
	}
	for _, c := range info.Children {
		addOperator(branch, c)
	}
}
