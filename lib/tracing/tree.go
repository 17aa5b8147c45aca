// Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"fmt"
	"strings"

	"github.com/influxdata/influxdb/pkg/tracing"
	"github.com/influxdata/influxdb/pkg/tracing/fields"
	"github.com/influxdata/influxdb/pkg/tracing/labels"
	"github.com/xlab/treeprint"
)

// treeVisitor renders a trace as a tree, one branch per span.
type treeVisitor struct {
	root  treeprint.Tree
	stack []treeprint.Tree
}

func newTreeVisitor() *treeVisitor {
	root := treeprint.New()
	return &treeVisitor{
		root:  root,
		stack: []treeprint.Tree{root},
	}
}

func (v *treeVisitor) Visit(n *tracing.TreeNode) tracing.Visitor {
	fs := n.Raw.Fields
	name := v.enrichNodeName(n.Raw.Name, &fs)

	current := v.stack[len(v.stack)-1].AddBranch(name)
	v.stack = append(v.stack, current)

	v.addLabels(current, n.Raw.Labels)
	for _, field := range fs {
		current.AddNode(field.String())
	}

	for _, child := range n.Children {
		tracing.Walk(v, child)
	}

	v.stack = v.stack[:len(v.stack)-1]
	return nil
}

// enrichNodeName moves the name prefixed fields into the node name.
func (v *treeVisitor) enrichNodeName(name string, fs *fields.Fields) string {
	for i := 0; i < len(*fs); {
		if strings.HasPrefix((*fs)[i].Key(), nameValuePrefix) {
			name += fmt.Sprintf(":%v", (*fs)[i].Value())
			*fs = append((*fs)[:i], (*fs)[i+1:]...)
			continue
		}
		i++
	}
	return name
}

func (v *treeVisitor) addLabels(node treeprint.Tree, ls []labels.Label) {
	if len(ls) == 0 {
		return
	}

	labelNode := node.AddBranch("labels")
	for _, label := range ls {
		labelNode.AddNode(fmt.Sprintf("%s: %s", label.Key, label.Value))
	}
}
