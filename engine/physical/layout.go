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
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/errno"
)

// MakeLayout maps every column produced by the children of node to the block
// of the child and its position. Each child contributes its time column
// first, a name produced by several children keeps all of its locations in
// child order.
func MakeLayout(node plan.Node) *types.Layout {
	layout := types.NewLayout()
	for i, child := range node.Children() {
		layout.Add(types.TimeColumnName, types.NewInputLocation(i, types.TimeColumnIndex))
		for j, name := range child.OutputColumnNames() {
			layout.Add(name, types.NewInputLocation(i, j))
		}
	}
	return layout
}

// inputLocationList resolves the inputs of an aggregation against layout.
// Each input yields one location array per location of its first column,
// two-column inputs pair their columns position by position.
func inputLocationList(inputs [][]string, layout *types.Layout) ([][]types.InputLocation, error) {
	var list [][]types.InputLocation
	for _, names := range inputs {
		if len(names) == 0 {
			continue
		}
		parts := make([][]types.InputLocation, len(names))
		for i, name := range names {
			locs, ok := layout.Get(name)
			if !ok {
				return nil, errno.NewError(errno.UnknownColumn, name)
			}
			parts[i] = locs
		}
		for i := range parts[0] {
			if len(names) == 1 {
				list = append(list, []types.InputLocation{parts[0][i]})
				continue
			}
			if i >= len(parts[1]) {
				return nil, errno.NewError(errno.UnknownColumn, names[1])
			}
			list = append(list, []types.InputLocation{parts[0][i], parts[1][i]})
		}
	}
	return list, nil
}
