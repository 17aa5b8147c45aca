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

package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/openGemini/ts-planner/engine/pipeline"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedTask string

func (t namedTask) Name() string { return string(t) }

func descriptors(deps ...int) pipeline.Descriptors {
	ds := make(pipeline.Descriptors, len(deps))
	for i, dep := range deps {
		ds[i] = pipeline.NewDescriptor(i, namedTask("task"), nil, 1)
		ds[i].DependencyID = dep
	}
	return ds
}

func TestGraph(t *testing.T) {
	// 0 <- 1 <- 3, 2 and 4 are free
	g, err := pipeline.NewGraph(descriptors(-1, 0, -1, 1, -1))
	require.NoError(t, err)

	assert.Equal(t, 5, g.Size())
	assert.Equal(t, []pipeline.VertexId{0, 2, 4}, g.SourceVertexs())
	assert.False(t, g.CyclicGraph())

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []pipeline.VertexId{0, 1, 2, 3, 4}, order)

	var visited []pipeline.VertexId
	err = g.Walk(3, true, func(v *pipeline.Vertex, _ map[pipeline.VertexId]int) error {
		visited = append(visited, v.Id)
		return nil
	}, map[pipeline.VertexId]int{})
	require.NoError(t, err)
	assert.Equal(t, []pipeline.VertexId{3, 1, 0}, visited)
}

func TestGraphErrors(t *testing.T) {
	_, err := pipeline.NewGraph(descriptors(-1, 5))
	assert.True(t, errno.Equal(err, errno.MissDependPipeline))

	ds := descriptors(-1, -1)
	ds[1].ID = 0
	_, err = pipeline.NewGraph(ds)
	assert.True(t, errno.Equal(err, errno.DuplicatePipelineID))

	g, err := pipeline.NewGraph(descriptors(1, 0))
	require.NoError(t, err)
	assert.True(t, g.CyclicGraph())
	_, err = g.TopologicalOrder()
	assert.True(t, errno.Equal(err, errno.CyclicPipeline))
}

func TestLauncherOrder(t *testing.T) {
	g, err := pipeline.NewGraph(descriptors(-1, 0, 1, -1))
	require.NoError(t, err)

	l, err := pipeline.NewLauncher(g.Size())
	require.NoError(t, err)
	defer l.Release()

	var mu sync.Mutex
	finished := make(map[int]bool)
	err = l.Launch(context.Background(), g, func(_ context.Context, d *pipeline.Descriptor) error {
		mu.Lock()
		defer mu.Unlock()
		if d.HasDependency() && !finished[d.DependencyID] {
			return errors.New("started before its dependency")
		}
		finished[d.ID] = true
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, finished, 4)
}

func TestLauncherFailure(t *testing.T) {
	g, err := pipeline.NewGraph(descriptors(-1, 0, 1, -1))
	require.NoError(t, err)

	l, err := pipeline.NewLauncher(g.Size())
	require.NoError(t, err)
	defer l.Release()

	var mu sync.Mutex
	var ran []int
	err = l.Launch(context.Background(), g, func(_ context.Context, d *pipeline.Descriptor) error {
		mu.Lock()
		ran = append(ran, d.ID)
		mu.Unlock()
		if d.ID == 0 {
			return errors.New("scan failed")
		}
		return nil
	})
	assert.True(t, errno.Equal(err, errno.PipelineRunFail))
	assert.NotContains(t, ran, 1)
	assert.NotContains(t, ran, 2)
}
