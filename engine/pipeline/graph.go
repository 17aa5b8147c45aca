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

package pipeline

import (
	"sort"

	"github.com/openGemini/ts-planner/lib/errno"
)

type VertexId int

// Vertex is a pipeline of the graph. DirectEdges point to the pipelines
// waiting for this one, BackEdges to the pipeline it waits for.
type Vertex struct {
	Descriptor  *Descriptor
	Id          VertexId
	DirectEdges []VertexId
	BackEdges   []VertexId
}

func (v *Vertex) InDegree() int {
	return len(v.BackEdges)
}

func (v *Vertex) OutDegree() int {
	return len(v.DirectEdges)
}

type WalkFn func(vertex *Vertex, m map[VertexId]int) error

// Graph is the dependency graph of the pipelines of one fragment instance.
type Graph struct {
	Vertexs map[VertexId]*Vertex
	ids     []VertexId
}

func NewGraph(descriptors Descriptors) (*Graph, error) {
	g := &Graph{Vertexs: make(map[VertexId]*Vertex, len(descriptors))}
	for _, d := range descriptors {
		id := VertexId(d.ID)
		if _, ok := g.Vertexs[id]; ok {
			return nil, errno.NewError(errno.DuplicatePipelineID, d.ID)
		}
		g.Vertexs[id] = &Vertex{Descriptor: d, Id: id}
		g.ids = append(g.ids, id)
	}
	sort.Slice(g.ids, func(i, j int) bool { return g.ids[i] < g.ids[j] })

	for _, id := range g.ids {
		v := g.Vertexs[id]
		if !v.Descriptor.HasDependency() {
			continue
		}
		dep, ok := g.Vertexs[VertexId(v.Descriptor.DependencyID)]
		if !ok {
			return nil, errno.NewError(errno.MissDependPipeline, v.Descriptor.ID, v.Descriptor.DependencyID)
		}
		v.BackEdges = append(v.BackEdges, dep.Id)
		dep.DirectEdges = append(dep.DirectEdges, v.Id)
	}
	return g, nil
}

func (g *Graph) Size() int {
	return len(g.ids)
}

// Ids returns the pipeline ids in ascending order.
func (g *Graph) Ids() []VertexId {
	return g.ids
}

// SourceVertexs are the pipelines that wait for nothing.
func (g *Graph) SourceVertexs() []VertexId {
	ids := make([]VertexId, 0, len(g.ids))
	for _, id := range g.ids {
		if g.Vertexs[id].InDegree() == 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (g *Graph) CyclicGraph() bool {
	detectFn := func(vertex *Vertex, m map[VertexId]int) error {
		if _, ok := m[vertex.Id]; ok {
			return errno.NewError(errno.CyclicPipeline, vertex.Id)
		}
		m[vertex.Id] = 0
		return nil
	}

	for _, id := range g.ids {
		if err := g.Walk(id, true, detectFn, make(map[VertexId]int)); err != nil {
			return true
		}
	}
	return false
}

// Walk visits id and everything reachable from it, following the pipelines
// it waits for when backward is set and the pipelines waiting for it otherwise.
func (g *Graph) Walk(id VertexId, backward bool, fn WalkFn, m map[VertexId]int) error {
	if fn == nil {
		fn = func(vertex *Vertex, m map[VertexId]int) error {
			return nil
		}
	}
	return g.recursiveWalk(id, backward, fn, m)
}

func (g *Graph) recursiveWalk(id VertexId, backward bool, fn WalkFn, m map[VertexId]int) error {
	vertex := g.Vertexs[id]
	if err := fn(vertex, m); err != nil {
		return err
	}

	edges := vertex.DirectEdges
	if backward {
		edges = vertex.BackEdges
	}
	for _, to := range edges {
		if err := g.recursiveWalk(to, backward, fn, m); err != nil {
			return err
		}
	}
	return nil
}

// TopologicalOrder lists the pipelines so that every pipeline comes after the
// one it waits for. Ties are broken by id.
func (g *Graph) TopologicalOrder() ([]VertexId, error) {
	inDegree := make(map[VertexId]int, len(g.ids))
	for _, id := range g.ids {
		inDegree[id] = g.Vertexs[id].InDegree()
	}

	ready := g.SourceVertexs()
	order := make([]VertexId, 0, len(g.ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, to := range g.Vertexs[id].DirectEdges {
			inDegree[to]--
			if inDegree[to] == 0 {
				ready = append(ready, to)
			}
		}
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
	}

	if len(order) != len(g.ids) {
		for _, id := range g.ids {
			if inDegree[id] > 0 {
				return nil, errno.NewError(errno.CyclicPipeline, id)
			}
		}
	}
	return order, nil
}
