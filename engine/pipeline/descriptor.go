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
	"fmt"

	"github.com/openGemini/ts-planner/engine/exchange"
)

// NoDependency marks a pipeline that may start right away.
const NoDependency = -1

// Task is the operator tree a pipeline drives. The scheduler only needs its name.
type Task interface {
	Name() string
}

// Descriptor is one schedulable unit of a fragment instance. Pipelines other
// than the root write into a local sink channel read by their consumer.
type Descriptor struct {
	ID   int
	Root Task
	Sink exchange.SinkChannel
	// DependencyID is the pipeline that must finish before this one starts.
	DependencyID int
	DOP          int
}

func NewDescriptor(id int, root Task, sink exchange.SinkChannel, dop int) *Descriptor {
	return &Descriptor{
		ID:           id,
		Root:         root,
		Sink:         sink,
		DependencyID: NoDependency,
		DOP:          dop,
	}
}

func (d *Descriptor) HasDependency() bool {
	return d.DependencyID != NoDependency
}

func (d *Descriptor) String() string {
	name := "<nil>"
	if d.Root != nil {
		name = d.Root.Name()
	}
	if d.HasDependency() {
		return fmt.Sprintf("pipeline %d: %s (dop=%d, after %d)", d.ID, name, d.DOP, d.DependencyID)
	}
	return fmt.Sprintf("pipeline %d: %s (dop=%d)", d.ID, name, d.DOP)
}

type Descriptors []*Descriptor
