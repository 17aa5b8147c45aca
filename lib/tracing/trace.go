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
	"sync"

	"github.com/influxdata/influxdb/pkg/tracing"
)

// Trace records the spans of one fragment instance run.
type Trace struct {
	trace *tracing.Trace
	mu    sync.RWMutex
}

func NewTrace(name string) (*Trace, *Span) {
	t, s := tracing.NewTrace(name)
	trace := &Trace{trace: t}
	return trace, &Span{span: s, trace: trace}
}

func (t *Trace) MarshalBinary() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trace.MarshalBinary()
}

func (t *Trace) UnmarshalBinary(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trace.UnmarshalBinary(data)
}

func (t *Trace) Tree() *tracing.TreeNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trace.Tree()
}

func (t *Trace) String() string {
	tv := newTreeVisitor()
	tracing.Walk(tv, t.Tree())
	return tv.root.String()
}
