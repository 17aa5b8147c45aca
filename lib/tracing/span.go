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
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/influxdata/influxdb/pkg/tracing"
	"github.com/influxdata/influxdb/pkg/tracing/fields"
)

const (
	nameValuePrefix = "__name__"
)

type Span struct {
	span  *tracing.Span
	trace *Trace

	start time.Time

	mu       sync.Mutex
	counters map[string]*SpanCounter
}

// AppendNameValue shows key=val next to the span name.
func (s *Span) AppendNameValue(key string, val interface{}) {
	s.span.MergeFields(fields.String(nameValuePrefix+key, fmt.Sprintf("%s=%v", key, val)))
}

func (s *Span) AddStringField(key, val string) {
	s.span.MergeFields(fields.String(key, val))
}

func (s *Span) AddIntField(key string, val int) {
	s.span.MergeFields(fields.Int64(key, int64(val)))
}

func (s *Span) SetLabels(args ...string) {
	s.span.SetLabels(args...)
}

func (s *Span) StartSpan(name string) *Span {
	s.trace.mu.Lock()
	defer s.trace.mu.Unlock()
	return &Span{span: s.span.StartSpan(name), trace: s.trace, start: time.Now()}
}

func (s *Span) Context() tracing.SpanContext {
	return s.span.Context()
}

// Finish records the elapsed time and the counters of the span.
func (s *Span) Finish() {
	if !s.start.IsZero() {
		s.AppendNameValue("elapsed", time.Since(s.start).Round(time.Microsecond))
	}

	s.mu.Lock()
	names := make([]string, 0, len(s.counters))
	for name := range s.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.AddStringField(name, s.counters[name].Value())
	}
	s.mu.Unlock()

	s.trace.mu.Lock()
	s.span.Finish()
	s.trace.mu.Unlock()
}

func (s *Span) CreateCounter(name string, unit string) *SpanCounter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counters == nil {
		s.counters = make(map[string]*SpanCounter, 2)
	}
	if counter, ok := s.counters[name]; ok {
		return counter
	}

	counter := &SpanCounter{name: name, unit: unit}
	s.counters[name] = counter
	return counter
}

func (s *Span) Count(name string, x int64) {
	s.mu.Lock()
	counter, ok := s.counters[name]
	s.mu.Unlock()
	if !ok {
		return
	}
	atomic.AddInt64(&counter.val, x)
}

type SpanCounter struct {
	val  int64
	name string
	unit string
}

func (c *SpanCounter) Name() string {
	return c.name
}

func (c *SpanCounter) Value() string {
	s := fmt.Sprintf("%d", atomic.LoadInt64(&c.val))
	if c.unit != "" {
		s += " " + c.unit
	}
	return s
}

// Start opens a child of span, nil when span is nil.
func Start(span *Span, name string) *Span {
	if span == nil {
		return nil
	}
	return span.StartSpan(name)
}

func Finish(spans ...*Span) {
	for _, span := range spans {
		if span == nil {
			continue
		}
		span.Finish()
	}
}
