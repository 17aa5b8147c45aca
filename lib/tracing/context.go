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
	"context"
)

type contextKey struct{}

type traceSpan struct {
	trace *Trace
	span  *Span
}

// NewContext returns ctx carrying the trace and the span pipelines attach
// their spans to.
func NewContext(ctx context.Context, trace *Trace, span *Span) context.Context {
	return context.WithValue(ctx, contextKey{}, traceSpan{trace: trace, span: span})
}

func FromContext(ctx context.Context) (*Trace, *Span) {
	ts, ok := ctx.Value(contextKey{}).(traceSpan)
	if !ok {
		return nil, nil
	}
	return ts.trace, ts.span
}

// SpanFromContext is the span of FromContext.
func SpanFromContext(ctx context.Context) *Span {
	_, span := FromContext(ctx)
	return span
}
