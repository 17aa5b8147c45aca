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

package tracing_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/openGemini/ts-planner/lib/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTrace() (*tracing.Trace, *tracing.Span) {
	trace, span := tracing.NewTrace("fragment")
	span.SetLabels("instance", "q1.0.0")

	sub := span.StartSpan("pipeline")
	sub.AppendNameValue("id", 0)
	sub.CreateCounter("rows", "")
	sub.Count("rows", 12)
	sub.Count("unknown", 1)
	sub.Finish()
	span.Finish()
	return trace, span
}

func TestTracing(t *testing.T) {
	trace, _ := makeTrace()

	exp := regexp.MustCompile(`.
└── fragment
    ├── labels
    │   └── instance: q1.0.0
    └── pipeline:id=0:elapsed=[\d\.]+(s|ms|µs)?
        └── rows: 12`)

	got := trace.String()
	assert.Regexp(t, exp, got)
}

func TestTracingCodec(t *testing.T) {
	trace, span := tracing.NewTrace("fragment")
	sub := span.StartSpan("sub")
	sub.AddStringField("sink", "node-3")
	sub.AddIntField("batches", 10)
	sub.Finish()
	span.Finish()

	buf, err := trace.MarshalBinary()
	require.NoError(t, err)

	other, _ := tracing.NewTrace("")
	require.NoError(t, other.UnmarshalBinary(buf))
	assert.Equal(t, trace.String(), other.String())
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	trace, span := tracing.FromContext(ctx)
	assert.Nil(t, trace)
	assert.Nil(t, span)
	assert.Nil(t, tracing.Start(tracing.SpanFromContext(ctx), "pipeline"))

	trace, span = tracing.NewTrace("root")
	ctx = tracing.NewContext(ctx, trace, span)
	gotTrace, gotSpan := tracing.FromContext(ctx)
	assert.Same(t, trace, gotTrace)
	assert.Same(t, span, gotSpan)

	sub := tracing.Start(tracing.SpanFromContext(ctx), "pipeline")
	require.NotNil(t, sub)
	tracing.Finish(sub, nil, span)
	assert.Contains(t, trace.String(), "pipeline")
}
