// Copyright 2024 openGemini author.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics_test

import (
	"sync"
	"testing"

	"github.com/openGemini/ts-planner/lib/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, c prometheus.Collector) map[string]float64 {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				key += "{" + l.GetName() + "=" + l.GetValue() + "}"
			}
			values[key] = m.GetCounter().GetValue()
		}
	}
	return values
}

func TestBaseCollector(t *testing.T) {
	c, err := metrics.NewBaseCollector()
	require.NoError(t, err)
	require.Contains(t, c.IndexRegistry, "planner")
	assert.Equal(t, []string{"region"}, c.IndexRegistry["planner"].Labels)
	assert.NotNil(t, c.Desc("planner", "fragments_built"))
	assert.Nil(t, c.Desc("planner", "unknown"))

	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)
	assert.Len(t, ch, 7)
}

func TestPlannerCollector(t *testing.T) {
	c, err := metrics.NewPlannerCollector("cn-north")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddBuild(metrics.BuildStat{Pipelines: 3, Exchanges: 2, LastCacheHits: 1, LastCacheMisses: 2})
		}()
	}
	wg.Wait()
	c.AddFailure(1203)
	c.AddFailure(1203)

	snapshot := c.Snapshot()
	assert.Equal(t, int64(8), snapshot["fragments_built"])
	assert.Equal(t, int64(24), snapshot["pipelines_built"])
	assert.Equal(t, int64(0), snapshot["last_cache_stale"])

	values := gather(t, c)
	assert.Equal(t, float64(16), values["ts_planner_exchanges_created{region=cn-north}"])
	assert.Equal(t, float64(16), values["ts_planner_last_cache_misses{region=cn-north}"])
	assert.Equal(t, float64(2), values["ts_planner_failures_build_failures{errno=1203}"])
}
