/*
Copyright 2024 openGemini author.

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

package metrics

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	plannerModule  = "planner"
	failuresModule = "planner_failures"
)

// BuildStat is what one fragment instance build contributes.
type BuildStat struct {
	Pipelines       int
	Exchanges       int
	LastCacheHits   int
	LastCacheMisses int
	LastCacheStale  int
}

// PlannerCollector counts the work of the physical planner. It is safe for
// concurrent builds.
type PlannerCollector struct {
	*BaseCollector
	region string

	fragments int64
	pipelines int64
	exchanges int64
	hits      int64
	misses    int64
	stale     int64

	mu       sync.Mutex
	failures map[uint16]int64
}

func NewPlannerCollector(region string) (*PlannerCollector, error) {
	base, err := NewBaseCollector()
	if err != nil {
		return nil, err
	}
	return &PlannerCollector{
		BaseCollector: base,
		region:        region,
		failures:      make(map[uint16]int64),
	}, nil
}

func (c *PlannerCollector) AddBuild(s BuildStat) {
	atomic.AddInt64(&c.fragments, 1)
	atomic.AddInt64(&c.pipelines, int64(s.Pipelines))
	atomic.AddInt64(&c.exchanges, int64(s.Exchanges))
	atomic.AddInt64(&c.hits, int64(s.LastCacheHits))
	atomic.AddInt64(&c.misses, int64(s.LastCacheMisses))
	atomic.AddInt64(&c.stale, int64(s.LastCacheStale))
}

func (c *PlannerCollector) AddFailure(errno uint16) {
	c.mu.Lock()
	c.failures[errno]++
	c.mu.Unlock()
}

// Snapshot returns the counters of the planner module by metric name.
func (c *PlannerCollector) Snapshot() map[string]int64 {
	return map[string]int64{
		"fragments_built":   atomic.LoadInt64(&c.fragments),
		"pipelines_built":   atomic.LoadInt64(&c.pipelines),
		"exchanges_created": atomic.LoadInt64(&c.exchanges),
		"last_cache_hits":   atomic.LoadInt64(&c.hits),
		"last_cache_misses": atomic.LoadInt64(&c.misses),
		"last_cache_stale":  atomic.LoadInt64(&c.stale),
	}
}

func (c *PlannerCollector) Collect(ch chan<- prometheus.Metric) {
	for name, v := range c.Snapshot() {
		desc := c.Desc(plannerModule, name)
		if desc == nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), c.region)
	}

	desc := c.Desc(failuresModule, "build_failures")
	if desc == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for errno, n := range c.failures {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(n), strconv.Itoa(int(errno)))
	}
}
