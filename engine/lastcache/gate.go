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

package lastcache

import (
	"sync"

	set "github.com/deckarep/golang-set"
)

// Gate serializes the read-then-register-miss sequence of last queries
// compiled concurrently. A path registered as uncached is scanned by the
// query that registered it, the others skip the cache for it until every
// pending scan of the owning query released it. A release only counts
// against the query it comes from.
type Gate struct {
	cache Cache

	mu       sync.Mutex
	uncached set.Set
	pending  map[string]pendingScans
}

// pendingScans are the scans of the query owning an uncached path.
type pendingScans struct {
	queryID string
	scans   int
}

func NewGate(cache Cache) *Gate {
	return &Gate{
		cache:    cache,
		uncached: set.NewThreadUnsafeSet(),
		pending:  make(map[string]pendingScans),
	}
}

func (g *Gate) Cache() Cache {
	return g.cache
}

// Lookup returns the cached entry of path. It returns nil when the path is
// registered as uncached or missing from the cache, and registers a miss
// owned by queryID for the scans expected to update it.
func (g *Gate) Lookup(queryID, path string, scans int) *Entry {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.uncached.Contains(path) {
		return nil
	}
	entry, ok := g.cache.Get(path)
	if ok {
		return entry
	}
	if scans < 1 {
		scans = 1
	}
	g.uncached.Add(path)
	g.pending[path] = pendingScans{queryID: queryID, scans: scans}
	return nil
}

// IsUncached reports whether path waits for a scan to update the cache.
func (g *Gate) IsUncached(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.uncached.Contains(path)
}

// Pending returns the scans of queryID path still waits for.
func (g *Gate) Pending(queryID, path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.pending[path]
	if !ok || p.queryID != queryID {
		return 0
	}
	return p.scans
}

// Release is called by each scan of an uncached path once it has updated
// the cache. Releases of a query owning no pending scan of path are ignored.
func (g *Gate) Release(queryID, path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.pending[path]
	if !ok || p.queryID != queryID {
		return
	}
	if p.scans > 1 {
		p.scans--
		g.pending[path] = p
		return
	}
	delete(g.pending, path)
	g.uncached.Remove(path)
}

// Update writes the result of a scan and releases the path.
func (g *Gate) Update(queryID, path string, entry Entry) {
	g.cache.Update(path, entry)
	g.Release(queryID, path)
}
