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
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Entry is the last known point of a series. A nil Value means the series
// is known to have no data.
type Entry struct {
	Timestamp int64
	Value     interface{}
}

func (e *Entry) String() string {
	if e == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%d:%v", e.Timestamp, e.Value)
}

// Cache is the process wide last value cache, keyed by full series path.
type Cache interface {
	// Get returns the entry of path, ok is false when nothing is cached.
	Get(path string) (entry *Entry, ok bool)
	Update(path string, entry Entry)
}

// LRUCache keeps the most recently used entries for a limited time.
type LRUCache struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, Entry]
}

func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	return &LRUCache{cache: expirable.NewLRU[string, Entry](capacity, nil, ttl)}
}

func (c *LRUCache) Get(path string) (*Entry, bool) {
	e, ok := c.cache.Get(path)
	if !ok {
		return nil, false
	}
	return &e, true
}

// Update keeps the newer of the cached and the given entry. An entry
// without value never replaces a known value.
func (c *LRUCache) Update(path string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old, ok := c.cache.Peek(path)
	if ok && old.Value != nil && (entry.Value == nil || entry.Timestamp < old.Timestamp) {
		return
	}
	c.cache.Add(path, entry)
}

func (c *LRUCache) Len() int {
	return c.cache.Len()
}

// NopCache never holds a value, every last query scans.
type NopCache struct{}

func (NopCache) Get(string) (*Entry, bool) { return nil, false }
func (NopCache) Update(string, Entry)      {}
