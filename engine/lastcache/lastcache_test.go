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

package lastcache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/openGemini/ts-planner/engine/lastcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache(t *testing.T) {
	c := lastcache.NewLRUCache(2, time.Minute)
	_, ok := c.Get("root.sg.d1.s1")
	assert.False(t, ok)

	c.Update("root.sg.d1.s1", lastcache.Entry{Timestamp: 10, Value: 1.5})
	c.Update("root.sg.d1.s1", lastcache.Entry{Timestamp: 5, Value: 2.5})
	e, ok := c.Get("root.sg.d1.s1")
	require.True(t, ok)
	assert.Equal(t, int64(10), e.Timestamp)
	assert.Equal(t, 1.5, e.Value)

	c.Update("root.sg.d1.s1", lastcache.Entry{Timestamp: 20})
	e, _ = c.Get("root.sg.d1.s1")
	assert.Equal(t, 1.5, e.Value)

	c.Update("root.sg.d1.s2", lastcache.Entry{Timestamp: 1})
	e, ok = c.Get("root.sg.d1.s2")
	require.True(t, ok)
	assert.Nil(t, e.Value)

	c.Update("root.sg.d1.s3", lastcache.Entry{Timestamp: 1, Value: int64(3)})
	assert.Equal(t, 2, c.Len())
}

func TestGate(t *testing.T) {
	c := lastcache.NewLRUCache(16, time.Minute)
	c.Update("hit", lastcache.Entry{Timestamp: 3, Value: true})
	g := lastcache.NewGate(c)

	e := g.Lookup("q1", "hit", 1)
	require.NotNil(t, e)
	assert.Equal(t, true, e.Value)
	assert.False(t, g.IsUncached("hit"))

	assert.Nil(t, g.Lookup("q1", "miss", 2))
	assert.True(t, g.IsUncached("miss"))
	assert.Equal(t, 2, g.Pending("q1", "miss"))

	// a concurrent compilation sees the registration even after the cache
	// got a value from the first scan
	g.Update("q1", "miss", lastcache.Entry{Timestamp: 9, Value: 1.0})
	assert.True(t, g.IsUncached("miss"))
	assert.Nil(t, g.Lookup("q2", "miss", 2))
	assert.Equal(t, 0, g.Pending("q2", "miss"))

	g.Release("q1", "miss")
	assert.False(t, g.IsUncached("miss"))
	e = g.Lookup("q2", "miss", 1)
	require.NotNil(t, e)
	assert.Equal(t, int64(9), e.Timestamp)
}

func TestGateReleaseCountsAgainstOwner(t *testing.T) {
	g := lastcache.NewGate(lastcache.NewLRUCache(16, time.Minute))
	require.Nil(t, g.Lookup("q1", "root.sg.d1.s1", 2))

	// q2 scans the path too but owns none of its pending scans
	require.Nil(t, g.Lookup("q2", "root.sg.d1.s1", 1))
	g.Release("q2", "root.sg.d1.s1")
	g.Release("q2", "root.sg.d1.s1")
	assert.True(t, g.IsUncached("root.sg.d1.s1"))
	assert.Equal(t, 2, g.Pending("q1", "root.sg.d1.s1"))

	g.Release("q1", "root.sg.d1.s1")
	assert.True(t, g.IsUncached("root.sg.d1.s1"))
	g.Release("q1", "root.sg.d1.s1")
	assert.False(t, g.IsUncached("root.sg.d1.s1"))
	assert.Equal(t, 0, g.Pending("q1", "root.sg.d1.s1"))

	// releasing an unknown path is a no-op
	g.Release("q1", "root.sg.d1.s9")
}

func TestGateConcurrentRegister(t *testing.T) {
	g := lastcache.NewGate(lastcache.NewLRUCache(16, time.Minute))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.Nil(t, g.Lookup(fmt.Sprintf("q%d", i), "root.sg.d1.s1", 1))
		}(i)
	}
	wg.Wait()
	// exactly one query registered the miss
	owners := 0
	for i := 0; i < 8; i++ {
		owners += g.Pending(fmt.Sprintf("q%d", i), "root.sg.d1.s1")
	}
	assert.Equal(t, 1, owners)
	for i := 0; i < 8; i++ {
		g.Release(fmt.Sprintf("q%d", i), "root.sg.d1.s1")
	}
	assert.False(t, g.IsUncached("root.sg.d1.s1"))
}
