// Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.
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

package physical_test

import (
	"testing"

	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/lastcache"
	"github.com/openGemini/ts-planner/engine/physical"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastScan(id, path string, dt types.DataType) *plan.LastQueryScanNode {
	return plan.NewLastQueryScanNode(plan.NodeID(id), plan.NewMeasurementPath(path, dt))
}

func updateOperators(root physical.Operator) []*physical.UpdateLastCacheOperator {
	var ops []*physical.UpdateLastCacheOperator
	physical.Walk(root, func(op physical.Operator) {
		if u, ok := op.(*physical.UpdateLastCacheOperator); ok {
			ops = append(ops, u)
		}
	})
	return ops
}

func planWithFilter(t *testing.T, e *env, root plan.Node, filter *plan.TimeFilter) *physical.Result {
	frag := newFragment(root)
	frag.GlobalTimeFilter = filter
	res, err := e.planner.Plan(frag, 1)
	require.NoError(t, err)
	return res
}

func TestLastQueryMissRegistersPendingScan(t *testing.T) {
	e := newEnv(t, 1)
	root := plan.NewLastQueryNode("0", nil, lastScan("1", "root.sg.d1.s1", types.Int64))

	res := e.plan(t, root, 1)
	require.Len(t, updateOperators(res.Root), 1)
	assert.Equal(t, 1, countKinds(res.Root, physical.KindSeriesAggregationScan))
	assert.True(t, e.gate.IsUncached("root.sg.d1.s1"))

	update := updateOperators(res.Root)[0]
	assert.Equal(t, []string{"root.sg.d1.s1"}, update.Paths)
	assert.True(t, update.NeedUpdateCache)
	assert.True(t, update.NeedUpdateNullEntry)

	scan := update.Children()[0].(*physical.AggregationScanOperator)
	assert.Equal(t, plan.Desc, scan.Order)
	// max_time and last_value
	assert.Len(t, scan.Aggregators, 2)

	// a concurrent build skips the cache while the path is pending
	e.cache.Update("root.sg.d1.s1", lastcache.Entry{Timestamp: 10, Value: int64(3)})
	other := e.plan(t, root, 1)
	assert.Len(t, updateOperators(other.Root), 1)

	res.ReleaseLastCache()
	assert.False(t, e.gate.IsUncached("root.sg.d1.s1"))

	third := e.plan(t, root, 1)
	assert.Empty(t, updateOperators(third.Root))

	snapshot := e.stat.Snapshot()
	assert.Equal(t, int64(2), snapshot["last_cache_misses"])
	assert.Equal(t, int64(1), snapshot["last_cache_hits"])
}

func TestLastQueryReleaseIsScopedToQuery(t *testing.T) {
	e := newEnv(t, 1)
	root := plan.NewLastQueryNode("0", nil, lastScan("1", "root.sg.d1.s1", types.Int64))

	owner := e.plan(t, root, 1)
	require.Len(t, updateOperators(owner.Root), 1)
	assert.Equal(t, instanceID.QueryID, updateOperators(owner.Root)[0].QueryID)

	frag := newFragment(root)
	frag.InstanceID = exchange.FragmentInstanceID{QueryID: "q2", FragmentID: 0, InstanceID: "0"}
	other, err := e.planner.Plan(frag, 1)
	require.NoError(t, err)
	require.Len(t, updateOperators(other.Root), 1)
	assert.Equal(t, "q2", updateOperators(other.Root)[0].QueryID)

	// the scan of q2 does not end the pending scan of q1
	other.ReleaseLastCache()
	assert.True(t, e.gate.IsUncached("root.sg.d1.s1"))
	assert.Equal(t, 1, e.gate.Pending(instanceID.QueryID, "root.sg.d1.s1"))

	owner.ReleaseLastCache()
	assert.False(t, e.gate.IsUncached("root.sg.d1.s1"))
}

func TestLastQueryCachedRows(t *testing.T) {
	e := newEnv(t, 1)
	e.cache.Update("root.sg.d1.s1", lastcache.Entry{Timestamp: 100, Value: 1.5})
	root := plan.NewLastQueryNode("0", nil,
		lastScan("1", "root.sg.d1.s1", types.Double),
		lastScan("2", "root.sg.d1.s2", types.Double))

	res := e.plan(t, root, 1)
	last, ok := res.Root.(*physical.LastQueryOperator)
	require.True(t, ok)
	assert.Equal(t, []physical.CachedLastValue{
		{Path: "root.sg.d1.s1", Timestamp: 100, Value: 1.5, DataType: types.Double},
	}, last.CachedRows)
	require.Len(t, last.Children(), 1)
	assert.Equal(t, []string{"root.sg.d1.s2"}, updateOperators(res.Root)[0].Paths)
	assert.False(t, e.gate.IsUncached("root.sg.d1.s1"))
	assert.True(t, e.gate.IsUncached("root.sg.d1.s2"))
}

func TestLastQueryWithTimeFilter(t *testing.T) {
	e := newEnv(t, 1)
	e.cache.Update("root.sg.d1.s1", lastcache.Entry{Timestamp: 100, Value: 1.5})
	root := plan.NewLastQueryNode("0", nil, lastScan("1", "root.sg.d1.s1", types.Double))

	// nothing newer than the cached point can exist
	res := planWithFilter(t, e, root, plan.TimeGt(200))
	last := res.Root.(*physical.LastQueryOperator)
	assert.Empty(t, last.CachedRows)
	assert.Empty(t, last.Children())

	// an older point may satisfy the filter, it must be read
	res = planWithFilter(t, e, root, plan.TimeLt(50))
	updates := updateOperators(res.Root)
	require.Len(t, updates, 1)
	assert.False(t, updates[0].NeedUpdateCache)
	assert.False(t, updates[0].NeedUpdateNullEntry)

	res = planWithFilter(t, e, root, plan.TimeGtEq(100))
	last = res.Root.(*physical.LastQueryOperator)
	assert.Len(t, last.CachedRows, 1)

	assert.Equal(t, int64(2), e.stat.Snapshot()["last_cache_stale"])
}

func TestLastQueryKnownEmptySeries(t *testing.T) {
	e := newEnv(t, 1)
	e.cache.Update("root.sg.d1.s1", lastcache.Entry{})
	root := plan.NewLastQueryNode("0", nil, lastScan("1", "root.sg.d1.s1", types.Double))

	res := e.plan(t, root, 1)
	last := res.Root.(*physical.LastQueryOperator)
	assert.Empty(t, last.CachedRows)
	assert.Empty(t, last.Children())
}

func TestAlignedLastQueryReadsUncachedMeasurements(t *testing.T) {
	e := newEnv(t, 1)
	e.cache.Update("root.sg.d1.s2", lastcache.Entry{Timestamp: 7, Value: int64(42)})
	path := plan.AlignedPath{
		Device:       "root.sg.d1",
		Measurements: []string{"s1", "s2", "s3"},
		DataTypes:    []types.DataType{types.Double, types.Int64, types.Boolean},
	}
	root := plan.NewLastQueryNode("0", nil, plan.NewAlignedLastQueryScanNode("1", path))

	res := e.plan(t, root, 1)
	last := res.Root.(*physical.LastQueryOperator)
	assert.Equal(t, []physical.CachedLastValue{
		{Path: "root.sg.d1.s2", Timestamp: 7, Value: int64(42), DataType: types.Int64},
	}, last.CachedRows)

	updates := updateOperators(res.Root)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Aligned)
	assert.Equal(t, physical.KindAlignedUpdateLastCache, updates[0].Name())
	assert.Equal(t, []string{"root.sg.d1.s1", "root.sg.d1.s3"}, updates[0].Paths)
	assert.Equal(t, []types.DataType{types.Double, types.Boolean}, updates[0].DataTypes)

	scan := updates[0].Children()[0].(*physical.AggregationScanOperator)
	assert.Equal(t, physical.KindAlignedSeriesAggregationScan, scan.Name())
	assert.Equal(t, updates[0].Paths, scan.Paths)
	assert.Len(t, scan.Aggregators, 4)

	e.cache.Update("root.sg.d1.s1", lastcache.Entry{Timestamp: 9, Value: 0.5})
	e.cache.Update("root.sg.d1.s3", lastcache.Entry{Timestamp: 9, Value: true})
	res.ReleaseLastCache()
	res = e.plan(t, root, 1)
	assert.Empty(t, updateOperators(res.Root))
	assert.Len(t, res.Root.(*physical.LastQueryOperator).CachedRows, 3)
}

func TestLastQueryTransformOfCachedChild(t *testing.T) {
	e := newEnv(t, 1)
	e.cache.Update("root.sg.d1.s1", lastcache.Entry{Timestamp: 100, Value: 1.5})
	root := plan.NewLastQueryNode("0", nil,
		plan.NewLastQueryTransformNode("2", "root.view.v1", types.Double, lastScan("1", "root.sg.d1.s1", types.Double)),
		plan.NewLastQueryTransformNode("4", "root.view.v2", types.Double, lastScan("3", "root.sg.d1.s2", types.Double)))

	res := e.plan(t, root, 1)
	assert.Equal(t, 1, countKinds(res.Root, physical.KindLastQueryTransform))
	var transform *physical.LastQueryTransformOperator
	physical.Walk(res.Root, func(op physical.Operator) {
		if tr, ok := op.(*physical.LastQueryTransformOperator); ok {
			transform = tr
		}
	})
	require.NotNil(t, transform)
	assert.Equal(t, "root.view.v2", transform.ViewPath)
}

func TestLastQueryMergeOrdering(t *testing.T) {
	e := newEnv(t, 2)
	merge := plan.NewLastQueryMergeNode("10", nil,
		lastScan("1", "root.sg.d1.s1", types.Double),
		lastScan("2", "root.sg.d2.s1", types.Double),
		lastScan("3", "root.sg.d3.s1", types.Double))
	res := e.plan(t, plan.NewLastQueryNode("0", nil, merge), 2)

	var op *physical.LastQueryMergeOperator
	physical.Walk(res.Root, func(o physical.Operator) {
		if m, ok := o.(*physical.LastQueryMergeOperator); ok {
			op = m
		}
	})
	require.NotNil(t, op)
	assert.True(t, op.Ascending)
	assert.Len(t, updateOperators(res.Root), 3)
	assert.Len(t, res.Pipelines, 2)
}
