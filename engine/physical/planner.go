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

package physical

import (
	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/lastcache"
	"github.com/openGemini/ts-planner/engine/pipeline"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/lib/config"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/openGemini/ts-planner/lib/logger"
	"github.com/openGemini/ts-planner/lib/metrics"
	"go.uber.org/zap"
)

// Result is the compiled form of one fragment instance.
type Result struct {
	Root      Operator
	Pipelines pipeline.Descriptors
	// HasTempFile is set when a pipeline may spill to SortTmpDir.
	HasTempFile bool
	ExchangeSum int
	Fragment    *FragmentState
}

// RootPipeline is the pipeline driven by Root, always registered last.
func (r *Result) RootPipeline() *pipeline.Descriptor {
	return r.Pipelines[len(r.Pipelines)-1]
}

// Planner compiles fragment instances. The exchange manager and the last
// cache gate are shared by every fragment instance of the process.
type Planner struct {
	conf    *config.Planner
	manager exchange.Manager
	gate    *lastcache.Gate
	builder *Builder
	stat    *metrics.PlannerCollector
	logger  *logger.Logger
}

func NewPlanner(conf *config.Planner, manager exchange.Manager, gate *lastcache.Gate) *Planner {
	return &Planner{
		conf:    conf,
		manager: manager,
		gate:    gate,
		builder: NewBuilder(),
		logger:  logger.NewLogger(errno.ModulePlanner),
	}
}

func (p *Planner) Config() *config.Planner {
	return p.conf
}

// WithMetrics reports every build to c.
func (p *Planner) WithMetrics(c *metrics.PlannerCollector) *Planner {
	p.stat = c
	return p
}

// Plan builds the operators and pipelines of frag with dop degrees of
// parallelism, the configured degree when dop is not positive.
func (p *Planner) Plan(frag *plan.Fragment, dop int) (*Result, error) {
	res, err := p.plan(frag, dop)
	if err != nil {
		var instance string
		if frag != nil {
			instance = frag.InstanceID.FullID()
		}
		p.logger.Error("build fragment instance failed", zap.String("instance", instance), zap.Error(err))
		if p.stat != nil {
			var code uint16
			if e, ok := err.(*errno.Error); ok {
				code = uint16(e.Errno())
			}
			p.stat.AddFailure(code)
		}
		return nil, err
	}
	if p.stat != nil {
		p.stat.AddBuild(metrics.BuildStat{
			Pipelines:       len(res.Pipelines),
			Exchanges:       res.ExchangeSum,
			LastCacheHits:   res.Fragment.lastCacheHits,
			LastCacheMisses: res.Fragment.lastCacheMisses,
			LastCacheStale:  res.Fragment.lastCacheStale,
		})
	}
	return res, nil
}

func (p *Planner) plan(frag *plan.Fragment, dop int) (*Result, error) {
	if frag == nil || frag.Root == nil {
		return nil, errno.NewError(errno.InvalidPlan, "empty fragment")
	}
	if dop <= 0 {
		dop = p.conf.DegreeOfParallelism
	}
	state, err := newFragmentState(frag, p.conf, p.manager, p.gate)
	if err != nil {
		return nil, err
	}
	ctx := newBuildContext(state, dop)
	root, err := p.builder.Build(frag.Root, ctx)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errno.NewError(errno.InvalidPlan, plan.String(frag.Root)+" produces no operator")
	}
	state.registerPipeline(ctx.pipeline, root)

	res := &Result{
		Root:        root,
		Pipelines:   state.Pipelines(),
		HasTempFile: state.HasTempFile(),
		ExchangeSum: ctx.exchangeSum,
		Fragment:    state,
	}
	p.logger.Debug("fragment instance built",
		zap.String("instance", frag.InstanceID.FullID()),
		zap.Int("dop", dop),
		zap.Int("pipelines", len(res.Pipelines)),
		zap.Int("exchanges", res.ExchangeSum),
		zap.Bool("temp_file", res.HasTempFile))
	return res, nil
}
