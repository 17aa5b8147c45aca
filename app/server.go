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

package app

import (
	"context"
	"io"
	"time"

	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/lastcache"
	"github.com/openGemini/ts-planner/engine/physical"
	"github.com/openGemini/ts-planner/engine/pipeline"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/config"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/openGemini/ts-planner/lib/logger"
	"github.com/openGemini/ts-planner/lib/metrics"
	"github.com/openGemini/ts-planner/lib/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

// Server holds the state every fragment instance compiled by the process
// shares: the exchange manager, the last cache and its gate, the planner and
// its metrics.
type Server struct {
	conf   *config.TSPlanner
	logger *logger.Logger

	Manager  *exchange.LocalManager
	Cache    lastcache.Cache
	Gate     *lastcache.Gate
	Planner  *physical.Planner
	Metrics  *metrics.PlannerCollector
	Registry *prometheus.Registry
}

func NewServer(conf *config.TSPlanner, endpoint exchange.TEndPoint) (*Server, error) {
	s := &Server{
		conf:     conf,
		logger:   logger.NewLogger(errno.ModuleCli),
		Manager:  exchange.NewLocalManager(endpoint, conf.Planner.GetMaxBytesPerExchange()),
		Registry: prometheus.NewRegistry(),
	}

	if lc := conf.GetLastCache(); lc.Enabled {
		s.Cache = lastcache.NewLRUCache(lc.Capacity, lc.GetTTL())
	} else {
		s.Cache = lastcache.NopCache{}
	}
	s.Gate = lastcache.NewGate(s.Cache)

	collector, err := metrics.NewPlannerCollector(conf.Planner.Region)
	if err != nil {
		return nil, errno.NewThirdParty(err, errno.ModuleCli)
	}
	if err := s.Registry.Register(collector); err != nil {
		return nil, errno.NewThirdParty(err, errno.ModuleCli)
	}
	s.Metrics = collector
	s.Planner = physical.NewPlanner(conf.GetPlanner(), s.Manager, s.Gate).WithMetrics(collector)
	return s, nil
}

// Explain compiles frag and describes the result. Nothing runs, the paths
// the build registered in the last cache gate are given back.
func (s *Server) Explain(frag *plan.Fragment, dop int) (*physical.Explanation, error) {
	res, err := s.Planner.Plan(frag, dop)
	if err != nil {
		return nil, err
	}
	defer res.ReleaseLastCache()
	return physical.Explain(res), nil
}

// RunReport is what running a compiled fragment instance produced.
type RunReport struct {
	Explanation *physical.Explanation
	Trace       *tracing.Trace
	// Rows emitted by each pipeline.
	Rows    map[int]int
	Output  []*types.Batch
	Elapsed time.Duration
}

// Run compiles frag and launches its pipelines. Exchanges reading other
// fragment instances are ended first, they have no running upstream.
func (s *Server) Run(ctx context.Context, frag *plan.Fragment, dop int) (*RunReport, error) {
	start := time.Now()
	res, err := s.Planner.Plan(frag, dop)
	if err != nil {
		return nil, err
	}
	res.FinishUpstreams()

	g, err := pipeline.NewGraph(res.Pipelines)
	if err != nil {
		res.ReleaseLastCache()
		return nil, err
	}
	launcher, err := pipeline.NewLauncher(len(res.Pipelines))
	if err != nil {
		res.ReleaseLastCache()
		return nil, err
	}
	defer launcher.Release()

	trace, span := tracing.NewTrace("fragment")
	span.SetLabels("instance", res.Fragment.Instance.FullID())
	driver := physical.NewDriver(res)
	err = launcher.Launch(tracing.NewContext(ctx, trace, span), g, driver.Run)
	span.Finish()
	if err != nil {
		s.logger.Error("fragment instance run failed",
			zap.String("instance", res.Fragment.Instance.FullID()), zap.Error(err))
		return nil, err
	}

	return &RunReport{
		Explanation: physical.Explain(res),
		Trace:       trace,
		Rows:        driver.Rows(),
		Output:      driver.Output(),
		Elapsed:     time.Since(start),
	}, nil
}

// WriteMetrics writes the planner counters in the prometheus text format.
func (s *Server) WriteMetrics(w io.Writer) error {
	families, err := s.Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
