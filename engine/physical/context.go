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
	"sync"
	"time"

	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/lastcache"
	"github.com/openGemini/ts-planner/engine/pipeline"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/timerange"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/config"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/openGemini/ts-planner/lib/logger"
	"go.uber.org/zap"
)

// PipelineContext collects the operators of one pipeline while it is built.
// ID stays -1 until the pipeline is registered.
type PipelineContext struct {
	ID          int
	DOP         int
	Sink        exchange.SinkChannel
	InputDriver bool
	HasTempFile bool

	operators []*OperatorContext
	frag      *FragmentState
}

func newPipelineContext(frag *FragmentState, dop int) *PipelineContext {
	return &PipelineContext{ID: -1, DOP: dop, frag: frag}
}

func (p *PipelineContext) Operators() []*OperatorContext {
	return p.operators
}

func (p *PipelineContext) addOperatorContext(planNodeID plan.NodeID, kind string) *OperatorContext {
	ctx := &OperatorContext{
		OperatorID: p.frag.nextOperatorID(),
		PlanNodeID: planNodeID,
		Kind:       kind,
		Pipeline:   p,
	}
	p.operators = append(p.operators, ctx)
	return ctx
}

// CachedLastValue is a last query row answered from the last cache.
type CachedLastValue struct {
	Path      string
	Timestamp int64
	Value     interface{}
	DataType  types.DataType
}

// FragmentState is shared by every build context of one fragment instance:
// the pipelines registered so far, the collaborators and the values read
// from the last cache.
type FragmentState struct {
	Instance exchange.FragmentInstanceID

	conf       *config.Planner
	manager    exchange.Manager
	gate       *lastcache.Gate
	typeProv   types.TypeProvider
	timeFilter *plan.TimeFilter
	allSensors map[string][]string
	templated  *plan.TemplatedInfo
	precision  timerange.Precision
	loc        *time.Location

	templateLayout *types.Layout
	templateTypes  types.TypeMap

	operatorID        int
	pipelines         pipeline.Descriptors
	pipelineContexts  []*PipelineContext
	exchangeOperators []*ExchangeOperator
	cachedLastValues  []CachedLastValue
	cachedDataTypes   []types.DataType
	hasTempFile       bool

	needUpdateLastCache bool
	needUpdateNullEntry bool

	lastCacheHits   int
	lastCacheMisses int
	lastCacheStale  int

	mu      sync.Mutex
	failure error

	logger *logger.Logger
}

func newFragmentState(frag *plan.Fragment, conf *config.Planner, manager exchange.Manager, gate *lastcache.Gate) (*FragmentState, error) {
	precision, err := timerange.ParsePrecision(conf.TimePrecision)
	if err != nil {
		return nil, err
	}
	tp := frag.Types
	if tp == nil {
		tp = types.TypeMap{}
	}
	return &FragmentState{
		Instance:   frag.InstanceID,
		conf:       conf,
		manager:    manager,
		gate:       gate,
		typeProv:   tp,
		timeFilter: frag.GlobalTimeFilter,
		allSensors: frag.AllSensors,
		templated:  frag.Templated,
		precision:  precision,
		loc:        conf.Location(),
		logger:     logger.NewLogger(errno.ModulePlanner).With(zap.String("instance", frag.InstanceID.FullID())),
	}, nil
}

func (s *FragmentState) nextOperatorID() int {
	id := s.operatorID
	s.operatorID++
	return id
}

// PipelineNumber is the count of pipelines registered so far.
func (s *FragmentState) PipelineNumber() int {
	return len(s.pipelines)
}

// Pipelines returns the registered pipelines in registration order.
func (s *FragmentState) Pipelines() pipeline.Descriptors {
	return s.pipelines
}

// PipelineContexts returns the build state of every registered pipeline.
func (s *FragmentState) PipelineContexts() []*PipelineContext {
	return s.pipelineContexts
}

func (s *FragmentState) ExchangeOperators() []*ExchangeOperator {
	return s.exchangeOperators
}

func (s *FragmentState) CachedLastValues() []CachedLastValue {
	return s.cachedLastValues
}

func (s *FragmentState) HasTempFile() bool {
	return s.hasTempFile
}

// registerPipeline appends the pipeline driven by root. The pipeline id is
// its position, dependency ids refer to it.
func (s *FragmentState) registerPipeline(p *PipelineContext, root Operator) *pipeline.Descriptor {
	p.ID = len(s.pipelines)
	d := pipeline.NewDescriptor(p.ID, root, p.Sink, p.DOP)
	s.pipelines = append(s.pipelines, d)
	s.pipelineContexts = append(s.pipelineContexts, p)
	return d
}

// fail records the first failure reported by a remote exchange of the
// fragment instance.
func (s *FragmentState) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return
	}
	s.failure = err
	s.logger.Error("fragment instance failed", zap.Error(err))
}

// Failed returns the failure reported for the fragment instance, nil while
// it is healthy.
func (s *FragmentState) Failed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// typeOf resolves a column, templated measurements first.
func (s *FragmentState) typeOf(name string) (types.DataType, bool) {
	if s.templated != nil {
		if s.templateTypes == nil {
			s.templateTypes = s.templated.TypeMap()
		}
		if t, ok := s.templateTypes[name]; ok {
			return t, true
		}
	}
	return s.typeProv.GetType(name)
}

func (s *FragmentState) typesOf(names []string) []types.DataType {
	out := make([]types.DataType, len(names))
	for i, name := range names {
		out[i], _ = s.typeOf(name)
	}
	return out
}

// templatedLayout is built once and reused by the filter of every device.
func (s *FragmentState) templatedLayout() *types.Layout {
	if s.templateLayout == nil {
		l := types.NewLayout()
		l.Add(types.TimeColumnName, types.NewInputLocation(0, types.TimeColumnIndex))
		for i, name := range s.templated.Measurements {
			l.Add(name, types.NewInputLocation(0, i))
		}
		s.templateLayout = l
	}
	return s.templateLayout
}

// allSensorsOf returns the measurements of device read by the query, always
// including measurement.
func (s *FragmentState) allSensorsOf(device, measurement string) []string {
	sensors := s.allSensors[device]
	for _, m := range sensors {
		if m == measurement {
			return sensors
		}
	}
	return append(append([]string(nil), sensors...), measurement)
}

// columnSize is the width in bytes of one value of dt in an output batch.
func (s *FragmentState) columnSize(dt types.DataType) (int64, error) {
	if dt == types.Text {
		return s.conf.GetMaxTextSize(), nil
	}
	if size := dt.FixedSize(); size > 0 {
		return size, nil
	}
	return 0, errno.NewError(errno.UnknownDataType, dt)
}

// Delta is what a sub-build added to its parent: the pipelines it
// registered and the exchange operators it created.
type Delta struct {
	Pipelines   int
	ExchangeSum int
}

// BuildContext is the state threaded through the build of one pipeline. A
// child moved into a new pipeline is built with a forked context.
type BuildContext struct {
	frag        *FragmentState
	pipeline    *PipelineContext
	dop         int
	exchangeSum int
}

func newBuildContext(frag *FragmentState, dop int) *BuildContext {
	if dop < 1 {
		dop = 1
	}
	return &BuildContext{frag: frag, pipeline: newPipelineContext(frag, dop), dop: dop}
}

func (c *BuildContext) Fragment() *FragmentState {
	return c.frag
}

func (c *BuildContext) Pipeline() *PipelineContext {
	return c.pipeline
}

func (c *BuildContext) DOP() int {
	return c.dop
}

func (c *BuildContext) ExchangeSum() int {
	return c.exchangeSum
}

// setDOP lowers the parallelism left to the rest of the pipeline. The
// pipeline keeps the degree it was forked with.
func (c *BuildContext) setDOP(dop int) {
	c.dop = dop
}

// fork starts a context for a new pipeline sharing the fragment state. The
// exchange count is inherited so that the difference is what the sub-build
// added.
func (c *BuildContext) fork(dop int) *BuildContext {
	return &BuildContext{
		frag:        c.frag,
		pipeline:    newPipelineContext(c.frag, dop),
		dop:         dop,
		exchangeSum: c.exchangeSum,
	}
}

// deltaOf is the contribution of sub, forked from c when originPipeNum
// pipelines were registered.
func (c *BuildContext) deltaOf(sub *BuildContext, originPipeNum int) Delta {
	return Delta{
		Pipelines:   c.frag.PipelineNumber() - originPipeNum,
		ExchangeSum: sub.exchangeSum - c.exchangeSum,
	}
}

func (c *BuildContext) addOperatorContext(planNodeID plan.NodeID, kind string) *OperatorContext {
	return c.pipeline.addOperatorContext(planNodeID, kind)
}
