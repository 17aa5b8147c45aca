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

package pipeline

import (
	"context"

	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/openGemini/ts-planner/lib/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// RunFunc drives one pipeline until its sink is done.
type RunFunc func(ctx context.Context, d *Descriptor) error

// Launcher runs the pipelines of a graph on a goroutine pool. A pipeline is
// submitted only after the pipeline it depends on has finished.
type Launcher struct {
	goPool *ants.Pool
	logger *logger.Logger
}

// NewLauncher creates a launcher with size workers. Every pipeline of a
// graph may block on the exchanges of another one, so size must not be
// smaller than the number of pipelines launched at once.
func NewLauncher(size int) (*Launcher, error) {
	goPool, err := ants.NewPool(size)
	if err != nil {
		return nil, errno.NewThirdParty(err, errno.ModulePipeline)
	}
	return &Launcher{goPool: goPool, logger: logger.NewLogger(errno.ModulePipeline)}, nil
}

func (l *Launcher) Release() {
	l.goPool.Release()
}

// Launch runs every pipeline of g and waits for all of them. The first error
// cancels the context handed to the running pipelines, pipelines waiting for
// a failed one are skipped.
func (l *Launcher) Launch(ctx context.Context, g *Graph, fn RunFunc) error {
	if g.CyclicGraph() {
		return errno.NewError(errno.CyclicPipeline, -1)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := errno.NewErrs()
	errs.Init(g.Size(), cancel)
	defer errs.Clean()

	for _, id := range g.SourceVertexs() {
		l.submit(ctx, g, id, fn, errs)
	}
	return errs.Err()
}

func (l *Launcher) submit(ctx context.Context, g *Graph, id VertexId, fn RunFunc, errs *errno.Errs) {
	vertex := g.Vertexs[id]
	err := l.goPool.Submit(func() {
		l.logger.Debug("pipeline start", zap.Int("pipeline", int(id)))
		err := fn(ctx, vertex.Descriptor)
		if err != nil {
			err = errno.Wrap(err, errno.PipelineRunFail, int(id))
			l.logger.Error("pipeline failed", zap.Int("pipeline", int(id)), zap.Error(err))
		} else {
			l.logger.Debug("pipeline finish", zap.Int("pipeline", int(id)))
		}
		l.done(ctx, g, vertex, err, fn, errs)
	})
	if err != nil {
		l.done(ctx, g, vertex, errno.NewThirdParty(err, errno.ModulePipeline), fn, errs)
	}
}

func (l *Launcher) done(ctx context.Context, g *Graph, vertex *Vertex, err error, fn RunFunc, errs *errno.Errs) {
	errs.Dispatch(err)
	for _, to := range vertex.DirectEdges {
		if err != nil {
			l.skip(g, to, errs)
			continue
		}
		l.submit(ctx, g, to, fn, errs)
	}
}

func (l *Launcher) skip(g *Graph, id VertexId, errs *errno.Errs) {
	l.logger.Warn("pipeline skipped", zap.Int("pipeline", int(id)))
	errs.Dispatch(nil)
	for _, to := range g.Vertexs[id].DirectEdges {
		l.skip(g, to, errs)
	}
}
