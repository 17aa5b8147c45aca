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
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/lib/errno"
	"go.uber.org/zap"
)

// ExchangeOperator reads the batches another pipeline or fragment instance
// produces for the current pipeline.
type ExchangeOperator struct {
	BaseOperator
	Source             exchange.SourceHandle
	UpstreamPlanNodeID plan.NodeID
	Remote             bool
}

func (op *ExchangeOperator) Explain() []ValuePair {
	pairs := []ValuePair{{First: "upstream", Second: string(op.UpstreamPlanNodeID)}}
	if op.Remote {
		pairs = append(pairs, ValuePair{First: "remote", Second: true})
	}
	return pairs
}

func (b *Builder) buildExchange(n *plan.ExchangeNode, ctx *BuildContext) (Operator, error) {
	frag := ctx.frag
	opCtx := ctx.addOperatorContext(n.ID(), KindExchange)
	var (
		source exchange.SourceHandle
		err    error
		remote bool
	)
	if n.UpstreamEndpoint == frag.manager.LocalEndpoint() {
		source, err = frag.manager.CreateLocalSourceHandleForFragment(frag.Instance, string(n.ID()),
			string(n.UpstreamPlanNodeID), n.UpstreamInstanceID, n.IndexOfUpstreamSinkHandle, frag.fail)
	} else {
		source, err = frag.manager.CreateSourceHandle(frag.Instance, string(n.ID()), n.IndexOfUpstreamSinkHandle,
			n.UpstreamEndpoint, n.UpstreamInstanceID, frag.fail)
		remote = true
		ctx.exchangeSum++
	}
	if err != nil {
		return nil, errno.Wrap(err, errno.ExchangeHandleFail, plan.String(n))
	}
	source.SetMaxBytesCanReserve(frag.conf.GetMaxBytesPerExchange())
	op := &ExchangeOperator{
		BaseOperator:       newBaseOperator(opCtx),
		Source:             source,
		UpstreamPlanNodeID: n.UpstreamPlanNodeID,
		Remote:             remote,
	}
	frag.exchangeOperators = append(frag.exchangeOperators, op)
	b.logger.Debug("exchange",
		zap.String("node", string(n.ID())), zap.Stringer("upstream", n.UpstreamEndpoint), zap.Bool("remote", remote))
	return op, nil
}

// IdentitySinkOperator forwards the output of child i to the i-th
// downstream channel, one child after another.
type IdentitySinkOperator struct {
	BaseOperator
	Sink exchange.SinkHandle
}

func (op *IdentitySinkOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "channels", Second: len(op.Sink.Channels())},
		{First: "strategy", Second: op.Sink.Strategy().String()},
	}
}

// ShuffleHelperOperator spreads the output of its children over the
// downstream channels.
type ShuffleHelperOperator struct {
	BaseOperator
	Sink exchange.SinkHandle
}

func (op *ShuffleHelperOperator) Explain() []ValuePair {
	return []ValuePair{
		{First: "channels", Second: len(op.Sink.Channels())},
		{First: "strategy", Second: op.Sink.Strategy().String()},
	}
}

func (b *Builder) createSink(n plan.Node, channels []exchange.DownStreamChannelLocation, strategy exchange.ShuffleStrategy,
	ctx *BuildContext) (exchange.SinkHandle, error) {
	frag := ctx.frag
	sink, err := frag.manager.CreateShuffleSinkHandle(channels, strategy, frag.Instance, string(n.ID()))
	if err != nil {
		return nil, errno.Wrap(err, errno.ExchangeHandleFail, plan.String(n))
	}
	sink.SetMaxBytesCanReserve(frag.conf.GetMaxBytesPerExchange())
	ctx.pipeline.Sink = sink
	return sink, nil
}

func (b *Builder) buildIdentitySink(n *plan.IdentitySinkNode, ctx *BuildContext) (Operator, error) {
	ctx.exchangeSum++
	opCtx := ctx.addOperatorContext(n.ID(), KindIdentitySink)
	sink, err := b.createSink(n, n.DownStreamChannels, exchange.Plain, ctx)
	if err != nil {
		return nil, err
	}
	children, err := b.consumeChildrenOneByOne(n, ctx)
	if err != nil {
		return nil, err
	}
	return &IdentitySinkOperator{BaseOperator: newBaseOperator(opCtx, children...), Sink: sink}, nil
}

func (b *Builder) buildShuffleSink(n *plan.ShuffleSinkNode, ctx *BuildContext) (Operator, error) {
	ctx.exchangeSum++
	opCtx := ctx.addOperatorContext(n.ID(), KindShuffleHelper)
	// the children of a shuffle sink stay in its pipeline
	ctx.setDOP(1)
	children, _, err := b.consumeAllChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	sink, err := b.createSink(n, n.DownStreamChannels, exchange.RoundRobin, ctx)
	if err != nil {
		return nil, err
	}
	return &ShuffleHelperOperator{BaseOperator: newBaseOperator(opCtx, children...), Sink: sink}, nil
}
