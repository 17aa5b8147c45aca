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
	"fmt"

	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/plan"
	"go.uber.org/zap"
)

// buildInline builds children into the current pipeline. Children producing
// no operator, such as last query scans answered by the cache, are dropped.
func (b *Builder) buildInline(children []plan.Node, ctx *BuildContext) ([]Operator, error) {
	ops := make([]Operator, 0, len(children))
	for _, child := range children {
		op, err := b.Build(child, ctx)
		if err != nil {
			return nil, err
		}
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

// consumeAllChildren builds the children of a node reading all of them at
// once. While the degree of parallelism allows it, local children move into
// pipelines of their own behind an exchange. When there are more local
// children than the degree of parallelism, they are grouped: the first group
// stays in the current pipeline, every other group runs in one new pipeline
// under a copy of node restricted to the group. The returned node is node
// rebuilt over the children the current pipeline reads.
func (b *Builder) consumeAllChildren(node plan.Node, ctx *BuildContext) ([]Operator, plan.Node, error) {
	children := node.Children()
	if ctx.dop == 1 || len(children) == 1 {
		ops, err := b.buildInline(children, ctx)
		return ops, node, err
	}

	finalExchangeSum := ctx.exchangeSum
	ops := make([]Operator, 0, len(children))
	afterwards := make([]plan.Node, 0, len(children))
	// original children each entry of afterwards stands for
	spans := make([][2]int, 0, len(children))
	localChildren, firstChild := 0, -1
	for i, child := range children {
		if !plan.IsExchange(child) {
			localChildren++
			if firstChild == -1 {
				firstChild = i
			}
			continue
		}
		if firstChild != -1 {
			continue
		}
		// leading exchanges stay in the current pipeline
		op, err := b.Build(child, ctx)
		if err != nil {
			return nil, nil, err
		}
		finalExchangeSum++
		ops = append(ops, op)
		afterwards = append(afterwards, child)
		spans = append(spans, [2]int{i, i + 1})
	}
	if firstChild == -1 {
		ctx.exchangeSum = finalExchangeSum
		return ops, node, nil
	}

	dop := ctx.dop
	if dop > localChildren {
		dopForChild := max(1, dop-localChildren)
		for _, child := range children[firstChild:] {
			if plan.IsExchange(child) {
				op, err := b.Build(child, ctx)
				if err != nil {
					return nil, nil, err
				}
				finalExchangeSum++
				ops = append(ops, op)
				continue
			}
			sub := ctx.fork(dopForChild)
			originPipeNum := ctx.frag.PipelineNumber()
			op, err := b.newPipelineForChild(ctx, sub, child)
			if err != nil {
				return nil, nil, err
			}
			delta := ctx.deltaOf(sub, originPipeNum)
			if op != nil {
				ops = append(ops, op)
			}
			dopForChild = max(1, dopForChild-(delta.Pipelines-1))
			finalExchangeSum += delta.ExchangeSum + 1
		}
		b.logger.Debug("split every local child",
			zap.String("node", plan.String(node)), zap.Int("dop", dop), zap.Int("local", localChildren))
		ctx.exchangeSum = finalExchangeSum
		return ops, node, nil
	}

	groups := ChildNumInEachPipeline(children, localChildren, dop)
	b.logger.Debug("split children into groups",
		zap.String("node", plan.String(node)), zap.Int("dop", dop), zap.Ints("groups", groups))
	end := firstChild
	for i, n := range groups {
		start := end
		end += n
		if i == 0 {
			// the first group belongs to the current pipeline
			for j, child := range children[start:end] {
				ctx.setDOP(1)
				op, err := b.Build(child, ctx)
				if err != nil {
					return nil, nil, err
				}
				if op != nil {
					ops = append(ops, op)
				}
				afterwards = append(afterwards, child)
				spans = append(spans, [2]int{start + j, start + j + 1})
			}
			continue
		}

		sub := ctx.fork(1)
		partial := children[start]
		if end-start != 1 {
			partial = plan.SubNode(node, plan.NodeID(fmt.Sprintf("%s-%d", node.ID(), i)), start, end)
		}
		originPipeNum := ctx.frag.PipelineNumber()
		op, err := b.newPipelineForChild(ctx, sub, partial)
		if err != nil {
			return nil, nil, err
		}
		if op != nil {
			ops = append(ops, op)
		}
		afterwards = append(afterwards, partial)
		spans = append(spans, [2]int{start, end})
		finalExchangeSum += ctx.deltaOf(sub, originPipeNum).ExchangeSum + 1
	}
	ctx.exchangeSum = finalExchangeSum
	return ops, plan.Regroup(node, afterwards, spans), nil
}

// ChildNumInEachPipeline splits the children following the leading exchanges
// into min(localChildren, dop) consecutive groups and returns the number of
// children of each group. Groups before the split index take
// localChildren/dop local children, the others one more. Exchanges between
// local children join the group before them so that no group starts with an
// exchange.
func ChildNumInEachPipeline(children []plan.Node, localChildren, dop int) []int {
	maxPipelines := min(localChildren, dop)
	avg := max(1, localChildren/dop)
	split := maxPipelines - localChildren%dop

	childIndex := 0
	for childIndex < len(children) && plan.IsExchange(children[childIndex]) {
		childIndex++
	}

	nums := make([]int, 0, maxPipelines)
	for p := 0; p < maxPipelines; p++ {
		childNum := avg
		if p >= split {
			childNum = avg + 1
		}
		origin := childIndex
		for childNum >= 0 && childIndex < len(children) {
			if !plan.IsExchange(children[childIndex]) {
				childNum--
				if childNum == -1 {
					childIndex--
				}
			}
			childIndex++
		}
		nums = append(nums, childIndex-origin)
	}
	return nums
}

// newPipelineForChild builds child with sub, registers the result as a new
// pipeline writing into a local sink channel, and returns the exchange
// reading that channel from the current pipeline.
func (b *Builder) newPipelineForChild(ctx, sub *BuildContext, child plan.Node) (Operator, error) {
	op, err := b.Build(child, sub)
	if err != nil || op == nil {
		return nil, err
	}
	sink := b.registerChildPipeline(ctx, sub, child, op)
	return b.newPipelineExchange(ctx, child, sink, op.MaxReturnSize()), nil
}

func (b *Builder) registerChildPipeline(ctx, sub *BuildContext, child plan.Node, root Operator) *exchange.LocalSinkChannel {
	frag := ctx.frag
	// the pipeline has no parent node yet, the channel is named after its root
	sink := frag.manager.CreateLocalSinkChannelForPipeline(frag.Instance, frag.PipelineNumber(), string(child.ID()))
	sink.SetMaxBytesCanReserve(frag.conf.GetMaxBytesPerExchange())
	sub.pipeline.Sink = sink
	frag.registerPipeline(sub.pipeline, root)
	return sink
}

func (b *Builder) newPipelineExchange(ctx *BuildContext, child plan.Node, sink *exchange.LocalSinkChannel, maxReturnSize int64) *ExchangeOperator {
	frag := ctx.frag
	opCtx := ctx.addOperatorContext("", KindExchange)
	source := frag.manager.CreateLocalSourceHandleForPipeline(sink.SharedQueue(), frag.Instance, ctx.pipeline.ID)
	source.SetMaxBytesCanReserve(frag.conf.GetMaxBytesPerExchange())
	op := &ExchangeOperator{
		BaseOperator:       newBaseOperator(opCtx),
		Source:             source,
		UpstreamPlanNodeID: child.ID(),
	}
	op.maxReturnSize = maxReturnSize
	frag.exchangeOperators = append(frag.exchangeOperators, op)
	return op
}

// consumeChildrenOneByOne builds the children of a node reading them one
// after another. Each local child runs in its own pipeline with one degree of
// parallelism less than the parent. When the pipelines of the children
// started so far exceed that budget, the pipelines of the next child wait for
// an earlier pipeline to finish.
func (b *Builder) consumeChildrenOneByOne(node plan.Node, ctx *BuildContext) ([]Operator, error) {
	children := node.Children()
	ops := make([]Operator, 0, len(children))
	originExchangeSum := ctx.exchangeSum
	finalExchangeSum := ctx.exchangeSum

	inline := func(child plan.Node) error {
		op, err := b.Build(child, ctx)
		if err != nil {
			return err
		}
		finalExchangeSum = max(finalExchangeSum, ctx.exchangeSum)
		ctx.exchangeSum = originExchangeSum
		if op != nil {
			ops = append(ops, op)
		}
		return nil
	}

	if ctx.dop == 1 || len(children) == 1 {
		for _, child := range children {
			if err := inline(child); err != nil {
				return nil, err
			}
		}
		ctx.exchangeSum = finalExchangeSum
		return ops, nil
	}

	var (
		childPipelineNums      []int
		childExchangeNums      []int
		sumOfChildPipelines    int
		sumOfChildExchangeNums int
		dependencyChild        int
		dependencyPipelineID   int
	)
	frag := ctx.frag
	for _, child := range children {
		if plan.IsExchange(child) {
			if err := inline(child); err != nil {
				return nil, err
			}
			continue
		}

		dopForChild := ctx.dop - 1
		sub := ctx.fork(dopForChild)
		originPipeNum := frag.PipelineNumber()
		op, err := b.Build(child, sub)
		if err != nil {
			return nil, err
		}
		if op == nil {
			continue
		}
		sink := b.registerChildPipeline(ctx, sub, child, op)

		cur := min(dopForChild, frag.PipelineNumber()-originPipeNum)
		childPipelineNums = append(childPipelineNums, cur)
		sumOfChildPipelines += cur
		for sumOfChildPipelines > dopForChild {
			sumOfChildPipelines -= childPipelineNums[dependencyChild]
			// the dependency is the root pipeline of an earlier child
			dependencyPipelineID = frag.PipelineNumber() - sumOfChildPipelines - 1
			sumOfChildExchangeNums -= childExchangeNums[dependencyChild]
			dependencyChild++
		}
		if dependencyChild != 0 {
			for i := originPipeNum; i < frag.PipelineNumber(); i++ {
				frag.pipelines[i].DependencyID = dependencyPipelineID
			}
			b.logger.Debug("pipelines wait for an earlier child",
				zap.String("child", plan.String(child)), zap.Int("dependency", dependencyPipelineID))
		}

		ops = append(ops, b.newPipelineExchange(ctx, child, sink, op.MaxReturnSize()))

		childExchangeNum := ctx.deltaOf(sub, originPipeNum).ExchangeSum + 1
		childExchangeNums = append(childExchangeNums, childExchangeNum)
		sumOfChildExchangeNums += childExchangeNum
		finalExchangeSum = max(finalExchangeSum, ctx.exchangeSum+sumOfChildExchangeNums)
	}
	ctx.exchangeSum = finalExchangeSum
	return ops, nil
}
