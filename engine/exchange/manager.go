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

package exchange

import (
	"sync"

	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/openGemini/ts-planner/lib/logger"
	"go.uber.org/zap"
)

// Manager creates the handles connecting pipelines and fragment instances.
// The planner only decides who talks to whom, the manager owns the channels.
type Manager interface {
	LocalEndpoint() TEndPoint

	// CreateLocalSinkChannelForPipeline is the producer end of a pipeline
	// feeding another pipeline of the same fragment instance.
	CreateLocalSinkChannelForPipeline(local FragmentInstanceID, pipelineID int, planNodeID string) *LocalSinkChannel
	// CreateLocalSourceHandleForPipeline reads the queue of a sink channel
	// created by CreateLocalSinkChannelForPipeline.
	CreateLocalSourceHandleForPipeline(queue *SharedQueue, local FragmentInstanceID, pipelineID int) SourceHandle

	// CreateLocalSourceHandleForFragment reads an upstream fragment instance
	// running in this process.
	CreateLocalSourceHandleForFragment(local FragmentInstanceID, localPlanNode string, upstreamPlanNode string,
		upstream FragmentInstanceID, indexOfUpstreamSink int, onFailure FailureCallback) (SourceHandle, error)
	// CreateSourceHandle reads an upstream fragment instance on another node.
	CreateSourceHandle(local FragmentInstanceID, localPlanNode string, indexOfUpstreamSink int,
		upstreamEndpoint TEndPoint, upstream FragmentInstanceID, onFailure FailureCallback) (SourceHandle, error)

	CreateShuffleSinkHandle(channels []DownStreamChannelLocation, strategy ShuffleStrategy,
		local FragmentInstanceID, localPlanNode string) (SinkHandle, error)
}

// LocalManager runs every local exchange through in-memory shared queues.
// Channels to other endpoints have no transport, remote source handles are
// fed through RemoteSourceHandle.Deliver.
type LocalManager struct {
	endpoint        TEndPoint
	defaultMaxBytes int64
	logger          *logger.Logger

	mu      sync.Mutex
	queues  map[string]*SharedQueue
	remotes []*RemoteSourceHandle
}

func NewLocalManager(endpoint TEndPoint, defaultMaxBytes int64) *LocalManager {
	return &LocalManager{
		endpoint:        endpoint,
		defaultMaxBytes: defaultMaxBytes,
		logger:          logger.NewLogger(errno.ModuleExchange),
		queues:          make(map[string]*SharedQueue),
	}
}

func (m *LocalManager) LocalEndpoint() TEndPoint {
	return m.endpoint
}

func queueKey(instance FragmentInstanceID, planNodeID string) string {
	return instance.FullID() + "/" + planNodeID
}

// fragmentQueue is shared by the sink and the source naming the same
// consumer instance and plan node, whichever is created first.
func (m *LocalManager) fragmentQueue(consumer FragmentInstanceID, planNodeID string) *SharedQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := queueKey(consumer, planNodeID)
	q, ok := m.queues[key]
	if !ok {
		q = NewSharedQueue(consumer, planNodeID, m.defaultMaxBytes)
		m.queues[key] = q
	}
	return q
}

func (m *LocalManager) CreateLocalSinkChannelForPipeline(local FragmentInstanceID, pipelineID int, planNodeID string) *LocalSinkChannel {
	m.logger.Debug("create local sink channel for pipeline",
		zap.String("instance", local.FullID()), zap.Int("pipeline", pipelineID), zap.String("node", planNodeID))
	return NewLocalSinkChannel(NewSharedQueue(local, planNodeID, m.defaultMaxBytes))
}

func (m *LocalManager) CreateLocalSourceHandleForPipeline(queue *SharedQueue, local FragmentInstanceID, pipelineID int) SourceHandle {
	m.logger.Debug("create local source handle for pipeline",
		zap.String("instance", local.FullID()), zap.Int("pipeline", pipelineID), zap.String("node", queue.PlanNodeID()))
	return NewLocalSourceHandle(queue)
}

func (m *LocalManager) CreateLocalSourceHandleForFragment(local FragmentInstanceID, localPlanNode string, upstreamPlanNode string,
	upstream FragmentInstanceID, indexOfUpstreamSink int, _ FailureCallback) (SourceHandle, error) {
	m.logger.Debug("create local source handle for fragment",
		zap.String("instance", local.FullID()), zap.String("node", localPlanNode),
		zap.String("upstream", upstream.FullID()), zap.String("upstream_node", upstreamPlanNode),
		zap.Int("sink_index", indexOfUpstreamSink))
	return NewLocalSourceHandle(m.fragmentQueue(local, localPlanNode)), nil
}

func (m *LocalManager) CreateSourceHandle(local FragmentInstanceID, localPlanNode string, indexOfUpstreamSink int,
	upstreamEndpoint TEndPoint, upstream FragmentInstanceID, onFailure FailureCallback) (SourceHandle, error) {
	if upstreamEndpoint == m.endpoint {
		return nil, errno.NewError(errno.ExchangeHandleFail, localPlanNode+": upstream is local")
	}
	h := &RemoteSourceHandle{
		Upstream:         upstreamEndpoint,
		UpstreamInstance: upstream,
		IndexOfSink:      indexOfUpstreamSink,
		queue:            NewSharedQueue(local, localPlanNode, m.defaultMaxBytes),
		onFailure:        onFailure,
	}
	m.mu.Lock()
	m.remotes = append(m.remotes, h)
	m.mu.Unlock()
	return h, nil
}

func (m *LocalManager) CreateShuffleSinkHandle(locations []DownStreamChannelLocation, strategy ShuffleStrategy,
	local FragmentInstanceID, localPlanNode string) (SinkHandle, error) {
	channels := make([]SinkChannel, 0, len(locations))
	for _, loc := range locations {
		if loc.RemoteEndpoint == m.endpoint {
			channels = append(channels, NewLocalSinkChannel(m.fragmentQueue(loc.RemoteInstanceID, loc.RemotePlanNodeID)))
			continue
		}
		channels = append(channels, &remoteSinkChannel{location: loc, maxBytes: m.defaultMaxBytes})
	}
	m.logger.Debug("create shuffle sink handle",
		zap.String("instance", local.FullID()), zap.String("node", localPlanNode),
		zap.Stringer("strategy", strategy), zap.Int("channels", len(channels)))
	return NewShuffleSinkHandle(channels, strategy), nil
}

// RemoteSourceHandles lists the remote handles created so far.
func (m *LocalManager) RemoteSourceHandles() []*RemoteSourceHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*RemoteSourceHandle(nil), m.remotes...)
}
