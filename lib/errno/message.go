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

package errno

type Message struct {
	format string
	level  Level
	module Module
}

func newMessage(format string, module Module, level Level) *Message {
	return &Message{
		format: format,
		level:  level,
		module: module,
	}
}

func newNoticeMessage(format string, module Module) *Message {
	return newMessage(format, module, LevelNotice)
}

func newWarnMessage(format string, module Module) *Message {
	return newMessage(format, module, LevelWarn)
}

func newFatalMessage(format string, module Module) *Message {
	return newMessage(format, module, LevelFatal)
}

var unknownMessage = newNoticeMessage("unknown error", ModuleUnknown)

// When an error message is initialized, the level and module corresponding to the error code are bound
// If the module to which the error code belongs cannot be determined during initialization, set to ModuleUnknown
var messageMap = map[Errno]*Message{
	// common error codes
	InternalError:   newWarnMessage("%v", ModuleUnknown),
	InvalidDataType: newWarnMessage("invalid data type, exp: %s, got: %s", ModuleUnknown),
	RecoverPanic:    newFatalMessage("runtime panic: %v", ModuleUnknown),

	// plan build error codes
	InvalidPlan:             newWarnMessage("invalid plan: %s", ModulePlanner),
	InvalidChildCount:       newWarnMessage("%s expects %s children, got %d", ModulePlanner),
	EmptyDescriptors:        newWarnMessage("%s of %s should not be empty", ModulePlanner),
	InvalidAggregationInput: newWarnMessage("aggregation %s expects exactly one input expression, got %d", ModulePlanner),
	UnsupportedExpression:   newWarnMessage("unsupported expression %s: %s", ModulePlanner),
	UnknownDataType:         newWarnMessage("Unknown data type: %s", ModulePlanner),
	UnsupportedFillPolicy:   newWarnMessage("unsupported fill policy: %s", ModulePlanner),
	UnsupportedWindowType:   newWarnMessage("unsupported window type: %s", ModulePlanner),
	ExpressionCompileFail:   newWarnMessage("failed to compile expressions of %s", ModulePlanner),
	UnsupportedAggregation:  newWarnMessage("unsupported aggregation %s on %s", ModulePlanner),
	TypeMismatch:            newWarnMessage("type mismatch in %s: %s", ModulePlanner),
	UnsupportedPlanNode:     newWarnMessage("unsupported plan node: %s", ModulePlanner),
	UnknownColumn:           newWarnMessage("unknown column %q", ModulePlanner),
	UnsupportedSchemaScan:   newWarnMessage("unsupported schema scan kind: %s", ModulePlanner),
	InvalidDuration:         newWarnMessage("invalid duration %q", ModulePlanner),
	PlanDecodeFail:          newWarnMessage("failed to decode plan", ModulePlanner),

	// pipeline error codes
	CyclicPipeline:      newFatalMessage("pipeline dependency graph has a cycle at pipeline %d", ModulePipeline),
	MissDependPipeline:  newWarnMessage("pipeline %d depends on unknown pipeline %d", ModulePipeline),
	DuplicatePipelineID: newWarnMessage("duplicate pipeline id %d", ModulePipeline),
	PipelineRunFail:     newWarnMessage("pipeline %d failed", ModulePipeline),

	// exchange error codes
	ExchangeHandleFail:     newWarnMessage("failed to create exchange handle for %s", ModuleExchange),
	DuplicateExchangeQueue: newWarnMessage("shared queue of plan node %s already exists", ModuleExchange),
	ExchangeQueueClosed:    newNoticeMessage("shared queue of plan node %s is closed", ModuleExchange),
	ExchangeBytesExceeded:  newWarnMessage("shared queue of plan node %s can not reserve %d bytes, max %d", ModuleExchange),
	RemoteTransportFail:    newWarnMessage("remote exchange to %s failed", ModuleExchange),

	// last cache error codes
	LastCacheNotReady: newNoticeMessage("last cache is not ready", ModuleLastCache),

	// config error codes
	InvalidConfig: newWarnMessage("invalid config: %s", ModuleConfig),
}
