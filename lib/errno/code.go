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

// common error codes
const (
	InternalError   = 9001
	InvalidDataType = 9002
	RecoverPanic    = 9003

	// BuiltInError errors returned by built-in functions
	BuiltInError = 9007

	// ThirdPartyError errors returned by third-party packages
	ThirdPartyError = 9008
)

// plan build error codes
const (
	InvalidPlan             = 1101
	InvalidChildCount       = 1102
	EmptyDescriptors        = 1103
	InvalidAggregationInput = 1104
	UnsupportedExpression   = 1105
	UnknownDataType         = 1106
	UnsupportedFillPolicy   = 1107
	UnsupportedWindowType   = 1108
	ExpressionCompileFail   = 1109
	UnsupportedAggregation  = 1110
	TypeMismatch            = 1111
	UnsupportedPlanNode     = 1112
	UnknownColumn           = 1113
	UnsupportedSchemaScan   = 1114
	InvalidDuration         = 1115
	PlanDecodeFail          = 1116
)

// pipeline error codes
const (
	CyclicPipeline      = 1201
	MissDependPipeline  = 1202
	DuplicatePipelineID = 1203
	PipelineRunFail     = 1204
)

// exchange error codes
const (
	ExchangeHandleFail     = 1301
	DuplicateExchangeQueue = 1302
	ExchangeQueueClosed    = 1303
	ExchangeBytesExceeded  = 1304
	RemoteTransportFail    = 1305
)

// last cache error codes
const (
	LastCacheNotReady = 1401
)

// config error codes
const (
	InvalidConfig = 1501
)
