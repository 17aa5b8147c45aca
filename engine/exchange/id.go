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
	"fmt"
)

// FragmentInstanceID identifies one instance of a query fragment.
type FragmentInstanceID struct {
	QueryID    string `json:"query_id"`
	FragmentID int    `json:"fragment_id"`
	InstanceID string `json:"instance_id"`
}

func (id FragmentInstanceID) FullID() string {
	return fmt.Sprintf("%s.%d.%s", id.QueryID, id.FragmentID, id.InstanceID)
}

func (id FragmentInstanceID) String() string {
	return id.FullID()
}

// TEndPoint is the address of the data exchange service of a node.
type TEndPoint struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

func (e TEndPoint) String() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}

// DownStreamChannelLocation is the consumer side of one sink channel.
type DownStreamChannelLocation struct {
	RemoteEndpoint   TEndPoint          `json:"remote_endpoint"`
	RemoteInstanceID FragmentInstanceID `json:"remote_instance_id"`
	RemotePlanNodeID string             `json:"remote_plan_node_id"`
}
