// Copyright Huawei Cloud Computing Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app_test

import (
	"runtime"
	"testing"

	"github.com/openGemini/ts-planner/app"
	"github.com/openGemini/ts-planner/lib/config"
	"github.com/stretchr/testify/assert"
)

func TestFullVersion(t *testing.T) {
	app.Version = "v1.2.0"
	defer func() { app.Version = "" }()

	got := app.FullVersion("ts-planner")
	assert.Contains(t, got, "ts-planner: v1.2.0")
	assert.Contains(t, got, "arch: "+runtime.GOARCH)

	info := app.ServerInfo{App: config.AppPlanner, Version: "v1.2.0", BuildTime: "2024-05-01"}
	assert.Contains(t, info.FullVersion(), "planner: v1.2.0")
	assert.Contains(t, info.FullVersion(), "build time: 2024-05-01")
}
