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

package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openGemini/ts-planner/app"
	"github.com/openGemini/ts-planner/lib/config"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, env map[string]string) *app.Command {
	logDir := t.TempDir()
	cmd := app.NewCommand(app.ServerInfo{App: config.AppPlanner, Version: "v1.2.0"})
	cmd.Getenv = func(key string) string {
		if key == "TS_PLANNER_LOGGING_PATH" {
			return logDir
		}
		return env[key]
	}
	return cmd
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "ts-planner.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestCommandInitConfig(t *testing.T) {
	path := writeConfig(t, `
[planner]
  degree-of-parallelism = 6
  region = "schema"

[last-cache]
  enabled = true
  capacity = 128
  ttl = "30s"
`)
	cmd := newCommand(t, map[string]string{"TS_PLANNER_PLANNER_DEGREE_OF_PARALLELISM": "2"})
	require.NoError(t, cmd.InitConfig(path))

	assert.Equal(t, 2, cmd.Config.Planner.DegreeOfParallelism)
	assert.Equal(t, config.RegionSchema, cmd.Config.Planner.Region)
	assert.Equal(t, 128, cmd.Config.LastCache.Capacity)
	assert.Equal(t, "planner", cmd.Config.Logging.GetApp())
}

func TestCommandInitConfigWithoutFile(t *testing.T) {
	cmd := newCommand(t, nil)
	require.NoError(t, cmd.InitConfig(""))
	assert.Equal(t, config.NewPlanner().DegreeOfParallelism, cmd.Config.Planner.DegreeOfParallelism)
}

func TestCommandInitConfigErrors(t *testing.T) {
	cmd := newCommand(t, nil)
	err := cmd.InitConfig("notFoundFile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config: open notFoundFile")

	path := writeConfig(t, "[planner]\n  degree-of-parallelism = -1\n")
	err = cmd.InitConfig(path)
	require.Error(t, err)
	assert.True(t, errno.Equal(err, errno.InvalidConfig))

	err = newCommand(t, map[string]string{"TS_PLANNER_LAST_CACHE_CAPACITY": "many"}).InitConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply env overrides")
}

func TestCommandInitSampleConfig(t *testing.T) {
	cmd := newCommand(t, nil)
	require.NoError(t, cmd.InitConfig("../config/ts-planner.conf"))
	assert.Equal(t, int64(64*1024*1024), cmd.Config.Planner.GetMaxBytesPerExchange())
	assert.Equal(t, config.RegionData, cmd.Config.Planner.Region)
	assert.True(t, cmd.Config.LastCache.Enabled)
}
