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

package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/openGemini/ts-planner/app"
	"github.com/openGemini/ts-planner/app/ts-planner/cmd"
	"github.com/openGemini/ts-planner/engine/exchange"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/engine/types"
	"github.com/openGemini/ts-planner/lib/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFragment(t *testing.T) string {
	root := plan.NewFullOuterTimeJoinNode("100", plan.Asc,
		plan.NewSeriesScanNode("1", plan.NewMeasurementPath("root.sg.d1.s1", types.Double), plan.Asc),
		plan.NewSeriesScanNode("2", plan.NewMeasurementPath("root.sg.d2.s1", types.Double), plan.Asc),
	)
	frag := &plan.Fragment{
		InstanceID: exchange.FragmentInstanceID{QueryID: "q3", FragmentID: 0, InstanceID: "1"},
		Root:       root,
		Types:      types.TypeMap{"root.sg.d1.s1": types.Double, "root.sg.d2.s1": types.Double},
	}
	data, err := frag.MarshalJSON()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fragment.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Setenv("TS_PLANNER_LOGGING_PATH", t.TempDir())
	t.Setenv("TS_PLANNER_PLANNER_SORT_TMP_DIR", t.TempDir())

	root := cmd.NewRootCommand(app.ServerInfo{App: config.AppPlanner, Version: "v1.0.0"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootFlags(t *testing.T) {
	root := cmd.NewRootCommand(app.ServerInfo{App: config.AppPlanner})
	for flag, value := range map[string]string{
		"config": "",
		"plan":   "",
		"dop":    "0",
		"format": cmd.DEFAULT_FORMAT,
		"host":   cmd.DEFAULT_HOST,
		"port":   "10740",
	} {
		f := root.PersistentFlags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, value, f.DefValue, flag)
	}
}

func TestExplainCommand(t *testing.T) {
	path := writeFragment(t)

	out, err := execute(t, "explain", "--plan", path, "--dop", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "q3.0.1")
	assert.Contains(t, out, "FullOuterTimeJoinOperator")

	out, err = execute(t, "explain", "--plan", path, "--format", "json")
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal([]byte(out), &got))
	assert.Equal(t, "q3.0.1", got["instance"])
}

func TestRunCommand(t *testing.T) {
	path := writeFragment(t)

	out, err := execute(t, "run", "--plan", path, "--dop", "1", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "instance: q3.0.1")
	assert.Contains(t, out, "output: 0 rows")
	assert.Contains(t, out, `ts_planner_fragments_built{region=`)

	out, err = execute(t, "run", "--plan", path, "--format", "json")
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal([]byte(out), &got))
	assert.Equal(t, "q3.0.1", got["instance"])
	assert.Equal(t, float64(0), got["output_rows"])
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "explain")
	require.EqualError(t, err, "--plan is required")

	_, err = execute(t, "explain", "--plan", writeFragment(t), "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	_, err = execute(t, "run", "--plan", writeFragment(t), "--config", "notFoundFile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "planner: v1.0.0")
}
