// Copyright 2023 Huawei Cloud Computing Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openGemini/ts-planner/app"
	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFragment(t *testing.T) {
	data, err := joinFragment().MarshalJSON()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "fragment.json")
	require.NoError(t, os.WriteFile(path, data, 0600))

	frag, err := app.LoadFragment(path)
	require.NoError(t, err)
	assert.Equal(t, instanceID, frag.InstanceID)
	assert.Equal(t, plan.KindFullOuterTimeJoin, frag.Root.Kind())
	assert.Len(t, frag.Root.Children(), 3)

	_, err = app.LoadFragment(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fragment")
}

func TestDecodeFragmentErrors(t *testing.T) {
	for name, data := range map[string]string{
		"not json":     `{"instance_id":`,
		"without root": `{"instance_id":{"query_id":"q7"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := app.DecodeFragment([]byte(data))
			require.Error(t, err)
			assert.True(t, errno.Equal(err, errno.PlanDecodeFail))
		})
	}
}
