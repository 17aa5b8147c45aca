// Copyright 2024 Huawei Cloud Computing Technologies Co., Ltd.
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

package types_test

import (
	"testing"

	"github.com/openGemini/ts-planner/engine/types"
	"github.com/stretchr/testify/assert"
)

func TestDataType(t *testing.T) {
	for _, dt := range []types.DataType{types.Boolean, types.Int32, types.Int64, types.Float, types.Double, types.Text, types.Vector} {
		assert.Equal(t, dt, types.ParseDataType(dt.String()))
	}
	assert.Equal(t, types.Int64, types.ParseDataType("int64"))
	assert.Equal(t, types.Unknown, types.ParseDataType("decimal"))
	assert.Equal(t, "UNKNOWN", types.DataType(200).String())

	assert.Equal(t, int64(4), types.Int32.FixedSize())
	assert.Equal(t, int64(8), types.Int64.FixedSize())
	assert.Equal(t, int64(4), types.Float.FixedSize())
	assert.Equal(t, int64(8), types.Double.FixedSize())
	assert.Equal(t, int64(1), types.Boolean.FixedSize())
	assert.Equal(t, int64(0), types.Text.FixedSize())

	assert.True(t, types.Double.IsNumeric())
	assert.False(t, types.Text.IsNumeric())
}

func TestLayout(t *testing.T) {
	l := types.NewLayout()
	l.Add(types.TimeColumnName, types.NewInputLocation(0, types.TimeColumnIndex))
	l.Add("root.sg.d1.s1", types.NewInputLocation(0, 0))
	l.Add(types.TimeColumnName, types.NewInputLocation(1, types.TimeColumnIndex))
	l.Add("root.sg.d1.s1", types.NewInputLocation(1, 0))

	assert.Equal(t, []string{types.TimeColumnName, "root.sg.d1.s1"}, l.Names())
	locs, ok := l.Get("root.sg.d1.s1")
	assert.True(t, ok)
	assert.Equal(t, []types.InputLocation{types.NewInputLocation(0, 0), types.NewInputLocation(1, 0)}, locs)

	first, ok := l.First(types.TimeColumnName)
	assert.True(t, ok)
	assert.True(t, first.IsTime())
	assert.Equal(t, "(0,-1)", first.String())

	_, ok = l.First("missing")
	assert.False(t, ok)
}

func TestTypes(t *testing.T) {
	m := types.TypeMap{"a": types.Int32, "b": types.Text}
	assert.Equal(t, []types.DataType{types.Text, types.Unknown, types.Int32}, types.Types(m, []string{"b", "c", "a"}))
}
