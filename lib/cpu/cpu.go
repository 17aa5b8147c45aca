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

package cpu

import (
	"math"
	"runtime"
	"sync"

	"github.com/openGemini/ts-planner/lib/cpu/cgroup"
)

const maxCpuNum = 64

var (
	once   sync.Once
	cpuNum int
)

// GetCpuNum returns the cores the process may use: the container limit
// rounded up when there is one, the cores of the machine otherwise.
func GetCpuNum() int {
	once.Do(func() {
		cpuNum = effectiveCpuNum(runtime.NumCPU(), cgroup.GetCPULimit)
	})
	return cpuNum
}

// SetCpuNum overrides the detected cores, n*ratio capped at 64.
func SetCpuNum(n, ratio int) {
	if n <= 0 {
		n = GetCpuNum()
	}
	if ratio <= 1 {
		ratio = 1
	}
	once.Do(func() {})
	cpuNum = n * ratio
	if cpuNum >= maxCpuNum {
		cpuNum = maxCpuNum
	}
}

func effectiveCpuNum(cores int, limit func() (float64, error)) int {
	n := cores
	if l, err := limit(); err == nil && l > 0 {
		if c := int(math.Ceil(l)); c < n {
			n = c
		}
	}
	if n < 1 {
		n = 1
	}
	if n > maxCpuNum {
		n = maxCpuNum
	}
	return n
}
