// Copyright 2025 Huawei Cloud Computing Technologies Co., Ltd.
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

//go:build linux
// +build linux

package cgroup

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	moduleCPU   = "cpu"
	cpuQuotaUs  = "cpu.cfs_quota_us"  // cgroup v1 cpu limit quota
	cpuPeriodUs = "cpu.cfs_period_us" // cgroup v1 cpu limit period, quota/period=cpu_limit
	cpuMax      = "cpu.max"           // cgroup v2 cpu limit
)

var sysFsPrefix = "/sys/fs/cgroup"

func IsCgroup2() bool {
	var st unix.Statfs_t
	if err := unix.Statfs(sysFsPrefix, &st); err != nil {
		return false
	}
	return st.Type == unix.CGROUP2_SUPER_MAGIC
}

// GetCPULimit returns the number of cores the container may use, -1 when
// it is not limited.
func GetCPULimit() (float64, error) {
	if IsCgroup2() {
		return getCPULimitV2()
	}
	return getCPULimitV1()
}

func getCPULimitV1() (float64, error) {
	quota, err := readInt(moduleCPU, cpuQuotaUs)
	if err != nil {
		return 0, err
	}
	if quota < 0 {
		return -1, nil
	}
	period, err := readInt(moduleCPU, cpuPeriodUs)
	if err != nil {
		return 0, err
	}
	if period <= 0 {
		return 0, errors.Errorf("invalid %s: %d", cpuPeriodUs, period)
	}
	return float64(quota) / float64(period), nil
}

func getCPULimitV2() (float64, error) {
	content, err := readFile("", cpuMax)
	if err != nil {
		return 0, err
	}
	arr := strings.Fields(content)
	if len(arr) != 2 {
		return 0, errors.Errorf("unexpected cpu.max format: want 'quota period'; got: %s", content)
	}
	if arr[0] == "max" {
		return -1, nil
	}
	quota, err := strconv.ParseInt(arr[0], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse cpu.max quota %s", arr[0])
	}
	period, err := strconv.ParseInt(arr[1], 10, 64)
	if err != nil || period <= 0 {
		return 0, errors.Errorf("cannot parse cpu.max period %s", arr[1])
	}
	return float64(quota) / float64(period), nil
}

func readInt(subsystem, name string) (int64, error) {
	content, err := readFile(subsystem, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(content), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse %s", name)
	}
	return v, nil
}

func readFile(subsystem string, name string) (string, error) {
	content, err := os.ReadFile(filepath.Join(sysFsPrefix, subsystem, name))
	if err != nil {
		return "", err
	}
	return string(content), nil
}
