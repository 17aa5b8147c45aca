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

package app

import (
	"fmt"
	"runtime"

	"github.com/openGemini/ts-planner/lib/config"
	"github.com/openGemini/ts-planner/lib/logger"
	"go.uber.org/zap"
)

const PLANNERLOGO = `
 _________   ______           _______  _____        _       ____  _____  ____  _____  ________  _______
|  _   _  |.' ____ \         |_   __ \|_   _|      / \     |_   \|_   _||_   \|_   _||_   __  ||_   __ \
|_/ | | \_|| (___ \_| ______   | |__) | | |       / _ \      |   \ | |    |   \ | |    | |_ \_|  | |__) |
    | |     _.____'. |______|  |  ___/  | |   _  / ___ \     | |\ \| |    | |\ \| |    |  _| _   |  __ /
   _| |_   | \____) |         _| |_    _| |__/ |/ /   \ \_  _| |_\   |_  _| |_\   |_  _| |__/ | _| |  \ \_
  |_____|   \______.'        |_____|  |________|____| |____||_____|\____||_____|\____||________||____| |___|

`

// Version information, the value is set by the build script
var (
	Version   string
	GitCommit string
	GitBranch string
	BuildTime string
)

// FullVersion returns the full version string.
func FullVersion(app string) string {
	const format = `ts-planner version info:
%s: %s
git: %s %s
os: %s
arch: %s`

	return fmt.Sprintf(format, app, Version, GitBranch, GitCommit, runtime.GOOS, runtime.GOARCH)
}

type ServerInfo struct {
	App       config.App
	Version   string
	Commit    string
	Branch    string
	BuildTime string
}

func (si *ServerInfo) FullVersion() string {
	return fmt.Sprintf(`ts-planner version info:
%s: %s
git: %s %s
build time: %s
os: %s
arch: %s`, si.App, si.Version, si.Branch, si.Commit, si.BuildTime, runtime.GOOS, runtime.GOARCH)
}

func LogStarting(name string, info *ServerInfo) {
	logger.GetLogger().Info(name+" starting",
		zap.String("version", info.Version),
		zap.String("branch", info.Branch),
		zap.String("commit", info.Commit),
		zap.String("buildTime", info.BuildTime))
	logger.GetLogger().Info("Go runtime",
		zap.String("version", runtime.Version()),
		zap.Int("maxprocs", runtime.GOMAXPROCS(0)))
}
