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

package main

import (
	"fmt"
	"os"

	parse "github.com/influxdata/influxdb/cmd"
	"github.com/openGemini/ts-planner/app"
	"github.com/openGemini/ts-planner/app/ts-planner/cmd"
	"github.com/openGemini/ts-planner/lib/config"
	"github.com/openGemini/ts-planner/lib/logger"
)

var (
	TsVersion   = "v1.0.0"
	TsCommit    string
	TsBranch    string
	TsBuildTime string
)

func main() {
	os.Exit(doRun(os.Args[1:]...))
}

func doRun(args ...string) int {
	app.Version, app.GitCommit, app.GitBranch, app.BuildTime = TsVersion, TsCommit, TsBranch, TsBuildTime
	info := app.ServerInfo{
		App:       config.AppPlanner,
		Version:   TsVersion,
		Commit:    TsCommit,
		Branch:    TsBranch,
		BuildTime: TsBuildTime,
	}

	name, _ := parse.ParseCommandName(args)
	root := cmd.NewRootCommand(info)
	if name == "" || name == "help" {
		fmt.Fprint(root.OutOrStdout(), app.PLANNERLOGO)
	}
	root.SetArgs(args)
	defer logger.CloseLogger()
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
