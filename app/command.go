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

package app

import (
	"os"

	"github.com/openGemini/ts-planner/lib/config"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/openGemini/ts-planner/lib/logger"
	"github.com/pkg/errors"
)

// Command holds what every sub command of ts-planner starts from: the
// configuration file loaded over the defaults and the environment.
type Command struct {
	Logo   string
	Logger *logger.Logger
	Info   ServerInfo
	Config *config.TSPlanner

	// Getenv reads the environment overrides, os.Getenv when nil.
	Getenv func(string) string
}

func NewCommand(info ServerInfo) *Command {
	return &Command{
		Logger: logger.NewLogger(errno.ModuleCli),
		Info:   info,
		Config: config.NewTSPlanner(),
	}
}

// InitConfig loads path over the defaults, applies the TS_PLANNER_ prefixed
// environment variables and validates the result. The global logger is
// rebuilt from the [logging] section.
func (cmd *Command) InitConfig(path string) error {
	conf := config.NewTSPlanner()
	if err := config.Parse(conf, path); err != nil {
		return errors.Wrap(err, "parse config")
	}

	getenv := cmd.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := conf.ApplyEnvOverrides(getenv); err != nil {
		return errors.Wrap(err, "apply env overrides")
	}

	if err := conf.Validate(); err != nil {
		return errno.Wrap(err, errno.InvalidConfig, path)
	}

	if lc := conf.GetLogging(); lc != nil {
		lc.SetApp(cmd.Info.App)
		logger.InitLogger(*lc)
	}

	cmd.Logger = logger.NewLogger(errno.ModuleCli)
	cmd.Config = conf
	return nil
}
