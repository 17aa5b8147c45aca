/*
Copyright 2024 Huawei Cloud Computing Technologies Co., Ltd.

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

package config

import (
	"github.com/influxdata/influxdb/toml"
)

// TSPlanner represents the configuration format for the ts-planner binary.
type TSPlanner struct {
	Planner   Planner   `toml:"planner"`
	LastCache LastCache `toml:"last-cache"`
	Logging   Logger    `toml:"logging"`
}

// NewTSPlanner returns an instance of Config with reasonable defaults.
func NewTSPlanner() *TSPlanner {
	c := &TSPlanner{}
	c.Planner = NewPlanner()
	c.LastCache = NewLastCache()
	c.Logging = NewLogger(AppPlanner)
	return c
}

// Validate returns an error if the config is invalid.
func (c *TSPlanner) Validate() error {
	items := []Validator{
		c.Planner,
		c.LastCache,
		c.Logging,
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnvOverrides apply the environment configuration on top of the config.
func (c *TSPlanner) ApplyEnvOverrides(getenv func(string) string) error {
	return toml.ApplyEnvOverrides(getenv, "TS_PLANNER", c)
}

func (c *TSPlanner) GetLogging() *Logger {
	return &c.Logging
}

func (c *TSPlanner) GetPlanner() *Planner {
	return &c.Planner
}

func (c *TSPlanner) GetLastCache() *LastCache {
	return &c.LastCache
}

func (c *TSPlanner) ShowConfigs() map[string]interface{} {
	m := c.Planner.ShowConfigs()
	for k, v := range c.LastCache.ShowConfigs() {
		m[k] = v
	}
	for k, v := range c.Logging.ShowConfigs() {
		m[k] = v
	}
	return m
}
