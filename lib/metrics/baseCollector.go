/*
Copyright 2024 openGemini author.

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

package metrics

import (
	_ "embed"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

//go:embed index.conf
var indexConf []byte

type Metric struct {
	HelpMap map[string]string
	Labels  []string
}

func NewDesc(subsystem, name, help string, labels []string) *prometheus.Desc {
	return prometheus.NewDesc(
		prometheus.BuildFQName("ts", subsystem, name),
		help,
		labels,
		nil,
	)
}

// BaseCollector holds the descriptions of every module declared in
// index.conf, keyed by module then metric name.
type BaseCollector struct {
	AllModulesDesc map[string]map[string]*prometheus.Desc
	IndexRegistry  map[string]*Metric
}

func NewBaseCollector() (*BaseCollector, error) {
	result := make(map[string]*Metric)

	dec := unicode.BOMOverride(transform.Nop)
	content, _, err := transform.Bytes(dec, indexConf)
	if err != nil {
		return nil, err
	}

	if _, err = toml.Decode(string(content), &result); err != nil {
		return nil, err
	}

	c := &BaseCollector{
		AllModulesDesc: make(map[string]map[string]*prometheus.Desc),
		IndexRegistry:  result,
	}
	for module, m := range result {
		descs := make(map[string]*prometheus.Desc, len(m.HelpMap))
		for name, help := range m.HelpMap {
			descs[name] = NewDesc(module, name, help, m.Labels)
		}
		c.AllModulesDesc[module] = descs
	}
	return c, nil
}

func (c *BaseCollector) Desc(module, name string) *prometheus.Desc {
	return c.AllModulesDesc[module][name]
}

func (c *BaseCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, v := range c.AllModulesDesc {
		for _, desc := range v {
			ch <- desc
		}
	}
}
