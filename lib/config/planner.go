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
	"fmt"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/influxdata/influxdb/toml"
	"github.com/openGemini/ts-planner/lib/cpu"
)

const (
	PrecisionMillisecond = "ms"
	PrecisionMicrosecond = "us"
	PrecisionNanosecond  = "ns"

	RegionData   = "data"
	RegionSchema = "schema"

	DefaultMaxBytesPerExchange = 8 * units.MiB
	MinMaxBytesPerExchange     = 64 * units.KiB
	DefaultMaxTextSize         = units.KiB
	DefaultTimePrecision       = PrecisionMillisecond
	DefaultTimeZone            = "UTC"
	DefaultSortSubPath         = "sort"
	MaxDegreeOfParallelism     = 1024
)

// Planner is the [planner] section, the knobs of physical plan building.
type Planner struct {
	DegreeOfParallelism int       `toml:"degree-of-parallelism"`
	MaxBytesPerExchange toml.Size `toml:"max-bytes-per-exchange"`
	MaxTextSize         toml.Size `toml:"max-text-size"`
	TimePrecision       string    `toml:"time-precision"`
	TimeZone            string    `toml:"time-zone"`
	SortTmpDir          string    `toml:"sort-tmp-dir"`
	Region              string    `toml:"region"`
}

func NewPlanner() Planner {
	return Planner{
		DegreeOfParallelism: cpu.GetCpuNum(),
		MaxBytesPerExchange: toml.Size(DefaultMaxBytesPerExchange),
		MaxTextSize:         toml.Size(DefaultMaxTextSize),
		TimePrecision:       DefaultTimePrecision,
		TimeZone:            DefaultTimeZone,
		SortTmpDir:          filepath.Join(plannerDir(), DefaultSortSubPath),
		Region:              RegionData,
	}
}

func (c Planner) Validate() error {
	iv := intValidator{0, MaxDegreeOfParallelism + 1}
	if err := iv.Validate([]intValidatorItem{
		{"planner degree-of-parallelism", int64(c.DegreeOfParallelism), false},
	}); err != nil {
		return err
	}

	if int64(c.MaxBytesPerExchange) < MinMaxBytesPerExchange {
		return fmt.Errorf("planner max-bytes-per-exchange must be at least %s. got: %s",
			units.BytesSize(float64(MinMaxBytesPerExchange)), units.BytesSize(float64(c.MaxBytesPerExchange)))
	}
	if c.MaxTextSize <= 0 {
		return fmt.Errorf("planner max-text-size must be positive")
	}

	if err := (stringValidator{}).Validate([]stringValidatorItem{
		{"planner time-precision", c.TimePrecision},
		{"planner sort-tmp-dir", c.SortTmpDir},
	}); err != nil {
		return err
	}

	switch c.TimePrecision {
	case PrecisionMillisecond, PrecisionMicrosecond, PrecisionNanosecond:
	default:
		return fmt.Errorf("planner time-precision must be one of ms, us, ns. got: %s", c.TimePrecision)
	}

	switch c.Region {
	case RegionData, RegionSchema:
	default:
		return fmt.Errorf("planner region must be data or schema. got: %s", c.Region)
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("planner time-zone is invalid: %v", err)
	}
	return nil
}

// Location returns the session time zone, UTC when TimeZone can not be loaded.
func (c *Planner) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Planner) GetMaxBytesPerExchange() int64 {
	return int64(c.MaxBytesPerExchange)
}

func (c *Planner) GetMaxTextSize() int64 {
	return int64(c.MaxTextSize)
}

func (c *Planner) ShowConfigs() map[string]interface{} {
	return map[string]interface{}{
		"planner.degree-of-parallelism":  c.DegreeOfParallelism,
		"planner.max-bytes-per-exchange": units.BytesSize(float64(c.MaxBytesPerExchange)),
		"planner.max-text-size":          units.BytesSize(float64(c.MaxTextSize)),
		"planner.time-precision":         c.TimePrecision,
		"planner.time-zone":              c.TimeZone,
		"planner.sort-tmp-dir":           c.SortTmpDir,
		"planner.region":                 c.Region,
	}
}

const (
	DefaultLastCacheCapacity = 100000
	DefaultLastCacheTTL      = toml.Duration(10 * time.Minute)
)

// LastCache is the [last-cache] section, sizing the in-process last value cache.
type LastCache struct {
	Enabled  bool          `toml:"enabled"`
	Capacity int           `toml:"capacity"`
	TTL      toml.Duration `toml:"ttl"`
}

func NewLastCache() LastCache {
	return LastCache{
		Enabled:  true,
		Capacity: DefaultLastCacheCapacity,
		TTL:      DefaultLastCacheTTL,
	}
}

func (c LastCache) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("last-cache capacity must be positive")
	}
	if c.TTL < 0 {
		return fmt.Errorf("last-cache ttl must not be negative")
	}
	return nil
}

func (c *LastCache) GetTTL() time.Duration {
	return time.Duration(c.TTL)
}

func (c *LastCache) ShowConfigs() map[string]interface{} {
	return map[string]interface{}{
		"last-cache.enabled":  c.Enabled,
		"last-cache.capacity": c.Capacity,
		"last-cache.ttl":      c.TTL,
	}
}
