/*
Copyright (c) 2013-2018 Influxdata Inc.
This code is originally from: https://github.com/influxdata/influxdb/blame/v2.7.0/internal/fs/influx_dir.go
*/

package config

import (
	"os"
	"os/user"
	"path/filepath"
)

// plannerDir returns the home of the planner runtime files, the logs and the
// sort spill directory. The base is the first of the user home directory,
// the HOME environment variable and the working directory.
func plannerDir() string {
	return filepath.Join(baseDirectory(), ".ts-planner")
}

func baseDirectory() string {
	if u, err := user.Current(); err == nil && u.HomeDir != "" {
		return u.HomeDir
	}

	if home := os.Getenv("HOME"); home != "" {
		return home
	}

	wd, err := os.Getwd()
	if err != nil {
		return os.TempDir()
	}
	return wd
}
