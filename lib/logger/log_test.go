// Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.
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

package logger_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/openGemini/ts-planner/lib/config"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/openGemini/ts-planner/lib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLine struct {
	Level  string
	Msg    string
	Errno  string
	Caller string
	Color  string
}

func initLogger(t *testing.T, level zapcore.Level) (string, string) {
	dir := t.TempDir()

	conf := config.NewLogger(config.AppPlanner)
	conf.Path = dir
	conf.Level = level

	logger.InitLogger(conf)

	return dir + "/planner.log", dir + "/planner.error.log"
}

func TestLogger(t *testing.T) {
	filename, errFile := initLogger(t, zapcore.DebugLevel)

	errMessage := fmt.Sprintf("test error. %d", time.Now().UnixNano())
	infoMessage := fmt.Sprintf("test info. %d", time.Now().UnixNano())

	lg := logger.GetLogger()
	lg.Info(infoMessage)
	lg.Error(errMessage)
	logger.CloseLogger()

	assertFileContents(t, filename, []string{"info", "error"}, []string{infoMessage, errMessage})
	assertFileContents(t, errFile, []string{"error"}, []string{errMessage})
}

func TestNewLogger(t *testing.T) {
	filename, _ := initLogger(t, zapcore.DebugLevel)
	lg := logger.NewLogger(errno.ModulePlanner).With(zap.String("color", "red"))

	err := errno.NewError(errno.UnknownColumn, "s1")
	messages := []string{"some error with errno", "some error with no errno", "some debug", "some info", "some warn"}

	lg.Error(messages[0], zap.Error(err))
	lg.Error(messages[1], zap.Error(errors.New("error")))
	lg.Debug(messages[2])
	lg.Info(messages[3])
	lg.Warn(messages[4])
	logger.CloseLogger()

	assertFileContents(t, filename,
		[]string{"error", "error", "debug", "info", "warn"},
		messages)

	logs, readErr := readLog(filename)
	require.NoError(t, readErr)

	expErrno := fmt.Sprintf("%02d%d%04d", errno.ModulePlanner, errno.LevelWarn, errno.UnknownColumn)
	assert.Equal(t, expErrno, logs[0].Errno)
	assert.Equal(t, "", logs[1].Errno)
	assert.Equal(t, "red", logs[3].Color)
	assert.Contains(t, logs[0].Caller, "log_test.go")
}

func TestLoggerLevel(t *testing.T) {
	filename, _ := initLogger(t, zapcore.DebugLevel-1)
	lg := logger.NewLogger(errno.ModuleExchange)
	assert.False(t, lg.IsDebugLevel())

	messages := []string{"some debug", "some info", "some warn"}
	lg.Debug(messages[0])
	lg.Info(messages[1])
	lg.Warn(messages[2])
	logger.CloseLogger()

	assertFileContents(t, filename, []string{"info", "warn"}, messages[1:])
}

func TestSetLevel(t *testing.T) {
	_ = initLoggerNoFile()
	assert.NoError(t, logger.SetLevel("debug"))
	assert.True(t, logger.NewLogger(errno.ModuleCli).IsDebugLevel())
	assert.Error(t, logger.SetLevel("verbose"))
	assert.NoError(t, logger.SetLevel("info"))
	assert.False(t, logger.NewLogger(errno.ModuleCli).IsDebugLevel())
}

func TestMakeErrno(t *testing.T) {
	err := errno.NewError(errno.InternalError, "x")
	assert.Equal(t, "0319001", logger.MakeErrno(err, errno.ModuleLastCache))
	assert.Same(t, logger.NewLogger(errno.ModuleCli), logger.NewLogger(errno.ModuleCli))
}

func initLoggerNoFile() *zap.Logger {
	lg := zap.NewNop()
	logger.SetLogger(lg)
	return lg
}

func readLog(file string) ([]*LogLine, error) {
	fp, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	var logs []*LogLine
	scanner := bufio.NewScanner(fp)
	for scanner.Scan() {
		line := &LogLine{}
		if err := json.Unmarshal(scanner.Bytes(), line); err != nil {
			return nil, err
		}
		logs = append(logs, line)
	}
	return logs, scanner.Err()
}

func assertFileContents(t *testing.T, file string, levels []string, messages []string) {
	logs, err := readLog(file)
	require.NoError(t, err)
	require.Equal(t, len(levels), len(logs), "incorrect number of log lines")

	for i, line := range logs {
		assert.Equal(t, levels[i], line.Level, "level of line %d", i+1)
		assert.Equal(t, messages[i], line.Msg, "message of line %d", i+1)
	}
}
