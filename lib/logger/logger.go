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

package logger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/openGemini/ts-planner/lib/errno"
	"go.uber.org/zap"
)

// Logger is a module scoped view of the global logger. Errors carrying an
// *errno.Error are tagged with a compound errno made of module, level and code.
type Logger struct {
	module errno.Module
	fields []zap.Field
}

var loggerPool sync.Map

func NewLogger(module errno.Module) *Logger {
	l, ok := loggerPool.Load(module)
	if ok {
		log, _ := l.(*Logger)
		return log
	}
	// ignore concurrent situation, repeat store same module logger
	log := &Logger{module: module}
	loggerPool.Store(module, log)
	return log
}

// With returns a copy of the logger that always appends fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	other := &Logger{module: l.module}
	other.fields = append(append(other.fields, l.fields...), fields...)
	return other
}

func (l *Logger) Module() errno.Module {
	return l.module
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap().Error(msg, l.rewriteFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap().Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap().Warn(msg, l.rewriteFields(fields)...)
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if !isDebugLevel() {
		return
	}
	l.zap().Debug(msg, fields...)
}

func (l *Logger) IsDebugLevel() bool {
	return isDebugLevel()
}

func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zap()
}

func (l *Logger) zap() *zap.Logger {
	lg := GetLogger().WithOptions(zap.AddCallerSkip(1))
	if len(l.fields) > 0 {
		lg = lg.With(l.fields...)
	}
	return lg
}

func (l *Logger) rewriteFields(fields []zap.Field) []zap.Field {
	for i := range fields {
		if fields[i].Key != "error" {
			continue
		}

		err, ok := fields[i].Interface.(error)
		if !ok || err == nil {
			continue
		}
		var e *errno.Error
		if !errors.As(err, &e) {
			continue
		}

		fields = append(fields, zap.String("errno", MakeErrno(e, l.module)))
		if e.Level().LogStack() && len(e.Stack()) > 0 {
			fields = append(fields, zap.String("stack", string(e.Stack())))
		}
		return fields
	}

	return fields
}

// MakeErrno renders err as MMLCCCC: module, level and code. The error's own
// module wins over m unless it is unknown.
func MakeErrno(err *errno.Error, m errno.Module) string {
	level := err.Level() % (errno.LevelFatal + 1)
	module := err.Module()
	if module == errno.ModuleUnknown {
		module = m
	}

	return fmt.Sprintf("%02d%d%04d", module, level, err.Errno())
}
