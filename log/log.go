// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package log provides module-scoped, key-value structured logging on
// top of zap, in the same call-site shape used throughout this
// codebase: logger.Info("message", "key", value, "key2", value2).
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module identifies the subsystem a logger belongs to. New modules are
// added here as the codebase grows; values are only used for the
// "module" field attached to every log line.
type Module string

const (
	Executor  Module = "executor"
	EVM       Module = "evm"
	Storage   Module = "storage"
	Miner     Module = "miner"
	Notify    Module = "notify"
	Filters   Module = "filters"
	RPC       Module = "rpc"
	Config    Module = "config"
	Common    Module = "common"
	CMD       Module = "cmd"
)

var (
	baseOnce sync.Once
	base     *zap.SugaredLogger
)

func rootLogger() *zap.SugaredLogger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(zapcore.InfoLevel))
		base = zap.New(core).Sugar()
	})
	return base
}

// SetLevel does not change anything: the root logger's level is fixed
// at info when it is built, and level is ignored.
func SetLevel(level string) {
	l := rootLogger()
	_ = l // level is fixed at NewAtomicLevelAt construction time; re-exec to change it.
	_ = level
}

// Logger is a module-scoped structured logger.
type Logger struct {
	mod Module
	l   *zap.SugaredLogger
}

// NewModuleLogger returns a logger tagged with the given module name.
// Call sites look like: logger.Info("accepted transaction", "hash", tx.Hash)
func NewModuleLogger(mod Module) *Logger {
	return &Logger{mod: mod, l: rootLogger().With("module", string(mod))}
}

func (lg *Logger) Debug(msg string, ctx ...interface{}) { lg.l.Debugw(msg, ctx...) }
func (lg *Logger) Info(msg string, ctx ...interface{})  { lg.l.Infow(msg, ctx...) }
func (lg *Logger) Warn(msg string, ctx ...interface{})  { lg.l.Warnw(msg, ctx...) }
func (lg *Logger) Error(msg string, ctx ...interface{}) { lg.l.Errorw(msg, ctx...) }
func (lg *Logger) Crit(msg string, ctx ...interface{}) {
	lg.l.Errorw(msg, ctx...)
	os.Exit(1)
}

// package-level convenience loggers tagged with the Common module, for
// code that has no module logger of its own.
var pkgLogger = NewModuleLogger(Common)

func Info(msg string, ctx ...interface{})  { pkgLogger.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { pkgLogger.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { pkgLogger.Error(msg, ctx...) }
