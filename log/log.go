// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log wraps go.uber.org/zap behind the geth-style call
// convention (logger.Info(msg, "key", value, ...)) used across the
// validator, with a production file-rotating backend and a no-op
// backend for tests.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured logger interface every component takes.
type Logger interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	Fatal(msg string, kv ...interface{})
	With(kv ...interface{}) Logger
	Sync() error
}

type zapLogger struct {
	l *zap.SugaredLogger
}

// Option configures a production Logger.
type Option func(*options)

type options struct {
	level      zapcore.Level
	filePath   string
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	stdout     bool
}

// WithLevel sets the minimum enabled level.
func WithLevel(level string) Option {
	return func(o *options) {
		var lvl zapcore.Level
		if err := lvl.Set(level); err == nil {
			o.level = lvl
		}
	}
}

// WithFile enables rotation of the given log file path via lumberjack.
func WithFile(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(o *options) {
		o.filePath = path
		o.maxSizeMB = maxSizeMB
		o.maxBackups = maxBackups
		o.maxAgeDays = maxAgeDays
	}
}

// WithStdout additionally writes to stdout.
func WithStdout() Option {
	return func(o *options) { o.stdout = true }
}

// New builds a production Logger. Safe to call with zero options
// (stdout-only, info level).
func New(opts ...Option) Logger {
	o := &options{level: zapcore.InfoLevel, stdout: true, maxSizeMB: 100, maxBackups: 5, maxAgeDays: 28}
	for _, opt := range opts {
		opt(o)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var cores []zapcore.Core
	if o.stdout {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), o.level))
	}
	if o.filePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   o.filePath,
			MaxSize:    o.maxSizeMB,
			MaxBackups: o.maxBackups,
			MaxAge:     o.maxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), o.level))
	}

	core := zapcore.NewTee(cores...)
	return &zapLogger{l: zap.New(core).Sugar()}
}

func (z *zapLogger) Debug(msg string, kv ...interface{}) { z.l.Debugw(msg, kv...) }
func (z *zapLogger) Info(msg string, kv ...interface{})  { z.l.Infow(msg, kv...) }
func (z *zapLogger) Warn(msg string, kv ...interface{})  { z.l.Warnw(msg, kv...) }
func (z *zapLogger) Error(msg string, kv ...interface{}) { z.l.Errorw(msg, kv...) }
func (z *zapLogger) Fatal(msg string, kv ...interface{}) { z.l.Fatalw(msg, kv...) }
func (z *zapLogger) With(kv ...interface{}) Logger {
	return &zapLogger{l: z.l.With(kv...)}
}
func (z *zapLogger) Sync() error { return z.l.Sync() }
