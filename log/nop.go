// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

// nopLogger discards everything. Used in tests and anywhere a Logger
// is required but output is not wanted.
type nopLogger struct{}

// NewNop returns a Logger that discards all output.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
func (nopLogger) With(...interface{}) Logger   { return nopLogger{} }
func (nopLogger) Sync() error                  { return nil }
