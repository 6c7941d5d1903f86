// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNopLoggerDiscardsEverything(t *testing.T) {
	l := NewNop()
	l.Debug("debug")
	l.Info("info", "k", "v")
	l.Warn("warn")
	l.Error("error")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if with := l.With("k", "v"); with == nil {
		t.Fatal("expected With to return a non-nil Logger")
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valnode.log")
	l := New(WithFile(path, 1, 1, 1), WithLevel("info"))
	l.Info("hello", "slot", 42)
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("expected log file to contain the logged message, got %q", string(data))
	}
	if !strings.Contains(string(data), "slot") {
		t.Fatalf("expected log file to contain the kv pair, got %q", string(data))
	}
}

func TestWithAttachesPersistentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valnode.log")
	l := New(WithFile(path, 1, 1, 1))
	child := l.With("component", "bank")
	child.Info("processed batch")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "component") {
		t.Fatalf("expected With's field to be present in output, got %q", string(data))
	}
}

func TestWithLevelFiltersDebugByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valnode.log")
	l := New(WithFile(path, 1, 1, 1), WithLevel("info"))
	l.Debug("should be filtered")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(data), "should be filtered") {
		t.Fatal("expected debug-level message to be filtered out at info level")
	}
}
