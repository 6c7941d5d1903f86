// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestCounterIncrementIsGatherable(t *testing.T) {
	reg := NewRegistry()
	c := reg.Counter("test_counter_total", "a test counter")
	c.Inc()
	c.Inc()

	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	val := findCounterValue(t, families, "test_counter_total")
	if val != 2 {
		t.Fatalf("counter value = %v, want 2", val)
	}
}

func TestGaugeSetIsGatherable(t *testing.T) {
	reg := NewRegistry()
	g := reg.Gauge("test_gauge", "a test gauge")
	g.Set(42)

	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var found bool
	for _, fam := range families {
		if fam.GetName() == "test_gauge" {
			found = true
			if fam.Metric[0].GetGauge().GetValue() != 42 {
				t.Fatalf("gauge value = %v, want 42", fam.Metric[0].GetGauge().GetValue())
			}
		}
	}
	if !found {
		t.Fatal("expected test_gauge in gathered families")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := NewRegistry()
	reg.Counter("dup_total", "first registration")

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected duplicate metric registration to panic")
		}
	}()
	reg.Counter("dup_total", "second registration")
}

func TestNewRegistersEveryValnodeMetric(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.ShredsAccepted.Inc()
	m.TxFailed.WithLabelValues("insufficient_funds").Inc()
	m.BestSlot.Set(100)
	m.VoteSkipped.WithLabelValues("lockout").Inc()

	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected New() to register a non-empty set of metrics")
	}
}

func findCounterValue(t *testing.T, families []*dto.MetricFamily, name string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() == name {
			return fam.Metric[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric family %q not found", name)
	return 0
}
