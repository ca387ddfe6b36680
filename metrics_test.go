package sarama

import (
	"testing"

	"github.com/rcrowley/go-metrics"
)

func TestGetOrRegisterHistogram(t *testing.T) {
	r := metrics.NewRegistry()
	h1 := getOrRegisterHistogram("test-histogram", r)
	h1.Update(100)

	h2 := getOrRegisterHistogram("test-histogram", r)
	if h2.Count() != 1 {
		t.Errorf("expected the second lookup to return the same histogram with 1 sample, got %d", h2.Count())
	}
}

func TestCleanupRegistryTracksOwnMetrics(t *testing.T) {
	parent := metrics.NewRegistry()
	child := newCleanupRegistry(parent)

	getOrRegisterHistogram("owned-histogram", child)

	if parent.Get("owned-histogram") == nil {
		t.Fatal("expected the histogram registered through the child registry to exist in the parent")
	}

	child.(*cleanupRegistry).UnregisterAll()

	if parent.Get("owned-histogram") != nil {
		t.Error("expected UnregisterAll to remove the metric from the parent registry")
	}
}

func TestCleanupRegistryLeavesUnrelatedMetrics(t *testing.T) {
	parent := metrics.NewRegistry()
	parent.Register("unrelated", metrics.NewCounter())

	child := newCleanupRegistry(parent)
	getOrRegisterHistogram("owned-histogram", child)
	child.(*cleanupRegistry).UnregisterAll()

	if parent.Get("unrelated") == nil {
		t.Error("expected UnregisterAll to leave metrics registered directly on the parent untouched")
	}
}

func TestNewCleanupRegistryNilParent(t *testing.T) {
	r := newCleanupRegistry(nil)
	if r == nil {
		t.Fatal("expected a non-nil registry even when no parent is given")
	}
	getOrRegisterHistogram("h", r)
	r.(*cleanupRegistry).UnregisterAll()
}
