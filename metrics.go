package sarama

import (
	"sync"

	"github.com/rcrowley/go-metrics"
)

// getOrRegisterHistogram returns name's Histogram in r, registering a new
// exponentially-decaying reservoir sample for it on first use. Every
// batch-size/request-size metric in this client shares this one sampling
// strategy so dashboards built against one apply to all the others.
func getOrRegisterHistogram(name string, r metrics.Registry) metrics.Histogram {
	return r.GetOrRegister(name, func() metrics.Histogram {
		return metrics.NewHistogram(metrics.NewExpDecaySample(1028, 0.015))
	}).(metrics.Histogram)
}

// cleanupRegistry wraps a parent metrics.Registry and remembers every
// name registered through it, so a consumer/producer built on a shared
// MetricRegistry can unregister just its own metrics on Close instead of
// wiping out metrics other clients sharing the same registry still need.
type cleanupRegistry struct {
	metrics.Registry

	lock sync.Mutex
	own  map[string]struct{}
}

func newCleanupRegistry(parent metrics.Registry) metrics.Registry {
	if parent == nil {
		parent = metrics.NewRegistry()
	}
	return &cleanupRegistry{Registry: parent, own: make(map[string]struct{})}
}

func (r *cleanupRegistry) track(name string) {
	r.lock.Lock()
	r.own[name] = struct{}{}
	r.lock.Unlock()
}

func (r *cleanupRegistry) Register(name string, metric interface{}) error {
	if err := r.Registry.Register(name, metric); err != nil {
		return err
	}
	r.track(name)
	return nil
}

func (r *cleanupRegistry) GetOrRegister(name string, metric interface{}) interface{} {
	r.track(name)
	return r.Registry.GetOrRegister(name, metric)
}

// UnregisterAll removes only the metrics this wrapper registered, leaving
// the rest of a registry shared with other clients untouched.
func (r *cleanupRegistry) UnregisterAll() {
	r.lock.Lock()
	names := make([]string, 0, len(r.own))
	for name := range r.own {
		names = append(names, name)
	}
	r.own = make(map[string]struct{})
	r.lock.Unlock()

	for _, name := range names {
		r.Registry.Unregister(name)
	}
}
