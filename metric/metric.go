// Package metric publishes output counters through expvar.
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dudk/rack/signal"
)

const componentsLabel = "rack"

const (
	// TickCounter measures number of ticks.
	TickCounter = "Ticks"
	// FrameCounter measures number of produced frames.
	FrameCounter = "Frames"
	// OverloadCounter measures number of ticks which fell behind.
	OverloadCounter = "Overloads"
	// LatencyCounter measures time between ticks.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of produced signal.
	DurationCounter = "Duration"
)

var (
	components = metrics{
		m: make(map[string]*Metric),
	}

	counters = []string{
		TickCounter,
		FrameCounter,
		OverloadCounter,
		LatencyCounter,
		DurationCounter,
	}
)

// Get metrics values for provided component.
func Get(component string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(component, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	components.Lock()
	names := make([]string, 0, len(components.m))
	for component := range components.m {
		names = append(names, component)
	}
	components.Unlock()
	m := make(map[string]map[string]string, len(names))
	for _, component := range names {
		m[component] = Get(component)
	}
	return m
}

// Metric holds counters of one component. Expvar vars are global, so
// metrics with the same component name share counters.
type Metric struct {
	ticks     *expvar.Int
	frames    *expvar.Int
	overloads *expvar.Int
	latency   *duration
	duration  *duration
	calledAt  time.Time
}

// Meter returns metric of the component.
func Meter(component string) *Metric {
	return components.get(component)
}

// Tick captures counters of one tick.
func (m *Metric) Tick(sampleRate, frames int, overloaded bool) {
	now := time.Now()
	if !m.calledAt.IsZero() {
		m.latency.set(now.Sub(m.calledAt))
	}
	m.calledAt = now
	m.ticks.Add(1)
	m.frames.Add(int64(frames))
	if overloaded {
		m.overloads.Add(1)
	}
	if sampleRate > 0 {
		m.duration.add(signal.DurationOf(sampleRate, int64(frames)))
	}
}

type metrics struct {
	sync.Mutex
	m map[string]*Metric
}

func (m *metrics) get(component string) *Metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[component]; ok {
		// return existing metric if available
		return metric
	}
	metric := newMetric(component)
	m.m[component] = metric
	return metric
}

func newMetric(component string) *Metric {
	m := Metric{
		ticks:     expvar.NewInt(key(component, TickCounter)),
		frames:    expvar.NewInt(key(component, FrameCounter)),
		overloads: expvar.NewInt(key(component, OverloadCounter)),
		latency:   &duration{},
		duration:  &duration{},
	}
	expvar.Publish(key(component, LatencyCounter), m.latency)
	expvar.Publish(key(component, DurationCounter), m.duration)
	return &m
}

func key(component, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, component, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
