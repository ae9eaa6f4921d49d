// Package metric publishes rendering counters with expvar.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/render/signal"
)

const componentsLabel = "render.components"

const (
	// BlockCounter measures number of processed blocks.
	BlockCounter = "Blocks"
	// FrameCounter measures number of processed frames.
	FrameCounter = "Frames"
	// LatencyCounter measures latency between processing calls.
	LatencyCounter = "Latency"
	// LoadCounter measures time spent processing the last block.
	LoadCounter = "Load"
	// DurationCounter counts what's the duration of rendered signal.
	DurationCounter = "Duration"
	// ComponentCounter counts number of metered instances.
	ComponentCounter = "Components"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		BlockCounter,
		FrameCounter,
		LatencyCounter,
		LoadCounter,
		DurationCounter,
		ComponentCounter,
	}
)

// Get metrics values for provided component type.
func Get(component interface{}) map[string]string {
	return getCounters(getType(component))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. It's called every time the
// component starts running or its sample rate changes.
type ResetFunc func(sampleRate int) MeasureFunc

// MeasureFunc captures metrics when block is processed. Started is the
// time when processing of the block began.
type MeasureFunc func(frames int, started time.Time)

// Meter creates new meter closure to capture component counters.
func Meter(component interface{}) ResetFunc {
	t := getType(component)
	metric := components.get(t)
	metric.components.Add(1)
	return func(sampleRate int) MeasureFunc {
		calledAt := time.Now()
		var (
			blockSize     int
			blockDuration time.Duration
		)
		return func(frames int, started time.Time) {
			now := time.Now()
			metric.latency.set(now.Sub(calledAt))
			metric.load.set(now.Sub(started))
			metric.blocks.Add(1)
			metric.frames.Add(int64(frames))
			// recalculate block duration only when block size has changed
			if blockSize != frames {
				blockSize = frames
				blockDuration = signal.DurationOf(sampleRate, int64(frames))
			}
			metric.duration.add(blockDuration)
			calledAt = now
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentType]; ok {
		return metric
	}
	metric := newMetric(componentType)
	m.m[componentType] = metric
	return metric
}

type metric struct {
	components *expvar.Int
	blocks     *expvar.Int
	frames     *expvar.Int
	latency    *duration
	load       *duration
	duration   *duration
}

func newMetric(componentType string) metric {
	m := metric{
		components: expvar.NewInt(key(componentType, ComponentCounter)),
		blocks:     expvar.NewInt(key(componentType, BlockCounter)),
		frames:     expvar.NewInt(key(componentType, FrameCounter)),
		latency:    &duration{},
		load:       &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(componentType, LatencyCounter), m.latency)
	expvar.Publish(key(componentType, LoadCounter), m.load)
	expvar.Publish(key(componentType, DurationCounter), m.duration)
	return m
}

func key(componentType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentType, counter)
}

func getType(component interface{}) string {
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d atomic.Int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(v.d.Load()).String())
}

func (v *duration) add(delta time.Duration) {
	v.d.Add(int64(delta))
}

func (v *duration) set(value time.Duration) {
	v.d.Store(int64(value))
}
