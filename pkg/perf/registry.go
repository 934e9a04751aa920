/*
Copyright (C) 2022-2025 Contributors | TIM S.p.A. to CAMARA a Series of LF Projects, LLC

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

// Package perf is the bridge's performance registry: named
// counters, gauges, timers and latency histograms, mirrored onto
// OpenTelemetry instruments and exportable as a structured document.
package perf

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// histogramBounds are the fixed latency thresholds carried forward
// from the original performance registry: <10ms, <50ms, <100ms,
// <500ms, <1s, >=1s.
var histogramBounds = []time.Duration{
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
	1 * time.Second,
}

type counter struct {
	value int64
	otel  metric.Int64Counter
}

type gauge struct {
	value float64
	otel  metric.Float64Gauge
}

type histogram struct {
	buckets []int64 // len(histogramBounds)+1, last bucket is ">=1s"
	count   int64
	sum     time.Duration
	otel    metric.Float64Histogram
}

// Registry is the engine-wide instrument table. A single mutex guards
// counter/gauge/timer updates, per the concurrency model.
type Registry struct {
	mu sync.Mutex

	meter      metric.Meter
	counters   map[string]*counter
	gauges     map[string]*gauge
	histograms map[string]*histogram
}

// New builds a registry backed by meter. meter may be
// noop.NewMeterProvider().Meter("") in tests or environments with no
// OTel collector configured; instrument creation never fails loudly
// in that case.
func New(meter metric.Meter) *Registry {
	return &Registry{
		meter:      meter,
		counters:   make(map[string]*counter),
		gauges:     make(map[string]*gauge),
		histograms: make(map[string]*histogram),
	}
}

// Incr adds delta to the named counter, creating it on first use.
func (r *Registry) Incr(name string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		oc, _ := r.meter.Int64Counter(name)
		c = &counter{otel: oc}
		r.counters[name] = c
	}
	c.value += delta
	if c.otel != nil {
		c.otel.Add(context.Background(), delta)
	}
}

// SetGauge overwrites the named gauge value, creating it on first use.
func (r *Registry) SetGauge(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		og, _ := r.meter.Float64Gauge(name)
		g = &gauge{otel: og}
		r.gauges[name] = g
	}
	g.value = value
	if g.otel != nil {
		g.otel.Record(context.Background(), value)
	}
}

// Timer returns a function that, when called, records the elapsed
// time since Timer was invoked into the named histogram. Use as:
// defer registry.Timer("op")()
func (r *Registry) Timer(name string) func() {
	start := time.Now()
	return func() {
		r.Observe(name, time.Since(start))
	}
}

// Observe records a single latency sample into the named histogram.
func (r *Registry) Observe(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.histograms[name]
	if !ok {
		oh, _ := r.meter.Float64Histogram(name)
		h = &histogram{buckets: make([]int64, len(histogramBounds)+1), otel: oh}
		r.histograms[name] = h
	}
	h.count++
	h.sum += d
	h.buckets[bucketIndex(d)]++
	if h.otel != nil {
		h.otel.Record(context.Background(), d.Seconds())
	}
}

func bucketIndex(d time.Duration) int {
	for i, bound := range histogramBounds {
		if d < bound {
			return i
		}
	}
	return len(histogramBounds)
}

// HistogramSnapshot is the exported shape of one histogram.
type HistogramSnapshot struct {
	Count   int64            `json:"count"`
	SumMs   float64          `json:"sumMs"`
	Buckets map[string]int64 `json:"buckets"`
}

// Snapshot is the structured document produced by Export.
type Snapshot struct {
	Counters   map[string]int64             `json:"counters"`
	Gauges     map[string]float64           `json:"gauges"`
	Histograms map[string]HistogramSnapshot `json:"histograms"`
}

func bucketLabel(i int) string {
	if i == len(histogramBounds) {
		return fmt.Sprintf(">=%s", histogramBounds[len(histogramBounds)-1])
	}
	return fmt.Sprintf("<%s", histogramBounds[i])
}

// Export produces a point-in-time structured document of every
// registered instrument.
func (r *Registry) Export() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Counters:   make(map[string]int64, len(r.counters)),
		Gauges:     make(map[string]float64, len(r.gauges)),
		Histograms: make(map[string]HistogramSnapshot, len(r.histograms)),
	}
	for name, c := range r.counters {
		snap.Counters[name] = c.value
	}
	for name, g := range r.gauges {
		snap.Gauges[name] = g.value
	}
	for name, h := range r.histograms {
		buckets := make(map[string]int64, len(h.buckets))
		for i, count := range h.buckets {
			buckets[bucketLabel(i)] = count
		}
		snap.Histograms[name] = HistogramSnapshot{
			Count:   h.count,
			SumMs:   float64(h.sum.Microseconds()) / 1000.0,
			Buckets: buckets,
		}
	}
	return snap
}

// Names returns every registered counter/gauge/histogram name, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]struct{})
	for n := range r.counters {
		set[n] = struct{}{}
	}
	for n := range r.gauges {
		set[n] = struct{}{}
	}
	for n := range r.histograms {
		set[n] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
