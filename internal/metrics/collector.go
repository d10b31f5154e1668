// Package metrics collects statistics about the PM table poll loop.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hartyporpoise/smusensors/internal/clock"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

// Snapshot is a point-in-time view of poll metrics, safe to marshal to JSON.
type Snapshot struct {
	TotalReads     int64            `json:"total_reads"`
	FailedReads    int64            `json:"failed_reads"`
	FailuresByKind map[string]int64 `json:"failures_by_kind,omitempty"`
	ReadsPerSecond float64          `json:"reads_per_second"` // rolling 10-second window
	AvgReadMs      float64          `json:"avg_read_ms"`      // avg read+decode latency (ms)
	LastReadMs     float64          `json:"last_read_ms"`
	LastError      string           `json:"last_error,omitempty"`
	LastSuccess    *time.Time       `json:"last_success,omitempty"`
	ActiveStreams  int64            `json:"active_streams"`
	UptimeSeconds  float64          `json:"uptime_seconds"`
}

// Collector is a thread-safe metrics store.
type Collector struct {
	clock     clock.Clock
	startTime time.Time

	totalReads    atomic.Int64
	failedReads   atomic.Int64
	activeStreams atomic.Int64

	mu             sync.Mutex
	readEvents     []time.Time // for rolling reads/s
	latencySamples []float64
	lastLatency    float64
	lastError      string
	lastSuccess    time.Time
	failuresByKind map[smu.ErrorKind]int64
}

const (
	window     = 10 * time.Second
	maxSamples = 1000
)

// NewCollector creates a Collector that reads time from clk. A nil
// clk uses the real clock.
func NewCollector(clk clock.Clock) *Collector {
	if clk == nil {
		clk = clock.Real()
	}
	return &Collector{
		clock:          clk,
		startTime:      clk.Now(),
		failuresByKind: make(map[smu.ErrorKind]int64),
	}
}

// RecordRead records one poll iteration that took elapsed and ended
// with err. It has the signature of poll.Loop.Observe.
func (c *Collector) RecordRead(elapsed time.Duration, err error) {
	c.totalReads.Add(1)
	if err != nil {
		c.failedReads.Add(1)
	}
	now := c.clock.Now()
	ms := float64(elapsed) / float64(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.readEvents = append(c.readEvents, now)
	c.pruneLocked(now)

	c.latencySamples = append(c.latencySamples, ms)
	if len(c.latencySamples) > maxSamples {
		c.latencySamples = c.latencySamples[len(c.latencySamples)-maxSamples:]
	}
	c.lastLatency = ms

	if err != nil {
		c.lastError = err.Error()
		c.failuresByKind[smu.KindOf(err)]++
		return
	}
	c.lastError = ""
	c.lastSuccess = now
}

// StreamStart marks an event stream subscriber as active and returns
// a done function the handler should defer.
func (c *Collector) StreamStart() func() {
	c.activeStreams.Add(1)
	return func() {
		c.activeStreams.Add(-1)
	}
}

// Snapshot returns current metrics as an immutable value.
func (c *Collector) Snapshot() Snapshot {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Prune on read too, so reads/s decays to zero once polling stops.
	c.pruneLocked(now)

	rps := float64(0)
	if len(c.readEvents) > 1 {
		span := c.readEvents[len(c.readEvents)-1].Sub(c.readEvents[0]).Seconds()
		if span > 0 {
			rps = float64(len(c.readEvents)-1) / span
		}
	}

	var byKind map[string]int64
	if len(c.failuresByKind) > 0 {
		byKind = make(map[string]int64, len(c.failuresByKind))
		for k, n := range c.failuresByKind {
			name := "other"
			if k != 0 {
				name = k.String()
			}
			byKind[name] = n
		}
	}

	snap := Snapshot{
		TotalReads:     c.totalReads.Load(),
		FailedReads:    c.failedReads.Load(),
		FailuresByKind: byKind,
		ReadsPerSecond: rps,
		AvgReadMs:      average(c.latencySamples),
		LastReadMs:     c.lastLatency,
		LastError:      c.lastError,
		ActiveStreams:  c.activeStreams.Load(),
		UptimeSeconds:  now.Sub(c.startTime).Seconds(),
	}
	if !c.lastSuccess.IsZero() {
		t := c.lastSuccess
		snap.LastSuccess = &t
	}
	return snap
}

func (c *Collector) pruneLocked(now time.Time) {
	cutoff := now.Add(-window)
	for len(c.readEvents) > 0 && c.readEvents[0].Before(cutoff) {
		c.readEvents = c.readEvents[1:]
	}
}

func average(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
