package util

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// PerfEnabled turns on phase timing (--perf)
var PerfEnabled bool

// PerfMetric aggregates the timings recorded under one name
type PerfMetric struct {
	Name      string
	Count     int64
	TotalTime time.Duration
	Max       time.Duration
}

// PerfTracker collects phase timings and byte counters for one run
type PerfTracker struct {
	mu       sync.Mutex
	metrics  map[string]*PerfMetric
	counters map[string]*int64
	started  time.Time
}

var (
	globalPerf     *PerfTracker
	globalPerfOnce sync.Once
)

// NewPerfTracker returns an empty tracker
func NewPerfTracker() *PerfTracker {
	return &PerfTracker{
		metrics:  make(map[string]*PerfMetric),
		counters: make(map[string]*int64),
		started:  time.Now(),
	}
}

// GetPerfTracker returns the process-wide tracker
func GetPerfTracker() *PerfTracker {
	globalPerfOnce.Do(func() {
		globalPerf = NewPerfTracker()
	})
	return globalPerf
}

// Timer represents an active timing operation
type Timer struct {
	name    string
	start   time.Time
	tracker *PerfTracker
}

// StartTimer starts a timer on the global tracker; nil when profiling is off
func StartTimer(name string) *Timer {
	if !PerfEnabled {
		return nil
	}
	return &Timer{name: name, start: time.Now(), tracker: GetPerfTracker()}
}

// Stop records the elapsed time. Safe on a nil timer.
func (t *Timer) Stop() time.Duration {
	if t == nil {
		return 0
	}
	d := time.Since(t.start)
	t.tracker.Record(t.name, d)
	Debugf("[PERF] %s took %v", t.name, d)
	return d
}

// Record adds one observation to the named metric
func (pt *PerfTracker) Record(name string, d time.Duration) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	m, ok := pt.metrics[name]
	if !ok {
		m = &PerfMetric{Name: name}
		pt.metrics[name] = m
	}
	m.Count++
	m.TotalTime += d
	if d > m.Max {
		m.Max = d
	}
}

// Add increases a named counter
func (pt *PerfTracker) Add(name string, delta int64) {
	pt.mu.Lock()
	c, ok := pt.counters[name]
	if !ok {
		c = new(int64)
		pt.counters[name] = c
	}
	pt.mu.Unlock()

	atomic.AddInt64(c, delta)
}

// Counter returns the current value of a counter
func (pt *PerfTracker) Counter(name string) int64 {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	c, ok := pt.counters[name]
	if !ok {
		return 0
	}
	return atomic.LoadInt64(c)
}

// Metric returns a copy of the named metric
func (pt *PerfTracker) Metric(name string) (PerfMetric, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	m, ok := pt.metrics[name]
	if !ok {
		return PerfMetric{}, false
	}
	return *m, true
}

// TimeFuncWithError times a function that returns a value and error
func TimeFuncWithError[T any](name string, fn func() (T, error)) (T, error) {
	timer := StartTimer(name)
	defer timer.Stop()
	return fn()
}

// PerfBytes adds to a byte counter on the global tracker
func PerfBytes(name string, n int64) {
	if !PerfEnabled {
		return
	}
	GetPerfTracker().Add(name, n)
}

var (
	perfTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	perfHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).Bold(true)
	perfValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	perfSlowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	perfSepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#636E72"))
)

// PrintReport writes the collected metrics, slowest first
func (pt *PerfTracker) PrintReport(w io.Writer) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	var b strings.Builder
	b.WriteString(perfSepStyle.Render(strings.Repeat("═", 72)) + "\n")
	b.WriteString(perfTitleStyle.Render("PERFORMANCE REPORT") + "\n")
	fmt.Fprintf(&b, "   Uptime: %s\n\n", perfValueStyle.Render(time.Since(pt.started).Round(time.Millisecond).String()))

	metrics := make([]*PerfMetric, 0, len(pt.metrics))
	for _, m := range pt.metrics {
		metrics = append(metrics, m)
	}
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].TotalTime > metrics[j].TotalTime
	})

	if len(metrics) > 0 {
		b.WriteString(perfHeaderStyle.Render("Timings") + "\n")
		fmt.Fprintf(&b, "   %-32s %12s %6s %12s\n", "Operation", "Total", "Count", "Max")
		for _, m := range metrics {
			total := m.TotalTime.Round(time.Millisecond).String()
			// the cool-down alone is 31s, anything far beyond it is worth a look
			if m.TotalTime > time.Minute {
				total = perfSlowStyle.Render(total)
			}
			fmt.Fprintf(&b, "   %-32s %12s %6d %12s\n", m.Name, total, m.Count, m.Max.Round(time.Millisecond))
		}
		b.WriteString("\n")
	}

	if len(pt.counters) > 0 {
		names := make([]string, 0, len(pt.counters))
		for name := range pt.counters {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString(perfHeaderStyle.Render("Transfers") + "\n")
		for _, name := range names {
			v := atomic.LoadInt64(pt.counters[name])
			fmt.Fprintf(&b, "   %-32s %s\n", name, perfValueStyle.Render(humanize.Bytes(uint64(v))))
		}
	}
	b.WriteString(perfSepStyle.Render(strings.Repeat("═", 72)) + "\n")

	fmt.Fprint(w, b.String())
}
