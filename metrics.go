package qalsh

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordBuild is called after an index build completes. n and m are the
	// dataset size and hash-function count; duration is wall time.
	RecordBuild(n, m int, duration time.Duration, err error)

	// RecordKNN is called after each knn query. pageIO and distIO are the
	// exact I/O counters returned alongside the result list.
	RecordKNN(k, pageIO, distIO int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordKNN(int, int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildTotalNanos atomic.Int64
	KNNCount        atomic.Int64
	KNNErrors       atomic.Int64
	KNNTotalNanos   atomic.Int64
	KNNPageIO       atomic.Int64
	KNNDistIO       atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(n, m int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordKNN implements MetricsCollector.
func (b *BasicMetricsCollector) RecordKNN(k, pageIO, distIO int, duration time.Duration, err error) {
	b.KNNCount.Add(1)
	b.KNNTotalNanos.Add(duration.Nanoseconds())
	b.KNNPageIO.Add(int64(pageIO))
	b.KNNDistIO.Add(int64(distIO))
	if err != nil {
		b.KNNErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:  b.BuildCount.Load(),
		BuildErrors: b.BuildErrors.Load(),
		KNNCount:    b.KNNCount.Load(),
		KNNErrors:   b.KNNErrors.Load(),
		KNNAvgNanos: b.getAvgKNNNanos(),
		KNNPageIO:   b.KNNPageIO.Load(),
		KNNDistIO:   b.KNNDistIO.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgKNNNanos() int64 {
	count := b.KNNCount.Load()
	if count == 0 {
		return 0
	}
	return b.KNNTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount  int64
	BuildErrors int64
	KNNCount    int64
	KNNErrors   int64
	KNNAvgNanos int64
	KNNPageIO   int64
	KNNDistIO   int64
}
