// Package scheduler runs the portal's background workers
package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/amirphl/civic-portal/repository"
	"github.com/amirphl/civic-portal/utils"
)

const (
	defaultMonitorInterval = 5 * time.Minute
	defaultWarnRatio       = 0.9
)

type counterKey struct {
	jurisdictionID uint
	recordType     string
}

// CapacityWarning describes a counter whose usage crossed the warning ratio
type CapacityWarning struct {
	JurisdictionID uint
	RecordType     string
	LastIssued     int64
	Remaining      int64
	UsageRatio     float64
}

// SequenceMonitor periodically publishes how much of each counter's range is left
type SequenceMonitor struct {
	store     repository.CounterStore
	interval  time.Duration
	warnRatio float64
	max       int64
	logger    *zap.Logger

	remaining *prometheus.GaugeVec
	usage     *prometheus.GaugeVec

	mu     sync.Mutex
	warned map[counterKey]bool
}

// NewSequenceMonitor registers the capacity gauges on reg and returns a monitor.
// A nil reg uses the default Prometheus registerer.
func NewSequenceMonitor(store repository.CounterStore, interval time.Duration, warnRatio float64, reg prometheus.Registerer, logger *zap.Logger) *SequenceMonitor {
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	if warnRatio <= 0 || warnRatio > 1 {
		warnRatio = defaultWarnRatio
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	return &SequenceMonitor{
		store:     store,
		interval:  interval,
		warnRatio: warnRatio,
		max:       utils.MaxSequenceValue,
		logger:    logger.Named("sequence_monitor"),
		remaining: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sequence_counter_remaining",
				Help: "Codes still available per jurisdiction and record type",
			},
			[]string{"jurisdiction_id", "record_type"},
		),
		usage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sequence_counter_usage_ratio",
				Help: "Fraction of the sequence range already issued",
			},
			[]string{"jurisdiction_id", "record_type"},
		),
		warned: make(map[counterKey]bool),
	}
}

// Start launches the monitor loop in a background goroutine and returns a stop function.
// The stop function blocks until the loop has exited.
func (m *SequenceMonitor) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (m *SequenceMonitor) runOnce(ctx context.Context) {
	if _, err := m.Check(ctx); err != nil && ctx.Err() == nil {
		m.logger.Error("Failed to read sequence counters", zap.Error(err))
	}
}

// Check reads every counter once, refreshes the gauges and returns the counters
// that crossed the warning ratio since the previous check.
func (m *SequenceMonitor) Check(ctx context.Context) ([]CapacityWarning, error) {
	counters, err := m.store.All(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var crossed []CapacityWarning
	for _, c := range counters {
		labels := []string{strconv.FormatUint(uint64(c.JurisdictionID), 10), c.RecordType}
		remaining := max(m.max-c.LastIssued, 0)
		ratio := float64(c.LastIssued) / float64(m.max)

		m.remaining.WithLabelValues(labels...).Set(float64(remaining))
		m.usage.WithLabelValues(labels...).Set(ratio)

		key := counterKey{jurisdictionID: c.JurisdictionID, recordType: c.RecordType}
		if ratio < m.warnRatio {
			delete(m.warned, key)
			continue
		}
		if m.warned[key] {
			continue
		}
		m.warned[key] = true

		w := CapacityWarning{
			JurisdictionID: c.JurisdictionID,
			RecordType:     c.RecordType,
			LastIssued:     c.LastIssued,
			Remaining:      remaining,
			UsageRatio:     ratio,
		}
		crossed = append(crossed, w)
		m.logger.Warn("Sequence counter nearing exhaustion",
			zap.Uint("jurisdiction_id", w.JurisdictionID),
			zap.String("record_type", w.RecordType),
			zap.Int64("last_issued", w.LastIssued),
			zap.Int64("remaining", w.Remaining),
			zap.Float64("usage_ratio", w.UsageRatio),
		)
	}

	return crossed, nil
}
