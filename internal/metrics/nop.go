// Package metrics provides internal metrics utilities for entmap.
package metrics

import "github.com/arloliu/entmap/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is
// configured, avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// ----------------------
// Read Operations
// ----------------------

// IncReadTotal discards the metric.
func (m *NopMetrics) IncReadTotal(_ string) {}

// IncReadError discards the metric.
func (m *NopMetrics) IncReadError(_ string) {}

// ObserveReadDuration discards the metric.
func (m *NopMetrics) ObserveReadDuration(_ string, _ float64) {}

// ----------------------
// Write Operations
// ----------------------

// IncWriteTotal discards the metric.
func (m *NopMetrics) IncWriteTotal(_ string) {}

// IncWriteError discards the metric.
func (m *NopMetrics) IncWriteError(_ string) {}

// ObserveWriteDuration discards the metric.
func (m *NopMetrics) ObserveWriteDuration(_ string, _ float64) {}

// ----------------------
// Batch Operations
// ----------------------

// IncBatchTotal discards the metric.
func (m *NopMetrics) IncBatchTotal(_ types.BatchType) {}

// IncBatchError discards the metric.
func (m *NopMetrics) IncBatchError(_ types.BatchType) {}

// ObserveBatchSize discards the metric.
func (m *NopMetrics) ObserveBatchSize(_ types.BatchType, _ int) {}

// ObserveBatchDuration discards the metric.
func (m *NopMetrics) ObserveBatchDuration(_ types.BatchType, _ float64) {}

// ----------------------
// Mapping
// ----------------------

// IncMappingError discards the metric.
func (m *NopMetrics) IncMappingError(_ string) {}
