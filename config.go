package entmap

import (
	"time"

	"github.com/arloliu/entmap/internal/logging"
	"github.com/arloliu/entmap/internal/metrics"
	"github.com/arloliu/entmap/types"
)

// TimestampProvider generates client-side timestamps for write operations.
//
// The default provider uses time.Now().UnixMicro().
type TimestampProvider func() int64

// DefaultTimestampProvider returns the current time in microseconds.
func DefaultTimestampProvider() int64 {
	return time.Now().UnixMicro()
}

// Config holds configuration for an entmap Client.
type Config struct {
	// TimestampProvider generates write timestamps for statements that do
	// not carry their own.
	TimestampProvider TimestampProvider

	// Metrics receives operational metrics. Never nil after NewClient.
	Metrics types.MetricsCollector

	// Logger receives structured log messages. Never nil after NewClient.
	Logger types.Logger

	// WriteOptions are the default write options applied when a call
	// passes nil options.
	WriteOptions *types.WriteOptions

	// QueryOptions are the default query options applied when a statement
	// carries none.
	QueryOptions *types.QueryOptions
}

// DefaultConfig returns a Config with sensible defaults: client-side
// microsecond timestamps, no-op metrics, and a no-op logger.
func DefaultConfig() *Config {
	return &Config{
		TimestampProvider: DefaultTimestampProvider,
		Metrics:           metrics.NewNopMetrics(),
		Logger:            logging.NewNopLogger(),
	}
}

// Option configures a Config.
type Option func(*Config)

// WithTimestampProvider sets the timestamp generator.
//
// Parameters:
//   - fn: Function that returns the current timestamp in microseconds
//
// Returns:
//   - Option: Configuration option
func WithTimestampProvider(fn TimestampProvider) Option {
	return func(c *Config) {
		c.TimestampProvider = fn
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
//
// Parameters:
//   - collector: The metrics collector implementation
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	import vmmetrics "github.com/arloliu/entmap/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	client, _ := entmap.NewClient(session,
//	    entmap.WithMetrics(collector),
//	)
func WithMetrics(collector types.MetricsCollector) Option {
	return func(c *Config) {
		c.Metrics = collector
	}
}

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages.
// The logger interface is compatible with zap.SugaredLogger.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	client, _ := entmap.NewClient(session,
//	    entmap.WithLogger(logger.Sugar()),
//	)
func WithLogger(logger types.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithDefaultWriteOptions sets the write options applied when a call
// passes nil options.
//
// Parameters:
//   - opts: The default write options
//
// Returns:
//   - Option: Configuration option
func WithDefaultWriteOptions(opts *types.WriteOptions) Option {
	return func(c *Config) {
		c.WriteOptions = opts
	}
}

// WithDefaultQueryOptions sets the query options applied when a statement
// carries none.
//
// Parameters:
//   - opts: The default query options
//
// Returns:
//   - Option: Configuration option
func WithDefaultQueryOptions(opts *types.QueryOptions) Option {
	return func(c *Config) {
		c.QueryOptions = opts
	}
}
