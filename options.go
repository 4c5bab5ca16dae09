package qalsh

import (
	"log/slog"

	"qalsh/internal/fs"
	"qalsh/resource"
)

// defaultPageSize is B, the page size in bytes used both for B+-tree nodes
// and data pages, unless overridden.
const defaultPageSize = 4096

type options struct {
	pageSize         int
	seed             int64
	metricsCollector MetricsCollector
	logger           *Logger
	resourceConfig   resource.Config
	fsys             fs.FileSystem
}

// Option configures Build/Open behavior.
type Option func(*options)

// WithPageSize sets B, the page size in bytes for both B+-tree nodes and
// data pages. Larger pages hold more entries per I/O but waste space on
// small trees.
func WithPageSize(bytes int) Option {
	return func(o *options) {
		o.pageSize = bytes
	}
}

// WithSeed sets the PRNG seed used to draw the index's hash-function
// matrix, making Build reproducible: the same (n, d, p, c, seed) always
// produces the same on-disk hash functions.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithMetricsCollector configures a metrics collector for monitoring build
// and knn operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for build and knn operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithFileSystem overrides the file system Build writes the index
// directory and its tree/data files through. Tests use this to wrap
// fs.Default in an fs.FaultyFS and exercise partial-write and disk-full
// recovery without touching the real disk.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// WithResourceConfig sets the resource limits of the index's controller.
// BatchKNN draws only on its background-worker budget, one slot per
// concurrent query; it reserves no memory and no I/O rate.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resourceConfig = cfg
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		pageSize:         defaultPageSize,
		seed:             1,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		resourceConfig: resource.Config{
			MaxBackgroundWorkers: 4,
		},
		fsys: fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
