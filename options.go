package batch

// Option configures a Batch during creation.
//
// Example:
//
//	// Defaults
//	b := batch.New(adapter)
//
//	// Pre-sized store for a known workload
//	b := batch.New(adapter, batch.WithInitialCapacity(16384))
type Option func(*options)

// options holds optional configuration for Batch creation.
type options struct {
	initialCapacity int
	growthFactor    float64
	label           string
}

// defaultOptions returns the default batch options.
func defaultOptions() options {
	return options{
		initialCapacity: defaultStoreCapacity,
		growthFactor:    defaultGrowthFactor,
		label:           "batch",
	}
}

// WithInitialCapacity sets the vertex store's initial capacity in float32
// elements. Larger values avoid early buffer growth for known workloads.
// Values below the vertex stride of a single drawable still work; the
// store grows on demand.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.initialCapacity = n
		}
	}
}

// WithGrowthFactor sets the factor by which the vertex store's buffer grows
// when it runs out of space. The default is 2. Values at or below 1 are
// ignored.
func WithGrowthFactor(f float64) Option {
	return func(o *options) {
		if f > 1 {
			o.growthFactor = f
		}
	}
}

// WithLabel sets a debug label used for backend buffer allocations and
// log messages.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}
