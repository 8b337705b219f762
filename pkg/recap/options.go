package recap

type options struct {
	verbosity        string
	policy           string
	policyFile       string
	spanMode         string
	trackWindows     bool
	maxStringLength  int
	maxContainerSize int
}

// Option configures a Summarizer.
type Option func(*options)

// WithVerbosity sets how much payload survives: "minimal", "standard" or
// "full". Default: "standard".
func WithVerbosity(v string) Option {
	return func(o *options) {
		o.verbosity = v
	}
}

// WithPolicy selects a built-in policy table: "default" or "verbose".
func WithPolicy(name string) Option {
	return func(o *options) {
		o.policy = name
	}
}

// WithPolicyFile loads the policy table from a YAML file. It takes
// precedence over WithPolicy.
func WithPolicyFile(path string) Option {
	return func(o *options) {
		o.policyFile = path
	}
}

// WithSpanMode sets how movement spans close: "per_gesture" (default) ends a
// span when any other node appears, "session" keeps extending the first one.
func WithSpanMode(mode string) Option {
	return func(o *options) {
		o.spanMode = mode
	}
}

// WithTrackWindows emits a "Window Changed" node whenever consecutive events
// come from different windows.
func WithTrackWindows() Option {
	return func(o *options) {
		o.trackWindows = true
	}
}

// WithLimits overrides the verbosity's string length (runes) and container
// size caps. Zero keeps the verbosity's value.
func WithLimits(maxStringLength, maxContainerSize int) Option {
	return func(o *options) {
		o.maxStringLength = maxStringLength
		o.maxContainerSize = maxContainerSize
	}
}

func defaultOptions() options {
	return options{
		verbosity: "standard",
		policy:    "default",
		spanMode:  "per_gesture",
	}
}
