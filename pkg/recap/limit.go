package recap

import "github.com/crimson-sun/recap/internal/engine/limiter"

// LimitResult is the outcome of Limit. Original holds the untouched input
// and is set only when Truncated is true.
type LimitResult = limiter.Result

// Limit bounds a JSON-like value with the caps of the given verbosity:
// long strings are cut and marked with "...", lists and objects keep only
// their first entries. Limiting an already limited value changes nothing.
func Limit(v any, verbosity string) LimitResult {
	return limiter.Limit(v, limiter.ParseVerbosity(verbosity).Policy())
}
