package limiter

import "strings"

// Verbosity controls how much of each payload is retained.
type Verbosity int

const (
	Minimal  Verbosity = iota // short strings, two entries per container, no full details in output
	Standard                  // 200 runes, three entries per container
	Full                      // no limiting
)

// Policy returns the limiting policy for the verbosity level.
func (v Verbosity) Policy() Policy {
	switch v {
	case Minimal:
		return Policy{MaxStringLength: 80, MaxContainerSize: 2, Marker: DefaultMarker}
	case Full:
		return Policy{Marker: DefaultMarker}
	default:
		return DefaultPolicy()
	}
}

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Full:
		return "full"
	default:
		return "standard"
	}
}

// ParseVerbosity maps "minimal", "standard" or "full" to a Verbosity.
// Unknown strings default to Standard.
func ParseVerbosity(s string) Verbosity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return Minimal
	case "full":
		return Full
	default:
		return Standard
	}
}
