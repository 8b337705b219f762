// Package limiter bounds the size of JSON-like payloads attached to summary
// nodes while keeping a reference to the untruncated value.
package limiter

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/crimson-sun/recap/internal/model"
)

const (
	DefaultMaxStringLength  = 200
	DefaultMaxContainerSize = 3
	DefaultMarker           = "..."
)

// Policy configures a Limit call. It is passed by value; WithExempt returns a
// copy, so a shared base policy is never mutated.
type Policy struct {
	MaxStringLength  int      // runes; <= 0 disables the cap
	MaxContainerSize int      // list entries and non-exempt object keys; <= 0 disables the cap
	ExemptKeys       []string // object keys whose subtree is copied untouched, at any depth
	Marker           string   // appended to truncated strings
}

// DefaultPolicy returns the 200 rune / 3 entry policy with the "..." marker.
func DefaultPolicy() Policy {
	return Policy{
		MaxStringLength:  DefaultMaxStringLength,
		MaxContainerSize: DefaultMaxContainerSize,
		Marker:           DefaultMarker,
	}
}

// WithExempt returns a copy of p whose exempt set is exactly keys.
func (p Policy) WithExempt(keys ...string) Policy {
	p.ExemptKeys = append([]string(nil), keys...)
	return p
}

func (p Policy) exempt(key string) bool {
	for _, k := range p.ExemptKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Result is the outcome of limiting one value.
// Original is set if and only if Truncated is true.
type Result struct {
	Value     any
	Truncated bool
	Original  any
}

// Limit recursively bounds v according to p. It never fails: strings, lists
// ([]any), objects (*model.Object or map[string]any) are limited and every
// other value passes through unchanged.
func Limit(v any, p Policy) Result {
	switch x := v.(type) {
	case string:
		return limitString(x, p)
	case []any:
		return limitList(x, p)
	case *model.Object:
		if x == nil {
			return Result{Value: x}
		}
		return limitObject(x, p)
	case map[string]any:
		if x == nil {
			return Result{Value: x}
		}
		return limitMap(x, p)
	default:
		return Result{Value: v}
	}
}

func limitString(s string, p Policy) Result {
	if p.MaxStringLength <= 0 || utf8.RuneCountInString(s) <= p.MaxStringLength || p.alreadyLimited(s) {
		return Result{Value: s}
	}
	return Result{Value: truncate(s, p.MaxStringLength) + p.Marker, Truncated: true, Original: s}
}

// alreadyLimited reports whether s is the output of a previous truncation
// under the same policy: exactly MaxStringLength runes followed by the marker.
func (p Policy) alreadyLimited(s string) bool {
	if p.Marker == "" || !strings.HasSuffix(s, p.Marker) {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSuffix(s, p.Marker)) == p.MaxStringLength
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func limitList(l []any, p Policy) Result {
	kept := l
	truncated := false
	if p.MaxContainerSize > 0 && len(l) > p.MaxContainerSize {
		kept = l[:p.MaxContainerSize]
		truncated = true
	}

	out := make([]any, len(kept))
	for i, el := range kept {
		r := Limit(el, p)
		if r.Truncated {
			truncated = true
		}
		out[i] = r.Value
	}

	if !truncated {
		return Result{Value: out}
	}
	return Result{Value: out, Truncated: true, Original: l}
}

func limitObject(o *model.Object, p Policy) Result {
	out := model.NewObject()
	truncated := false
	count := 0

	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		if p.exempt(pair.Key) {
			out.Set(pair.Key, pair.Value)
			continue
		}
		if p.MaxContainerSize > 0 && count >= p.MaxContainerSize {
			// Unlike an early break, keep scanning so exempt keys past the cap survive.
			truncated = true
			continue
		}
		r := Limit(pair.Value, p)
		if r.Truncated {
			truncated = true
		}
		out.Set(pair.Key, r.Value)
		count++
	}

	if !truncated {
		return Result{Value: out}
	}
	return Result{Value: out, Truncated: true, Original: o}
}

// limitMap handles plain Go maps, visiting keys in sorted order since Go maps
// carry no order of their own.
func limitMap(m map[string]any, p Policy) Result {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(m))
	truncated := false
	count := 0

	for _, k := range keys {
		if p.exempt(k) {
			out[k] = m[k]
			continue
		}
		if p.MaxContainerSize > 0 && count >= p.MaxContainerSize {
			truncated = true
			continue
		}
		r := Limit(m[k], p)
		if r.Truncated {
			truncated = true
		}
		out[k] = r.Value
		count++
	}

	if !truncated {
		return Result{Value: out}
	}
	return Result{Value: out, Truncated: true, Original: m}
}
