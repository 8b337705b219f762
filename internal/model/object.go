package model

import (
	"encoding/json"
	"fmt"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that keeps its keys in the order they were set.
// Recording payloads are decoded into Objects so that key order survives
// limiting and re-encoding.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// ObjectOf builds an Object from alternating key/value arguments.
// Non-string keys are skipped along with their value.
func ObjectOf(kv ...any) *Object {
	o := NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		o.Set(key, kv[i+1])
	}
	return o
}

// Field returns the value stored under key. A nil Object has no fields.
func Field(o *Object, key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	return o.Get(key)
}

// String returns the string stored under key.
func String(o *Object, key string) (string, bool) {
	v, ok := Field(o, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the integral number stored under key. Decoded JSON numbers,
// Go integers and whole floats are accepted.
func Int(o *Object, key string) (int64, bool) {
	v, ok := Field(o, key)
	if !ok {
		return 0, false
	}
	return AsInt(v)
}

// AsInt converts a JSON-like number to int64.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// List returns the list stored under key, or nil when absent or not a list.
func List(o *Object, key string) []any {
	v, ok := Field(o, key)
	if !ok {
		return nil
	}
	l, _ := v.([]any)
	return l
}

// Display renders a scalar payload value the way it appears in labels:
// numbers and strings verbatim, anything else via fmt.
func Display(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
