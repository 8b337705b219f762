// Package recording decodes session-recording JSON into raw events.
//
// Three layouts are accepted: an export wrapper ({"data":{"snapshots":[...]}}),
// a bare wrapper ({"snapshots":[...]}) and a top-level event array. Object keys
// keep their document order.
package recording

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/buger/jsonparser"

	"github.com/crimson-sun/recap/internal/model"
)

// ErrNoSnapshots is returned when the document carries no event list.
var ErrNoSnapshots = errors.New("recording: no snapshots found")

// Decode parses a recording document. source names its origin for logging
// and is copied into the result. Malformed individual events are skipped.
func Decode(data []byte, source string) (model.Recording, error) {
	list, err := snapshots(data)
	if err != nil {
		return model.Recording{}, err
	}

	rec := model.Recording{Source: source, Events: []model.RawEvent{}}
	var index, skipped int
	var cbErr error
	_, err = jsonparser.ArrayEach(list, func(value []byte, t jsonparser.ValueType, _ int, err error) {
		defer func() { index++ }()
		if err != nil {
			cbErr = err
			return
		}
		ev, err := decodeEvent(value, t)
		if err != nil {
			skipped++
			slog.Debug("skipping malformed snapshot", "source", source, "index", index, "error", err)
			return
		}
		rec.Events = append(rec.Events, ev)
	})
	if err == nil {
		err = cbErr
	}
	if err != nil {
		return model.Recording{}, fmt.Errorf("recording: failed to parse snapshots: %w", err)
	}

	if skipped > 0 {
		slog.Warn("skipped malformed snapshots", "source", source, "skipped", skipped, "kept", len(rec.Events))
	}
	return rec, nil
}

// DecodeReader reads r fully and decodes it.
func DecodeReader(r io.Reader, source string) (model.Recording, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Recording{}, fmt.Errorf("recording: failed to read %s: %w", source, err)
	}
	return Decode(data, source)
}

// snapshots locates the event array inside the document.
func snapshots(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrNoSnapshots
	}
	if trimmed[0] == '[' {
		return trimmed, nil
	}
	for _, path := range [][]string{{"data", "snapshots"}, {"snapshots"}} {
		v, t, _, err := jsonparser.Get(trimmed, path...)
		if err == nil && t == jsonparser.Array {
			return v, nil
		}
	}
	return nil, ErrNoSnapshots
}

func decodeEvent(value []byte, t jsonparser.ValueType) (model.RawEvent, error) {
	if t != jsonparser.Object {
		return model.RawEvent{}, fmt.Errorf("snapshot is %s, not an object", t)
	}

	kindRaw, kt, _, err := jsonparser.Get(value, "type")
	if err != nil || kt != jsonparser.Number {
		return model.RawEvent{}, errors.New("missing numeric type")
	}
	kind, ok := model.AsInt(json.Number(kindRaw))
	if !ok {
		return model.RawEvent{}, fmt.Errorf("type %s is not an integer", kindRaw)
	}

	tsRaw, tt, _, err := jsonparser.Get(value, "timestamp")
	if err != nil || tt != jsonparser.Number {
		return model.RawEvent{}, errors.New("missing numeric timestamp")
	}
	ts, err := timestamp(tsRaw)
	if err != nil {
		return model.RawEvent{}, err
	}

	ev := model.RawEvent{Kind: model.EventKind(kind), Timestamp: ts}

	if w, wt, _, err := jsonparser.Get(value, "windowId"); err == nil && wt == jsonparser.String {
		if ev.WindowID, err = jsonparser.ParseString(w); err != nil {
			return model.RawEvent{}, fmt.Errorf("windowId: %w", err)
		}
	}

	if d, dt, _, err := jsonparser.Get(value, "data"); err == nil && dt == jsonparser.Object {
		obj, err := decodeObject(d)
		if err != nil {
			return model.RawEvent{}, fmt.Errorf("data: %w", err)
		}
		ev.Data = obj
	}
	return ev, nil
}

// timestamp parses a millisecond timestamp. Fractional milliseconds are
// truncated.
func timestamp(b []byte) (int64, error) {
	n := json.Number(b)
	if i, ok := model.AsInt(n); ok {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("timestamp %s: %w", b, err)
	}
	return int64(f), nil
}

func decodeValue(b []byte, t jsonparser.ValueType) (any, error) {
	switch t {
	case jsonparser.String:
		return jsonparser.ParseString(b)
	case jsonparser.Number:
		return json.Number(b), nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(b)
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Object:
		return decodeObject(b)
	case jsonparser.Array:
		return decodeArray(b)
	default:
		return nil, fmt.Errorf("unexpected value %q", b)
	}
}

func decodeObject(b []byte) (*model.Object, error) {
	obj := model.NewObject()
	err := jsonparser.ObjectEach(b, func(key, value []byte, t jsonparser.ValueType, _ int) error {
		k := string(key)
		v, err := decodeValue(value, t)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		obj.Set(k, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(b []byte) ([]any, error) {
	out := []any{}
	var firstErr error
	_, err := jsonparser.ArrayEach(b, func(value []byte, t jsonparser.ValueType, _ int, err error) {
		if firstErr != nil {
			return
		}
		if err != nil {
			firstErr = err
			return
		}
		v, err := decodeValue(value, t)
		if err != nil {
			firstErr = err
			return
		}
		out = append(out, v)
	})
	if err == nil {
		err = firstErr
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
