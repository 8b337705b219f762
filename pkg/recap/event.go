package recap

import "github.com/crimson-sun/recap/internal/model"

// Event is one entry of a session recording. Data holds the payload with its
// keys in document order.
type Event = model.RawEvent

// Node is one entry of a summary. Group nodes carry Children; spans and
// groups carry TimestampEnd. Timestamps are milliseconds relative to the
// first event.
type Node = model.SummaryNode

// Summary wraps the nodes of one recording with its metadata.
type Summary = model.Summary

// Object is an insertion-ordered JSON object.
type Object = model.Object

// EventKind is the top-level type code of an Event.
type EventKind = model.EventKind

const (
	KindDomContentLoaded    = model.DomContentLoaded
	KindLoad                = model.Load
	KindFullSnapshot        = model.FullSnapshot
	KindIncrementalSnapshot = model.IncrementalSnapshot
	KindMeta                = model.Meta
	KindCustom              = model.Custom
	KindPlugin              = model.Plugin
)

// NewObject returns an empty Object.
func NewObject() *Object {
	return model.NewObject()
}

// ObjectOf builds an Object from alternating keys and values.
func ObjectOf(kv ...any) *Object {
	return model.ObjectOf(kv...)
}
