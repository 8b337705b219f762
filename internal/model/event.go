package model

import "strings"

// EventKind is the top-level type code of a recorded event.
type EventKind int

const (
	DomContentLoaded    EventKind = 0
	Load                EventKind = 1
	FullSnapshot        EventKind = 2
	IncrementalSnapshot EventKind = 3
	Meta                EventKind = 4
	Custom              EventKind = 5
	Plugin              EventKind = 6
)

func (k EventKind) String() string {
	switch k {
	case DomContentLoaded:
		return "DomContentLoaded"
	case Load:
		return "Load"
	case FullSnapshot:
		return "FullSnapshot"
	case IncrementalSnapshot:
		return "IncrementalSnapshot"
	case Meta:
		return "Meta"
	case Custom:
		return "Custom"
	case Plugin:
		return "Plugin"
	default:
		return "Unknown"
	}
}

// Source is the sub-kind code carried by incremental snapshots.
type Source int

const (
	Mutation          Source = 0
	MouseMove         Source = 1
	MouseInteraction  Source = 2
	Scroll            Source = 3
	ViewportResize    Source = 4
	Input             Source = 5
	TouchMove         Source = 6
	MediaInteraction  Source = 7
	StyleSheetRule    Source = 8
	CanvasMutation    Source = 9
	Font              Source = 10
	Drag              Source = 12
	StyleDeclaration  Source = 13
	AdoptedStyleSheet Source = 15

	// UnknownSource marks a missing or unmapped sub-kind code.
	UnknownSource Source = -1
)

var sourceNames = map[Source]string{
	Mutation:          "mutation",
	MouseMove:         "mouse_move",
	MouseInteraction:  "mouse_interaction",
	Scroll:            "scroll",
	ViewportResize:    "viewport_resize",
	Input:             "input",
	TouchMove:         "touch_move",
	MediaInteraction:  "media_interaction",
	StyleSheetRule:    "style_sheet_rule",
	CanvasMutation:    "canvas_mutation",
	Font:              "font",
	Drag:              "drag",
	StyleDeclaration:  "style_declaration",
	AdoptedStyleSheet: "adopted_style_sheet",
}

// Sources lists every recognized sub-kind in code order.
func Sources() []Source {
	return []Source{
		Mutation, MouseMove, MouseInteraction, Scroll, ViewportResize, Input,
		TouchMove, MediaInteraction, StyleSheetRule, CanvasMutation, Font,
		Drag, StyleDeclaration, AdoptedStyleSheet,
	}
}

// Known reports whether s is a recognized sub-kind.
func (s Source) Known() bool {
	_, ok := sourceNames[s]
	return ok
}

// String returns the snake_case name used in policy files.
func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

// Title returns the human-readable name, e.g. "Media Interaction".
func (s Source) Title() string {
	if !s.Known() {
		return "Unknown"
	}
	words := strings.Split(s.String(), "_")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseSource maps a snake_case name back to its Source.
func ParseSource(name string) (Source, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for src, n := range sourceNames {
		if n == name {
			return src, true
		}
	}
	return UnknownSource, false
}

// Mouse interaction sub-type codes.
const (
	MouseUp     = 0
	MouseDown   = 1
	Click       = 2
	ContextMenu = 3
	DblClick    = 4
	Focus       = 5
	Blur        = 6
	TouchStart  = 7
	TouchEnd    = 9
)

var interactionNames = map[int64]string{
	MouseUp:     "Mouse Up",
	MouseDown:   "Mouse Down",
	Click:       "Click",
	ContextMenu: "Context Menu",
	DblClick:    "DblClick",
	Focus:       "Focus",
	Blur:        "Blur",
	TouchStart:  "Touch Start",
	TouchEnd:    "Touch End",
}

// InteractionName maps a mouse interaction code to its name, "Unknown" otherwise.
func InteractionName(code int64) string {
	if name, ok := interactionNames[code]; ok {
		return name
	}
	return "Unknown"
}

// RawEvent is one entry of a session recording.
type RawEvent struct {
	WindowID  string
	Kind      EventKind
	Data      *Object
	Timestamp int64 // milliseconds
}

// Source returns the incremental sub-kind carried in the payload.
// Events without a mapped source code report UnknownSource.
func (e RawEvent) Source() Source {
	code, ok := Int(e.Data, "source")
	if !ok {
		return UnknownSource
	}
	src := Source(code)
	if !src.Known() {
		return UnknownSource
	}
	return src
}

// Recording is an ordered event list delivered by a connector.
type Recording struct {
	Source string // file path, URL or other origin
	Events []RawEvent
}
