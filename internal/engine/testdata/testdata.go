// Package testdata embeds a recorded checkout session used across tests.
package testdata

import _ "embed"

// SessionJSON is a recording export ({"data":{"snapshots":[...]}}) covering
// every event kind the summarizer handles.
//
//go:embed session.json
var SessionJSON []byte

const (
	SessionSource   = "session.json"
	SessionEvents   = 21
	SessionDuration = 65000 // ms between first and last snapshot
)
