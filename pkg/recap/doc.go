// Package recap summarizes rrweb session recordings into short, ordered
// timelines of what the user did.
//
// Quick start:
//
//	s, err := recap.New(recap.WithVerbosity("standard"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	nodes, err := s.SummarizeJSON(exportJSON)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = recap.RenderText(os.Stdout, nodes)
//
// A Summarizer holds no per-call state and is safe for concurrent use.
// Create once, reuse across recordings.
package recap
