package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crimson-sun/recap/internal/connector"
	"github.com/crimson-sun/recap/internal/connector/httpclient"
	"github.com/crimson-sun/recap/internal/engine/testdata"
)

func TestRegistered(t *testing.T) {
	ctor, err := connector.Get("http")
	if err != nil {
		t.Fatalf("http connector not registered: %v", err)
	}
	if _, ok := ctor().(*Connector); !ok {
		t.Fatal("unexpected connector type")
	}
}

func TestQuery_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recordings/42.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer rec-tok" {
			t.Errorf("unexpected auth: %s", r.Header.Get("Authorization"))
		}
		w.Write(testdata.SessionJSON)
	}))
	defer srv.Close()

	c := &Connector{}
	cfg := connector.ConnectorConfig{APIKey: "rec-tok", Endpoint: srv.URL + "/recordings/"}
	recs, err := c.Query(context.Background(), cfg, connector.QueryParams{Targets: []string{"42.json"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recording, got %d", len(recs))
	}
	if len(recs[0].Events) != testdata.SessionEvents {
		t.Fatalf("expected %d events, got %d", testdata.SessionEvents, len(recs[0].Events))
	}
	if recs[0].Source != srv.URL+"/recordings/42.json" {
		t.Fatalf("unexpected source %q", recs[0].Source)
	}
}

func TestQuery_EndpointOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"type":2,"timestamp":1}]`))
	}))
	defer srv.Close()

	c := &Connector{}
	recs, err := c.Query(context.Background(), connector.ConnectorConfig{Endpoint: srv.URL + "/r.json"}, connector.QueryParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || len(recs[0].Events) != 1 {
		t.Fatalf("unexpected result %+v", recs)
	}
}

func TestQuery_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
		w.Write([]byte(`forbidden`))
	}))
	defer srv.Close()

	c := &Connector{}
	_, err := c.Query(context.Background(), connector.ConnectorConfig{}, connector.QueryParams{Targets: []string{srv.URL}})
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 403 {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
}

func TestQuery_NoTargets(t *testing.T) {
	c := &Connector{}
	if _, err := c.Query(context.Background(), connector.ConnectorConfig{}, connector.QueryParams{}); err == nil {
		t.Fatal("expected error without URL")
	}
}

func TestStream_EmitsOnChange(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First two polls return the same body, later polls a longer recording.
		if calls.Add(1) <= 2 {
			w.Write([]byte(`[{"type":2,"timestamp":1}]`))
			return
		}
		w.Write([]byte(`[{"type":2,"timestamp":1},{"type":1,"timestamp":5}]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &Connector{}
	cfg := connector.ConnectorConfig{Endpoint: srv.URL, Extra: map[string]string{"poll_interval": "20ms"}}
	ch, err := c.Stream(ctx, cfg)
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	first := recv(t, ch)
	if len(first.Events) != 1 {
		t.Fatalf("first recording: expected 1 event, got %d", len(first.Events))
	}
	second := recv(t, ch)
	if len(second.Events) != 2 {
		t.Fatalf("second recording: expected 2 events, got %d", len(second.Events))
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 polls, got %d", calls.Load())
	}

	cancel()
	for range ch {
	}
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed early")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recording")
	}
	var zero T
	return zero
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, target, want string
	}{
		{"", "https://a/x.json", "https://a/x.json"},
		{"https://a/", "x.json", "https://a/x.json"},
		{"https://a", "/x.json", "https://a/x.json"},
		{"https://a/r.json", "https://a/r.json", "https://a/r.json"},
		{"https://a", "http://b/y.json", "http://b/y.json"},
	}
	for _, tt := range tests {
		if got := resolve(tt.base, tt.target); got != tt.want {
			t.Errorf("resolve(%q, %q) = %q, want %q", tt.base, tt.target, got, tt.want)
		}
	}
}
