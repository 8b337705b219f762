package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crimson-sun/recap/internal/connector"
	"github.com/crimson-sun/recap/internal/model"
)

const sample = `[{"type":0,"timestamp":100},{"type":1,"timestamp":250}]`

func writeAtomic(t *testing.T, dir, name, content string) {
	t.Helper()
	tmp := filepath.Join(dir, "."+name+".part")
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		t.Fatal(err)
	}
}

func recv(t *testing.T, ch <-chan model.Recording) model.Recording {
	t.Helper()
	select {
	case rec, ok := <-ch:
		if !ok {
			t.Fatal("channel closed early")
		}
		return rec
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for recording")
	}
	return model.Recording{}
}

func TestRegistered(t *testing.T) {
	if _, err := connector.Get("watch"); err != nil {
		t.Fatalf("watch connector not registered: %v", err)
	}
}

func TestStreamNewFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &Connector{}
	cfg := connector.ConnectorConfig{Endpoint: dir, Extra: map[string]string{"debounce": "20ms"}}
	ch, err := c.Stream(ctx, cfg)
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	writeAtomic(t, dir, "first.json", sample)
	rec := recv(t, ch)
	if filepath.Base(rec.Source) != "first.json" || len(rec.Events) != 2 {
		t.Fatalf("unexpected recording %s with %d events", rec.Source, len(rec.Events))
	}

	// Ignored: not a recording.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeAtomic(t, dir, "second.json", sample)
	rec = recv(t, ch)
	if filepath.Base(rec.Source) != "second.json" {
		t.Fatalf("unexpected recording %s", rec.Source)
	}

	cancel()
	for range ch {
	}
}

func TestStreamExisting(t *testing.T) {
	dir := t.TempDir()
	writeAtomic(t, dir, "old.json", sample)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &Connector{}
	cfg := connector.ConnectorConfig{Endpoint: dir, Extra: map[string]string{"existing": "true"}}
	ch, err := c.Stream(ctx, cfg)
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	if rec := recv(t, ch); filepath.Base(rec.Source) != "old.json" {
		t.Fatalf("unexpected recording %s", rec.Source)
	}
	cancel()
	for range ch {
	}
}

func TestStreamMissingDir(t *testing.T) {
	c := &Connector{}
	_, err := c.Stream(context.Background(), connector.ConnectorConfig{Endpoint: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if _, err := c.Stream(context.Background(), connector.ConnectorConfig{}); err == nil {
		t.Fatal("expected error without directory")
	}
}

func TestQuery(t *testing.T) {
	dir := t.TempDir()
	writeAtomic(t, dir, "a.json", sample)
	writeAtomic(t, dir, "b.json", sample)

	c := &Connector{}
	recs, err := c.Query(context.Background(), connector.ConnectorConfig{Endpoint: dir}, connector.QueryParams{Limit: 1})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(recs) != 1 || filepath.Base(recs[0].Source) != "a.json" {
		t.Fatalf("unexpected recordings %+v", recs)
	}
}
