package store

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/roach88/shaderidx/internal/capture"
	"github.com/roach88/shaderidx/internal/index"
)

// createTestStore opens a fresh database in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecords() []index.Record {
	return []index.Record{
		{ID: "A", Stage: capture.Pixel, File: "A.Pixel.dxbc", Events: []capture.EventID{5, 9}},
		{ID: "A", Stage: capture.Vertex, File: "A.Vertex.dxbc", Events: []capture.EventID{5}},
		{ID: "B", Stage: capture.Compute, File: "B.Compute.dxbc", Events: []capture.EventID{7}},
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"runs", "shaders", "shader_events"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	want := map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"user_version": strconv.Itoa(SchemaVersion()),
	}
	for name, expected := range want {
		got, err := s.pragma(name)
		if err != nil {
			t.Fatalf("pragma(%s) failed: %v", name, err)
		}
		if got != expected {
			t.Errorf("%s = %q, want %q", name, got, expected)
		}
	}

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_shader_events_event'").Scan(&name)
	if err != nil {
		t.Errorf("migration index missing: %v", err)
	}
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := Run{
		Source:         "frame.rdc",
		API:            capture.D3D11,
		Range:          capture.Range{Enabled: true, Start: 5, End: 9},
		SelectedEvents: 3,
	}
	id, err := s.WriteRun(ctx, run, testRecords())
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if id == "" {
		t.Fatal("WriteRun() returned empty run id")
	}

	got, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}
	if got.ID != id || got.Source != "frame.rdc" || got.API != capture.D3D11 {
		t.Errorf("LatestRun() = %+v", got)
	}
	if got.Range != run.Range {
		t.Errorf("Range = %+v, want %+v", got.Range, run.Range)
	}
	if got.ShaderCount != 3 || got.SelectedEvents != 3 {
		t.Errorf("counts = (%d shaders, %d events), want (3, 3)", got.ShaderCount, got.SelectedEvents)
	}
}

func TestLatestRun_Empty(t *testing.T) {
	s := createTestStore(t)
	if _, err := s.LatestRun(context.Background()); err != ErrNoRun {
		t.Errorf("LatestRun() error = %v, want ErrNoRun", err)
	}
}

func TestReset_RemovesEverything(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.WriteRun(ctx, Run{Source: "a", API: capture.D3D11}, testRecords()); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	for _, table := range []string{"runs", "shaders", "shader_events"} {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s has %d rows after Reset", table, count)
		}
	}
}
