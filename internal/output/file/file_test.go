package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crimson-sun/cronica/internal/model"
	"github.com/crimson-sun/cronica/internal/output"
)

func testReport(id string) model.Report {
	return model.Report{
		SessionID:   id,
		GeneratedAt: time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC),
		Counts:      model.Counts{Total: 1},
		Events: []model.Event{{
			RawEvent: model.RawEvent{ID: "event-0", EventType: "symptom", Details: "fiebre"},
			Related:  []string{},
		}},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestWriteProducesValidNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")
	out, err := New(path, output.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := out.Write(context.Background(), testReport("sess-1")); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	out.Close()

	lines := readLines(t, path)
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	for i, line := range lines {
		var r model.Report
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Errorf("line %d: invalid JSON: %v", i, err)
		}
		if r.SessionID != "sess-1" {
			t.Errorf("line %d: session = %q, want sess-1", i, r.SessionID)
		}
	}
}

func TestAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := New(path, output.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	out.Write(context.Background(), testReport("s"))
	out.Close()

	if got := len(readLines(t, path)); got != 2 {
		t.Fatalf("got %d lines, want 2", got)
	}
}

func TestRotationTriggersAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports.jsonl")

	// Each line is well over 100 bytes, so every report after the first rotates.
	out, err := New(path, output.Standard, WithMaxSize(100), WithMaxBackups(2))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := out.Write(context.Background(), testReport("sess")); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	out.Close()

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if got := len(readLines(t, p)); got != 1 {
			t.Errorf("%s: got %d lines, want 1", filepath.Base(p), got)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("expected at most 2 backups")
	}
}

func TestFlushEach(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")
	out, err := New(path, output.Minimal, WithFlushEach())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer out.Close()

	out.Write(context.Background(), testReport("live"))
	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected report on disk before Close, got %d lines", len(lines))
	}
	if strings.Contains(lines[0], "fiebre") {
		t.Fatal("minimal verbosity should strip details")
	}
}

func TestConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")
	out, err := New(path, output.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				out.Write(context.Background(), testReport("c"))
			}
		}()
	}
	wg.Wait()
	out.Close()

	lines := readLines(t, path)
	if len(lines) != 100 {
		t.Fatalf("got %d lines, want 100", len(lines))
	}
	for i, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Fatalf("line %d is not valid JSON", i)
		}
	}
}

func TestNewBadPath(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing", "dir", "out.jsonl"), output.Standard); err == nil {
		t.Fatal("expected error for unopenable path")
	}
}
