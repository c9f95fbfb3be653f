package server

import (
	"testing"

	"psymcp/internal/config"
	"psymcp/internal/engine"
)

func TestNew(t *testing.T) {
	cfg := config.Default()
	eng := engine.New(cfg, nil)

	srv, err := New(eng, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestErrorResult(t *testing.T) {
	res := errorResult("boom")
	if !res.IsError {
		t.Error("IsError not set")
	}
	if len(res.Content) != 1 {
		t.Fatalf("content items = %d, want 1", len(res.Content))
	}
}

func TestReadingResourcesCoverAllArtifacts(t *testing.T) {
	want := map[string]bool{
		"interpretation.md": true,
		"structure.json":    true,
		"profile.json":      true,
		"motifs.json":       true,
		"tensions.json":     true,
		"reading.meta.json": true,
	}
	for _, res := range readingResources {
		if !want[res.artifact] {
			t.Errorf("unexpected resource artifact %s", res.artifact)
		}
		delete(want, res.artifact)
	}
	for name := range want {
		t.Errorf("no resource registered for %s", name)
	}
}
