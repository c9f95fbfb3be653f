package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"psymcp/internal/config"
	"psymcp/internal/extractors/pyextractor"
	"psymcp/internal/extractors/tsextractor"
	"psymcp/internal/renderers/dreamreport"
)

func newTestEngine() *Engine {
	eng := New(config.Default(), nil)
	eng.RegisterExtractor(pyextractor.New())
	eng.RegisterRenderer(dreamreport.New())
	return eng
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAnalyzeMissingRepo(t *testing.T) {
	eng := newTestEngine()
	_, err := eng.Analyze(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrRepoNotFound) {
		t.Errorf("err = %v, want ErrRepoNotFound", err)
	}
}

func TestAnalyzeEmptyRepo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# nothing analyzable here")

	eng := newTestEngine()
	_, err := eng.Analyze(context.Background(), dir)
	if !errors.Is(err, ErrNoSourceFiles) {
		t.Errorf("err = %v, want ErrNoSourceFiles", err)
	}
}

func TestAnalyzeSkipsExcludedDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", "def get_user(uid):\n    return uid\n")
	writeFile(t, dir, "venv/lib/junk.py", "def ignored():\n    return 1\n")
	writeFile(t, dir, "__pycache__/cached.py", "def also_ignored():\n    return 1\n")
	writeFile(t, dir, "generated/skipme.py", "def custom_excluded():\n    return 1\n")

	cfg := config.Default()
	cfg.Exclude = []string{"generated"}
	eng := New(cfg, nil)
	eng.RegisterExtractor(pyextractor.New())

	result, err := eng.Analyze(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if result.Structure.FunctionCount != 1 {
		t.Errorf("FunctionCount = %d, want 1 (excluded dirs must be skipped)", result.Structure.FunctionCount)
	}
	if result.Structure.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", result.Structure.FileCount)
	}
}

func TestFileCountSkipsDisabledExtractors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", "def get_user(uid):\n    return uid\n")
	writeFile(t, dir, "web.ts", "function get_token(id: string) {\n  return id;\n}\n")

	cfg := config.Default()
	cfg.Extractors = []string{"python"}
	eng := New(cfg, nil)
	eng.RegisterExtractor(pyextractor.New())
	eng.RegisterExtractor(tsextractor.New())

	result, err := eng.Analyze(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if result.Structure.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1; files of disabled extractors are never fed in", result.Structure.FileCount)
	}
	if result.Structure.FunctionCount != 1 {
		t.Errorf("FunctionCount = %d, want 1", result.Structure.FunctionCount)
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guards.py", `
def validate_user(user):
    if user is None:
        return None
    return user

def validate_token(token):
    if token is None:
        return None
    return token

def validate_session(session):
    if session is None:
        return None
    return session
`)
	writeFile(t, dir, "handlers.py", `
def run():
    try:
        work()
    except Exception:
        pass
    try:
        more()
    except ValueError:
        pass
`)
	writeFile(t, dir, "broken.py", "def oops(:\n")

	eng := newTestEngine()
	result, err := eng.Analyze(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	if result.Meta.FilesAnalyzed != 2 {
		t.Errorf("FilesAnalyzed = %d, want 2", result.Meta.FilesAnalyzed)
	}
	if result.Meta.FilesSkipped != 1 {
		t.Errorf("FilesSkipped = %d, want 1 (unparsable file)", result.Meta.FilesSkipped)
	}
	if result.Structure.FileCount != 3 {
		t.Errorf("FileCount = %d, want 3 eligible files", result.Structure.FileCount)
	}
	if result.Structure.FunctionCount != 4 {
		t.Errorf("FunctionCount = %d, want 4", result.Structure.FunctionCount)
	}
	if len(result.Structure.GuardClauses) != 3 {
		t.Errorf("guards = %d, want 3", len(result.Structure.GuardClauses))
	}
	if len(result.Structure.ErrorHandlers) != 2 {
		t.Errorf("handlers = %d, want 2", len(result.Structure.ErrorHandlers))
	}

	if result.Profile == nil || len(result.Profile.DominantArchetypes) == 0 {
		t.Fatal("expected a classified profile")
	}
	if result.Motifs == nil || result.Motifs.RhythmSignature == "" {
		t.Error("expected a motif analysis with a rhythm signature")
	}
	if result.Tensions == nil {
		t.Error("expected a tension analysis")
	}

	wantArtifacts := []string{
		"interpretation.md",
		"structure.json",
		"profile.json",
		"motifs.json",
		"tensions.json",
		"reading.meta.json",
	}
	for _, name := range wantArtifacts {
		if _, ok := result.Artifact(name); !ok {
			t.Errorf("missing artifact %s", name)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def get_a():\n    return 1\n")
	writeFile(t, dir, "b.py", "def get_b():\n    return 2\n")
	writeFile(t, dir, "c.py", "def get_c():\n    return 3\n")

	eng := newTestEngine()
	first, err := eng.Analyze(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	firstReport, _ := first.Artifact("interpretation.md")

	for range 3 {
		again, err := eng.Analyze(context.Background(), dir)
		if err != nil {
			t.Fatal(err)
		}
		report, _ := again.Artifact("interpretation.md")
		if report.Content != firstReport.Content {
			t.Fatal("repeated runs over the same tree produced different reports")
		}
	}
}

func TestWriteAndGetArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.py", "def handle_thing(x):\n    return x\n")

	eng := newTestEngine()
	if _, err := eng.Analyze(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	if err := eng.WriteArtifacts(dir); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, eng.Config().Output.Dir, "interpretation.md")
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading written artifact: %v", err)
	}
	if len(data) == 0 {
		t.Error("written report is empty")
	}

	content, err := eng.GetArtifact("interpretation.md")
	if err != nil {
		t.Fatal(err)
	}
	if content != string(data) {
		t.Error("GetArtifact content differs from the written file")
	}

	if _, err := eng.GetArtifact("missing.txt"); err == nil {
		t.Error("expected an error for an unknown artifact")
	}
}

func TestGetArtifactBeforeAnalyze(t *testing.T) {
	eng := newTestEngine()
	if _, err := eng.GetArtifact("interpretation.md"); err == nil {
		t.Error("expected an error before any analysis ran")
	}
	if err := eng.WriteArtifacts(t.TempDir()); err == nil {
		t.Error("expected an error writing artifacts before any analysis ran")
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"empty", "", 0},
		{"single with newline", "a\n", 1},
		{"trailing line without newline", "a\nb", 2},
		{"three lines", "a\nb\nc\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countLines([]byte(tt.src)); got != tt.want {
				t.Errorf("countLines(%q) = %d, want %d", tt.src, got, tt.want)
			}
		})
	}
}
