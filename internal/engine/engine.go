// Package engine orchestrates the analysis pipeline: walk the repository,
// extract structural facts per file, classify the aggregate, and render
// the interpretation artifacts.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"psymcp/internal/analysis"
	"psymcp/internal/config"
	"psymcp/internal/extractors"
	"psymcp/internal/facts"
	"psymcp/internal/motifs"
	"psymcp/internal/ontology"
	"psymcp/internal/renderers"
	"psymcp/internal/tensions"
)

// Fatal analysis errors.
var (
	ErrRepoNotFound  = errors.New("repository path does not exist")
	ErrNoSourceFiles = errors.New("no source files found in repository")
)

// excludedDirs are directory names always skipped during the walk,
// matched against individual path components.
var excludedDirs = map[string]bool{
	"venv":         true,
	".venv":        true,
	"env":          true,
	".env":         true,
	"node_modules": true,
	"__pycache__":  true,
	".git":         true,
	".tox":         true,
	"dist":         true,
	"build":        true,
	"egg-info":     true,
	".eggs":        true,
}

// Engine orchestrates the analysis pipeline.
type Engine struct {
	cfg        *config.Config
	extractors *extractors.Registry
	renderers  *renderers.Registry
	result     *analysis.Result
	log        *zap.Logger
}

// New creates a new Engine with the given config and logger.
// Extractors and renderers must be registered after creation.
func New(cfg *config.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		extractors: extractors.NewRegistry(),
		renderers:  renderers.NewRegistry(),
		log:        logger,
	}
}

// RegisterExtractor adds an extractor to the engine.
func (e *Engine) RegisterExtractor(ext extractors.Extractor) {
	e.extractors.Register(ext)
}

// RegisterRenderer adds a renderer to the engine.
func (e *Engine) RegisterRenderer(rnd renderers.Renderer) {
	e.renderers.Register(rnd)
}

// Result returns the last analysis result, or nil.
func (e *Engine) Result() *analysis.Result {
	return e.result
}

// Config returns the engine config.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Analyze runs the full pipeline: walk -> extract -> classify -> render.
func (e *Engine) Analyze(ctx context.Context, repoPath string) (*analysis.Result, error) {
	start := time.Now()

	if repoPath == "" {
		repoPath = e.cfg.Repo
	}

	absRepo, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}

	info, err := os.Stat(absRepo)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, absRepo)
	}

	files, err := e.walkRepo(absRepo)
	if err != nil {
		return nil, fmt.Errorf("walking repo: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSourceFiles, absRepo)
	}
	e.log.Info("collected source files", zap.Int("count", len(files)), zap.String("repo", absRepo))

	structure := facts.NewCodeStructure()

	analyzed, skipped := 0, 0
	extractorsUsed := make(map[string]bool)

	for _, relFile := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ext := e.extractors.ForFile(relFile)
		if ext == nil || !e.cfg.IsExtractorEnabled(ext.Name()) {
			continue
		}

		// Only files actually handed to an extractor count, whether or
		// not they parse.
		structure.FileCount++

		src, err := os.ReadFile(filepath.Join(absRepo, relFile))
		if err != nil {
			e.log.Debug("skipping unreadable file", zap.String("file", relFile), zap.Error(err))
			skipped++
			continue
		}

		ff, err := ext.ExtractFile(src, relFile)
		if err != nil || ff == nil {
			e.log.Debug("skipping unparsable file", zap.String("file", relFile))
			skipped++
			continue
		}

		structure.Merge(ff)
		structure.TotalLines += countLines(src)
		analyzed++
		extractorsUsed[ext.Name()] = true
	}

	e.log.Info("extraction complete",
		zap.Int("analyzed", analyzed),
		zap.Int("skipped", skipped),
		zap.Int("functions", structure.FunctionCount),
		zap.Int("classes", structure.ClassCount))

	profile := ontology.Classify(structure)
	motifAnalysis := motifs.Detect(structure)
	tensionAnalysis := tensions.Detect(structure)

	result := &analysis.Result{
		Meta: analysis.Meta{
			RepoPath:       absRepo,
			GeneratedAt:    time.Now().UTC(),
			Extractors:     sortedKeys(extractorsUsed),
			FilesAnalyzed:  analyzed,
			FilesSkipped:   skipped,
			ArchetypeCount: len(profile.DominantArchetypes) + len(profile.SecondaryArchetypes),
			MotifCount:     len(motifAnalysis.Motifs),
			TensionCount:   len(tensionAnalysis.Tensions),
		},
		Structure: structure,
		Profile:   profile,
		Motifs:    motifAnalysis,
		Tensions:  tensionAnalysis,
	}

	usedRenderers, err := e.runRenderers(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("rendering: %w", err)
	}
	result.Meta.Renderers = usedRenderers

	if err := e.attachJSONArtifacts(result); err != nil {
		return nil, fmt.Errorf("encoding artifacts: %w", err)
	}

	result.Meta.Duration = time.Since(start)
	e.result = result
	e.log.Info("analysis complete",
		zap.Duration("duration", result.Meta.Duration),
		zap.Int("archetypes", result.Meta.ArchetypeCount),
		zap.Int("motifs", result.Meta.MotifCount),
		zap.Int("tensions", result.Meta.TensionCount))
	return result, nil
}

// walkRepo collects all analyzable files in the repo, skipping excluded
// directories. Paths are relative to the repo root, slash-separated, and
// sorted by WalkDir's lexical order so runs are deterministic.
func (e *Engine) walkRepo(repoPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != repoPath && e.isExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(repoPath, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if e.extractors.ForFile(relPath) != nil {
			files = append(files, relPath)
		}
		return nil
	})
	return files, err
}

// isExcluded checks a single directory name against the built-in set and
// the configured extras.
func (e *Engine) isExcluded(name string) bool {
	if excludedDirs[name] {
		return true
	}
	for _, extra := range e.cfg.Exclude {
		if name == extra {
			return true
		}
	}
	return false
}

// runRenderers runs all enabled renderers and attaches their artifacts.
func (e *Engine) runRenderers(ctx context.Context, result *analysis.Result) ([]string, error) {
	var usedNames []string

	for _, rnd := range e.renderers.All() {
		if !e.cfg.IsRendererEnabled(rnd.Name()) {
			continue
		}

		artifacts, err := rnd.Render(ctx, result)
		if err != nil {
			e.log.Warn("renderer failed", zap.String("renderer", rnd.Name()), zap.Error(err))
			continue
		}

		result.Artifacts = append(result.Artifacts, artifacts...)
		usedNames = append(usedNames, rnd.Name())
	}

	return usedNames, nil
}

// attachJSONArtifacts adds the machine-readable views of the result.
func (e *Engine) attachJSONArtifacts(result *analysis.Result) error {
	parts := []struct {
		name string
		v    any
	}{
		{"structure.json", result.Structure},
		{"profile.json", result.Profile},
		{"motifs.json", result.Motifs},
		{"tensions.json", result.Tensions},
		{"reading.meta.json", result.Meta},
	}
	for _, p := range parts {
		data, err := marshalIndent(p.v)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", p.name, err)
		}
		result.Artifacts = append(result.Artifacts, analysis.Artifact{
			Name:    p.name,
			Type:    "json",
			Content: string(data),
		})
	}
	return nil
}

// WriteArtifacts writes all result artifacts to the output directory
// under the repo.
func (e *Engine) WriteArtifacts(repoPath string) error {
	if e.result == nil {
		return fmt.Errorf("no analysis result")
	}

	outDir := filepath.Join(repoPath, e.cfg.Output.Dir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	for _, a := range e.result.Artifacts {
		path := filepath.Join(outDir, a.Name)
		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", a.Name, err)
		}
		e.log.Info("wrote artifact", zap.String("path", path), zap.Int("bytes", len(a.Content)))
	}

	return nil
}

// GetArtifact returns the content of a named artifact.
func (e *Engine) GetArtifact(name string) (string, error) {
	if e.result == nil {
		return "", fmt.Errorf("no analysis result")
	}
	if a, ok := e.result.Artifact(name); ok {
		return a.Content, nil
	}
	return "", fmt.Errorf("artifact %q not found", name)
}

// countLines counts lines the way an editor does: a trailing line without
// a final newline still counts.
func countLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := bytes.Count(src, []byte{'\n'})
	if src[len(src)-1] != '\n' {
		n++
	}
	return n
}

func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
