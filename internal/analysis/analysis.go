// Package analysis defines the combined result of one analysis run. It
// sits below the engine and above the fact and classification packages so
// renderers and the server can consume results without importing either
// side of the pipeline.
package analysis

import (
	"time"

	"psymcp/internal/facts"
	"psymcp/internal/motifs"
	"psymcp/internal/ontology"
	"psymcp/internal/tensions"
)

// Meta records how and when a result was produced.
type Meta struct {
	RepoPath       string        `json:"repo_path"`
	GeneratedAt    time.Time     `json:"generated_at"`
	Duration       time.Duration `json:"duration"`
	Extractors     []string      `json:"extractors"`
	Renderers      []string      `json:"renderers"`
	FilesAnalyzed  int           `json:"files_analyzed"`
	FilesSkipped   int           `json:"files_skipped"`
	ArchetypeCount int           `json:"archetype_count"`
	MotifCount     int           `json:"motif_count"`
	TensionCount   int           `json:"tension_count"`
}

// Artifact is one rendered output, named by its file name.
type Artifact struct {
	Name    string `json:"name"`
	Type    string `json:"type"` // "markdown" or "json"
	Content string `json:"content"`
}

// Result is everything one analysis run produces.
type Result struct {
	Meta      Meta                      `json:"meta"`
	Structure *facts.CodeStructure      `json:"structure"`
	Profile   *ontology.SymbolicProfile `json:"profile"`
	Motifs    *motifs.Analysis          `json:"motifs"`
	Tensions  *tensions.Analysis        `json:"tensions"`
	Artifacts []Artifact                `json:"-"`
}

// Artifact returns the named artifact, or false when absent.
func (r *Result) Artifact(name string) (Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}
