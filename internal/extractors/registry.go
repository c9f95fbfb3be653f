// Package extractors defines the per-language fact extractor interface
// and the registry the analysis engine dispatches through.
package extractors

import (
	"psymcp/internal/facts"
)

// Extractor parses source files for one language and emits structural facts.
type Extractor interface {
	// Name returns the extractor identifier (e.g. "python", "typescript").
	Name() string
	// Matches returns true if this extractor handles the given file path.
	Matches(path string) bool
	// ExtractFile parses one source file and returns its facts. A nil
	// result with a nil error means the file could not be parsed and
	// should be skipped.
	ExtractFile(src []byte, path string) (*facts.FileFacts, error)
}

// Registry holds registered extractors.
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an extractor to the registry.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Get returns the extractor with the given name, or nil if not found.
func (r *Registry) Get(name string) Extractor {
	for _, e := range r.extractors {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// All returns all registered extractors.
func (r *Registry) All() []Extractor {
	return r.extractors
}

// ForFile returns the first extractor that handles the given file path,
// or nil when none does. Registration order decides ties.
func (r *Registry) ForFile(path string) Extractor {
	for _, e := range r.extractors {
		if e.Matches(path) {
			return e
		}
	}
	return nil
}
