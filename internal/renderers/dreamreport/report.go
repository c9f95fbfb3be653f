// Package dreamreport renders the analysis result as a markdown dream
// interpretation: archetypes, motifs, tensions, and a psychological
// profile of the codebase.
package dreamreport

import (
	"context"
	"fmt"
	"strings"

	"psymcp/internal/analysis"
	"psymcp/internal/ontology"
)

// barWidth is the number of cells in a strength bar.
const barWidth = 10

// DreamReportRenderer produces the interpretation.md artifact.
type DreamReportRenderer struct{}

// New creates a new DreamReportRenderer.
func New() *DreamReportRenderer {
	return &DreamReportRenderer{}
}

func (r *DreamReportRenderer) Name() string {
	return "dream_report"
}

// Render produces the full markdown interpretation.
func (r *DreamReportRenderer) Render(ctx context.Context, result *analysis.Result) ([]analysis.Artifact, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Dream Interpretation: %s\n\n", result.Meta.RepoPath))
	sb.WriteString("*What follows is a symbolic reading of the codebase, treating its structures as a dream to be interpreted rather than a machine to be judged.*\n\n")

	r.renderOverview(&sb, result)
	r.renderArchetypes(&sb, result)
	r.renderMotifs(&sb, result)
	r.renderTensions(&sb, result)
	r.renderProfile(&sb, result)
	r.renderResolutions(&sb, result)

	sb.WriteString("---\n\n")
	sb.WriteString("*The code dreams on. Every commit is another night, every refactor an attempt at integration. The patterns described here are not verdicts; they are invitations to notice.*\n")

	return []analysis.Artifact{{
		Name:    "interpretation.md",
		Type:    "markdown",
		Content: sb.String(),
	}}, nil
}

func (r *DreamReportRenderer) renderOverview(sb *strings.Builder, result *analysis.Result) {
	s := result.Structure
	sb.WriteString("## The Dreamer\n\n")
	sb.WriteString(fmt.Sprintf("The subject presents as %d files containing %d functions and %d classes across %d lines.\n\n",
		s.FileCount, s.FunctionCount, s.ClassCount, s.TotalLines))
}

func (r *DreamReportRenderer) renderArchetypes(sb *strings.Builder, result *analysis.Result) {
	profile := result.Profile
	sb.WriteString("## The Archetypes\n\n")

	if len(profile.DominantArchetypes) == 0 {
		sb.WriteString("*No archetypes emerged from this reading. The code keeps its own counsel.*\n\n")
		return
	}

	for _, match := range profile.DominantArchetypes {
		sb.WriteString(fmt.Sprintf("### %s\n\n", displayName(string(match.Archetype))))
		sb.WriteString(fmt.Sprintf("Strength: `%s` %.0f%%\n\n", strengthBar(match.Strength), match.Strength*100))
		sb.WriteString(ontology.Describe(match.Archetype) + "\n\n")
		if len(match.Evidence) > 0 {
			sb.WriteString("Evidence:\n")
			for _, ev := range match.Evidence {
				sb.WriteString(fmt.Sprintf("- %s\n", ev))
			}
			sb.WriteString("\n")
		}
	}

	if len(profile.SecondaryArchetypes) > 0 {
		sb.WriteString("### In the Background\n\n")
		for _, match := range profile.SecondaryArchetypes {
			sb.WriteString(fmt.Sprintf("- **%s** (%.0f%%)\n", displayName(string(match.Archetype)), match.Strength*100))
		}
		sb.WriteString("\n")
	}
}

func (r *DreamReportRenderer) renderMotifs(sb *strings.Builder, result *analysis.Result) {
	motifs := result.Motifs
	sb.WriteString("## Recurring Motifs\n\n")

	if len(motifs.Motifs) == 0 {
		sb.WriteString("*No recurring motifs were detected.*\n\n")
		return
	}

	for _, m := range motifs.Motifs {
		sb.WriteString(fmt.Sprintf("### %s\n\n", m.Name))
		sb.WriteString(fmt.Sprintf("Intensity: `%s` (%d occurrences, %s)\n\n",
			strengthBar(m.Intensity), m.Occurrences, m.PatternType))
		sb.WriteString(m.SymbolicMeaning + "\n\n")
	}

	sb.WriteString(fmt.Sprintf("The code's rhythm signature is **%s**.\n\n", motifs.RhythmSignature))
}

func (r *DreamReportRenderer) renderTensions(sb *strings.Builder, result *analysis.Result) {
	tensions := result.Tensions
	sb.WriteString("## Inner Tensions\n\n")

	if len(tensions.Tensions) == 0 {
		sb.WriteString("*No internal tensions surfaced. The code is at peace with itself, or hides its conflicts well.*\n\n")
		return
	}

	sb.WriteString(fmt.Sprintf("Overall tension level: `%s` %.0f%%\n\n",
		strengthBar(tensions.OverallTensionLevel), tensions.OverallTensionLevel*100))

	for _, t := range tensions.Tensions {
		sb.WriteString(fmt.Sprintf("### %s\n\n", t.Name))
		sb.WriteString(fmt.Sprintf("*%s, severity %.0f%%*\n\n", displayName(string(t.TensionType)), t.Severity*100))
		sb.WriteString(t.Description + "\n\n")
		sb.WriteString(t.SymbolicInterpretation + "\n\n")
	}
}

func (r *DreamReportRenderer) renderProfile(sb *strings.Builder, result *analysis.Result) {
	profile := result.Profile
	sb.WriteString("## Psychological Profile\n\n")

	if len(profile.BehavioralTraits) > 0 {
		sb.WriteString("Behavioral traits: ")
		sb.WriteString(strings.Join(profile.BehavioralTraits, ", "))
		sb.WriteString(".\n\n")
	}

	if len(profile.NamingThemes) > 0 {
		sb.WriteString("Dominant naming themes:\n\n")
		for _, theme := range profile.NamingThemes {
			sb.WriteString(fmt.Sprintf("- `%s` (%d)\n", theme.Token, theme.Count))
		}
		sb.WriteString("\n")
	}
}

func (r *DreamReportRenderer) renderResolutions(sb *strings.Builder, result *analysis.Result) {
	suggestions := result.Tensions.ResolutionSuggestions
	if len(suggestions) == 0 {
		return
	}
	sb.WriteString("## Paths Toward Resolution\n\n")
	for _, s := range suggestions {
		sb.WriteString(fmt.Sprintf("- %s\n", s))
	}
	sb.WriteString("\n")
}

// strengthBar renders a value in [0, 1] as a ten-cell bar.
func strengthBar(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v * barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// displayName turns an identifier like "anxious_caretaker" into
// "Anxious Caretaker".
func displayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
