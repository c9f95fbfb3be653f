// Package tensions surfaces internal conflicts in an aggregate fact set:
// contradictions between stated caution and actual behavior, abandoned
// intentions, over-engineering, and under-engineering.
package tensions

import (
	"fmt"
	"sort"
	"strings"

	"psymcp/internal/facts"
)

// TensionType classifies a detected tension.
type TensionType string

const (
	TypeContradiction    TensionType = "contradiction"
	TypeAbandonment      TensionType = "abandonment"
	TypeOverEngineering  TensionType = "over_engineering"
	TypeUnderEngineering TensionType = "under_engineering"
)

// maxResolutions caps the resolution suggestions in one analysis.
const maxResolutions = 5

// Tension is one detected internal conflict.
type Tension struct {
	Name                   string           `json:"name"`
	TensionType            TensionType      `json:"tension_type"`
	Description            string           `json:"description"`
	SymbolicInterpretation string           `json:"symbolic_interpretation"`
	Severity               float64          `json:"severity"` // 0.0 to 1.0
	Locations              []facts.Location `json:"locations,omitempty"`
}

// Analysis is the complete tension detection result.
type Analysis struct {
	Tensions              []Tension `json:"tensions"`
	OverallTensionLevel   float64   `json:"overall_tension_level"`
	PrimaryConflict       string    `json:"primary_conflict,omitempty"`
	ResolutionSuggestions []string  `json:"resolution_suggestions,omitempty"`
}

// wipMarkers are name fragments that signal unfinished work.
var wipMarkers = []string{"todo", "fixme", "hack", "temp", "tmp", "test_", "debug"}

// resolutionTemplates maps tension types to a suggestion template filled
// with the tension's name.
var resolutionTemplates = map[TensionType]string{
	TypeContradiction:    "The '%s' calls for integration: reconciling opposing impulses into one coherent intention.",
	TypeAbandonment:      "The '%s' speaks of unfinished business: commitments waiting to be honored or consciously released.",
	TypeOverEngineering:  "The '%s' suggests learning to trust: releasing some armor and allowing vulnerability.",
	TypeUnderEngineering: "The '%s' invites greater care: building structures that can support future growth.",
}

// Detect runs the full tension detection over an aggregate fact set.
func Detect(structure *facts.CodeStructure) *Analysis {
	var all []Tension
	all = append(all, detectContradictions(structure)...)
	all = append(all, detectAbandonment(structure)...)
	all = append(all, detectOverEngineering(structure)...)
	all = append(all, detectUnderEngineering(structure)...)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Severity > all[j].Severity
	})

	analysis := &Analysis{Tensions: all}
	if len(all) == 0 {
		return analysis
	}

	sum := 0.0
	for _, t := range all {
		sum += t.Severity
	}
	analysis.OverallTensionLevel = sum / float64(len(all))
	analysis.PrimaryConflict = all[0].Name

	// One suggestion per tension, highest severity first.
	for _, t := range all {
		if len(analysis.ResolutionSuggestions) == maxResolutions {
			break
		}
		analysis.ResolutionSuggestions = append(analysis.ResolutionSuggestions,
			fmt.Sprintf(resolutionTemplates[t.TensionType], t.Name))
	}

	return analysis
}

func detectContradictions(s *facts.CodeStructure) []Tension {
	var tensions []Tension

	// Guards everything coming in, then swallows errors going out.
	guards := len(s.GuardClauses)
	suppressed := s.HandlerActionCounts()[facts.ActionSuppress]
	if guards > 5 && suppressed > 3 {
		tensions = append(tensions, Tension{
			Name:                   "The Guardian Who Closes Their Eyes",
			TensionType:            TypeContradiction,
			Description:            "The code guards its inputs carefully yet suppresses the errors it encounters.",
			SymbolicInterpretation: "A contradiction between vigilance and denial: the code watches the gates intently but refuses to see what goes wrong inside. It protects the boundary while ignoring the interior.",
			Severity:               clamp(float64(guards+suppressed) / 20.0),
			Locations:              guardLocations(s.GuardClauses, 3),
		})
	}

	// Checks types obsessively, then catches everything indiscriminately.
	defensive := len(s.DefensivePatterns)
	catchAll := s.CatchAllCount()
	if defensive > 10 && catchAll > 3 {
		tensions = append(tensions, Tension{
			Name:                   "The Precise Imprecision",
			TensionType:            TypeContradiction,
			Description:            "The code validates types and values precisely yet catches exceptions indiscriminately.",
			SymbolicInterpretation: "A split personality: exacting about what enters, careless about what fails. The code demands precision at the door but accepts chaos in the aftermath.",
			Severity:               clamp(float64(defensive+catchAll) / 25.0),
			Locations:              defenseLocations(s.DefensivePatterns, 3),
		})
	}

	// Nominally object-oriented, actually a pile of functions.
	if s.FunctionCount > 0 && s.ClassCount > 0 {
		ratio := float64(s.FunctionCount) / float64(s.ClassCount)
		if ratio > 20 {
			tensions = append(tensions, Tension{
				Name:                   "The Overburdened Classes",
				TensionType:            TypeContradiction,
				Description:            "The code declares classes yet piles dozens of functions onto each one.",
				SymbolicInterpretation: "A gesture toward structure without commitment: the classes exist as names, but the real organization happened elsewhere. The form contradicts the substance.",
				Severity:               clamp(ratio / 50.0),
			})
		}
	}

	return tensions
}

func detectAbandonment(s *facts.CodeStructure) []Tension {
	var tensions []Tension

	var wip []facts.NamingPattern
	for _, p := range s.NamingPatterns {
		lower := strings.ToLower(p.Name)
		for _, marker := range wipMarkers {
			if strings.Contains(lower, marker) {
				wip = append(wip, p)
				break
			}
		}
	}
	if len(wip) >= 3 {
		tensions = append(tensions, Tension{
			Name:                   "The Unfinished Symphony",
			TensionType:            TypeAbandonment,
			Description:            "Names marked as temporary, debug, or to-do persist throughout the code.",
			SymbolicInterpretation: "Intentions declared and then deserted: each marker was a promise to return, and the accumulation of promises reveals a pattern of walking away.",
			Severity:               clamp(float64(len(wip)) / 10.0),
			Locations:              namingLocations(wip, 5),
		})
	}

	suppressed := s.HandlerActionCounts()[facts.ActionSuppress]
	if suppressed >= 3 {
		var locs []facts.Location
		for _, h := range s.ErrorHandlers {
			if h.Action == facts.ActionSuppress && len(locs) < 5 {
				locs = append(locs, facts.Location{File: h.File, Line: h.Line})
			}
		}
		tensions = append(tensions, Tension{
			Name:                   "The Unspoken Failures",
			TensionType:            TypeAbandonment,
			Description:            "Errors are repeatedly caught and discarded without response.",
			SymbolicInterpretation: "Each silent except block is a small abandonment: a failure acknowledged just long enough to be buried. The code has given up on these paths without admitting it.",
			Severity:               clamp(float64(suppressed) / 8.0),
			Locations:              locs,
		})
	}

	return tensions
}

func detectOverEngineering(s *facts.CodeStructure) []Tension {
	var tensions []Tension

	if s.FunctionCount > 0 {
		if r := s.DefensiveRatio(); r > 1.0 {
			tensions = append(tensions, Tension{
				Name:                   "The Fortress of Paranoia",
				TensionType:            TypeOverEngineering,
				Description:            "Defensive checks outnumber the functions they protect.",
				SymbolicInterpretation: "Protection beyond any proportionate threat: the code has built walls so thick that the fortress itself becomes the burden. Fear has displaced function.",
				Severity:               clamp(r / 2.0),
				Locations:              defenseLocations(s.DefensivePatterns, 5),
			})
		}

		if r := s.HandlerRatio(); r > 0.8 {
			tensions = append(tensions, Tension{
				Name:                   "The Fear of Failure",
				TensionType:            TypeOverEngineering,
				Description:            "Nearly every function wraps its work in error handling.",
				SymbolicInterpretation: "An inability to act without a safety net: the code cannot take a single step without preparing for a fall. Anticipation of failure has become the dominant activity.",
				Severity:               clamp(r),
				Locations:              handlerLocations(s.ErrorHandlers, 5),
			})
		}
	}

	deep := 0
	for _, d := range s.NestingDepths {
		if d > 5 {
			deep++
		}
	}
	if deep > 3 {
		tensions = append(tensions, Tension{
			Name:                   "The Endless Descent",
			TensionType:            TypeOverEngineering,
			Description:            "Multiple functions nest their logic more than five levels deep.",
			SymbolicInterpretation: "Complexity compounding upon itself: each level of nesting was a small decision, and together they form passages no one intended to dig. The depth serves the code, not the reader.",
			Severity:               clamp(float64(deep) / 10.0),
		})
	}

	return tensions
}

func detectUnderEngineering(s *facts.CodeStructure) []Tension {
	var tensions []Tension

	if s.FunctionCount > 10 && len(s.ErrorHandlers) < 2 {
		tensions = append(tensions, Tension{
			Name:                   "The Optimistic Ignorance",
			TensionType:            TypeUnderEngineering,
			Description:            "Many functions, almost no error handling.",
			SymbolicInterpretation: "A refusal to imagine failure: the code proceeds as though nothing can go wrong, and its optimism is indistinguishable from denial.",
			Severity:               0.6,
		})
	}

	if s.FunctionCount > 10 && len(s.DefensivePatterns) < 3 {
		tensions = append(tensions, Tension{
			Name:                   "The Open Door Policy",
			TensionType:            TypeUnderEngineering,
			Description:            "Inputs flow in unexamined; almost nothing is validated.",
			SymbolicInterpretation: "Trust extended without verification: every caller is believed, every value accepted. The openness is generous and dangerous in equal measure.",
			Severity:               0.5,
		})
	}

	if s.FunctionCount > 20 && s.ClassCount == 0 {
		tensions = append(tensions, Tension{
			Name:                   "The Flat World",
			TensionType:            TypeUnderEngineering,
			Description:            "Dozens of functions with no organizing structure above them.",
			SymbolicInterpretation: "A landscape without landmarks: everything exists on the same plane, and nothing gathers related things together. The flatness resists navigation as surely as depth does.",
			Severity:               0.4,
		})
	}

	return tensions
}

func guardLocations(guards []facts.GuardClause, limit int) []facts.Location {
	var locs []facts.Location
	for _, g := range guards {
		if len(locs) == limit {
			break
		}
		locs = append(locs, facts.Location{File: g.File, Line: g.Line})
	}
	return locs
}

func namingLocations(patterns []facts.NamingPattern, limit int) []facts.Location {
	var locs []facts.Location
	for _, p := range patterns {
		if len(locs) == limit {
			break
		}
		locs = append(locs, facts.Location{File: p.File, Line: p.Line})
	}
	return locs
}

func defenseLocations(patterns []facts.DefensivePattern, limit int) []facts.Location {
	var locs []facts.Location
	for _, p := range patterns {
		if len(locs) == limit {
			break
		}
		locs = append(locs, facts.Location{File: p.File, Line: p.Line})
	}
	return locs
}

func handlerLocations(handlers []facts.ErrorHandler, limit int) []facts.Location {
	var locs []facts.Location
	for _, h := range handlers {
		if len(locs) == limit {
			break
		}
		locs = append(locs, facts.Location{File: h.File, Line: h.Line})
	}
	return locs
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
